// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/z5labs/bridge/config"
	"github.com/z5labs/bridge/internal/try"
	"github.com/z5labs/bridge/pkg/mediatype"
	"github.com/z5labs/bridge/pkg/otelconfig"
	"github.com/z5labs/bridge/pkg/redirect"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is everything bridgefetch can be configured with.
type Config struct {
	Client ClientConfig `config:"client"`

	Output struct {
		IncludeHeaders bool `config:"includeHeaders"`
	} `config:"output"`

	Log struct {
		Level string `config:"level"`
	} `config:"log"`

	OTel otelconfig.Config `config:"otel"`
}

// ClientConfig configures the http.Client requests are sent with.
type ClientConfig struct {
	Timeout      time.Duration `config:"timeout"`
	NoRedirects  bool          `config:"noRedirects"`
	MaxRedirects int           `config:"maxRedirects"`
	Proxy        string        `config:"proxy"`
	RateLimit    float64       `config:"rateLimit"`
	Burst        int           `config:"burst"`
	TripAfter    uint32        `config:"tripAfter"`
	Concurrency  int           `config:"concurrency"`

	// Accept is sent as the Accept header unless Headers set one.
	Accept mediatype.MediaType `config:"accept"`

	// Headers are sent with every request, formatted as "Name: value".
	Headers []string `config:"headers"`
}

// RedirectStrategy is the redirect.Strategy the client config selects.
func (c ClientConfig) RedirectStrategy() redirect.Strategy {
	if c.NoRedirects {
		return redirect.Never()
	}
	return redirect.WithMaxRedirects(c.MaxRedirects)
}

func defaultConfig() config.Map {
	return config.Map{
		"client": map[string]any{
			"timeout":      "30s",
			"maxRedirects": redirect.DefaultMaxRedirects,
			"burst":        1,
			"concurrency":  4,
		},
		"log": map[string]any{
			"level": "warn",
		},
		"otel": map[string]any{
			"serviceName": "bridgefetch",
			"exporter":    string(otelconfig.ExporterNone),
		},
	}
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"log-level":       "log.level",
	"timeout":         "client.timeout",
	"no-redirects":    "client.noRedirects",
	"max-redirects":   "client.maxRedirects",
	"proxy":           "client.proxy",
	"rate-limit":      "client.rateLimit",
	"burst":           "client.burst",
	"trip-after":      "client.tripAfter",
	"concurrency":     "client.concurrency",
	"header":          "client.headers",
	"accept":          "client.accept",
	"include-headers": "output.includeHeaders",
	"trace":           "otel.exporter",
	"otlp-target":     "otel.otlp.target",
	"gcp-project":     "otel.gcp.projectId",
}

// flagSource binds the flags set on the command line, and only those,
// so unset flags never override the config file.
func flagSource(v *viper.Viper, flags *pflag.FlagSet) (config.Source, error) {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		k, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		err = errors.Join(err, v.BindPFlag(k, f))
	})
	if err != nil {
		return nil, err
	}
	return config.Map(v.AllSettings()), nil
}

func readConfig(v *viper.Viper, flags *pflag.FlagSet, path string) (Config, error) {
	m, err := readManager(v, flags, path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	err = m.Unmarshal(&cfg)
	return cfg, err
}

func readManager(v *viper.Viper, flags *pflag.FlagSet, path string) (*config.Manager, error) {
	srcs := []config.Source{defaultConfig()}
	if path != "" {
		srcs = append(srcs, config.FromFile(path))
	}
	srcs = append(srcs, config.FromEnv("BRIDGEFETCH_"))

	fs, err := flagSource(v, flags)
	if err != nil {
		return nil, err
	}
	srcs = append(srcs, fs)

	return config.Read(srcs...)
}

// UnknownKeyError is returned by the config command for a key which no
// source sets.
type UnknownKeyError struct {
	Key string
}

// Error implements the [builtin.error] interface.
func (e UnknownKeyError) Error() string {
	return fmt.Sprintf("config key is not set: %s", e.Key)
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config KEY",
		Short: "Print the value a config key resolves to",
		Long: `Print the value a "."-separated config key resolves to once the
defaults, the config file, BRIDGEFETCH_ environment variables and flags
have been merged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			m, err := readManager(v, cmd.Flags(), path)
			if err != nil {
				return err
			}

			val, ok := m.Lookup(args[0])
			if !ok {
				return UnknownKeyError{Key: args[0]}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), val)
			return err
		},
	}
}
