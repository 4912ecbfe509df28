// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/z5labs/bridge"
	"github.com/z5labs/bridge/http/httpclient"
	"github.com/z5labs/bridge/http/httptransport"
	"github.com/z5labs/bridge/internal/fixedpool"
	"github.com/z5labs/bridge/internal/try"
	"github.com/z5labs/bridge/pkg/cachecontrol"
	"github.com/z5labs/bridge/pkg/header"
	"github.com/z5labs/bridge/pkg/otelconfig"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// InvalidHeaderError is returned for a --header value which is not
// formatted as "Name: value".
type InvalidHeaderError struct {
	Value string
}

// Error implements the [builtin.error] interface.
func (e InvalidHeaderError) Error() string {
	return fmt.Sprintf("invalid header, expected \"Name: value\": %q", e.Value)
}

func newGetCmd(v *viper.Viper) *cobra.Command {
	var cfg Config

	cmd := &cobra.Command{
		Use:   "get URL...",
		Short: "Fetch URLs and print the assembled responses",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err = readConfig(v, cmd.Flags(), path)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer try.Recover(&err)

			return get(cmd, args, cfg)
		},
	}

	flags := cmd.Flags()
	flags.Duration("timeout", 30*time.Second, "Overall request timeout")
	flags.Bool("no-redirects", false, "Do not follow redirects")
	flags.Int("max-redirects", 16, "Maximum number of redirects to follow")
	flags.String("proxy", "", "Proxy URL (e.g. http://proxy:3128)")
	flags.Float64("rate-limit", 0, "Maximum requests per second, 0 for unlimited")
	flags.Int("burst", 1, "Requests allowed to exceed the rate limit at once")
	flags.Int("concurrency", 4, "Maximum number of URLs fetched at once")
	flags.Uint32("trip-after", 0, "Open the circuit breaker after N consecutive failures, 0 to disable")
	flags.StringArrayP("header", "H", nil, "Extra request header (repeatable, e.g. -H 'Accept: text/html')")
	flags.String("accept", "", "Media type sent as the Accept header (e.g. text/html)")
	flags.BoolP("include-headers", "i", false, "Print every response header")
	flags.String("trace", "none", "Span exporter (none, stdout, otlp, gcp)")
	flags.String("otlp-target", "", "OTLP collector gRPC address")
	flags.String("gcp-project", "", "Google Cloud project spans are exported to")
	return cmd
}

func get(cmd *cobra.Command, urls []string, cfg Config) (err error) {
	ctx := cmd.Context()

	log, h, err := loggers(cmd.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	tp, err := tracerProvider(ctx, cmd.ErrOrStderr(), cfg.OTel)
	if err != nil {
		log.Error("failed to initialize tracing", zap.Error(err))
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := tp.Shutdown(sctx); serr != nil {
			log.Warn("failed to flush spans", zap.Error(serr))
		}
	}()

	client, err := newClient(cfg, h, tp)
	if err != nil {
		return err
	}

	outs := make([]bytes.Buffer, len(urls))
	tasks := make([]fixedpool.Task, len(urls))
	for i, rawURL := range urls {
		tasks[i] = func(ctx context.Context) error {
			return fetch(ctx, &outs[i], log, client, rawURL, cfg)
		}
	}
	ferr := fixedpool.Run(ctx, cfg.Client.Concurrency, tasks...)

	w := cmd.OutOrStdout()
	for i, rawURL := range urls {
		if len(urls) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "==> %s <==\n", rawURL)
		}
		_, err := outs[i].WriteTo(w)
		if err != nil {
			return errors.Join(ferr, err)
		}
	}
	return ferr
}

func fetch(ctx context.Context, w io.Writer, log *zap.Logger, client *http.Client, rawURL string, cfg Config) (err error) {
	req, err := newRequest(ctx, rawURL, cfg.Client)
	if err != nil {
		return err
	}

	log.Info("fetching", zap.String("url", req.URL.String()))
	resp, err := client.Do(req)
	if err != nil {
		log.Error("request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return err
	}
	defer try.Close(&err, resp.Body)

	log.Info(
		"response received",
		zap.String("url", req.URL.String()),
		zap.Int("status_code", resp.StatusCode),
		zap.String("proto", resp.Proto),
	)
	return printResponse(w, resp, cfg.Output.IncludeHeaders)
}

func tracerProvider(ctx context.Context, w io.Writer, cfg otelconfig.Config) (otelconfig.Provider, error) {
	initer, err := otelconfig.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if local, ok := initer.(otelconfig.LocalConfig); ok {
		local.Out = w
		initer = local
	}
	return initer.Init(ctx)
}

func newClient(cfg Config, h slog.Handler, tp otelconfig.Provider) (*http.Client, error) {
	transportOpts := []httptransport.Option{
		httptransport.RedirectStrategy(cfg.Client.RedirectStrategy()),
		httptransport.LogHandler(h),
	}
	if cfg.Client.Proxy != "" {
		u, err := url.Parse(cfg.Client.Proxy)
		if err != nil {
			return nil, err
		}
		transportOpts = append(transportOpts, httptransport.Proxy(u))
	}

	clientOpts := []httpclient.Option{
		httpclient.Name("bridgefetch"),
		httpclient.LogHandler(h),
		httpclient.Timeout(cfg.Client.Timeout),
		httpclient.TracerProvider(tp),
	}
	if cfg.Client.RateLimit > 0 {
		clientOpts = append(clientOpts, httpclient.RateLimit(rate.Limit(cfg.Client.RateLimit), cfg.Client.Burst))
	}
	if cfg.Client.TripAfter > 0 {
		clientOpts = append(clientOpts, httpclient.TripAfter(cfg.Client.TripAfter))
	}

	return httpclient.New(httptransport.New(transportOpts...), clientOpts...), nil
}

func newRequest(ctx context.Context, rawURL string, cfg ClientConfig) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	for _, raw := range cfg.Headers {
		name, value, ok := strings.Cut(raw, ":")
		f := header.Field{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}
		if !ok || f.Name == "" || !f.Valid() {
			return nil, InvalidHeaderError{Value: raw}
		}
		req.Header.Add(f.Name, f.Value)
	}
	if cfg.Accept.Type != "" && !header.FromHTTP(req.Header).Has("Accept") {
		req.Header.Set("Accept", cfg.Accept.String())
	}
	return req, nil
}

func printResponse(w io.Writer, resp *http.Response, includeHeaders bool) error {
	h := header.FromHTTP(resp.Header)

	fmt.Fprintf(w, "%s %s\n", resp.Proto, resp.Status)
	if resp.ContentLength == bridge.UnknownLength {
		fmt.Fprintln(w, "content-length: unknown")
	} else {
		fmt.Fprintf(w, "content-length: %d\n", resp.ContentLength)
	}
	if mt := bridge.ResolveContentType(h); mt != nil {
		fmt.Fprintf(w, "content-type: %s\n", mt)
	}
	if cc := cachecontrol.Parse(h.Values("Cache-Control")...).FromPragma(h.Values("Pragma")...); cc.String() != "" {
		fmt.Fprintf(w, "cache-control: %s\n", cc)
	}
	if includeHeaders {
		for _, f := range h.Fields() {
			fmt.Fprintf(w, "%s: %s\n", f.Name, f.Value)
		}
	}
	fmt.Fprintln(w)

	_, err := io.Copy(w, resp.Body)
	return err
}
