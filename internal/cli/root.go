// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cli implements the bridgefetch command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/z5labs/bridge/pkg/otelslog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
)

// Run executes bridgefetch with args. It stops early when an interrupt
// is received.
func Run(args ...string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	return Execute(ctx, os.Stdout, os.Stderr, args...)
}

// Execute runs bridgefetch with args, writing responses to stdout and
// logs to stderr.
func Execute(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bridgefetch",
		Short: "Fetch URLs through a callback driven HTTP transport",
		Long: `bridgefetch - fetch URLs through a callback driven HTTP transport

Every response is assembled from independently delivered metadata and
body streams, then printed along with its resolved protocol, length,
media type and caching directives.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "YAML config file")
	cmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newGetCmd(viper.New()))
	cmd.AddCommand(newConfigCmd(viper.New()))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bridgefetch %s (commit: %s)\n", version, commit)
		},
	}
}

// loggers returns the zap process logger and the slog.Handler library
// packages log to, both writing JSON to w at the given level.
func loggers(w io.Writer, level string) (*zap.Logger, slog.Handler, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		lvl,
	)
	logger := zap.New(core).Named("bridgefetch")

	h := otelslog.NewHandler(
		slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slogLevel(lvl.Level()),
		}),
		otelslog.SpanEvents(slog.LevelWarn),
	)
	return logger, h, nil
}

func slogLevel(lvl zapcore.Level) slog.Level {
	switch {
	case lvl <= zapcore.DebugLevel:
		return slog.LevelDebug
	case lvl == zapcore.InfoLevel:
		return slog.LevelInfo
	case lvl == zapcore.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
