package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/graf/internal/app"
	"github.com/vk/graf/internal/cli"
	"github.com/vk/graf/internal/config"
	"github.com/vk/graf/internal/hcl"
	"github.com/vk/graf/internal/yamlcfg"
)

// main is the entrypoint for the graf application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The real main function handles errors and exit codes.
	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	grafApp, err := app.NewApp(outW, appConfig, newLoader(appConfig))
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	return grafApp.Run(ctx)
}

func newLoader(cfg *app.Config) config.Loader {
	if cfg.Format == app.FormatYAML {
		return yamlcfg.NewLoader()
	}
	return hcl.NewLoader(hcl.WithBPM(cfg.BPM))
}
