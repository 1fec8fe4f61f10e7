package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"

	"ledger/internal/client"
	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	// The terminal is the UI, so logs go to LOG_FILE or nowhere.
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentTUI,
		Output:    out,
	})
	applog.SetDefault(logger)

	api, err := client.New(cfg.APIBaseURL, cfg.TGInitData)
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := tui.New(screen, tui.Config{
		Backend: api,
		Options: cfg.Swipe,
		Logger:  logger.Slog(),
	})
	return app.Run(ctx)
}
