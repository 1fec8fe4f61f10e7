package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
	"ledger/internal/telegram"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentReminder,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)

	logger.Info("Starting ledger-reminders")

	if err := cfg.ValidateReminders(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	bot, err := telegram.NewBot(cfg.TelegramAPIURL, cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to initialize Telegram bot", applog.FieldError, err)
		os.Exit(1)
	}

	processor := services.NewReminderProcessor(repo, bot, cfg.ReminderLeadDays)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Subscription reminders configured",
		"interval", cfg.ReminderInterval,
		"lead_days", cfg.ReminderLeadDays,
		"sqlite_db", cfg.SQLiteDBPath)

	run := func(now time.Time) {
		report, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Reminder run failed", applog.FieldError, err, applog.FieldOperation, applog.OpRemind)
			return
		}
		logger.Info("Reminder run complete",
			applog.FieldOperation, applog.OpRemind,
			"target_date", report.TargetDate.String(),
			"processed", report.Processed,
			"notified", report.Notified,
			"errors", report.Errors,
			"next_check", now.Add(cfg.ReminderInterval).Format("15:04:05"))
	}

	run(time.Now())

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down ledger-reminders", applog.FieldOperation, applog.OpShutdown)
			return
		case now := <-ticker.C:
			run(now)
		}
	}
}
