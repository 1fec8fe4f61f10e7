package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

const (
	MaxQuickButtons      = 6
	MaxQuickButtonLength = 50
)

// SettingsStore persists per-user preferences.
type SettingsStore interface {
	SetCurrency(ctx context.Context, userID int64, currency string) error
	QuickButtons(ctx context.Context, userID int64) ([]string, error)
	SetQuickButtons(ctx context.Context, userID int64, buttons []string) error
}

// SettingsService changes the display currency and the quick-entry
// buttons of a user.
type SettingsService struct {
	store     SettingsStore
	publisher Publisher
	stats     cache.Cache[core.Stats]
}

// NewSettingsService wires the service. publisher and stats may be nil;
// stats must be the cache the TransactionService reads from.
func NewSettingsService(store SettingsStore, publisher Publisher, stats cache.Cache[core.Stats]) *SettingsService {
	return &SettingsService{store: store, publisher: publisher, stats: stats}
}

// SetCurrency stores the user's currency and returns its canonical form.
// Cached stats carry the old currency and are dropped.
func (s *SettingsService) SetCurrency(ctx context.Context, userID int64, currency string) (string, error) {
	canonical, err := core.ParseCurrency(currency)
	if err != nil {
		return "", inputError("Invalid currency. Allowed: %s", strings.Join(core.AllowedCurrencies, ", "))
	}
	if err := s.store.SetCurrency(ctx, userID, canonical); err != nil {
		return "", fmt.Errorf("set currency: %w", err)
	}
	if s.stats != nil {
		s.stats.DeletePrefix(statsPrefix(userID))
	}
	publishEvent(ctx, s.publisher, amqp.EventCurrencyChanged, userID, 0)

	slog.InfoContext(ctx, "Currency changed",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldUserID, userID,
		"currency", canonical)
	return canonical, nil
}

// QuickButtons returns the user's buttons; never nil.
func (s *SettingsService) QuickButtons(ctx context.Context, userID int64) ([]string, error) {
	buttons, err := s.store.QuickButtons(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load quick buttons: %w", err)
	}
	if buttons == nil {
		buttons = []string{}
	}
	return buttons, nil
}

// SaveQuickButtons replaces the user's buttons. At most MaxQuickButtons
// are kept, each at most MaxQuickButtonLength characters.
func (s *SettingsService) SaveQuickButtons(ctx context.Context, userID int64, buttons []string) ([]string, error) {
	if err := validateQuickButtons(buttons); err != nil {
		return nil, err
	}
	if buttons == nil {
		buttons = []string{}
	}
	if err := s.store.SetQuickButtons(ctx, userID, buttons); err != nil {
		return nil, fmt.Errorf("save quick buttons: %w", err)
	}
	slog.InfoContext(ctx, "Quick buttons saved",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldUserID, userID,
		applog.FieldRows, len(buttons))
	return buttons, nil
}

func validateQuickButtons(buttons []string) error {
	if len(buttons) > MaxQuickButtons {
		return inputError("Maximum %d buttons allowed", MaxQuickButtons)
	}
	for _, b := range buttons {
		if len([]rune(b)) > MaxQuickButtonLength {
			return inputError("Button text too long (max %d chars)", MaxQuickButtonLength)
		}
	}
	return nil
}
