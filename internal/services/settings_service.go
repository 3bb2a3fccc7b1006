package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"faktura/internal/amqp"
	"faktura/internal/core"
	"faktura/internal/log"
	"faktura/internal/storage"
)

// SettingsService owns the singleton business profile.
type SettingsService struct {
	store     storage.SettingsStore
	publisher LedgerPublisher
}

func NewSettingsService(store storage.SettingsStore, publisher LedgerPublisher) *SettingsService {
	return &SettingsService{store: store, publisher: publisher}
}

// Get returns the stored settings, creating the default row on first use.
func (s *SettingsService) Get(ctx context.Context) (core.Settings, error) {
	settings, err := s.store.GetSettings(ctx)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	settings = core.DefaultSettings()
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return core.Settings{}, fmt.Errorf("create default settings: %w", err)
	}
	return settings, nil
}

// Update replaces the settings after validation. A blank prefix falls back to
// the default one.
func (s *SettingsService) Update(ctx context.Context, settings core.Settings) (core.Settings, error) {
	settings.InvoicePrefix = strings.TrimSpace(settings.InvoicePrefix)
	if settings.InvoicePrefix == "" {
		settings.InvoicePrefix = core.DefaultInvoicePrefix
	}
	settings.Country = strings.ToUpper(strings.TrimSpace(settings.Country))
	if err := settings.Validate(); err != nil {
		return core.Settings{}, err
	}

	current, err := s.Get(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	if !current.StartingBalance.Equal(settings.StartingBalance) {
		publishChange(ctx, s.publisher, log.ComponentSettings, amqp.EntitySettings, core.SettingsID, amqp.OpUpdated)
	}
	return settings, nil
}

// UpdateStartingBalance changes only the forecast seed. Negative balances are
// allowed.
func (s *SettingsService) UpdateStartingBalance(ctx context.Context, balance decimal.Decimal) (core.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	settings.StartingBalance = core.RoundMoney(balance)
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return core.Settings{}, fmt.Errorf("save starting balance: %w", err)
	}

	publishChange(ctx, s.publisher, log.ComponentSettings, amqp.EntitySettings, core.SettingsID, amqp.OpUpdated)
	return settings, nil
}
