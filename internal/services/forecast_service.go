package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"faktura/internal/core"
	"faktura/internal/forecast"
	"faktura/internal/storage"
)

// Forecast is a generated projection with the balance it started from.
type Forecast struct {
	GeneratedAt     time.Time
	StartingBalance decimal.Decimal
	Entries         []forecast.Entry
}

// ForecastService loads a ledger snapshot and projects it.
type ForecastService struct {
	repo     storage.Repository
	settings *SettingsService
	horizon  int
	now      func() time.Time
}

func NewForecastService(repo storage.Repository, settings *SettingsService, defaultHorizon int) *ForecastService {
	if defaultHorizon <= 0 {
		defaultHorizon = forecast.DefaultHorizon
	}
	return &ForecastService{
		repo:     repo,
		settings: settings,
		horizon:  defaultHorizon,
		now:      time.Now,
	}
}

// DefaultHorizon is used by callers that do not pass an explicit horizon.
func (s *ForecastService) DefaultHorizon() int {
	return s.horizon
}

// Generate projects horizon months from now. The inputs are read
// concurrently; the projection itself is pure.
func (s *ForecastService) Generate(ctx context.Context, horizon int) (Forecast, error) {
	var (
		settings core.Settings
		in       forecast.Inputs
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.settings.Get(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		in.Recurring, err = s.repo.ListRecurringExpenses(gctx)
		if err != nil {
			return fmt.Errorf("load recurring expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		in.OneOff, err = s.repo.ListOneOffExpenses(gctx)
		if err != nil {
			return fmt.Errorf("load one-off expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		in.Invoices, err = s.repo.ListInvoices(gctx, storage.InvoiceFilter{
			Statuses: []core.InvoiceStatus{core.StatusPaid, core.StatusSent},
		})
		if err != nil {
			return fmt.Errorf("load invoices: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Forecast{}, err
	}

	now := s.now()
	return Forecast{
		GeneratedAt:     now,
		StartingBalance: settings.StartingBalance,
		Entries:         forecast.Generate(settings.StartingBalance, horizon, now, in),
	}, nil
}

// Summary folds the forecast into its totals and lowest point.
func (f Forecast) Summary() forecast.Summary {
	return forecast.Summarize(f.StartingBalance, f.Entries)
}

// BelowThreshold returns the entries whose balance is under threshold.
func (f Forecast) BelowThreshold(threshold decimal.Decimal) []forecast.Entry {
	var out []forecast.Entry
	for _, e := range f.Entries {
		if e.Balance.LessThan(threshold) {
			out = append(out, e)
		}
	}
	return out
}
