package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"faktura/internal/amqp"
	"faktura/internal/core"
	"faktura/internal/log"
	"faktura/internal/storage"
)

// ExpenseService manages recurring and one-off expenses.
type ExpenseService struct {
	recurring storage.RecurringExpenseStore
	oneOff    storage.OneOffExpenseStore
	publisher LedgerPublisher
	now       func() time.Time
}

func NewExpenseService(recurring storage.RecurringExpenseStore, oneOff storage.OneOffExpenseStore, publisher LedgerPublisher) *ExpenseService {
	return &ExpenseService{
		recurring: recurring,
		oneOff:    oneOff,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *ExpenseService) ListRecurring(ctx context.Context) ([]core.RecurringExpense, error) {
	return s.recurring.ListRecurringExpenses(ctx)
}

// CreateRecurring stores a new active recurring expense. Its first occurrence
// is this month's due date, or next month's when that date already passed.
func (s *ExpenseService) CreateRecurring(ctx context.Context, name string, amount decimal.Decimal, dayOfMonth int) (core.RecurringExpense, error) {
	first, err := core.FirstOccurrence(dayOfMonth, s.now())
	if err != nil {
		return core.RecurringExpense{}, err
	}

	e := core.RecurringExpense{
		Name:            strings.TrimSpace(name),
		Amount:          amount,
		DayOfMonth:      dayOfMonth,
		FirstOccurrence: first,
		Active:          true,
	}
	if err := e.Validate(); err != nil {
		return core.RecurringExpense{}, err
	}

	created, err := s.recurring.CreateRecurringExpense(ctx, e)
	if err != nil {
		return core.RecurringExpense{}, fmt.Errorf("save recurring expense: %w", err)
	}

	publishChange(ctx, s.publisher, log.ComponentExpense, amqp.EntityRecurringExpense, created.ID, amqp.OpCreated)
	return created, nil
}

// UpdateRecurring applies a partial update. FirstOccurrence is only changed
// when the patch sets it explicitly.
func (s *ExpenseService) UpdateRecurring(ctx context.Context, id int64, patch core.RecurringExpensePatch) (core.RecurringExpense, error) {
	current, err := s.recurring.GetRecurringExpense(ctx, id)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := patch.Apply(current)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	if err := s.recurring.UpdateRecurringExpense(ctx, updated); err != nil {
		return core.RecurringExpense{}, fmt.Errorf("update recurring expense: %w", err)
	}

	publishChange(ctx, s.publisher, log.ComponentExpense, amqp.EntityRecurringExpense, id, amqp.OpUpdated)
	return updated, nil
}

func (s *ExpenseService) DeleteRecurring(ctx context.Context, id int64) error {
	if err := s.recurring.DeleteRecurringExpense(ctx, id); err != nil {
		return err
	}
	publishChange(ctx, s.publisher, log.ComponentExpense, amqp.EntityRecurringExpense, id, amqp.OpDeleted)
	return nil
}

func (s *ExpenseService) ListOneOff(ctx context.Context) ([]core.OneOffExpense, error) {
	return s.oneOff.ListOneOffExpenses(ctx)
}

func (s *ExpenseService) CreateOneOff(ctx context.Context, name string, amount decimal.Decimal, date time.Time) (core.OneOffExpense, error) {
	e := core.OneOffExpense{
		Name:   strings.TrimSpace(name),
		Amount: amount,
		Active: true,
	}
	if !date.IsZero() {
		e.Date = core.NormalizeDate(date)
	}
	if err := e.Validate(); err != nil {
		return core.OneOffExpense{}, err
	}

	created, err := s.oneOff.CreateOneOffExpense(ctx, e)
	if err != nil {
		return core.OneOffExpense{}, fmt.Errorf("save one-off expense: %w", err)
	}

	publishChange(ctx, s.publisher, log.ComponentExpense, amqp.EntityOneOffExpense, created.ID, amqp.OpCreated)
	return created, nil
}

func (s *ExpenseService) UpdateOneOff(ctx context.Context, id int64, patch core.OneOffExpensePatch) (core.OneOffExpense, error) {
	current, err := s.oneOff.GetOneOffExpense(ctx, id)
	if err != nil {
		return core.OneOffExpense{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	updated, err := patch.Apply(current)
	if err != nil {
		return core.OneOffExpense{}, err
	}
	if err := s.oneOff.UpdateOneOffExpense(ctx, updated); err != nil {
		return core.OneOffExpense{}, fmt.Errorf("update one-off expense: %w", err)
	}

	publishChange(ctx, s.publisher, log.ComponentExpense, amqp.EntityOneOffExpense, id, amqp.OpUpdated)
	return updated, nil
}

func (s *ExpenseService) DeleteOneOff(ctx context.Context, id int64) error {
	if err := s.oneOff.DeleteOneOffExpense(ctx, id); err != nil {
		return err
	}
	publishChange(ctx, s.publisher, log.ComponentExpense, amqp.EntityOneOffExpense, id, amqp.OpDeleted)
	return nil
}
