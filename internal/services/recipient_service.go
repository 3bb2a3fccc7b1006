package services

import (
	"context"
	"fmt"

	"faktura/internal/core"
	"faktura/internal/storage"
)

type RecipientService struct {
	store storage.RecipientStore
}

func NewRecipientService(store storage.RecipientStore) *RecipientService {
	return &RecipientService{store: store}
}

func (s *RecipientService) List(ctx context.Context) ([]core.Recipient, error) {
	return s.store.ListRecipients(ctx)
}

func (s *RecipientService) Create(ctx context.Context, r core.Recipient) (core.Recipient, error) {
	r = r.Normalize()
	if err := r.Validate(); err != nil {
		return core.Recipient{}, err
	}
	created, err := s.store.CreateRecipient(ctx, r)
	if err != nil {
		return core.Recipient{}, fmt.Errorf("save recipient: %w", err)
	}
	return created, nil
}

// Delete refuses to remove recipients that still have invoices.
func (s *RecipientService) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.GetRecipient(ctx, id); err != nil {
		return err
	}
	n, err := s.store.CountInvoicesForRecipient(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("recipient %d has %d invoices: %w", id, n, core.ErrRecipientInUse)
	}
	return s.store.DeleteRecipient(ctx, id)
}
