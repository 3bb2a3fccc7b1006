// Package services holds the application use cases. Services validate input,
// persist through the storage ports and announce ledger changes.
package services

import (
	"context"

	"faktura/internal/amqp"
	"faktura/internal/log"
)

// LedgerPublisher announces that a forecast input changed.
type LedgerPublisher interface {
	PublishLedgerChanged(ctx context.Context, entity string, id int64, op string) error
}

var changeOps = map[string]string{
	amqp.OpCreated: log.OpCreate,
	amqp.OpUpdated: log.OpUpdate,
	amqp.OpDeleted: log.OpDelete,
}

// publishChange logs a stored change under component and announces it. The
// publish is best effort: the change is already stored, so a failure is
// logged and swallowed.
func publishChange(ctx context.Context, p LedgerPublisher, component, entity string, id int64, op string) {
	logger := log.FromContext(ctx)
	logger.WithComponent(component).InfoContext(ctx, "Ledger entry changed",
		log.NewFields().WithOperation(changeOps[op]).WithEntity(entity, id).ToSlice()...)

	if p == nil {
		logger.WithComponent(log.ComponentAMQP).DebugContext(ctx, "No ledger publisher configured, skipping event",
			log.NewFields().WithOperation(log.OpPublish).WithEntity(entity, id).ToSlice()...)
		return
	}
	if err := p.PublishLedgerChanged(ctx, entity, id, op); err != nil {
		fields := log.NewFields().
			WithOperation(log.OpPublish).
			WithEntity(entity, id).
			WithError(err, log.ErrorTypeInternal)
		logger.WithComponent(log.ComponentAMQP).ErrorContext(ctx, "Failed to publish ledger change",
			append(fields.ToSlice(), "change", op)...)
	}
}
