package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Entities whose changes are announced on the ledger queue.
const (
	EntityRecurringExpense = "recurring_expense"
	EntityOneOffExpense    = "one_off_expense"
	EntityInvoice          = "invoice"
	EntitySettings         = "settings"
)

// Operations carried by a LedgerChangedMessage.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// LedgerChangedMessage announces that a forecast input changed. It carries
// only the entity and its ID; consumers re-read whatever they need.
type LedgerChangedMessage struct {
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(entity string, id int64, op string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Entity:    entity,
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *LedgerChangedMessage) Validate() error {
	if m.Entity == "" {
		return errors.New("ledger message: missing entity")
	}
	switch m.Op {
	case OpCreated, OpUpdated, OpDeleted:
		return nil
	}
	return errors.New("ledger message: unknown op " + m.Op)
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and validates a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
