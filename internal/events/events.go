package events

import (
	"context"
	"encoding/json"
	"time"

	"expense_tribute/internal/model"

	"github.com/shopspring/decimal"
)

// Event types emitted after a successful expense mutation.
const (
	TypeExpenseCreated = "expense.created"
	TypeExpenseUpdated = "expense.updated"
	TypeExpenseDeleted = "expense.deleted"
)

// Event is the message body published for every expense mutation
type Event struct {
	Type       string          `json:"type"`
	ExpenseID  string          `json:"expenseId"`
	UserID     string          `json:"userId"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewExpenseEvent builds an event of the given type for e.
func NewExpenseEvent(eventType string, e *model.Expense) Event {
	return Event{
		Type:       eventType,
		ExpenseID:  e.ID,
		UserID:     e.UserID,
		Amount:     e.Amount,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher hands events to a broker. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
