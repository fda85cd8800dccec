package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pocketspend/internal/core"
)

// ActivityKind names what happened to an expense.
type ActivityKind string

const (
	KindExpenseCreated ActivityKind = "expense.created"
	KindExpenseDeleted ActivityKind = "expense.deleted"
)

func (k ActivityKind) IsValid() bool {
	return k == KindExpenseCreated || k == KindExpenseDeleted
}

// ActivityMessage announces an expense change. Created events carry the full
// record; deleted events only the id.
type ActivityMessage struct {
	Kind      ActivityKind  `json:"kind"`
	ExpenseID string        `json:"expense_id"`
	Expense   *core.Expense `json:"expense,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewExpenseCreatedMessage(e core.Expense) *ActivityMessage {
	return &ActivityMessage{
		Kind:      KindExpenseCreated,
		ExpenseID: e.ID,
		Expense:   &e,
		Timestamp: time.Now().UTC(),
	}
}

func NewExpenseDeletedMessage(id string) *ActivityMessage {
	return &ActivityMessage{
		Kind:      KindExpenseDeleted,
		ExpenseID: id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects messages a consumer cannot act on.
func (m *ActivityMessage) Validate() error {
	if !m.Kind.IsValid() {
		return fmt.Errorf("unknown activity kind %q", m.Kind)
	}
	if m.ExpenseID == "" {
		return errors.New("missing expense id")
	}
	if m.Kind == KindExpenseCreated && m.Expense == nil {
		return errors.New("created event without expense")
	}
	return nil
}

// ActivityMessageFromJSON parses and validates a message.
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
