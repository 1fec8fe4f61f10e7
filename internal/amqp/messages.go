package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event names carried by TransactionEvent.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionDeleted = "transaction.deleted"
	// EventCurrencyChanged carries no transaction id; the mirror rewrites
	// the history under the new currency.
	EventCurrencyChanged = "settings.currency_changed"
)

// TransactionEvent announces a change to a user's history. Consumers
// reload the history from the database rather than trusting the payload.
type TransactionEvent struct {
	Event         string    `json:"event"`
	UserID        int64     `json:"user_id"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(event string, userID, transactionID int64) *TransactionEvent {
	return &TransactionEvent{
		Event:         event,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and validates an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Event {
	case EventTransactionCreated, EventTransactionDeleted, EventCurrencyChanged:
	default:
		return nil, fmt.Errorf("unknown event %q", msg.Event)
	}
	if msg.UserID <= 0 {
		return nil, fmt.Errorf("event without user id")
	}
	return &msg, nil
}
