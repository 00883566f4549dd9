package amqp

import (
	"encoding/json"
	"time"
)

const (
	EventExpenseCreated = "expense.created"
	EventExpenseDeleted = "expense.deleted"
)

// ExpenseEventMessage is the lightweight event published on expense writes.
// It carries only identifiers; consumers fetch the full expense from the
// database when they need it.
type ExpenseEventMessage struct {
	Kind        string    `json:"kind"`
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseEventMessage(kind, id, workspaceID string) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		Kind:        kind,
		ID:          id,
		WorkspaceID: workspaceID,
		Timestamp:   time.Now().UTC(),
	}
}

func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
