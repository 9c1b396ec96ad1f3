package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	TableFamilies         = "families"
	TableFinancialRecords = "financial_records"
)

const (
	ChangeInsert = "insert"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
)

// ChangeEvent announces a committed write to one remote row. Consumers
// re-read the data they need instead of trusting a payload.
type ChangeEvent struct {
	Table     string    `json:"table"`
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeEvent(table, op, id string) *ChangeEvent {
	return &ChangeEvent{
		Table:     table,
		Op:        op,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var msg ChangeEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Table == "" || msg.Op == "" {
		return nil, fmt.Errorf("incomplete change event: table=%q op=%q", msg.Table, msg.Op)
	}
	return &msg, nil
}
