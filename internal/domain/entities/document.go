package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Items and reminders are stored as embedded JSONB documents on the task_lists row.

// Value implements driver.Valuer. A nil sequence is stored as an empty array.
func (items TaskItems) Value() (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal task items: %w", err)
	}
	// lib/pq sends []byte as bytea, which jsonb will not accept
	return string(b), nil
}

// Scan implements sql.Scanner
func (items *TaskItems) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*items = TaskItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan task items: unsupported type %T", src)
	}

	var out TaskItems
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan task items: %w", err)
	}
	if out == nil {
		out = TaskItems{}
	}
	*items = out
	return nil
}

// Value implements driver.Valuer
func (r Reminder) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal reminder: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (r *Reminder) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan reminder: unsupported type %T", src)
	}

	if err := json.Unmarshal(raw, r); err != nil {
		return fmt.Errorf("scan reminder: %w", err)
	}
	return nil
}
