// internal/core/domain/history.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryAction labels the mutation recorded by a history entry.
type HistoryAction string

// Action constants
const (
	ActionCreated   HistoryAction = "created"
	ActionIncreased HistoryAction = "increased"
	ActionDecreased HistoryAction = "decreased"
	ActionUpdated   HistoryAction = "updated"
)

// HistoryEntry is an immutable audit record of one mutation against a
// medicine. Entries are only ever created as a side effect of a medicine
// mutation and only deleted as a cascade of the parent medicine's deletion.
type HistoryEntry struct {
	ID         string        `json:"id"`
	MedicineID string        `json:"medicine_id"`
	UserID     string        `json:"user_id"`
	Action     HistoryAction `json:"action"`
	Details    string        `json:"details"`
	CreatedAt  time.Time     `json:"created_at"`
}

// NewHistoryEntry builds an entry with a client-generated identifier and the
// current timestamp. The gateway keeps the id as-is, which doubles as the
// fallback identity when remote persistence fails.
func NewHistoryEntry(action HistoryAction, userID, medicineID, details string) HistoryEntry {
	return HistoryEntry{
		ID:         uuid.NewString(),
		MedicineID: medicineID,
		UserID:     userID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now(),
	}
}
