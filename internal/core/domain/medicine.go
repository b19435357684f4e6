// internal/core/domain/medicine.go
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SortOption controls the server-side ordering of medicine batches.
type SortOption string

// Sort option constants
const (
	SortNone  SortOption = "none"
	SortName  SortOption = "name"
	SortStock SortOption = "stock"
)

// PrefixSentinel closes the half-open range used for case-insensitive
// prefix search: [prefix, prefix+PrefixSentinel).
const PrefixSentinel = "\uf8ff"

// Medicine represents a single tracked medicine.
// ID is empty until the record has been persisted by the store gateway.
type Medicine struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	NameLC string `json:"name_lc"`
	Stock  int    `json:"stock"`
	Aisle  string `json:"aisle"`
}

// NewMedicine returns an empty placeholder used by "new medicine" flows.
func NewMedicine() Medicine {
	return Medicine{}
}

// IsPersisted reports whether the medicine has a store-assigned identifier.
func (m *Medicine) IsPersisted() bool {
	return m.ID != ""
}

// Equal compares two medicines by identifier, name, stock and aisle.
// The derived NameLC field is excluded on purpose.
func (m Medicine) Equal(other Medicine) bool {
	return m.ID == other.ID &&
		m.Name == other.Name &&
		m.Stock == other.Stock &&
		m.Aisle == other.Aisle
}

// Validate performs domain validation on the medicine
func (m *Medicine) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if m.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	return nil
}

// PrepareForStorage assigns an identifier if absent and refreshes the
// derived lowercase name used for prefix search.
func (m *Medicine) PrepareForStorage() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.NameLC = strings.ToLower(m.Name)
}
