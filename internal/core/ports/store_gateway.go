// internal/core/ports/store_gateway.go
package ports

import (
	"context"

	"github.com/medkitapp/medkit-be/internal/core/domain"
)

// MedicineQuery describes one paginated batch request against the medicines
// collection. Cursor is the opaque token returned by the previous batch, or
// empty for the first page.
type MedicineQuery struct {
	FilterText string
	Sort       domain.SortOption
	PageSize   int
	Cursor     string
}

// MedicineBatch is the result of one batch request. NextCursor is empty when
// the end of the list has been reached.
type MedicineBatch struct {
	Medicines  []domain.Medicine
	NextCursor string
}

// HistoryBatch is one page of a medicine's audit history, ordered by
// creation timestamp descending.
type HistoryBatch struct {
	Entries    []domain.HistoryEntry
	NextCursor string
}

// AisleUpdateFunc receives the distinct aisle names of the full medicines
// collection whenever it changes, or a non-nil error when the subscription
// itself failed.
type AisleUpdateFunc func(aisles []string, err error)

// StoreGateway is the persistence port for the remote document store.
// It spans the medicines, history and users collections.
type StoreGateway interface {
	FetchMedicineBatch(ctx context.Context, q MedicineQuery) (MedicineBatch, error)
	AddMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error)
	UpdateMedicine(ctx context.Context, m domain.Medicine) error
	UpdateStock(ctx context.Context, id string, newStock int) error
	DeleteMedicines(ctx context.Context, ids []string) ([]string, error)

	AddHistory(ctx context.Context, e domain.HistoryEntry) (domain.HistoryEntry, error)
	DeleteHistory(ctx context.Context, medicineIDs []string) error
	FetchHistoryBatch(ctx context.Context, medicineID string, pageSize int, cursor string) (HistoryBatch, error)

	SubscribeAisles(ctx context.Context, onUpdate AisleUpdateFunc) (Subscription, error)

	CreateUser(ctx context.Context, u domain.AppUser) error
	GetEmail(ctx context.Context, uid string) (string, error)
}
