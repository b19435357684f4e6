// internal/core/services/sync.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/core/ports"
	"github.com/medkitapp/medkit-be/internal/store"
)

// MedicineSyncEngine coordinates paginated retrieval of the medicine list and
// the delete / delete-with-history flows. It owns the list cursor and the
// active filter and sort; the shared store holds the loaded window.
type MedicineSyncEngine struct {
	gateway ports.StoreGateway
	store   *store.SharedStore
	logger  *slog.Logger

	mu     sync.Mutex
	cursor string
	filter string
	sort   domain.SortOption
	err    *domain.AppError
}

// NewMedicineSyncEngine creates a new sync engine.
func NewMedicineSyncEngine(gateway ports.StoreGateway, st *store.SharedStore, logger *slog.Logger) *MedicineSyncEngine {
	return &MedicineSyncEngine{
		gateway: gateway,
		store:   st,
		logger:  logger.With(slog.String("service", "medicine_sync")),
		sort:    domain.SortNone,
	}
}

// Err returns the last recorded error, or nil after a successful operation.
func (e *MedicineSyncEngine) Err() *domain.AppError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *MedicineSyncEngine) setErr(err *domain.AppError) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

// FetchNextBatch loads up to pageSize medicines from the remote store,
// continuing from the stored cursor for the current filter/sort combination.
// Changing filterText or sort resets the cursor and clears the loaded window
// before the fetch, so stale pages from a different filter are never visible.
// Newly returned medicines are merged into the store idempotently by
// identifier; a short or empty page clears the cursor, signaling end-of-list.
func (e *MedicineSyncEngine) FetchNextBatch(ctx context.Context, pageSize int, filterText string, sort domain.SortOption) error {
	filterText = strings.ToLower(strings.TrimSpace(filterText))

	e.mu.Lock()
	if filterText != e.filter || sort != e.sort {
		e.filter = filterText
		e.sort = sort
		e.cursor = ""
		e.store.ResetMedicines()
	}
	cursor := e.cursor
	e.mu.Unlock()

	batch, err := e.gateway.FetchMedicineBatch(ctx, ports.MedicineQuery{
		FilterText: filterText,
		Sort:       sort,
		PageSize:   pageSize,
		Cursor:     cursor,
	})
	if err != nil {
		appErr := domain.ClassifyStoreError(err)
		e.setErr(appErr)
		e.logger.ErrorContext(ctx, "failed to fetch medicine batch",
			slog.String("filter", filterText),
			slog.String("sort", string(sort)),
			slog.String("error", err.Error()))
		return appErr
	}

	e.mu.Lock()
	if e.filter != filterText || e.sort != sort {
		// The filter or sort changed while the request was in flight; the
		// response belongs to a window that no longer exists.
		e.mu.Unlock()
		return nil
	}
	// The cursor advances only from the response matching the cursor value
	// used in the request. Duplicate in-flight fetches merge idempotently
	// but do not advance the list twice.
	if e.cursor == cursor {
		if len(batch.Medicines) < pageSize {
			e.cursor = ""
		} else {
			e.cursor = batch.NextCursor
		}
	}
	e.err = nil
	// Merge while still holding the engine lock: a concurrent fetch with a
	// different filter must not reset the window between the check above and
	// this merge. The store never calls back into the engine, so taking its
	// lock here cannot deadlock.
	added := e.store.MergeMedicines(batch.Medicines)
	e.mu.Unlock()
	e.logger.DebugContext(ctx, "merged medicine batch",
		slog.Int("fetched", len(batch.Medicines)),
		slog.Int("added", added))
	return nil
}

// DeleteMedicines resolves the indices against the current in-memory ordering,
// removes the corresponding entries from the store immediately, then issues
// the remote batched delete followed by the history cascade. The optimistic
// local removal is permanent even when the remote delete fails; only the
// history cascade carries a rollback.
func (e *MedicineSyncEngine) DeleteMedicines(ctx context.Context, indices []int) ([]string, error) {
	ids := e.store.IDsAt(indices)
	if len(ids) == 0 {
		return nil, nil
	}

	e.store.RemoveMedicines(ids)

	deleted, err := e.gateway.DeleteMedicines(ctx, ids)
	if err != nil {
		appErr := domain.ClassifyStoreError(err)
		e.setErr(appErr)
		e.logger.ErrorContext(ctx, "remote medicine delete failed",
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()))
		return nil, appErr
	}

	if err := e.DeleteHistory(ctx, deleted); err != nil {
		// Medicines stay deleted; the history error is already recorded.
		return deleted, fmt.Errorf("history cascade failed: %w", err)
	}

	e.setErr(nil)
	e.logger.InfoContext(ctx, "deleted medicines",
		slog.Int("count", len(deleted)))
	return deleted, nil
}

// DeleteHistory removes all history rows belonging to the given medicines,
// remotely first and then from the store. When the remote delete fails, any
// rows that were loaded locally before the attempt are restored and the error
// is returned to the caller. The remote state may then diverge from local
// state; the cleanup worker reconciles orphaned rows later.
func (e *MedicineSyncEngine) DeleteHistory(ctx context.Context, medicineIDs []string) error {
	if len(medicineIDs) == 0 {
		return nil
	}

	snapshot := e.store.RemoveHistoryFor(medicineIDs)

	if err := e.gateway.DeleteHistory(ctx, medicineIDs); err != nil {
		e.store.MergeHistory(snapshot)
		appErr := domain.ClassifyStoreError(err)
		e.setErr(appErr)
		e.logger.ErrorContext(ctx, "remote history delete failed, restored local rows",
			slog.Int("medicines", len(medicineIDs)),
			slog.Int("restored", len(snapshot)),
			slog.String("error", err.Error()))
		return appErr
	}

	e.setErr(nil)
	return nil
}
