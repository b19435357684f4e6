// internal/core/services/mutation.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/core/ports"
	"github.com/medkitapp/medkit-be/internal/store"
)

// Email cache sentinels. A uid maps to exactly one cached value for the
// process lifetime; the first lookup wins, including failed ones.
const (
	EmailUnknown = "unknown"
	EmailNone    = "no email"
)

// MedicineMutationEngine performs single-record stock and detail mutations,
// appending an audit history entry for each, plus the per-medicine history
// pagination and the memoized email lookup.
//
// History appends follow one tolerant contract everywhere: when the remote
// write fails, a locally-constructed entry is returned (and the error slot
// set) so the UI keeps its continuity. "Medicine changed but history failed
// to record" is a tolerated end state.
type MedicineMutationEngine struct {
	gateway ports.StoreGateway
	store   *store.SharedStore
	logger  *slog.Logger

	mu             sync.Mutex
	historyCursors map[string]string
	emails         map[string]string
	err            *domain.AppError
}

// NewMedicineMutationEngine creates a new mutation engine.
func NewMedicineMutationEngine(gateway ports.StoreGateway, st *store.SharedStore, logger *slog.Logger) *MedicineMutationEngine {
	return &MedicineMutationEngine{
		gateway:        gateway,
		store:          st,
		logger:         logger.With(slog.String("service", "medicine_mutation")),
		historyCursors: make(map[string]string),
		emails:         make(map[string]string),
	}
}

// Err returns the last recorded error, or nil after a successful operation.
func (e *MedicineMutationEngine) Err() *domain.AppError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *MedicineMutationEngine) setErr(err *domain.AppError) {
	e.mu.Lock()
	e.err = err
	e.mu.Unlock()
}

// AddMedicine writes the record remotely, merges it into the store and
// appends a "created" history entry. On remote failure the passed-in
// medicine is returned without an identifier; callers detect the sentinel
// via IsPersisted.
func (e *MedicineMutationEngine) AddMedicine(ctx context.Context, m domain.Medicine, user domain.AppUser) domain.Medicine {
	m.PrepareForStorage()

	saved, err := e.gateway.AddMedicine(ctx, m)
	if err != nil {
		e.setErr(domain.ClassifyStoreError(err))
		e.logger.ErrorContext(ctx, "failed to add medicine",
			slog.String("name", m.Name),
			slog.String("error", err.Error()))
		m.ID = ""
		return m
	}

	e.setErr(nil)
	e.store.MergeMedicines([]domain.Medicine{saved})
	e.AddHistory(ctx, domain.ActionCreated, user, saved.ID,
		fmt.Sprintf("Created %q with stock %d in aisle %q", saved.Name, saved.Stock, saved.Aisle))

	e.logger.InfoContext(ctx, "added medicine",
		slog.String("id", saved.ID),
		slog.String("name", saved.Name))
	return saved
}

// IncreaseStock adjusts the stock by +1.
func (e *MedicineMutationEngine) IncreaseStock(ctx context.Context, m domain.Medicine, user domain.AppUser) int {
	return e.UpdateStock(ctx, m, 1, user)
}

// DecreaseStock adjusts the stock by -1.
func (e *MedicineMutationEngine) DecreaseStock(ctx context.Context, m domain.Medicine, user domain.AppUser) int {
	return e.UpdateStock(ctx, m, -1, user)
}

// UpdateStock applies delta to the medicine's current stock. The current
// value is resolved from the shared store when the medicine is loaded there,
// falling back to the passed-in value for medicines outside the visible
// window. Returns the new stock, or the unchanged current stock when the
// remote write fails (the operation is then a no-op for the caller), or 0
// when the medicine has never been persisted.
func (e *MedicineMutationEngine) UpdateStock(ctx context.Context, m domain.Medicine, delta int, user domain.AppUser) int {
	if !m.IsPersisted() {
		return 0
	}

	current := m.Stock
	if loaded, ok := e.store.MedicineByID(m.ID); ok {
		current = loaded.Stock
	}
	newStock := current + delta

	if err := e.gateway.UpdateStock(ctx, m.ID, newStock); err != nil {
		e.setErr(domain.ClassifyStoreError(err))
		e.logger.ErrorContext(ctx, "failed to update stock",
			slog.String("id", m.ID),
			slog.Int("delta", delta),
			slog.String("error", err.Error()))
		return current
	}

	e.setErr(nil)
	e.store.SetStock(m.ID, newStock)

	action := domain.ActionUpdated
	switch {
	case delta > 0:
		action = domain.ActionIncreased
	case delta < 0:
		action = domain.ActionDecreased
	}
	e.AddHistory(ctx, action, user, m.ID,
		fmt.Sprintf("Stock changed from %d to %d", current, newStock))

	return newStock
}

// UpdateMedicine writes the full record remotely and replaces the loaded
// entry. No-op for medicines without an identifier.
func (e *MedicineMutationEngine) UpdateMedicine(ctx context.Context, m domain.Medicine, user domain.AppUser, shouldAddHistory bool) error {
	if !m.IsPersisted() {
		return nil
	}
	m.PrepareForStorage()

	if err := e.gateway.UpdateMedicine(ctx, m); err != nil {
		appErr := domain.ClassifyStoreError(err)
		e.setErr(appErr)
		e.logger.ErrorContext(ctx, "failed to update medicine",
			slog.String("id", m.ID),
			slog.String("error", err.Error()))
		return appErr
	}

	e.setErr(nil)
	e.store.ReplaceMedicine(m)

	if shouldAddHistory {
		e.AddHistory(ctx, domain.ActionUpdated, user, m.ID,
			fmt.Sprintf("Updated %q: stock %d, aisle %q", m.Name, m.Stock, m.Aisle))
	}
	return nil
}

// AddHistory writes a history row remotely and appends it to the store. On
// remote failure the locally-constructed entry is returned unchanged and the
// error slot is set; the entry then exists only in this process.
func (e *MedicineMutationEngine) AddHistory(ctx context.Context, action domain.HistoryAction, user domain.AppUser, medicineID, details string) domain.HistoryEntry {
	entry := domain.NewHistoryEntry(action, user.ID, medicineID, details)

	saved, err := e.gateway.AddHistory(ctx, entry)
	if err != nil {
		e.setErr(domain.ClassifyStoreError(err))
		e.logger.WarnContext(ctx, "history append failed, keeping local entry",
			slog.String("medicine_id", medicineID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		e.store.AppendHistory(entry)
		return entry
	}

	e.store.AppendHistory(saved)
	return saved
}

// FetchNextHistoryBatch loads the next page of the medicine's audit history,
// ordered by timestamp descending, and merges it into the store. No-op for
// medicines without an identifier.
func (e *MedicineMutationEngine) FetchNextHistoryBatch(ctx context.Context, m domain.Medicine, pageSize int) error {
	if !m.IsPersisted() {
		return nil
	}

	e.mu.Lock()
	cursor := e.historyCursors[m.ID]
	e.mu.Unlock()

	batch, err := e.gateway.FetchHistoryBatch(ctx, m.ID, pageSize, cursor)
	if err != nil {
		appErr := domain.ClassifyStoreError(err)
		e.setErr(appErr)
		e.logger.ErrorContext(ctx, "failed to fetch history batch",
			slog.String("medicine_id", m.ID),
			slog.String("error", err.Error()))
		return appErr
	}

	e.mu.Lock()
	if e.historyCursors[m.ID] == cursor {
		if len(batch.Entries) < pageSize {
			e.historyCursors[m.ID] = ""
		} else {
			e.historyCursors[m.ID] = batch.NextCursor
		}
	}
	e.err = nil
	e.mu.Unlock()

	e.store.MergeHistory(batch.Entries)
	return nil
}

// FetchEmail resolves the email for a user id, memoized for the process
// lifetime. The cache is authoritative after the first lookup: failed
// lookups and users without an email are cached with explicit sentinels and
// never retried.
func (e *MedicineMutationEngine) FetchEmail(ctx context.Context, uid string) string {
	e.mu.Lock()
	if email, ok := e.emails[uid]; ok {
		e.mu.Unlock()
		return email
	}
	e.mu.Unlock()

	email, err := e.gateway.GetEmail(ctx, uid)
	switch {
	case err != nil:
		e.logger.WarnContext(ctx, "email lookup failed",
			slog.String("uid", uid),
			slog.String("error", err.Error()))
		email = EmailUnknown
	case email == "":
		email = EmailNone
	}

	e.mu.Lock()
	// Another lookup may have finished first; keep its value.
	if cached, ok := e.emails[uid]; ok {
		email = cached
	} else {
		e.emails[uid] = email
	}
	e.mu.Unlock()
	return email
}
