// internal/core/services/mutation_test.go
package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/core/ports"
	"github.com/medkitapp/medkit-be/internal/core/services"
	"github.com/medkitapp/medkit-be/internal/store"
	"github.com/medkitapp/medkit-be/test/helpers"
	"github.com/medkitapp/medkit-be/test/mocks"
)

var testUser = domain.AppUser{ID: "user-1", Email: "user@example.com"}

func newMutationEngine(t *testing.T) (*services.MedicineMutationEngine, *mocks.MockStoreGateway, *store.SharedStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineMutationEngine(gateway, st, helpers.TestLogger())
	return engine, gateway, st
}

func TestMedicineMutationEngine_AddMedicine(t *testing.T) {
	engine, gateway, st := newMutationEngine(t)
	ctx := context.Background()

	gateway.EXPECT().
		AddMedicine(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, m domain.Medicine) (domain.Medicine, error) {
			assert.NotEmpty(t, m.ID, "identifier must be assigned before the write")
			assert.Equal(t, "aspirin 100mg", m.NameLC)
			return m, nil
		})
	gateway.EXPECT().
		AddHistory(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, e domain.HistoryEntry) (domain.HistoryEntry, error) {
			assert.Equal(t, domain.ActionCreated, e.Action)
			assert.Equal(t, testUser.ID, e.UserID)
			return e, nil
		})

	saved := engine.AddMedicine(ctx, domain.Medicine{Name: "Aspirin 100mg", Stock: 5, Aisle: "A1"}, testUser)

	assert.True(t, saved.IsPersisted())
	assert.Equal(t, 1, st.MedicineCount())
	assert.Len(t, st.HistoryFor(saved.ID), 1)
	assert.Nil(t, engine.Err())
}

func TestMedicineMutationEngine_AddMedicine_FailureReturnsUnpersisted(t *testing.T) {
	engine, gateway, st := newMutationEngine(t)
	ctx := context.Background()

	gateway.EXPECT().
		AddMedicine(ctx, gomock.Any()).
		Return(domain.Medicine{}, errors.New("write failed"))

	saved := engine.AddMedicine(ctx, domain.Medicine{Name: "Aspirin 100mg"}, testUser)

	assert.False(t, saved.IsPersisted(), "failed add must come back without an identifier")
	assert.Equal(t, "Aspirin 100mg", saved.Name, "input values survive the failure")
	assert.Equal(t, 0, st.MedicineCount())
	require.NotNil(t, engine.Err())
	assert.Equal(t, domain.ErrUnknown, engine.Err().Kind)
}

func TestMedicineMutationEngine_UpdateStock(t *testing.T) {
	tests := []struct {
		name        string
		delta       int
		loadedStock int
		wantStock   int
		wantAction  domain.HistoryAction
		wantDetails string
	}{
		{
			name:        "increase",
			delta:       1,
			loadedStock: 20,
			wantStock:   21,
			wantAction:  domain.ActionIncreased,
			wantDetails: "Stock changed from 20 to 21",
		},
		{
			name:        "decrease",
			delta:       -1,
			loadedStock: 20,
			wantStock:   19,
			wantAction:  domain.ActionDecreased,
			wantDetails: "Stock changed from 20 to 19",
		},
		{
			name:        "bulk adjustment",
			delta:       5,
			loadedStock: 20,
			wantStock:   25,
			wantAction:  domain.ActionIncreased,
			wantDetails: "Stock changed from 20 to 25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, gateway, st := newMutationEngine(t)
			ctx := context.Background()

			m := helpers.CreateTestMedicine(func(m *domain.Medicine) {
				m.Stock = tt.loadedStock
			})
			st.MergeMedicines([]domain.Medicine{m})

			gateway.EXPECT().UpdateStock(ctx, m.ID, tt.wantStock).Return(nil)
			gateway.EXPECT().
				AddHistory(ctx, gomock.Any()).
				DoAndReturn(func(_ context.Context, e domain.HistoryEntry) (domain.HistoryEntry, error) {
					assert.Equal(t, tt.wantAction, e.Action)
					assert.Equal(t, tt.wantDetails, e.Details)
					return e, nil
				})

			// The caller may hold a stale copy; the loaded stock wins
			stale := m
			stale.Stock = 3

			got := engine.UpdateStock(ctx, stale, tt.delta, testUser)

			assert.Equal(t, tt.wantStock, got)
			loaded, _ := st.MedicineByID(m.ID)
			assert.Equal(t, tt.wantStock, loaded.Stock)
		})
	}
}

func TestMedicineMutationEngine_UpdateStock_UnpersistedIsNoop(t *testing.T) {
	engine, _, _ := newMutationEngine(t)

	got := engine.UpdateStock(context.Background(), domain.Medicine{Name: "draft"}, 1, testUser)

	assert.Equal(t, 0, got)
	assert.Nil(t, engine.Err())
}

func TestMedicineMutationEngine_UpdateStock_FailureIsNoop(t *testing.T) {
	engine, gateway, st := newMutationEngine(t)
	ctx := context.Background()

	m := helpers.CreateTestMedicine(func(m *domain.Medicine) { m.Stock = 20 })
	st.MergeMedicines([]domain.Medicine{m})

	gateway.EXPECT().
		UpdateStock(ctx, m.ID, 21).
		Return(errors.New("write failed"))

	got := engine.IncreaseStock(ctx, m, testUser)

	assert.Equal(t, 20, got, "failed update returns the unchanged stock")
	loaded, _ := st.MedicineByID(m.ID)
	assert.Equal(t, 20, loaded.Stock)
	assert.Empty(t, st.HistoryFor(m.ID), "no history on failed mutation")
	require.NotNil(t, engine.Err())
}

func TestMedicineMutationEngine_UpdateMedicine(t *testing.T) {
	engine, gateway, st := newMutationEngine(t)
	ctx := context.Background()

	m := helpers.CreateTestMedicine()
	st.MergeMedicines([]domain.Medicine{m})

	m.Name = "Renamed"
	m.Aisle = "Z9"

	gateway.EXPECT().
		UpdateMedicine(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, got domain.Medicine) error {
			assert.Equal(t, "renamed", got.NameLC, "derived name must be refreshed")
			return nil
		})
	gateway.EXPECT().
		AddHistory(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, e domain.HistoryEntry) (domain.HistoryEntry, error) {
			assert.Equal(t, domain.ActionUpdated, e.Action)
			return e, nil
		})

	require.NoError(t, engine.UpdateMedicine(ctx, m, testUser, true))

	loaded, _ := st.MedicineByID(m.ID)
	assert.Equal(t, "Renamed", loaded.Name)
	assert.Equal(t, "Z9", loaded.Aisle)
}

func TestMedicineMutationEngine_UpdateMedicine_WithoutHistory(t *testing.T) {
	engine, gateway, st := newMutationEngine(t)
	ctx := context.Background()

	m := helpers.CreateTestMedicine()
	st.MergeMedicines([]domain.Medicine{m})

	gateway.EXPECT().UpdateMedicine(ctx, gomock.Any()).Return(nil)

	require.NoError(t, engine.UpdateMedicine(ctx, m, testUser, false))
	assert.Empty(t, st.HistoryFor(m.ID))
}

func TestMedicineMutationEngine_AddHistory_TolerantOnFailure(t *testing.T) {
	engine, gateway, st := newMutationEngine(t)
	ctx := context.Background()

	gateway.EXPECT().
		AddHistory(ctx, gomock.Any()).
		Return(domain.HistoryEntry{}, errors.New("write failed"))

	entry := engine.AddHistory(ctx, domain.ActionUpdated, testUser, "m1", "details")

	// The locally-constructed entry survives the failed remote write
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "m1", entry.MedicineID)
	assert.Len(t, st.HistoryFor("m1"), 1)
	require.NotNil(t, engine.Err())
}

func TestMedicineMutationEngine_FetchNextHistoryBatch(t *testing.T) {
	engine, gateway, st := newMutationEngine(t)
	ctx := context.Background()

	m := helpers.CreateTestMedicine()
	entries := make([]domain.HistoryEntry, 6)
	for i := range entries {
		entries[i] = helpers.CreateTestHistoryEntry(m.ID)
	}

	gateway.EXPECT().
		FetchHistoryBatch(gomock.Any(), m.ID, 3, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, pageSize int, cursor string) (ports.HistoryBatch, error) {
			start := 0
			if cursor != "" {
				fmt.Sscanf(cursor, "pos:%d", &start)
			}
			end := start + pageSize
			if end > len(entries) {
				end = len(entries)
			}
			return ports.HistoryBatch{
				Entries:    entries[start:end],
				NextCursor: fmt.Sprintf("pos:%d", end),
			}, nil
		}).
		AnyTimes()

	require.NoError(t, engine.FetchNextHistoryBatch(ctx, m, 3))
	assert.Len(t, st.HistoryFor(m.ID), 3)

	require.NoError(t, engine.FetchNextHistoryBatch(ctx, m, 3))
	assert.Len(t, st.HistoryFor(m.ID), 6)
}

func TestMedicineMutationEngine_FetchNextHistoryBatch_UnpersistedIsNoop(t *testing.T) {
	engine, _, _ := newMutationEngine(t)

	err := engine.FetchNextHistoryBatch(context.Background(), domain.Medicine{}, 5)
	require.NoError(t, err)
}

func TestMedicineMutationEngine_FetchEmail_Memoized(t *testing.T) {
	engine, gateway, _ := newMutationEngine(t)
	ctx := context.Background()

	gateway.EXPECT().
		GetEmail(ctx, "uid-1").
		Return("someone@example.com", nil).
		Times(1)

	assert.Equal(t, "someone@example.com", engine.FetchEmail(ctx, "uid-1"))
	assert.Equal(t, "someone@example.com", engine.FetchEmail(ctx, "uid-1"), "second lookup must hit the cache")
}

func TestMedicineMutationEngine_FetchEmail_Sentinels(t *testing.T) {
	engine, gateway, _ := newMutationEngine(t)
	ctx := context.Background()

	gateway.EXPECT().GetEmail(ctx, "absent").Return("", nil).Times(1)
	gateway.EXPECT().GetEmail(ctx, "broken").Return("", errors.New("lookup failed")).Times(1)

	assert.Equal(t, services.EmailNone, engine.FetchEmail(ctx, "absent"))
	assert.Equal(t, services.EmailUnknown, engine.FetchEmail(ctx, "broken"))

	// Failed lookups are cached too and never retried
	assert.Equal(t, services.EmailNone, engine.FetchEmail(ctx, "absent"))
	assert.Equal(t, services.EmailUnknown, engine.FetchEmail(ctx, "broken"))
}
