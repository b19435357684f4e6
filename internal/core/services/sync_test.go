// internal/core/services/sync_test.go
package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
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

// pagedGateway programs the mock to serve medicines page by page, keyed on
// the cursor of the previous response.
func pagedGateway(t *testing.T, gateway *mocks.MockStoreGateway, medicines []domain.Medicine) {
	t.Helper()

	gateway.EXPECT().
		FetchMedicineBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q ports.MedicineQuery) (ports.MedicineBatch, error) {
			start := 0
			if q.Cursor != "" {
				_, err := fmt.Sscanf(q.Cursor, "pos:%d", &start)
				require.NoError(t, err)
			}
			end := start + q.PageSize
			if end > len(medicines) {
				end = len(medicines)
			}
			return ports.MedicineBatch{
				Medicines:  medicines[start:end],
				NextCursor: fmt.Sprintf("pos:%d", end),
			}, nil
		}).
		AnyTimes()
}

func TestMedicineSyncEngine_FetchNextBatch_WalksAllPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	medicines := helpers.CreateTestMedicines(20)
	pagedGateway(t, gateway, medicines)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, engine.FetchNextBatch(ctx, 5, "", domain.SortNone))
		assert.Equal(t, (i+1)*5, st.MedicineCount())
	}

	// The 21st slot does not exist; the short page ends the list and the
	// cursor resets, so one more fetch starts over and adds nothing.
	require.NoError(t, engine.FetchNextBatch(ctx, 5, "", domain.SortNone))
	assert.Equal(t, 20, st.MedicineCount())

	require.NoError(t, engine.FetchNextBatch(ctx, 5, "", domain.SortNone))
	assert.Equal(t, 20, st.MedicineCount())
	assert.Nil(t, engine.Err())
}

func TestMedicineSyncEngine_FetchNextBatch_FilterChangeResetsWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	all := helpers.CreateTestMedicines(10)
	filtered := helpers.CreateTestMedicines(2)

	ctx := context.Background()

	gateway.EXPECT().
		FetchMedicineBatch(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, q ports.MedicineQuery) (ports.MedicineBatch, error) {
			// The reset must have happened before the request goes out
			assert.Empty(t, q.Cursor)
			if q.FilterText == "" {
				return ports.MedicineBatch{Medicines: all[:5], NextCursor: "c1"}, nil
			}
			assert.Equal(t, "ibu", q.FilterText, "filter must arrive lowercased and trimmed")
			return ports.MedicineBatch{Medicines: filtered, NextCursor: "c2"}, nil
		}).
		Times(2)

	require.NoError(t, engine.FetchNextBatch(ctx, 5, "", domain.SortNone))
	assert.Equal(t, 5, st.MedicineCount())

	require.NoError(t, engine.FetchNextBatch(ctx, 5, "  Ibu ", domain.SortNone))
	assert.Equal(t, 2, st.MedicineCount(), "stale window must be cleared on filter change")
}

// windowPage builds a fixed page of medicines tagged with the filter window
// they belong to, so merges stay idempotent across repeated fetches.
func windowPage(tag string, n int) []domain.Medicine {
	out := make([]domain.Medicine, n)
	for i := range out {
		out[i] = domain.Medicine{
			ID:    fmt.Sprintf("%s-%d", tag, i),
			Name:  fmt.Sprintf("%s medicine %d", tag, i),
			Stock: i,
			Aisle: tag,
		}
	}
	return out
}

func TestMedicineSyncEngine_FetchNextBatch_ConcurrentFilterChangeKeepsWindowExclusive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	pages := map[string][]domain.Medicine{
		"":    windowPage("plain", 5),
		"ibu": windowPage("scoped", 5),
	}
	gateway.EXPECT().
		FetchMedicineBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q ports.MedicineQuery) (ports.MedicineBatch, error) {
			return ports.MedicineBatch{Medicines: pages[q.FilterText], NextCursor: "next"}, nil
		}).
		AnyTimes()

	ctx := context.Background()
	var wg sync.WaitGroup
	for _, filter := range []string{"", "ibu"} {
		wg.Add(1)
		go func(filter string) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				assert.NoError(t, engine.FetchNextBatch(ctx, 5, filter, domain.SortNone))
			}
		}(filter)
	}
	wg.Wait()

	// Whichever filter won the final reset, the window must hold pages from
	// exactly one of them, never a mix.
	windows := make(map[string]struct{})
	for _, m := range st.Medicines() {
		windows[m.Aisle] = struct{}{}
	}
	assert.LessOrEqual(t, len(windows), 1,
		"the loaded window must never mix pages from different filters, got %v", windows)
}

func TestMedicineSyncEngine_FetchNextBatch_SortChangeResetsWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	medicines := helpers.CreateTestMedicines(6)
	ctx := context.Background()

	gateway.EXPECT().
		FetchMedicineBatch(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, q ports.MedicineQuery) (ports.MedicineBatch, error) {
			assert.Empty(t, q.Cursor)
			return ports.MedicineBatch{Medicines: medicines[:3], NextCursor: "next"}, nil
		}).
		Times(2)

	require.NoError(t, engine.FetchNextBatch(ctx, 3, "", domain.SortNone))
	require.NoError(t, engine.FetchNextBatch(ctx, 3, "", domain.SortStock))
	assert.Equal(t, 3, st.MedicineCount())
}

func TestMedicineSyncEngine_FetchNextBatch_FailureSetsTypedError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	ctx := context.Background()
	gateway.EXPECT().
		FetchMedicineBatch(ctx, gomock.Any()).
		Return(ports.MedicineBatch{}, context.Canceled)

	err := engine.FetchNextBatch(ctx, 5, "", domain.SortNone)
	require.Error(t, err)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrCancelled, appErr.Kind)
	require.NotNil(t, engine.Err())
	assert.Equal(t, domain.ErrCancelled, engine.Err().Kind)

	// A following success clears the recorded error
	gateway.EXPECT().
		FetchMedicineBatch(ctx, gomock.Any()).
		Return(ports.MedicineBatch{}, nil)
	require.NoError(t, engine.FetchNextBatch(ctx, 5, "", domain.SortNone))
	assert.Nil(t, engine.Err())
}

func TestMedicineSyncEngine_DeleteMedicines_CascadesHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	medicines := helpers.CreateTestMedicines(3)
	st.MergeMedicines(medicines)
	st.AppendHistory(helpers.CreateTestHistoryEntry(medicines[0].ID))
	st.AppendHistory(helpers.CreateTestHistoryEntry(medicines[1].ID))

	ids := []string{medicines[0].ID, medicines[1].ID}
	ctx := context.Background()

	gateway.EXPECT().DeleteMedicines(ctx, ids).Return(ids, nil)
	gateway.EXPECT().DeleteHistory(ctx, ids).Return(nil)

	deleted, err := engine.DeleteMedicines(ctx, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, ids, deleted)

	assert.Equal(t, 1, st.MedicineCount())
	assert.Empty(t, st.History())
	assert.Nil(t, engine.Err())
}

func TestMedicineSyncEngine_DeleteMedicines_RemoteFailureKeepsLocalRemoval(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	medicines := helpers.CreateTestMedicines(2)
	st.MergeMedicines(medicines)

	ctx := context.Background()
	gateway.EXPECT().
		DeleteMedicines(ctx, gomock.Any()).
		Return(nil, errors.New("write failed"))

	deleted, err := engine.DeleteMedicines(ctx, []int{0})
	require.Error(t, err)
	assert.Nil(t, deleted)

	// The optimistic removal is permanent even though the remote write failed
	assert.Equal(t, 1, st.MedicineCount())
	_, ok := st.MedicineByID(medicines[0].ID)
	assert.False(t, ok)
}

func TestMedicineSyncEngine_DeleteMedicines_HistoryCascadeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	medicines := helpers.CreateTestMedicines(2)
	st.MergeMedicines(medicines)
	h1 := helpers.CreateTestHistoryEntry(medicines[0].ID)
	st.AppendHistory(h1)

	ids := []string{medicines[0].ID}
	ctx := context.Background()

	gateway.EXPECT().DeleteMedicines(ctx, ids).Return(ids, nil)
	gateway.EXPECT().DeleteHistory(ctx, ids).Return(errors.New("write failed"))

	deleted, err := engine.DeleteMedicines(ctx, []int{0})
	require.Error(t, err)
	assert.Equal(t, ids, deleted, "confirmed deletions are returned despite the failed cascade")

	// The medicine stays deleted while its history rows are restored
	_, ok := st.MedicineByID(medicines[0].ID)
	assert.False(t, ok)
	assert.Equal(t, 1, st.MedicineCount())
	restored := st.HistoryFor(medicines[0].ID)
	require.Len(t, restored, 1)
	assert.Equal(t, h1.ID, restored[0].ID)

	require.NotNil(t, engine.Err())
	assert.Equal(t, domain.ErrUnknown, engine.Err().Kind)
}

func TestMedicineSyncEngine_DeleteMedicines_EmptySelectionIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	deleted, err := engine.DeleteMedicines(context.Background(), []int{5, 9})
	require.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestMedicineSyncEngine_DeleteHistory_RestoresOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	e1 := helpers.CreateTestHistoryEntry("m1")
	e2 := helpers.CreateTestHistoryEntry("m1")
	keep := helpers.CreateTestHistoryEntry("m2")
	st.MergeHistory([]domain.HistoryEntry{e1, e2, keep})

	ctx := context.Background()
	gateway.EXPECT().
		DeleteHistory(ctx, []string{"m1"}).
		Return(errors.New("write failed"))

	err := engine.DeleteHistory(ctx, []string{"m1"})
	require.Error(t, err)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrUnknown, appErr.Kind)

	// The optimistically removed rows are back
	assert.Len(t, st.HistoryFor("m1"), 2)
	assert.Len(t, st.History(), 3)
}

func TestMedicineSyncEngine_DeleteHistory_RemovesLocalRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gateway := mocks.NewMockStoreGateway(ctrl)
	st := store.NewSharedStore()
	engine := services.NewMedicineSyncEngine(gateway, st, helpers.TestLogger())

	st.AppendHistory(helpers.CreateTestHistoryEntry("m1"))
	st.AppendHistory(helpers.CreateTestHistoryEntry("m2"))

	ctx := context.Background()
	gateway.EXPECT().DeleteHistory(ctx, []string{"m1"}).Return(nil)

	require.NoError(t, engine.DeleteHistory(ctx, []string{"m1"}))
	assert.Empty(t, st.HistoryFor("m1"))
	assert.Len(t, st.History(), 1)
}
