// internal/workers/history_cleanup_test.go
package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medkitapp/medkit-be/test/helpers"
)

type fakeExecer struct {
	tag     pgconn.CommandTag
	err     error
	lastSQL string
}

func (f *fakeExecer) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	f.lastSQL = sql
	return f.tag, f.err
}

func TestCleanupOrphanHistory(t *testing.T) {
	execer := &fakeExecer{tag: pgconn.NewCommandTag("DELETE 3")}
	processor := NewHistoryCleanupProcessor(execer, helpers.TestLogger())

	task := asynq.NewTask(TypeCleanupOrphanHistory, nil)
	err := processor.CleanupOrphanHistory(context.Background(), task)

	require.NoError(t, err)
	assert.Contains(t, execer.lastSQL, "DELETE FROM history")
	assert.Contains(t, execer.lastSQL, "NOT EXISTS")
}

func TestCleanupOrphanHistory_ExecError(t *testing.T) {
	execer := &fakeExecer{err: errors.New("connection refused")}
	processor := NewHistoryCleanupProcessor(execer, helpers.TestLogger())

	task := asynq.NewTask(TypeCleanupOrphanHistory, nil)
	err := processor.CleanupOrphanHistory(context.Background(), task)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to cleanup orphan history")
}
