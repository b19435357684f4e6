// internal/workers/history_cleanup.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	TypeCleanupOrphanHistory = "cleanup:orphan_history"
)

// Execer is the slice of the database the cleanup processor needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// HistoryCleanupProcessor removes history rows whose parent medicine no
// longer exists. A failed history cascade after a medicine delete leaves
// such rows behind; this task reconciles them out of band.
type HistoryCleanupProcessor struct {
	db     Execer
	logger *slog.Logger
}

// NewHistoryCleanupProcessor creates a new cleanup processor
func NewHistoryCleanupProcessor(db Execer, logger *slog.Logger) *HistoryCleanupProcessor {
	return &HistoryCleanupProcessor{
		db:     db,
		logger: logger.With(slog.String("processor", "history_cleanup")),
	}
}

// CleanupOrphanHistory deletes history rows with no matching medicine.
func (p *HistoryCleanupProcessor) CleanupOrphanHistory(ctx context.Context, t *asynq.Task) error {
	query := `
		DELETE FROM history h
		WHERE NOT EXISTS (SELECT 1 FROM medicines m WHERE m.id = h.medicine_id)`

	result, err := p.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to cleanup orphan history: %w", err)
	}

	p.logger.InfoContext(ctx, "orphan history cleaned up",
		slog.Int64("rows_deleted", result.RowsAffected()))
	return nil
}
