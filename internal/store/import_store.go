package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/mailshelf/internal/model"
)

// insertImportRun records a finished import run inside tx.
// If the run has no ID, a new UUID is generated.
func insertImportRun(ctx context.Context, tx *sqlx.Tx, run model.ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO imports (
			id, started_at, finished_at, created, overwritten, skipped, failed
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Created, run.Overwritten, run.Skipped, run.Failed,
	)
	if err != nil {
		return fmt.Errorf("recording import run %s: %w", run.ID, err)
	}
	return nil
}

// GetImportRuns returns the most recent import runs, newest first.
// A limit of zero or less returns all runs.
func (s *SQLiteStore) GetImportRuns(
	ctx context.Context,
	limit int,
) ([]model.ImportRun, error) {
	query := "SELECT * FROM imports ORDER BY started_at DESC, id"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var runs []model.ImportRun
	if err := s.db.SelectContext(ctx, &runs, query); err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}
	for i := range runs {
		runs[i].StartedAt = runs[i].StartedAt.Local()
		runs[i].FinishedAt = runs[i].FinishedAt.Local()
	}
	return runs, nil
}
