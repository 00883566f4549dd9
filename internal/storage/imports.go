package storage

import (
	"context"
	"fmt"
	"time"

	"tally/internal/core"

	"github.com/google/uuid"
)

func (r *Repository) CreateImportLog(ctx context.Context, l core.ImportLog) (core.ImportLog, error) {
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO import_logs (id, workspace_id, source, row_count, imported_count, skipped_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.WorkspaceID, l.Source, l.RowCount, l.ImportedCount, l.SkippedCount,
		l.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.ImportLog{}, fmt.Errorf("insert import log: %w", err)
	}
	return l, nil
}

func (r *Repository) ListImportLogs(ctx context.Context, workspaceID string) ([]core.ImportLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, source, row_count, imported_count, skipped_count, created_at
		 FROM import_logs WHERE workspace_id = ? ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list import logs: %w", err)
	}
	defer rows.Close()

	var out []core.ImportLog
	for rows.Next() {
		var l core.ImportLog
		var createdAt string
		if err := rows.Scan(&l.ID, &l.WorkspaceID, &l.Source, &l.RowCount,
			&l.ImportedCount, &l.SkippedCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan import log: %w", err)
		}
		l.CreatedAt = parseTime(createdAt)
		out = append(out, l)
	}
	return out, rows.Err()
}
