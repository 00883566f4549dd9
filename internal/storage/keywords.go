package storage

import (
	"context"
	"database/sql"
	"fmt"

	"tally/internal/core"

	"github.com/google/uuid"
)

// ListKeywordMappings returns the workspace's mappings in insertion order.
// The categorizer relies on this ordering to break ties deterministically;
// created_at only has whole-second resolution, so order by rowid instead.
func (r *Repository) ListKeywordMappings(ctx context.Context, workspaceID string) ([]core.KeywordMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, keyword, category_id, expense_type, created_at
		 FROM keyword_mappings WHERE workspace_id = ? ORDER BY rowid`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list keyword mappings: %w", err)
	}
	defer rows.Close()

	var out []core.KeywordMapping
	for rows.Next() {
		m, err := scanKeywordMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanKeywordMapping(rows *sql.Rows) (core.KeywordMapping, error) {
	var m core.KeywordMapping
	var categoryID, expenseType sql.NullString
	var createdAt string
	if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.Keyword, &categoryID, &expenseType, &createdAt); err != nil {
		return core.KeywordMapping{}, fmt.Errorf("scan keyword mapping: %w", err)
	}
	m.CategoryID = fromNullString(categoryID)
	m.ExpenseType = fromNullType(expenseType)
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

func (r *Repository) GetKeywordMapping(ctx context.Context, workspaceID, id string) (core.KeywordMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, keyword, category_id, expense_type, created_at
		 FROM keyword_mappings WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return core.KeywordMapping{}, fmt.Errorf("get keyword mapping: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.KeywordMapping{}, fmt.Errorf("get keyword mapping: %w", err)
		}
		return core.KeywordMapping{}, fmt.Errorf("keyword mapping %s: %w", id, core.ErrNotFound)
	}
	return scanKeywordMapping(rows)
}

func (r *Repository) CreateKeywordMapping(ctx context.Context, m core.KeywordMapping) (core.KeywordMapping, error) {
	m.ID = uuid.NewString()
	m.Keyword = core.NormalizeKeyword(m.Keyword)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO keyword_mappings (id, workspace_id, keyword, category_id, expense_type)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.WorkspaceID, m.Keyword, nullString(m.CategoryID), nullType(m.ExpenseType))
	if isUniqueViolation(err) {
		return core.KeywordMapping{}, fmt.Errorf("keyword %q: %w", m.Keyword, core.ErrDuplicate)
	}
	if err != nil {
		return core.KeywordMapping{}, fmt.Errorf("insert keyword mapping: %w", err)
	}
	return r.GetKeywordMapping(ctx, m.WorkspaceID, m.ID)
}

func (r *Repository) UpdateKeywordMapping(ctx context.Context, m core.KeywordMapping) error {
	m.Keyword = core.NormalizeKeyword(m.Keyword)
	res, err := r.db.ExecContext(ctx,
		`UPDATE keyword_mappings SET keyword = ?, category_id = ?, expense_type = ?
		 WHERE workspace_id = ? AND id = ?`,
		m.Keyword, nullString(m.CategoryID), nullType(m.ExpenseType), m.WorkspaceID, m.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("keyword %q: %w", m.Keyword, core.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("update keyword mapping: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("keyword mapping %s: %w", m.ID, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteKeywordMapping(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM keyword_mappings WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete keyword mapping: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("keyword mapping %s: %w", id, core.ErrNotFound)
	}
	return nil
}
