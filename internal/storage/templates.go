package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tally/internal/core"

	"github.com/google/uuid"
)

const templateColumns = `id, workspace_id, name, amount_cents, currency, category_id,
	expense_type, day_of_month, active, last_generated`

func scanTemplate(rows *sql.Rows) (core.RecurringTemplate, error) {
	var t core.RecurringTemplate
	var amount sql.NullInt64
	var categoryID, lastGenerated sql.NullString
	var day sql.NullInt64
	if err := rows.Scan(&t.ID, &t.WorkspaceID, &t.Name, &amount, &t.Currency,
		&categoryID, &t.ExpenseType, &day, &t.Active, &lastGenerated); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("scan recurring template: %w", err)
	}
	t.AmountCents = fromNullInt64(amount)
	t.CategoryID = fromNullString(categoryID)
	t.DayOfMonth = fromNullInt(day)
	t.LastGenerated = fromNullTime(lastGenerated)
	return t, nil
}

func (r *Repository) ListTemplates(ctx context.Context, workspaceID string) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM recurring_templates WHERE workspace_id = ? ORDER BY name`,
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListActiveTemplates returns the workspace's active templates, optionally
// restricted to the given IDs.
func (r *Repository) ListActiveTemplates(ctx context.Context, workspaceID string, ids []string) ([]core.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates WHERE workspace_id = ? AND active = 1`
	args := []any{workspaceID}
	if len(ids) > 0 {
		query += ` AND id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetTemplate(ctx context.Context, workspaceID, id string) (core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM recurring_templates WHERE workspace_id = ? AND id = ?`,
		workspaceID, id)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("get recurring template: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.RecurringTemplate{}, fmt.Errorf("get recurring template: %w", err)
		}
		return core.RecurringTemplate{}, fmt.Errorf("recurring template %s: %w", id, core.ErrNotFound)
	}
	return scanTemplate(rows)
}

func (r *Repository) CreateTemplate(ctx context.Context, t core.RecurringTemplate) (core.RecurringTemplate, error) {
	t.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_templates
		 (id, workspace_id, name, amount_cents, currency, category_id, expense_type, day_of_month, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.WorkspaceID, t.Name, nullInt64(t.AmountCents), t.Currency,
		nullString(t.CategoryID), string(t.ExpenseType), nullInt(t.DayOfMonth), t.Active)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("insert recurring template: %w", err)
	}
	return t, nil
}

func (r *Repository) UpdateTemplate(ctx context.Context, t core.RecurringTemplate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_templates
		 SET name = ?, amount_cents = ?, currency = ?, category_id = ?, expense_type = ?,
		     day_of_month = ?, active = ?
		 WHERE workspace_id = ? AND id = ?`,
		t.Name, nullInt64(t.AmountCents), t.Currency, nullString(t.CategoryID),
		string(t.ExpenseType), nullInt(t.DayOfMonth), t.Active, t.WorkspaceID, t.ID)
	if err != nil {
		return fmt.Errorf("update recurring template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recurring template %s: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteTemplate deactivates and unlinks a template. Generated expenses keep
// existing but lose their back-reference.
func (r *Repository) DeleteTemplate(ctx context.Context, workspaceID, id string) error {
	return r.InTx(ctx, func(tx *Repository) error {
		if _, err := tx.db.ExecContext(ctx,
			`UPDATE expenses SET recurring_template_id = NULL WHERE workspace_id = ? AND recurring_template_id = ?`,
			workspaceID, id); err != nil {
			return fmt.Errorf("unlink generated expenses: %w", err)
		}
		res, err := tx.db.ExecContext(ctx,
			`DELETE FROM recurring_templates WHERE workspace_id = ? AND id = ?`, workspaceID, id)
		if err != nil {
			return fmt.Errorf("delete recurring template: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("recurring template %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

// StampLastGenerated records when a template last produced an expense.
func (r *Repository) StampLastGenerated(ctx context.Context, workspaceID, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recurring_templates SET last_generated = ? WHERE workspace_id = ? AND id = ?`,
		at.UTC().Format(timeLayout), workspaceID, id)
	if err != nil {
		return fmt.Errorf("stamp last generated: %w", err)
	}
	return nil
}
