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

const expenseColumns = `id, workspace_id, category_id, bank_account_id, name, raw_input,
	expense_type, status, amount_cents, currency, amount_ref_cents, date,
	recurring_template_id, is_recurring, exclude_from_budget, created_at`

func scanExpense(rows *sql.Rows) (core.Expense, error) {
	var e core.Expense
	var categoryID, bankAccountID, templateID sql.NullString
	var date, createdAt string
	if err := rows.Scan(&e.ID, &e.WorkspaceID, &categoryID, &bankAccountID, &e.Name, &e.RawInput,
		&e.Type, &e.Status, &e.AmountCents, &e.Currency, &e.AmountRefCents, &date,
		&templateID, &e.IsRecurring, &e.ExcludeFromBudget, &createdAt); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.CategoryID = fromNullString(categoryID)
	e.BankAccountID = fromNullString(bankAccountID)
	e.RecurringTemplateID = fromNullString(templateID)
	e.Date = parseDate(date)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses
		 (id, workspace_id, category_id, bank_account_id, name, raw_input, expense_type, status,
		  amount_cents, currency, amount_ref_cents, date, recurring_template_id, is_recurring,
		  exclude_from_budget, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.WorkspaceID, nullString(e.CategoryID), nullString(e.BankAccountID),
		e.Name, e.RawInput, string(e.Type), string(e.Status),
		e.AmountCents, e.Currency, e.AmountRefCents, e.Date.Format(dateLayout),
		nullString(e.RecurringTemplateID), e.IsRecurring, e.ExcludeFromBudget,
		e.CreatedAt.Format(timeLayout))
	if isUniqueViolation(err) {
		return core.Expense{}, fmt.Errorf("expense for template in month %s: %w",
			e.Date.Format("2006-01"), core.ErrDuplicate)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	if len(e.ProjectIDs) > 0 {
		if err := r.SetExpenseProjects(ctx, e.ID, e.ProjectIDs); err != nil {
			return core.Expense{}, err
		}
	}
	return e, nil
}

// BulkInsertExpenses inserts generated expenses, skipping any whose template
// already produced one for the same month. Returns the rows that actually
// landed, so callers can tell conflict-skipped templates apart.
func (r *Repository) BulkInsertExpenses(ctx context.Context, expenses []core.Expense) ([]core.Expense, error) {
	var inserted []core.Expense
	for _, e := range expenses {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO expenses
			 (id, workspace_id, category_id, bank_account_id, name, raw_input, expense_type, status,
			  amount_cents, currency, amount_ref_cents, date, recurring_template_id, is_recurring,
			  exclude_from_budget, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT DO NOTHING`,
			e.ID, e.WorkspaceID, nullString(e.CategoryID), nullString(e.BankAccountID),
			e.Name, e.RawInput, string(e.Type), string(e.Status),
			e.AmountCents, e.Currency, e.AmountRefCents, e.Date.Format(dateLayout),
			nullString(e.RecurringTemplateID), e.IsRecurring, e.ExcludeFromBudget,
			time.Now().UTC().Format(timeLayout))
		if err != nil {
			return inserted, fmt.Errorf("insert generated expense: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, e)
		}
	}
	return inserted, nil
}

// ExpenseFilter narrows ListExpenses. Zero values mean "no filter".
type ExpenseFilter struct {
	Year       int
	Month      time.Month
	CategoryID string
	Type       core.ExpenseType
	Status     core.ExpenseStatus
	Limit      int
	Offset     int
}

func (r *Repository) ListExpenses(ctx context.Context, workspaceID string, f ExpenseFilter) ([]core.Expense, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + expenseColumns + ` FROM expenses WHERE workspace_id = ?`)
	args := []any{workspaceID}

	if f.Year != 0 && f.Month != 0 {
		start, end := core.MonthInterval(f.Year, f.Month)
		sb.WriteString(` AND date >= ? AND date <= ?`)
		args = append(args, start.Format(dateLayout), end.Format(dateLayout))
	} else if f.Year != 0 {
		sb.WriteString(` AND substr(date, 1, 4) = ?`)
		args = append(args, fmt.Sprintf("%04d", f.Year))
	}
	if f.CategoryID != "" {
		sb.WriteString(` AND category_id = ?`)
		args = append(args, f.CategoryID)
	}
	if f.Type != "" {
		sb.WriteString(` AND expense_type = ?`)
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		sb.WriteString(` AND status = ?`)
		args = append(args, string(f.Status))
	}
	sb.WriteString(` ORDER BY date DESC, created_at DESC`)
	if f.Limit > 0 {
		sb.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		ids, err := r.expenseProjectIDs(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].ProjectIDs = ids
	}
	return out, nil
}

func (r *Repository) GetExpense(ctx context.Context, workspaceID, id string) (core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE workspace_id = ? AND id = ?`,
		workspaceID, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Expense{}, fmt.Errorf("get expense: %w", err)
		}
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	e, err := scanExpense(rows)
	if err != nil {
		return core.Expense{}, err
	}
	rows.Close()

	e.ProjectIDs, err = r.expenseProjectIDs(ctx, e.ID)
	if err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET category_id = ?, bank_account_id = ?, name = ?, expense_type = ?, status = ?,
		     amount_cents = ?, currency = ?, amount_ref_cents = ?, date = ?, exclude_from_budget = ?
		 WHERE workspace_id = ? AND id = ?`,
		nullString(e.CategoryID), nullString(e.BankAccountID), e.Name, string(e.Type), string(e.Status),
		e.AmountCents, e.Currency, e.AmountRefCents, e.Date.Format(dateLayout), e.ExcludeFromBudget,
		e.WorkspaceID, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	return r.SetExpenseProjects(ctx, e.ID, e.ProjectIDs)
}

func (r *Repository) DeleteExpense(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// GeneratedTemplateIDs returns the IDs of templates that already have a
// generated expense dated inside [start, end], optionally limited to ids.
func (r *Repository) GeneratedTemplateIDs(ctx context.Context, workspaceID string, start, end time.Time, ids []string) (map[string]bool, error) {
	query := `SELECT DISTINCT recurring_template_id FROM expenses
		 WHERE workspace_id = ? AND recurring_template_id IS NOT NULL AND date >= ? AND date <= ?`
	args := []any{workspaceID, start.Format(dateLayout), end.Format(dateLayout)}
	if len(ids) > 0 {
		query += ` AND recurring_template_id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list generated template ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan template id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}
