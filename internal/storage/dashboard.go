package storage

import (
	"context"
	"fmt"
	"time"

	"tally/internal/core"
)

// MonthSpend sums the reference-currency amounts of a workspace's expenses in
// a month, leaving out anything flagged exclude_from_budget. The breakdown is
// keyed by expense type.
func (r *Repository) MonthSpend(ctx context.Context, workspaceID string, year int, month time.Month) (int64, map[core.ExpenseType]int64, error) {
	start, end := core.MonthInterval(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT expense_type, COALESCE(SUM(amount_ref_cents), 0)
		 FROM expenses
		 WHERE workspace_id = ? AND exclude_from_budget = 0 AND date >= ? AND date <= ?
		 GROUP BY expense_type`,
		workspaceID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return 0, nil, fmt.Errorf("month spend: %w", err)
	}
	defer rows.Close()

	var total int64
	byType := make(map[core.ExpenseType]int64)
	for rows.Next() {
		var t string
		var sum int64
		if err := rows.Scan(&t, &sum); err != nil {
			return 0, nil, fmt.Errorf("scan month spend: %w", err)
		}
		byType[core.ExpenseType(t)] = sum
		total += sum
	}
	return total, byType, rows.Err()
}

// DailySpend returns the per-day reference-currency totals for a month,
// keyed by day of month. Days with no spend are absent.
func (r *Repository) DailySpend(ctx context.Context, workspaceID string, year int, month time.Month) (map[int]int64, error) {
	start, end := core.MonthInterval(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT CAST(substr(date, 9, 2) AS INTEGER), COALESCE(SUM(amount_ref_cents), 0)
		 FROM expenses
		 WHERE workspace_id = ? AND exclude_from_budget = 0 AND date >= ? AND date <= ?
		 GROUP BY substr(date, 9, 2)`,
		workspaceID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("daily spend: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int64)
	for rows.Next() {
		var day int
		var sum int64
		if err := rows.Scan(&day, &sum); err != nil {
			return nil, fmt.Errorf("scan daily spend: %w", err)
		}
		out[day] = sum
	}
	return out, rows.Err()
}
