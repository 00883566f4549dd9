package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"

	"github.com/google/uuid"
)

func (r *Repository) ListProjects(ctx context.Context, workspaceID string) ([]core.ProjectTag, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, name FROM projects WHERE workspace_id = ? ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []core.ProjectTag
	for rows.Next() {
		var p core.ProjectTag
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetProject(ctx context.Context, workspaceID, id string) (core.ProjectTag, error) {
	var p core.ProjectTag
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name FROM projects WHERE workspace_id = ? AND id = ?`,
		workspaceID, id).
		Scan(&p.ID, &p.WorkspaceID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ProjectTag{}, fmt.Errorf("project %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.ProjectTag{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (r *Repository) CreateProject(ctx context.Context, workspaceID, name string) (core.ProjectTag, error) {
	p := core.ProjectTag{ID: uuid.NewString(), WorkspaceID: workspaceID, Name: name}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (id, workspace_id, name) VALUES (?, ?, ?)`,
		p.ID, p.WorkspaceID, p.Name)
	if err != nil {
		return core.ProjectTag{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func (r *Repository) UpdateProject(ctx context.Context, workspaceID, id, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = ? WHERE workspace_id = ? AND id = ?`, name, workspaceID, id)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteProject(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM projects WHERE workspace_id = ? AND id = ?`, workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// SetExpenseProjects replaces the project links of an expense.
func (r *Repository) SetExpenseProjects(ctx context.Context, expenseID string, projectIDs []string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM expense_projects WHERE expense_id = ?`, expenseID); err != nil {
		return fmt.Errorf("clear expense projects: %w", err)
	}
	for _, pid := range projectIDs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO expense_projects (expense_id, project_id) VALUES (?, ?)`, expenseID, pid); err != nil {
			return fmt.Errorf("link project %s: %w", pid, err)
		}
	}
	return nil
}

func (r *Repository) expenseProjectIDs(ctx context.Context, expenseID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT project_id FROM expense_projects WHERE expense_id = ? ORDER BY project_id`, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list expense projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expense project: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
