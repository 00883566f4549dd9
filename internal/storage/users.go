package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tally/internal/core"

	"github.com/google/uuid"
)

// CreateUserWithWorkspace registers a user together with their onboarding
// workspace and membership, in one transaction.
func (r *Repository) CreateUserWithWorkspace(ctx context.Context, email, passwordHash, workspaceName, currency string) (core.User, core.Workspace, error) {
	user := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	ws := core.Workspace{
		ID:              uuid.NewString(),
		Name:            workspaceName,
		DefaultCurrency: currency,
	}

	err := r.InTx(ctx, func(tx *Repository) error {
		_, err := tx.db.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
			user.ID, user.Email, user.PasswordHash, user.CreatedAt.Format(timeLayout))
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", email, core.ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		_, err = tx.db.ExecContext(ctx,
			`INSERT INTO workspaces (id, name, default_currency) VALUES (?, ?, ?)`,
			ws.ID, ws.Name, ws.DefaultCurrency)
		if err != nil {
			return fmt.Errorf("insert workspace: %w", err)
		}

		_, err = tx.db.ExecContext(ctx,
			`INSERT INTO workspace_members (workspace_id, user_id) VALUES (?, ?)`,
			ws.ID, user.ID)
		if err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}

		// Every workspace starts with the protected fallback category.
		_, err = tx.db.ExecContext(ctx,
			`INSERT INTO categories (id, workspace_id, name, is_system) VALUES (?, ?, ?, 1)`,
			uuid.NewString(), ws.ID, core.DefaultCategoryName)
		if err != nil {
			return fmt.Errorf("insert default category: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.User{}, core.Workspace{}, err
	}
	return user, ws, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %s: %w", email, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func (r *Repository) GetWorkspace(ctx context.Context, id string) (core.Workspace, error) {
	var ws core.Workspace
	var budget sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, monthly_budget_cents, default_currency FROM workspaces WHERE id = ?`, id).
		Scan(&ws.ID, &ws.Name, &budget, &ws.DefaultCurrency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Workspace{}, fmt.Errorf("workspace %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Workspace{}, fmt.Errorf("get workspace: %w", err)
	}
	ws.MonthlyBudgetCents = fromNullInt64(budget)
	return ws, nil
}

func (r *Repository) UpdateWorkspace(ctx context.Context, ws core.Workspace) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE workspaces SET name = ?, monthly_budget_cents = ?, default_currency = ? WHERE id = ?`,
		ws.Name, nullInt64(ws.MonthlyBudgetCents), ws.DefaultCurrency, ws.ID)
	if err != nil {
		return fmt.Errorf("update workspace: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("workspace %s: %w", ws.ID, core.ErrNotFound)
	}
	return nil
}

// FirstWorkspaceForUser returns the user's oldest workspace membership,
// used as the default when a request names no workspace. Membership rows
// carry no timestamp, so rowid stands in for insertion order.
func (r *Repository) FirstWorkspaceForUser(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT workspace_id FROM workspace_members WHERE user_id = ? ORDER BY rowid LIMIT 1`, userID).
		Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no workspace for user %s: %w", userID, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("first workspace for user: %w", err)
	}
	return id, nil
}

func (r *Repository) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM workspace_members WHERE workspace_id = ? AND user_id = ?`, workspaceID, userID).
		Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// ListWorkspaceIDs returns every workspace ID, used by the recurring worker
// to run generation across all tenants.
func (r *Repository) ListWorkspaceIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM workspaces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list workspace ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan workspace id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
