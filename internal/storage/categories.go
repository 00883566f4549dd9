package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"

	"github.com/google/uuid"
)

func (r *Repository) ListCategories(ctx context.Context, workspaceID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, is_system FROM categories WHERE workspace_id = ? ORDER BY name`,
		workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.IsSystem); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, workspaceID, id string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, is_system FROM categories WHERE workspace_id = ? AND id = ?`,
		workspaceID, id).
		Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.IsSystem)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, workspaceID, name string) (core.Category, error) {
	c := core.Category{ID: uuid.NewString(), WorkspaceID: workspaceID, Name: name}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, workspace_id, name, is_system) VALUES (?, ?, ?, 0)`,
		c.ID, c.WorkspaceID, c.Name)
	if isUniqueViolation(err) {
		return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrDuplicate)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, workspaceID, id, name string) (core.Category, error) {
	existing, err := r.GetCategory(ctx, workspaceID, id)
	if err != nil {
		return core.Category{}, err
	}
	if existing.IsSystem {
		return core.Category{}, core.ErrSystemCategory
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE workspace_id = ? AND id = ?`,
		name, workspaceID, id)
	if isUniqueViolation(err) {
		return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrDuplicate)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	existing.Name = name
	return existing, nil
}

// DeleteCategory removes a user category. Expenses and templates that pointed
// at it are reassigned to no category rather than deleted.
func (r *Repository) DeleteCategory(ctx context.Context, workspaceID, id string) error {
	existing, err := r.GetCategory(ctx, workspaceID, id)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return core.ErrSystemCategory
	}

	return r.InTx(ctx, func(tx *Repository) error {
		for _, q := range []string{
			`UPDATE expenses SET category_id = NULL WHERE workspace_id = ? AND category_id = ?`,
			`UPDATE recurring_templates SET category_id = NULL WHERE workspace_id = ? AND category_id = ?`,
			`UPDATE keyword_mappings SET category_id = NULL WHERE workspace_id = ? AND category_id = ?`,
		} {
			if _, err := tx.db.ExecContext(ctx, q, workspaceID, id); err != nil {
				return fmt.Errorf("detach category: %w", err)
			}
		}
		// Mappings whose only target was this category are now dangling.
		if _, err := tx.db.ExecContext(ctx,
			`DELETE FROM keyword_mappings WHERE workspace_id = ? AND category_id IS NULL AND expense_type IS NULL`,
			workspaceID); err != nil {
			return fmt.Errorf("prune dangling mappings: %w", err)
		}
		if _, err := tx.db.ExecContext(ctx,
			`DELETE FROM categories WHERE workspace_id = ? AND id = ?`, workspaceID, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

// EnsureDefaultCategory resolves the workspace's system category, creating it
// if an older workspace predates the onboarding insert.
func (r *Repository) EnsureDefaultCategory(ctx context.Context, workspaceID string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, is_system FROM categories
		 WHERE workspace_id = ? AND lower(name) = lower(?)`,
		workspaceID, core.DefaultCategoryName).
		Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.IsSystem)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("lookup default category: %w", err)
	}

	c = core.Category{ID: uuid.NewString(), WorkspaceID: workspaceID, Name: core.DefaultCategoryName, IsSystem: true}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO categories (id, workspace_id, name, is_system) VALUES (?, ?, ?, 1)`,
		c.ID, c.WorkspaceID, c.Name)
	if err != nil {
		return core.Category{}, fmt.Errorf("create default category: %w", err)
	}
	return c, nil
}
