package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"

	"github.com/google/uuid"
)

func (r *Repository) ListBankAccounts(ctx context.Context, workspaceID string) ([]core.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, institution, currency FROM bank_accounts
		 WHERE workspace_id = ? ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	defer rows.Close()

	var out []core.BankAccount
	for rows.Next() {
		var a core.BankAccount
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.Name, &a.Institution, &a.Currency); err != nil {
			return nil, fmt.Errorf("scan bank account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) GetBankAccount(ctx context.Context, workspaceID, id string) (core.BankAccount, error) {
	var a core.BankAccount
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, institution, currency FROM bank_accounts
		 WHERE workspace_id = ? AND id = ?`, workspaceID, id).
		Scan(&a.ID, &a.WorkspaceID, &a.Name, &a.Institution, &a.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BankAccount{}, fmt.Errorf("bank account %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("get bank account: %w", err)
	}
	return a, nil
}

func (r *Repository) CreateBankAccount(ctx context.Context, a core.BankAccount) (core.BankAccount, error) {
	a.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bank_accounts (id, workspace_id, name, institution, currency) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.WorkspaceID, a.Name, a.Institution, a.Currency)
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("insert bank account: %w", err)
	}
	return a, nil
}

func (r *Repository) UpdateBankAccount(ctx context.Context, a core.BankAccount) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_accounts SET name = ?, institution = ?, currency = ?
		 WHERE workspace_id = ? AND id = ?`,
		a.Name, a.Institution, a.Currency, a.WorkspaceID, a.ID)
	if err != nil {
		return fmt.Errorf("update bank account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("bank account %s: %w", a.ID, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteBankAccount(ctx context.Context, workspaceID, id string) error {
	return r.InTx(ctx, func(tx *Repository) error {
		if _, err := tx.db.ExecContext(ctx,
			`UPDATE expenses SET bank_account_id = NULL WHERE workspace_id = ? AND bank_account_id = ?`,
			workspaceID, id); err != nil {
			return fmt.Errorf("detach bank account: %w", err)
		}
		res, err := tx.db.ExecContext(ctx,
			`DELETE FROM bank_accounts WHERE workspace_id = ? AND id = ?`, workspaceID, id)
		if err != nil {
			return fmt.Errorf("delete bank account: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("bank account %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
}
