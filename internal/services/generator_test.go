package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedGeneratorWorkspace(t *testing.T, repo *storage.Repository) core.RequestContext {
	t.Helper()
	user, ws, err := repo.CreateUserWithWorkspace(context.Background(),
		"gen@example.com", "hash", "Casa", "EUR")
	if err != nil {
		t.Fatalf("CreateUserWithWorkspace: %v", err)
	}
	return core.RequestContext{UserID: user.ID, WorkspaceID: ws.ID}
}

func createTemplate(t *testing.T, repo *storage.Repository, rc core.RequestContext, name string, cents int64, day *int) core.RecurringTemplate {
	t.Helper()
	tpl, err := repo.CreateTemplate(context.Background(), core.RecurringTemplate{
		WorkspaceID: rc.WorkspaceID,
		Name:        name,
		AmountCents: &cents,
		Currency:    "EUR",
		ExpenseType: core.FixedSurvival,
		DayOfMonth:  day,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateTemplate(%s): %v", name, err)
	}
	return tpl
}

func intPtr(v int) *int { return &v }

func TestGenerateCreatesOnePerTemplate(t *testing.T) {
	repo := newTestStorage(t)
	gen := NewGenerator(repo)
	ctx := context.Background()
	rc := seedGeneratorWorkspace(t, repo)

	createTemplate(t, repo, rc, "Rent", 79900, intPtr(1))
	createTemplate(t, repo, rc, "Internet", 2999, intPtr(15))

	// month 2 is zero-based March
	res, err := gen.Generate(ctx, rc, GenerateRequest{Month: intPtr(2), Year: intPtr(2025)})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Generated != 2 || res.Skipped != 0 {
		t.Errorf("generated/skipped = %d/%d, want 2/0", res.Generated, res.Skipped)
	}
	if res.Month != "March 2025" {
		t.Errorf("month label = %q, want %q", res.Month, "March 2025")
	}

	expenses, err := repo.ListExpenses(ctx, rc.WorkspaceID, storage.ExpenseFilter{Year: 2025, Month: time.March})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 2 {
		t.Fatalf("expenses = %d, want 2", len(expenses))
	}
	for _, e := range expenses {
		if e.Status != core.StatusPending {
			t.Errorf("status = %q, want pending", e.Status)
		}
		if !e.IsRecurring || e.RecurringTemplateID == nil {
			t.Errorf("expense %q should be linked to its template", e.Name)
		}
		if e.RawInput != "[Recurring] "+e.Name {
			t.Errorf("raw input = %q", e.RawInput)
		}
		if e.CategoryID == nil {
			t.Errorf("expense %q should fall back to the default category", e.Name)
		}
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	repo := newTestStorage(t)
	gen := NewGenerator(repo)
	ctx := context.Background()
	rc := seedGeneratorWorkspace(t, repo)

	tpl := createTemplate(t, repo, rc, "Rent", 79900, intPtr(1))

	req := GenerateRequest{Month: intPtr(2), Year: intPtr(2025)}
	if _, err := gen.Generate(ctx, rc, req); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	got, err := repo.GetTemplate(ctx, rc.WorkspaceID, tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.LastGenerated == nil {
		t.Error("expected last_generated to be stamped after a producing run")
	}
	res, err := gen.Generate(ctx, rc, req)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if res.Generated != 0 || res.Skipped != 1 {
		t.Errorf("generated/skipped = %d/%d, want 0/1", res.Generated, res.Skipped)
	}
	if res.Message != "All recurring expenses already exist for March 2025" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestGenerateClampsDayToMonthEnd(t *testing.T) {
	repo := newTestStorage(t)
	gen := NewGenerator(repo)
	ctx := context.Background()
	rc := seedGeneratorWorkspace(t, repo)

	createTemplate(t, repo, rc, "Insurance", 12000, intPtr(31))

	// month 1 is zero-based February; 2025 is not a leap year
	if _, err := gen.Generate(ctx, rc, GenerateRequest{Month: intPtr(1), Year: intPtr(2025)}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	expenses, err := repo.ListExpenses(ctx, rc.WorkspaceID, storage.ExpenseFilter{Year: 2025, Month: time.February})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expenses = %d, want 1", len(expenses))
	}
	if got := expenses[0].Date.Day(); got != 28 {
		t.Errorf("day = %d, want 28", got)
	}
}

func TestGenerateOverridePrecedence(t *testing.T) {
	repo := newTestStorage(t)
	gen := NewGenerator(repo)
	ctx := context.Background()
	rc := seedGeneratorWorkspace(t, repo)

	tpl := createTemplate(t, repo, rc, "Gym", 4500, intPtr(10))

	t.Run("non-nil override wins", func(t *testing.T) {
		_, err := gen.Generate(ctx, rc, GenerateRequest{
			Month:     intPtr(2),
			Year:      intPtr(2025),
			Overrides: []TemplateOverride{{ID: tpl.ID, DayOverride: intPtr(20)}},
		})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		expenses, err := repo.ListExpenses(ctx, rc.WorkspaceID, storage.ExpenseFilter{Year: 2025, Month: time.March})
		if err != nil {
			t.Fatalf("ListExpenses: %v", err)
		}
		if len(expenses) != 1 || expenses[0].Date.Day() != 20 {
			t.Fatalf("expected one expense on day 20, got %+v", expenses)
		}
	})

	t.Run("nil override falls back to template day", func(t *testing.T) {
		_, err := gen.Generate(ctx, rc, GenerateRequest{
			Month:     intPtr(3),
			Year:      intPtr(2025),
			Overrides: []TemplateOverride{{ID: tpl.ID}},
		})
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		expenses, err := repo.ListExpenses(ctx, rc.WorkspaceID, storage.ExpenseFilter{Year: 2025, Month: time.April})
		if err != nil {
			t.Fatalf("ListExpenses: %v", err)
		}
		if len(expenses) != 1 || expenses[0].Date.Day() != 10 {
			t.Fatalf("expected one expense on day 10, got %+v", expenses)
		}
	})
}

func TestGenerateRejectsInvalidMonth(t *testing.T) {
	repo := newTestStorage(t)
	gen := NewGenerator(repo)
	rc := seedGeneratorWorkspace(t, repo)

	for _, m := range []int{-1, 12} {
		_, err := gen.Generate(context.Background(), rc, GenerateRequest{Month: intPtr(m)})
		if err != core.ErrInvalidMonth {
			t.Errorf("month %d: err = %v, want ErrInvalidMonth", m, err)
		}
	}
}

func TestGenerateWithNoTemplates(t *testing.T) {
	repo := newTestStorage(t)
	gen := NewGenerator(repo)
	rc := seedGeneratorWorkspace(t, repo)

	res, err := gen.Generate(context.Background(), rc, GenerateRequest{Month: intPtr(0), Year: intPtr(2025)})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Generated != 0 || res.Skipped != 0 {
		t.Errorf("generated/skipped = %d/%d, want 0/0", res.Generated, res.Skipped)
	}
	if res.Message != "No active recurring templates to generate" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestGenerateSkipsInactiveTemplates(t *testing.T) {
	repo := newTestStorage(t)
	gen := NewGenerator(repo)
	ctx := context.Background()
	rc := seedGeneratorWorkspace(t, repo)

	tpl := createTemplate(t, repo, rc, "Old subscription", 999, intPtr(5))
	tpl.Active = false
	if err := repo.UpdateTemplate(ctx, tpl); err != nil {
		t.Fatalf("UpdateTemplate: %v", err)
	}

	res, err := gen.Generate(ctx, rc, GenerateRequest{Month: intPtr(2), Year: intPtr(2025)})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Generated != 0 {
		t.Errorf("generated = %d, want 0", res.Generated)
	}

	got, err := repo.GetTemplate(ctx, rc.WorkspaceID, tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.LastGenerated != nil {
		t.Error("template that produced nothing must not be stamped")
	}
}
