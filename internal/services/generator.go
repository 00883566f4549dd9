package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/storage"
)

// Generator materializes recurring templates into pending expenses, at most
// one per template per calendar month.
type Generator struct {
	storage *storage.Repository
}

func NewGenerator(storage *storage.Repository) *Generator {
	return &Generator{storage: storage}
}

// TemplateOverride adjusts a single template for one generation run. A nil
// DayOverride falls back to the template's own day of month.
type TemplateOverride struct {
	ID          string
	DayOverride *int
}

// GenerateRequest selects what to generate. Month is zero-based (January is
// 0); Month and Year default to the current month. When Overrides is
// non-empty it defines the candidate set; otherwise TemplateIDs does, and
// when both are empty every active template is a candidate.
type GenerateRequest struct {
	Month       *int
	Year        *int
	TemplateIDs []string
	Overrides   []TemplateOverride
}

type GenerateResult struct {
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Month     string `json:"month"`
	Message   string `json:"message"`
}

// Generate runs one generation pass for a workspace. The whole run executes
// in a single transaction, and the unique month index on expenses makes
// concurrent runs safe: a template inserted by a racing run counts as
// skipped here.
func (g *Generator) Generate(ctx context.Context, rc core.RequestContext, req GenerateRequest) (GenerateResult, error) {
	if g.storage == nil {
		return GenerateResult{}, fmt.Errorf("generator not properly initialized")
	}

	now := time.Now().UTC()
	year := now.Year()
	if req.Year != nil {
		year = *req.Year
	}
	month := now.Month()
	if req.Month != nil {
		if *req.Month < 0 || *req.Month > 11 {
			return GenerateResult{}, core.ErrInvalidMonth
		}
		month = time.Month(*req.Month + 1)
	}
	label := core.MonthLabel(year, month)

	candidateIDs := req.TemplateIDs
	overrideDays := make(map[string]*int, len(req.Overrides))
	if len(req.Overrides) > 0 {
		candidateIDs = make([]string, 0, len(req.Overrides))
		for _, o := range req.Overrides {
			candidateIDs = append(candidateIDs, o.ID)
			overrideDays[o.ID] = o.DayOverride
		}
	}

	var result GenerateResult
	err := g.storage.InTx(ctx, func(tx *storage.Repository) error {
		templates, err := tx.ListActiveTemplates(ctx, rc.WorkspaceID, candidateIDs)
		if err != nil {
			return fmt.Errorf("list active templates: %w", err)
		}
		if len(templates) == 0 {
			result = GenerateResult{
				Month:   label,
				Message: "No active recurring templates to generate",
			}
			return nil
		}

		defaultCat, err := tx.EnsureDefaultCategory(ctx, rc.WorkspaceID)
		if err != nil {
			return fmt.Errorf("ensure default category: %w", err)
		}

		start, end := core.MonthInterval(year, month)
		existing, err := tx.GeneratedTemplateIDs(ctx, rc.WorkspaceID, start, end, candidateIDs)
		if err != nil {
			return fmt.Errorf("list generated templates: %w", err)
		}

		var toInsert []core.Expense
		skipped := 0
		for _, tpl := range templates {
			if existing[tpl.ID] {
				skipped++
				continue
			}

			day := tpl.Day()
			if d, ok := overrideDays[tpl.ID]; ok && d != nil {
				day = *d
			}
			day = core.ClampDay(day, year, month)

			categoryID := tpl.CategoryID
			if categoryID == nil {
				categoryID = &defaultCat.ID
			}

			tplID := tpl.ID
			toInsert = append(toInsert, core.Expense{
				WorkspaceID:         rc.WorkspaceID,
				CategoryID:          categoryID,
				Name:                tpl.Name,
				RawInput:            "[Recurring] " + tpl.Name,
				Type:                tpl.ExpenseType,
				Status:              core.StatusPending,
				AmountCents:         tpl.Amount(),
				Currency:            tpl.Currency,
				AmountRefCents:      tpl.Amount(),
				Date:                time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
				RecurringTemplateID: &tplID,
				IsRecurring:         true,
			})
		}

		inserted, err := tx.BulkInsertExpenses(ctx, toInsert)
		if err != nil {
			return fmt.Errorf("insert generated expenses: %w", err)
		}

		// Stamp only the templates whose row actually landed; a racing run
		// can insert between our read and our write, and its conflict-skipped
		// templates count as skipped here, not generated.
		for _, e := range inserted {
			if e.RecurringTemplateID == nil {
				continue
			}
			if err := tx.StampLastGenerated(ctx, rc.WorkspaceID, *e.RecurringTemplateID, now); err != nil {
				return fmt.Errorf("stamp template %s: %w", *e.RecurringTemplateID, err)
			}
		}

		skipped += len(toInsert) - len(inserted)

		result = GenerateResult{
			Generated: len(inserted),
			Skipped:   skipped,
			Month:     label,
		}
		switch {
		case len(inserted) > 0:
			result.Message = fmt.Sprintf("Generated %d recurring expenses for %s", len(inserted), label)
		default:
			result.Message = fmt.Sprintf("All recurring expenses already exist for %s", label)
		}
		return nil
	})
	if err != nil {
		return GenerateResult{}, err
	}

	slog.InfoContext(ctx, "Recurring generation complete",
		applog.FieldComponent, applog.ComponentGenerator,
		applog.FieldWorkspaceID, rc.WorkspaceID,
		applog.FieldMonth, result.Month,
		"generated", result.Generated,
		"skipped", result.Skipped)

	return result, nil
}
