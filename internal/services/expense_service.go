package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/storage"

	"github.com/shopspring/decimal"
)

// ExpenseService orchestrates expense writes across SQLite and AMQP.
type ExpenseService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
}

func NewExpenseService(storage *storage.Repository, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateExpenseInput carries a new expense. Zero values get defaults: the
// date defaults to today, the currency to the workspace default, the status
// to confirmed, and category/type are resolved from keyword mappings.
type CreateExpenseInput struct {
	Name              string
	RawInput          string
	CategoryID        *string
	BankAccountID     *string
	Type              *core.ExpenseType
	Status            core.ExpenseStatus
	AmountCents       int64
	Currency          string
	ExchangeRate      decimal.Decimal
	Date              time.Time
	ExcludeFromBudget bool
	ProjectIDs        []string
}

// Create validates and persists an expense, resolving missing category and
// type through the workspace's keyword mappings, and publishes a created
// event. A broker failure never fails the request.
func (s *ExpenseService) Create(ctx context.Context, rc core.RequestContext, in CreateExpenseInput) (core.Expense, error) {
	ws, err := s.storage.GetWorkspace(ctx, rc.WorkspaceID)
	if err != nil {
		return core.Expense{}, err
	}

	if in.CategoryID == nil || in.Type == nil {
		mappings, err := s.storage.ListKeywordMappings(ctx, rc.WorkspaceID)
		if err != nil {
			return core.Expense{}, fmt.Errorf("list keyword mappings: %w", err)
		}
		match := ResolveKeyword(in.Name, mappings)
		if in.CategoryID == nil {
			in.CategoryID = match.CategoryID
		}
		if in.Type == nil {
			in.Type = match.ExpenseType
		}
	}

	if in.CategoryID == nil {
		def, err := s.storage.EnsureDefaultCategory(ctx, rc.WorkspaceID)
		if err != nil {
			return core.Expense{}, err
		}
		in.CategoryID = &def.ID
	}
	if in.Type == nil {
		t := core.VariableSurvival
		in.Type = &t
	}
	if in.Status == "" {
		in.Status = core.StatusConfirmed
	}
	if in.Currency == "" {
		in.Currency = ws.DefaultCurrency
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	refCents := in.AmountCents
	if in.Currency != ws.DefaultCurrency {
		refCents = core.ConvertToReference(in.AmountCents, in.ExchangeRate)
	}

	expense := core.Expense{
		WorkspaceID:       rc.WorkspaceID,
		CategoryID:        in.CategoryID,
		BankAccountID:     in.BankAccountID,
		Name:              in.Name,
		RawInput:          in.RawInput,
		Type:              *in.Type,
		Status:            in.Status,
		AmountCents:       in.AmountCents,
		Currency:          in.Currency,
		AmountRefCents:    refCents,
		Date:              in.Date,
		ExcludeFromBudget: in.ExcludeFromBudget,
		ProjectIDs:        in.ProjectIDs,
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.storage.CreateExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishEvent(ctx, amqp.EventExpenseCreated, created.ID, rc.WorkspaceID)
	return created, nil
}

// QuickAdd turns free text like "mcd 12.50" into a confirmed expense.
func (s *ExpenseService) QuickAdd(ctx context.Context, rc core.RequestContext, text string, bankAccountID *string) (core.Expense, error) {
	parsed, err := ParseQuickAdd(text)
	if err != nil {
		return core.Expense{}, err
	}
	return s.Create(ctx, rc, CreateExpenseInput{
		Name:          parsed.Name,
		RawInput:      text,
		BankAccountID: bankAccountID,
		AmountCents:   parsed.AmountCents,
		Currency:      parsed.Currency,
	})
}

// UpdateExpenseInput is a partial update. Unset fields keep their value;
// cleared fields drop to NULL where the column allows it.
type UpdateExpenseInput struct {
	Name              core.Patch[string]             `json:"name"`
	CategoryID        core.Patch[string]             `json:"categoryId"`
	BankAccountID     core.Patch[string]             `json:"bankAccountId"`
	Type              core.Patch[core.ExpenseType]   `json:"type"`
	Status            core.Patch[core.ExpenseStatus] `json:"status"`
	Amount            core.Patch[string]             `json:"amount"`
	Currency          core.Patch[string]             `json:"currency"`
	ExchangeRate      core.Patch[decimal.Decimal]    `json:"exchangeRate"`
	Date              core.Patch[string]             `json:"date"`
	ExcludeFromBudget core.Patch[bool]               `json:"excludeFromBudget"`
	ProjectIDs        core.Patch[[]string]           `json:"projectIds"`
}

func (s *ExpenseService) Update(ctx context.Context, rc core.RequestContext, id string, in UpdateExpenseInput) (core.Expense, error) {
	expense, err := s.storage.GetExpense(ctx, rc.WorkspaceID, id)
	if err != nil {
		return core.Expense{}, err
	}

	if v, ok := in.Name.Value(); ok {
		expense.Name = v
	}
	switch {
	case in.CategoryID.IsSet():
		v, _ := in.CategoryID.Value()
		expense.CategoryID = &v
	case in.CategoryID.IsClear():
		expense.CategoryID = nil
	}
	switch {
	case in.BankAccountID.IsSet():
		v, _ := in.BankAccountID.Value()
		expense.BankAccountID = &v
	case in.BankAccountID.IsClear():
		expense.BankAccountID = nil
	}
	if v, ok := in.Type.Value(); ok {
		expense.Type = v
	}
	if v, ok := in.Status.Value(); ok {
		expense.Status = v
	}
	if v, ok := in.Date.Value(); ok {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return core.Expense{}, fmt.Errorf("parse date %q: %w", v, err)
		}
		expense.Date = d
	}
	if v, ok := in.ExcludeFromBudget.Value(); ok {
		expense.ExcludeFromBudget = v
	}
	if v, ok := in.ProjectIDs.Value(); ok {
		expense.ProjectIDs = v
	} else if in.ProjectIDs.IsClear() {
		expense.ProjectIDs = nil
	}

	amountChanged := false
	if v, ok := in.Amount.Value(); ok {
		cents, err := core.ParseAmountToCents(v)
		if err != nil {
			return core.Expense{}, err
		}
		expense.AmountCents = cents
		amountChanged = true
	}
	if v, ok := in.Currency.Value(); ok {
		expense.Currency = v
		amountChanged = true
	}
	if amountChanged || in.ExchangeRate.IsSet() {
		ws, err := s.storage.GetWorkspace(ctx, rc.WorkspaceID)
		if err != nil {
			return core.Expense{}, err
		}
		expense.AmountRefCents = expense.AmountCents
		if expense.Currency != ws.DefaultCurrency {
			rate, _ := in.ExchangeRate.Value()
			expense.AmountRefCents = core.ConvertToReference(expense.AmountCents, rate)
		}
	}

	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.storage.UpdateExpense(ctx, expense); err != nil {
		return core.Expense{}, err
	}

	s.publishEvent(ctx, amqp.EventExpenseCreated, expense.ID, rc.WorkspaceID)
	return expense, nil
}

func (s *ExpenseService) Delete(ctx context.Context, rc core.RequestContext, id string) error {
	if err := s.storage.DeleteExpense(ctx, rc.WorkspaceID, id); err != nil {
		return err
	}
	s.publishEvent(ctx, amqp.EventExpenseDeleted, id, rc.WorkspaceID)
	return nil
}

// ImportRows bulk-creates expenses from quick-add rows and records the run
// in an import log. Rows that fail to parse or validate are skipped.
func (s *ExpenseService) ImportRows(ctx context.Context, rc core.RequestContext, source string, rows []string) (core.ImportLog, error) {
	imported, skipped := 0, 0
	for _, row := range rows {
		if _, err := s.QuickAdd(ctx, rc, row, nil); err != nil {
			slog.WarnContext(ctx, "Skipping import row",
				"source", source,
				"row", row,
				"error", err)
			skipped++
			continue
		}
		imported++
	}

	log, err := s.storage.CreateImportLog(ctx, core.ImportLog{
		WorkspaceID:   rc.WorkspaceID,
		Source:        source,
		RowCount:      len(rows),
		ImportedCount: imported,
		SkippedCount:  skipped,
	})
	if err != nil {
		return core.ImportLog{}, fmt.Errorf("record import log: %w", err)
	}

	slog.InfoContext(ctx, "Import complete",
		"workspace_id", rc.WorkspaceID,
		"source", source,
		"imported", imported,
		"skipped", skipped)

	return log, nil
}

func (s *ExpenseService) publishEvent(ctx context.Context, kind, id, workspaceID string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event", "kind", kind)
		return
	}
	msg := amqp.NewExpenseEventMessage(kind, id, workspaceID)
	if err := s.amqpClient.PublishExpenseEvent(ctx, msg); err != nil {
		// Don't fail the request, the expense is saved locally.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"kind", kind,
			"id", id,
			"error", err)
	}
}

// Close releases the service's storage and broker connections.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
