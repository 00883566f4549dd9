package core

import (
	"errors"
	"strings"
	"time"
)

const (
	FixedSurvival    ExpenseType = "fixed_survival"
	VariableSurvival ExpenseType = "variable_survival"
	Lifestyle        ExpenseType = "lifestyle"
	Project          ExpenseType = "project"
)

const (
	StatusPending   ExpenseStatus = "pending"
	StatusConfirmed ExpenseStatus = "confirmed"
)

// DefaultCategoryName is the system category every workspace falls back to
// when an expense or template carries no category of its own.
const DefaultCategoryName = "Uncategorized"

type (
	ExpenseType   string
	ExpenseStatus string

	// RequestContext identifies the authenticated caller and the workspace
	// the request operates on. Every service operation receives one
	// explicitly instead of reading ambient session state.
	RequestContext struct {
		UserID      string
		WorkspaceID string
	}

	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Workspace is the tenant boundary. All other entities belong to
	// exactly one workspace and are never visible across it.
	Workspace struct {
		ID                 string
		Name               string
		MonthlyBudgetCents *int64
		DefaultCurrency    string
	}

	Category struct {
		ID          string
		WorkspaceID string
		Name        string
		IsSystem    bool
	}

	BankAccount struct {
		ID          string
		WorkspaceID string
		Name        string
		Institution string
		Currency    string
	}

	// KeywordMapping associates a normalized text fragment with a category
	// and/or an expense type. At least one of the two targets must be set.
	KeywordMapping struct {
		ID          string
		WorkspaceID string
		Keyword     string
		CategoryID  *string
		ExpenseType *ExpenseType
		CreatedAt   time.Time
	}

	// RecurringTemplate is a recipe for a periodic expense, materialized at
	// most once per calendar month by the recurring generator.
	RecurringTemplate struct {
		ID            string
		WorkspaceID   string
		Name          string
		AmountCents   *int64
		Currency      string
		CategoryID    *string
		ExpenseType   ExpenseType
		DayOfMonth    *int
		Active        bool
		LastGenerated *time.Time
	}

	Expense struct {
		ID                  string
		WorkspaceID         string
		CategoryID          *string
		BankAccountID       *string
		Name                string
		RawInput            string
		Type                ExpenseType
		Status              ExpenseStatus
		AmountCents         int64
		Currency            string
		AmountRefCents      int64
		Date                time.Time
		RecurringTemplateID *string
		IsRecurring         bool
		ExcludeFromBudget   bool
		ProjectIDs          []string
		CreatedAt           time.Time
	}

	ProjectTag struct {
		ID          string
		WorkspaceID string
		Name        string
	}

	// ImportLog records the provenance of one batch import.
	ImportLog struct {
		ID            string
		WorkspaceID   string
		Source        string
		RowCount      int
		ImportedCount int
		SkippedCount  int
		CreatedAt     time.Time
	}

	// KeywordMatch is the result of resolving raw text against a workspace's
	// keyword mappings. Both fields are nil when nothing matched.
	KeywordMatch struct {
		CategoryID  *string
		ExpenseType *ExpenseType
	}
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicate        = errors.New("already exists")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyKeyword     = errors.New("empty keyword")
	ErrNoMappingTarget  = errors.New("keyword mapping needs a category or an expense type")
	ErrInvalidType      = errors.New("invalid expense type")
	ErrInvalidDay       = errors.New("day of month must be between 1 and 31")
	ErrInvalidMonth     = errors.New("month must be between 0 and 11")
	ErrSystemCategory   = errors.New("system categories cannot be modified")
	ErrNotMember        = errors.New("not a member of this workspace")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter code")
	ErrEmptyInput       = errors.New("empty input")
	ErrNoAmount         = errors.New("no amount found in input")
)

// Valid reports whether t is one of the four known expense types.
func (t ExpenseType) Valid() bool {
	switch t {
	case FixedSurvival, VariableSurvival, Lifestyle, Project:
		return true
	}
	return false
}

// NormalizeKeyword lowercases and trims a keyword. Mappings are stored and
// compared in this normalized form.
func NormalizeKeyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (m KeywordMapping) Validate() error {
	if NormalizeKeyword(m.Keyword) == "" {
		return ErrEmptyKeyword
	}
	if m.CategoryID == nil && m.ExpenseType == nil {
		return ErrNoMappingTarget
	}
	if m.ExpenseType != nil && !m.ExpenseType.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (t RecurringTemplate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if !t.ExpenseType.Valid() {
		return ErrInvalidType
	}
	if t.AmountCents != nil && *t.AmountCents < 0 {
		return ErrInvalidAmount
	}
	if t.DayOfMonth != nil && (*t.DayOfMonth < 1 || *t.DayOfMonth > 31) {
		return ErrInvalidDay
	}
	if !validCurrency(t.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

// Day returns the template's configured day of month, defaulting to 1.
func (t RecurringTemplate) Day() int {
	if t.DayOfMonth == nil {
		return 1
	}
	return *t.DayOfMonth
}

// Amount returns the template's amount in cents, defaulting to 0.
func (t RecurringTemplate) Amount() int64 {
	if t.AmountCents == nil {
		return 0
	}
	return *t.AmountCents
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	if e.AmountCents < 0 {
		return ErrInvalidAmount
	}
	if !validCurrency(e.Currency) {
		return ErrInvalidCurrency
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (a BankAccount) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if a.Currency != "" && !validCurrency(a.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}
