package core

import (
	"testing"
	"time"
)

func TestKeywordMappingValidate(t *testing.T) {
	cat := "cat-1"
	typ := Lifestyle
	bad := ExpenseType("splurge")

	tests := []struct {
		name    string
		mapping KeywordMapping
		wantErr error
	}{
		{"category only", KeywordMapping{Keyword: "mcd", CategoryID: &cat}, nil},
		{"type only", KeywordMapping{Keyword: "cinema", ExpenseType: &typ}, nil},
		{"no target", KeywordMapping{Keyword: "mcd"}, ErrNoMappingTarget},
		{"empty keyword", KeywordMapping{Keyword: "   ", CategoryID: &cat}, ErrEmptyKeyword},
		{"bad type", KeywordMapping{Keyword: "x", ExpenseType: &bad}, ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.mapping.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurringTemplateDefaults(t *testing.T) {
	tpl := RecurringTemplate{Name: "Rent", Currency: "EUR", ExpenseType: FixedSurvival}
	if tpl.Day() != 1 {
		t.Errorf("Day() = %d, want 1 when unset", tpl.Day())
	}
	if tpl.Amount() != 0 {
		t.Errorf("Amount() = %d, want 0 when unset", tpl.Amount())
	}

	day := 28
	amount := int64(95000)
	tpl.DayOfMonth = &day
	tpl.AmountCents = &amount
	if tpl.Day() != 28 || tpl.Amount() != 95000 {
		t.Errorf("Day()/Amount() = %d/%d, want 28/95000", tpl.Day(), tpl.Amount())
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		Name:        "Groceries",
		Type:        VariableSurvival,
		AmountCents: 4200,
		Currency:    "EUR",
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Expense)
	}{
		{"empty name", func(e *Expense) { e.Name = " " }},
		{"bad type", func(e *Expense) { e.Type = "misc" }},
		{"negative amount", func(e *Expense) { e.AmountCents = -1 }},
		{"bad currency", func(e *Expense) { e.Currency = "euro" }},
		{"zero date", func(e *Expense) { e.Date = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Error("Validate() should have failed")
			}
		})
	}
}

func TestNormalizeKeyword(t *testing.T) {
	if got := NormalizeKeyword("  Coffee Shop "); got != "coffee shop" {
		t.Errorf("NormalizeKeyword = %q, want %q", got, "coffee shop")
	}
}
