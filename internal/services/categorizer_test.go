package services

import (
	"testing"

	"tally/internal/core"
)

func strPtr(s string) *string { return &s }

func typePtr(t core.ExpenseType) *core.ExpenseType { return &t }

func TestResolveKeywordTieGoesToFirstInserted(t *testing.T) {
	catA := strPtr("cat-a")
	catB := strPtr("cat-b")
	mappings := []core.KeywordMapping{
		{Keyword: "bar", CategoryID: catA},
		{Keyword: "gym", CategoryID: catB},
	}

	// Both keywords match and have equal length; the earlier mapping wins.
	got := ResolveKeyword("bar gym combo", mappings)
	if got.CategoryID == nil || *got.CategoryID != *catA {
		t.Errorf("CategoryID = %v, want %q", got.CategoryID, *catA)
	}

	// Reversing the insertion order flips the winner.
	got = ResolveKeyword("bar gym combo", []core.KeywordMapping{mappings[1], mappings[0]})
	if got.CategoryID == nil || *got.CategoryID != *catB {
		t.Errorf("CategoryID = %v, want %q", got.CategoryID, *catB)
	}
}

func TestResolveKeyword(t *testing.T) {
	food := strPtr("cat-food")
	transport := strPtr("cat-transport")
	coffee := strPtr("cat-coffee")

	mappings := []core.KeywordMapping{
		{Keyword: "mcd", CategoryID: food, ExpenseType: typePtr(core.VariableSurvival)},
		{Keyword: "coffee", CategoryID: coffee},
		{Keyword: "coffee shop", CategoryID: transport},
		{Keyword: "train", ExpenseType: typePtr(core.FixedSurvival)},
	}

	tests := []struct {
		name     string
		raw      string
		wantCat  *string
		wantType *core.ExpenseType
	}{
		{
			name:     "simple containment",
			raw:      "mcd 12.50",
			wantCat:  food,
			wantType: typePtr(core.VariableSurvival),
		},
		{
			name:    "longest keyword wins over shorter",
			raw:     "coffee shop downtown",
			wantCat: transport,
		},
		{
			name:    "case and whitespace insensitive",
			raw:     "  Morning COFFEE  ",
			wantCat: coffee,
		},
		{
			name:     "type-only mapping",
			raw:      "train to milan",
			wantType: typePtr(core.FixedSurvival),
		},
		{
			name: "no match returns zero value",
			raw:  "something else entirely",
		},
		{
			name: "empty input",
			raw:  "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveKeyword(tt.raw, mappings)
			if !equalStrPtr(got.CategoryID, tt.wantCat) {
				t.Errorf("CategoryID = %v, want %v", deref(got.CategoryID), deref(tt.wantCat))
			}
			if (got.ExpenseType == nil) != (tt.wantType == nil) ||
				(got.ExpenseType != nil && *got.ExpenseType != *tt.wantType) {
				t.Errorf("ExpenseType = %v, want %v", got.ExpenseType, tt.wantType)
			}
		})
	}
}

func TestResolveKeywordTieGoesToFirstMapping(t *testing.T) {
	a := strPtr("cat-a")
	b := strPtr("cat-b")
	mappings := []core.KeywordMapping{
		{Keyword: "abc", CategoryID: a},
		{Keyword: "xyz", CategoryID: b},
	}

	got := ResolveKeyword("abc and xyz", mappings)
	if !equalStrPtr(got.CategoryID, a) {
		t.Errorf("CategoryID = %v, want first mapping %v", deref(got.CategoryID), *a)
	}
}

func equalStrPtr(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
