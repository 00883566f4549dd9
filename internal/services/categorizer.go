package services

import (
	"strings"

	"tally/internal/core"
)

// ResolveKeyword matches raw text against a workspace's keyword mappings and
// returns the category and expense type of the best match. Matching is
// case-insensitive containment; when several keywords are contained in the
// text, the longest one wins, and ties go to the mapping that appears first
// in the slice (storage returns them in insertion order).
func ResolveKeyword(raw string, mappings []core.KeywordMapping) core.KeywordMatch {
	text := core.NormalizeKeyword(raw)
	if text == "" {
		return core.KeywordMatch{}
	}

	var best core.KeywordMatch
	bestLen := 0
	for _, m := range mappings {
		kw := core.NormalizeKeyword(m.Keyword)
		if kw == "" || len(kw) <= bestLen {
			continue
		}
		if strings.Contains(text, kw) {
			best = core.KeywordMatch{CategoryID: m.CategoryID, ExpenseType: m.ExpenseType}
			bestLen = len(kw)
		}
	}
	return best
}
