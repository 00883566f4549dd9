package services

import (
	"strings"

	"tally/internal/core"
)

// QuickAddInput is the result of splitting free text into an expense.
type QuickAddInput struct {
	Name        string
	AmountCents int64
	Currency    string
}

// ParseQuickAdd splits free text like "mcd 12.50" or "flight to oslo 89 USD"
// into a description and an amount. The last token that parses as a positive
// decimal is the amount; a 3-letter uppercase-able code right after it
// overrides the workspace currency. Everything else is the expense name.
func ParseQuickAdd(raw string) (QuickAddInput, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return QuickAddInput{}, core.ErrEmptyInput
	}

	amountIdx := -1
	var cents int64
	for i := len(fields) - 1; i >= 0; i-- {
		c, err := core.ParseAmountToCents(fields[i])
		if err == nil {
			amountIdx = i
			cents = c
			break
		}
	}
	if amountIdx == -1 {
		return QuickAddInput{}, core.ErrNoAmount
	}

	currency := ""
	rest := fields[amountIdx+1:]
	if len(rest) == 1 && isCurrencyCode(rest[0]) {
		currency = strings.ToUpper(rest[0])
		rest = nil
	}

	name := strings.Join(append(append([]string{}, fields[:amountIdx]...), rest...), " ")
	if name == "" {
		return QuickAddInput{}, core.ErrEmptyName
	}

	return QuickAddInput{Name: name, AmountCents: cents, Currency: currency}, nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
