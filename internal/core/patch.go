package core

import "encoding/json"

// Patch distinguishes the three states a field can take in a partial
// update: absent from the request body (unset), explicitly null (clear),
// or carrying a value (set). It replaces the ambiguity of pointer fields
// where nil means both "don't touch" and "erase".
type Patch[T any] struct {
	present bool
	null    bool
	value   T
}

// Set builds a Patch carrying a value. Mostly useful in tests.
func Set[T any](v T) Patch[T] {
	return Patch[T]{present: true, value: v}
}

// Clear builds a Patch that explicitly nulls the field.
func Clear[T any]() Patch[T] {
	return Patch[T]{present: true, null: true}
}

// IsSet reports whether the field was present with a non-null value.
func (p Patch[T]) IsSet() bool { return p.present && !p.null }

// IsClear reports whether the field was present and explicitly null.
func (p Patch[T]) IsClear() bool { return p.present && p.null }

// IsUnset reports whether the field was absent from the request.
func (p Patch[T]) IsUnset() bool { return !p.present }

// Value returns the carried value and whether one was set.
func (p Patch[T]) Value() (T, bool) {
	if !p.IsSet() {
		var zero T
		return zero, false
	}
	return p.value, true
}

// UnmarshalJSON is only invoked for keys present in the body, so absence
// naturally leaves the Patch in its unset zero state.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.present = true
	if string(data) == "null" {
		p.null = true
		return nil
	}
	return json.Unmarshal(data, &p.value)
}
