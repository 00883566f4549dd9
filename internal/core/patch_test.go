package core

import (
	"encoding/json"
	"testing"
)

func TestPatchUnmarshal(t *testing.T) {
	type payload struct {
		Name   Patch[string] `json:"name"`
		Amount Patch[int64]  `json:"amount"`
		Day    Patch[int]    `json:"day"`
	}

	var p payload
	if err := json.Unmarshal([]byte(`{"name":"rent","amount":null}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if v, ok := p.Name.Value(); !ok || v != "rent" {
		t.Errorf("name = %q (%v), want \"rent\" set", v, ok)
	}
	if !p.Amount.IsClear() {
		t.Error("amount should be clear (explicit null)")
	}
	if !p.Day.IsUnset() {
		t.Error("day should be unset (absent key)")
	}
}
