package ws

import (
	"encoding/json"
	"testing"
)

func TestNormalizeUserID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"string", `"d1"`, "d1", true},
		{"number", `42`, "42", true},
		// больше 2^53: float64 здесь потерял бы точность
		{"big number", `9007199254740993`, "9007199254740993", true},
		{"negative", `-7`, "-7", true},
		{"fractional", `3.5`, "3.5", true},
		{"empty string", `""`, "", false},
		{"missing", ``, "", false},
		{"null", `null`, "", false},
		{"bool", `true`, "", false},
		{"object", `{"id":1}`, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := normalizeUserID(json.RawMessage(tc.raw))
			if got != tc.want || ok != tc.ok {
				t.Fatalf("normalizeUserID(%s) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
			}
		})
	}
}
