package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditInputValidate(t *testing.T) {
	valid := AuditInput{
		Action:   "update",
		Entity:   "feature",
		EntityID: "darkMode",
		Details:  map[string]any{"enabled": true},
		UserID:   "u1",
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name    string
		mutate  func(*AuditInput)
		missing string
	}{
		{"no action", func(in *AuditInput) { in.Action = "" }, "action"},
		{"no entity", func(in *AuditInput) { in.Entity = "" }, "entity"},
		{"no entityId", func(in *AuditInput) { in.EntityID = "" }, "entityId"},
		{"no details", func(in *AuditInput) { in.Details = nil }, "details"},
		{"empty object details", func(in *AuditInput) { in.Details = map[string]any{} }, "details"},
		{"empty array details", func(in *AuditInput) { in.Details = []any{} }, "details"},
		{"empty string details", func(in *AuditInput) { in.Details = "" }, "details"},
		{"zero number details", func(in *AuditInput) { in.Details = float64(0) }, "details"},
		{"false details", func(in *AuditInput) { in.Details = false }, "details"},
		{"no userId", func(in *AuditInput) { in.UserID = "" }, "userId"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)

			err := in.Validate()
			require.Error(t, err)

			vErr, ok := err.(*ValidationError)
			require.True(t, ok, "expected *ValidationError, got %T", err)
			assert.Equal(t, tc.missing, vErr.Field)
		})
	}
}

// Пустой details должен отбиваться и в том виде, в каком его
// декодирует encoding/json из реального тела запроса.
func TestAuditInputValidateRejectsEmptyDetailsFromJSON(t *testing.T) {
	for _, details := range []string{`{}`, `[]`, `""`, `0`, `false`} {
		t.Run(details, func(t *testing.T) {
			body := fmt.Sprintf(
				`{"action":"update","entity":"feature","entityId":"darkMode","details":%s,"userId":"u1"}`,
				details,
			)

			var in AuditInput
			require.NoError(t, json.Unmarshal([]byte(body), &in))

			var vErr *ValidationError
			require.ErrorAs(t, in.Validate(), &vErr)
			assert.Equal(t, "details", vErr.Field)
		})
	}
}

// Непустые формы тех же типов проходят валидацию.
func TestAuditInputValidateAcceptsPopulatedDetails(t *testing.T) {
	in := AuditInput{
		Action:   "update",
		Entity:   "feature",
		EntityID: "darkMode",
		UserID:   "u1",
	}
	for _, details := range []any{
		map[string]any{"enabled": true},
		[]any{"a"},
		"changed",
		float64(5),
		true,
	} {
		in.Details = details
		assert.NoError(t, in.Validate())
	}
}
