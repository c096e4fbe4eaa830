package assertions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		subject  string
		op       Operator
		expected any
	}{
		{name: "status equals", expr: "status == 201", subject: "status", op: OpEquals, expected: 201},
		{name: "implicit equals", expr: "status 200", subject: "status", op: OpEquals, expected: 200},
		{name: "float", expr: "body.price >= 9.5", subject: "body.price", op: OpGreaterOrEqual, expected: 9.5},
		{name: "bare text", expr: "body.name == ada lovelace", subject: "body.name", op: OpEquals, expected: "ada lovelace"},
		{name: "double quoted", expr: `body.name == "ada"`, subject: "body.name", op: OpEquals, expected: "ada"},
		{name: "single quoted", expr: `body.code == '007'`, subject: "body.code", op: OpEquals, expected: "007"},
		{name: "boolean", expr: "body.active == true", subject: "body.active", op: OpEquals, expected: true},
		{name: "null", expr: "body.deleted == null", subject: "body.deleted", op: OpEquals, expected: nil},
		{name: "array", expr: "status in [200, 201]", subject: "status", op: OpIn, expected: []any{200, 201}},
		{name: "exists", expr: "header.X-Request-Id exists", subject: "header.X-Request-Id", op: OpExists},
		{name: "not exists", expr: "body.error !exists", subject: "body.error", op: OpNotExists},
		{name: "case insensitive operator", expr: "body.url startswith https", subject: "body.url", op: OpStartsWith, expected: "https"},
		{name: "length", expr: "body.items length 3", subject: "body.items", op: OpLength, expected: 3},
		{name: "schema", expr: "body schema user.json", subject: "body", op: OpSchema, expected: "user.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, a.Subject)
			assert.Equal(t, tt.op, a.Operator)
			assert.Equal(t, tt.expected, a.Expected)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"",
		"status",
		"status ==",
		"cookie.session exists",
		"body.id exists 1",
	}

	for _, expr := range tests {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			assert.Error(t, err)
		})
	}
}

func TestAssertionString(t *testing.T) {
	a, err := Parse("status == 200")
	require.NoError(t, err)
	assert.Equal(t, "status == 200", a.String())

	a, err = Parse("body.id exists")
	require.NoError(t, err)
	assert.Equal(t, "body.id exists", a.String())
}

func TestOperatorString(t *testing.T) {
	assert.Equal(t, "!contains", OpNotContains.String())
	assert.Equal(t, "unknown", Operator(99).String())
}
