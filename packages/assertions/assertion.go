package assertions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/capture"
)

// Assertion is a parsed expectation
type Assertion struct {
	Subject  string
	Operator Operator
	Expected any
}

func (a *Assertion) String() string {
	if a.Operator == OpExists || a.Operator == OpNotExists {
		return a.Subject + " " + a.Operator.String()
	}
	return fmt.Sprintf("%s %s %v", a.Subject, a.Operator, a.Expected)
}

type Operator int

const (
	OpEquals Operator = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpMatches
	OpExists
	OpNotExists
	OpLength
	OpIncludes
	OpNotIncludes
	OpIn
	OpNotIn
	OpType
	OpSchema
)

var operatorNames = map[Operator]string{
	OpEquals:         "==",
	OpNotEquals:      "!=",
	OpGreaterThan:    ">",
	OpGreaterOrEqual: ">=",
	OpLessThan:       "<",
	OpLessOrEqual:    "<=",
	OpContains:       "contains",
	OpNotContains:    "!contains",
	OpStartsWith:     "startsWith",
	OpEndsWith:       "endsWith",
	OpMatches:        "matches",
	OpExists:         "exists",
	OpNotExists:      "!exists",
	OpLength:         "length",
	OpIncludes:       "includes",
	OpNotIncludes:    "!includes",
	OpIn:             "in",
	OpNotIn:          "!in",
	OpType:           "type",
	OpSchema:         "schema",
}

// operatorsByName is keyed by lower-cased name
var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		m[strings.ToLower(name)] = op
	}
	return m
}()

func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "unknown"
}

// Parse reads an expectation of the form "<subject> <operator> [expected]".
// A missing operator means ==, so "status 200" equals "status == 200".
func Parse(expr string) (*Assertion, error) {
	expr = strings.TrimSpace(expr)
	subject, rest, _ := strings.Cut(expr, " ")
	if subject == "" {
		return nil, fmt.Errorf("empty expectation")
	}
	if _, err := capture.Parse(subject); err != nil {
		return nil, fmt.Errorf("expectation %q: %w", expr, err)
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, fmt.Errorf("expectation %q: missing operator", expr)
	}

	opName, value, _ := strings.Cut(rest, " ")
	op, ok := operatorsByName[strings.ToLower(opName)]
	if !ok {
		op = OpEquals
		value = rest
	}
	value = strings.TrimSpace(value)

	a := &Assertion{Subject: subject, Operator: op}
	switch op {
	case OpExists, OpNotExists:
		if value != "" {
			return nil, fmt.Errorf("expectation %q: %s takes no value", expr, op)
		}
		return a, nil
	}

	if value == "" {
		return nil, fmt.Errorf("expectation %q: missing expected value", expr)
	}
	a.Expected = parseExpected(value)
	return a, nil
}

// parseExpected decodes value as JSON when it is a JSON literal, keeping
// integers as int. Anything else is returned as text.
func parseExpected(value string) any {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return value[1 : len(value)-1]
	}

	var v any
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil || dec.More() {
		return value
	}
	return normalizeNumbers(v)
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
		return t
	default:
		return v
	}
}
