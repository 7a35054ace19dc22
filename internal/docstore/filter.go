package docstore

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Operator is one of the nine supported comparison operators.
type Operator string

const (
	OpEqual            Operator = "=="
	OpGreaterOrEqual   Operator = ">="
	OpLessOrEqual      Operator = "<="
	OpGreater          Operator = ">"
	OpLess             Operator = "<"
	OpArrayContains    Operator = "array-contains"
	OpArrayContainsAny Operator = "array-contains-any"
	OpIn               Operator = "in"
	OpNotIn            Operator = "not-in"
)

// ParseOperator maps the wire spelling of an operator to its Operator value.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OpEqual, OpGreaterOrEqual, OpLessOrEqual, OpGreater, OpLess,
		OpArrayContains, OpArrayContainsAny, OpIn, OpNotIn:
		return Operator(s), nil
	}
	return "", fmt.Errorf("unknown filter operator %q", s)
}

// Filter is one (field, operator, value) condition. A query is a conjunction
// of filters. For OpArrayContainsAny, OpIn and OpNotIn the value must be a
// slice of candidate values.
type Filter struct {
	Field    string
	Operator Operator
	Value    any
}

// sqlPredicate compiles the filter into one SQL condition over the jsonb
// "data" column. argIndex is the 1-based index of the next placeholder; the
// returned args continue from there.
func (f Filter) sqlPredicate(argIndex int) (string, []any, error) {
	switch f.Operator {
	case OpEqual:
		encoded, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value: %w", err)
		}
		return fmt.Sprintf("data -> $%d = $%d::jsonb", argIndex, argIndex+1),
			[]any{f.Field, string(encoded)}, nil

	case OpGreaterOrEqual, OpLessOrEqual, OpGreater, OpLess:
		op := string(f.Operator)
		switch v := f.Value.(type) {
		case int, int32, int64, float32, float64:
			return fmt.Sprintf("(data ->> $%d)::numeric %s $%d", argIndex, op, argIndex+1),
				[]any{f.Field, v}, nil
		case string:
			return fmt.Sprintf("data ->> $%d %s $%d", argIndex, op, argIndex+1),
				[]any{f.Field, v}, nil
		default:
			return "", nil, fmt.Errorf("operator %q needs a string or numeric value, got %T", f.Operator, f.Value)
		}

	case OpArrayContains:
		encoded, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value: %w", err)
		}
		return fmt.Sprintf("data -> $%d @> $%d::jsonb", argIndex, argIndex+1),
			[]any{f.Field, string(encoded)}, nil

	case OpArrayContainsAny:
		return f.anyPredicate(argIndex, "data -> $%d @> $%d::jsonb", false)

	case OpIn:
		return f.anyPredicate(argIndex, "data -> $%d = $%d::jsonb", false)

	case OpNotIn:
		return f.anyPredicate(argIndex, "data -> $%d = $%d::jsonb", true)
	}
	return "", nil, fmt.Errorf("unknown filter operator %q", f.Operator)
}

// anyPredicate expands a multi-value filter into an OR of single-value
// comparisons, optionally negated as a whole.
func (f Filter) anyPredicate(argIndex int, template string, negate bool) (string, []any, error) {
	values, err := candidateValues(f.Value)
	if err != nil {
		return "", nil, fmt.Errorf("operator %q: %w", f.Operator, err)
	}

	args := []any{f.Field}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value: %w", err)
		}
		parts = append(parts, fmt.Sprintf(template, argIndex, argIndex+len(args)))
		args = append(args, string(encoded))
	}

	predicate := "(" + strings.Join(parts, " OR ") + ")"
	if negate {
		predicate = "NOT " + predicate
	}
	return predicate, args, nil
}

func candidateValues(v any) ([]any, error) {
	switch values := v.(type) {
	case []any:
		if len(values) == 0 {
			return nil, fmt.Errorf("needs at least one candidate value")
		}
		return values, nil
	case []string:
		if len(values) == 0 {
			return nil, fmt.Errorf("needs at least one candidate value")
		}
		out := make([]any, len(values))
		for i, s := range values {
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("needs a slice of candidate values, got %T", v)
}
