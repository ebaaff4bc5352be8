// Package condition evaluates the conditions that gate conditional schema
// branches against a form value bag.
package condition

import (
	"fmt"
	"reflect"

	"github.com/spf13/cast"

	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
)

// Operator is the comparison a Condition applies to the looked-up value.
type Operator int

const (
	Equals Operator = iota
	In
	NotEquals
	NotIn
)

// String returns the operator name used in diagnostics and JSON output.
func (op Operator) String() string {
	switch op {
	case Equals:
		return "equals"
	case In:
		return "in"
	case NotEquals:
		return "not_equals"
	case NotIn:
		return "not_in"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (op Operator) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// Condition is a single test against one field of a value bag.
type Condition struct {
	Field    string   `json:"field"`            // dotted path, e.g. "source.source_type"
	Operator Operator `json:"operator"`         // comparison
	Value    any      `json:"value,omitempty"`  // for Equals / NotEquals
	Values   []any    `json:"values,omitempty"` // for In / NotIn
	Negate   bool     `json:"negate,omitempty"` // inverts the final result
}

// String renders the condition for logs and lint output.
func (c Condition) String() string {
	var s string
	switch c.Operator {
	case In, NotIn:
		s = fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Values)
	default:
		s = fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
	}
	if c.Negate {
		return "not(" + s + ")"
	}
	return s
}

// Met reports whether the condition holds for values. A field that cannot be
// found compares as absent: Equals and In fail, NotEquals and NotIn succeed.
func (c Condition) Met(values map[string]any) bool {
	actual, found := Lookup(values, c.Field)

	var ok bool
	switch c.Operator {
	case Equals:
		ok = found && Equal(actual, c.Value)
	case NotEquals:
		ok = !found || !Equal(actual, c.Value)
	case In:
		ok = found && contains(c.Values, actual)
	case NotIn:
		ok = !found || !contains(c.Values, actual)
	}

	if c.Negate {
		return !ok
	}
	return ok
}

// AllMet is a short-circuiting AND over conds. An empty list is never met:
// a branch whose condition could not be extracted stays inactive.
func AllMet(conds []Condition, values map[string]any) bool {
	if len(conds) == 0 {
		return false
	}
	for _, c := range conds {
		if !c.Met(values) {
			return false
		}
	}
	return true
}

// Lookup resolves field in values by dotted path, falling back to the legacy
// source-shape adapter when the direct lookup finds nothing.
func Lookup(values map[string]any, field string) (any, bool) {
	if v, ok := formvalue.Get(values, field); ok && v != nil {
		return v, true
	}
	return legacySourceLookup(values, field)
}

// Equal is strict value equality with numeric normalisation: 1 and 1.0 are
// equal, "1" and 1 are not.
func Equal(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		fa, errA := cast.ToFloat64E(a)
		fb, errB := cast.ToFloat64E(b)
		return errA == nil && errB == nil && fa == fb
	}
	switch a.(type) {
	case map[string]any, []any:
		return reflect.DeepEqual(a, b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

func contains(list []any, v any) bool {
	for _, e := range list {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}
