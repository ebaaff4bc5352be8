// Package validate checks submitted form values against a conditional schema.
//
// Validate applies the form's own rules: required fields of the active set,
// array minItems, string minLength, per-row required fields, and then-clauses
// of anyOf/oneOf entries whose if matches. Every violation is collected; the
// user sees all of them at once.
package validate

import (
	"fmt"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/condition"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

// Kind classifies a validation error.
type Kind string

const (
	RequiredFieldMissing Kind = "required_field_missing"
	ArrayTooShort        Kind = "array_too_short"
	StringTooShort       Kind = "string_too_short"
	TypeMismatch         Kind = "type_mismatch"
	SchemaViolation      Kind = "schema_violation"
	SchemaMalformed      Kind = "schema_malformed"
)

// FieldError is the error reported for one value path.
type FieldError struct {
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
}

// Result is the outcome of a validation. Errors is keyed by dotted value
// path; "" is the form itself.
type Result struct {
	Valid  bool                  `json:"is_valid"`
	Errors map[string]FieldError `json:"errors"`
}

// Paths returns the paths with errors, sorted.
func (r Result) Paths() []string {
	paths := make([]string, 0, len(r.Errors))
	for p := range r.Errors {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// add records err under path unless the path already has an error.
func (r *Result) add(path string, err FieldError) {
	if r.Errors == nil {
		r.Errors = make(map[string]FieldError)
	}
	if _, ok := r.Errors[path]; !ok {
		r.Errors[path] = err
	}
}

func (r *Result) seal() Result {
	if r.Errors == nil {
		r.Errors = map[string]FieldError{}
	}
	r.Valid = len(r.Errors) == 0
	return *r
}

// Validate checks values against n. It never panics; if the schema cannot be
// walked the result is invalid with a SchemaMalformed error on the form.
func Validate(n *schema.Node, values map[string]any) (out Result) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("component", "validate").Interface("panic", rec).Msg("validation failed")
			out = Result{Errors: map[string]FieldError{
				"": {Kind: SchemaMalformed, Message: fmt.Sprintf("schema could not be validated: %v", rec)},
			}}
		}
	}()
	if values == nil {
		values = map[string]any{}
	}
	var res Result
	v := &walker{res: &res}
	v.level(n, values, "")
	return res.seal()
}

type walker struct {
	res *Result
}

func (w *walker) level(n *schema.Node, values map[string]any, path string) {
	active := resolver.Resolve(n, values)
	w.required(active.Required, values, path)
	active.Fields.Each(func(key string, field *schema.Node) {
		w.field(key, field, values, path, active.IsRequired(key))
	})
	w.matchedThen(n, values, path)
}

func (w *walker) required(keys []string, values map[string]any, path string) {
	for _, k := range keys {
		if v, ok := values[k]; ok && !formvalue.IsBlank(v) {
			continue
		}
		w.res.add(formvalue.Join(path, k), FieldError{Kind: RequiredFieldMissing, Message: k + " is required"})
	}
}

func (w *walker) field(key string, n *schema.Node, values map[string]any, path string, required bool) {
	p := formvalue.Join(path, key)
	val, present := values[key]
	switch {
	case n.IsArray():
		if present && val != nil {
			w.array(key, n, val, p, required)
		}
	case n.IsComposite():
		if m, ok := val.(map[string]any); ok {
			w.level(n, m, p)
		}
	default:
		w.minLength(key, n, val, p)
	}
}

// array checks minItems and each row. An empty required array has an
// effective minimum of one row.
func (w *walker) array(key string, n *schema.Node, val any, path string, required bool) {
	rows, ok := val.([]any)
	if !ok {
		return
	}
	minRows := 0
	if n.MinItems != nil {
		minRows = *n.MinItems
	}
	if required && minRows < 1 {
		minRows = 1
	}
	if len(rows) < minRows {
		w.res.add(path, FieldError{Kind: ArrayTooShort, Message: fmt.Sprintf("%s must have at least %s", key, plural(minRows, "item"))})
	}

	for i, r := range rows {
		rp := formvalue.Join(path, strconv.Itoa(i))
		if n.ItemsAreObjects() {
			if m, ok := r.(map[string]any); ok {
				w.level(n.Items, m, rp)
			}
			continue
		}
		if m, ok := r.(map[string]any); ok {
			r = m["value"]
		}
		w.minLength(key, n.Items, r, rp)
	}
}

// minLength checks a non-empty string. Empty strings are the business of
// required.
func (w *walker) minLength(key string, n *schema.Node, val any, path string) {
	s, ok := val.(string)
	if !ok || s == "" || n == nil || n.MinLength == nil {
		return
	}
	if utf8.RuneCountInString(s) < *n.MinLength {
		w.res.add(path, FieldError{Kind: StringTooShort, Message: fmt.Sprintf("%s must be at least %s", key, plural(*n.MinLength, "character"))})
	}
}

// matchedThen validates the then-clause of every anyOf/oneOf entry whose if
// holds: all const properties of the if equal the values.
func (w *walker) matchedThen(n *schema.Node, values map[string]any, path string) {
	if n == nil {
		return
	}
	entries := make([]*schema.Node, 0, len(n.AnyOf)+len(n.OneOf))
	entries = append(entries, n.AnyOf...)
	entries = append(entries, n.OneOf...)
	for _, e := range entries {
		if e == nil || e.If == nil || e.Then == nil || !constsMatch(e.If, values) {
			continue
		}
		w.level(e.Then, values, path)
	}
}

func constsMatch(ifNode *schema.Node, values map[string]any) bool {
	matched, seen := true, 0
	ifNode.Properties.Each(func(key string, p *schema.Node) {
		if !p.HasConst {
			return
		}
		seen++
		if got, ok := values[key]; !ok || !condition.Equal(got, p.Const) {
			matched = false
		}
	})
	return seen > 0 && matched
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
