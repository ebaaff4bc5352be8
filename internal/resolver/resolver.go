// Package resolver computes the active fields of a conditional schema for a
// snapshot of form values.
//
// Resolution is a pure function of (schema, values): inputs are never mutated
// and two calls with the same snapshot return the same result.
package resolver

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/condition"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

// ActiveFieldSet is the flattened result of resolving one schema level.
type ActiveFieldSet struct {
	Fields   *schema.Properties
	Required []string
	Warnings []Warning
}

// Warning reports a conditional branch that was excluded because nothing
// could be evaluated for it. The branch stays inactive; warnings are advisory.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

// Keys returns the active field names in order.
func (s ActiveFieldSet) Keys() []string {
	return s.Fields.Keys()
}

// Field returns the resolved schema of an active field.
func (s ActiveFieldSet) Field(key string) (*schema.Node, bool) {
	return s.Fields.Get(key)
}

// IsRequired reports whether key is in the required list.
func (s ActiveFieldSet) IsRequired(key string) bool {
	for _, r := range s.Required {
		if r == key {
			return true
		}
	}
	return false
}

// Node returns the result as an object node, so it can be handed to code that
// walks schemas.
func (s ActiveFieldSet) Node() *schema.Node {
	return &schema.Node{Kind: schema.KindObject, Properties: s.Fields, Required: s.Required}
}

// Resolve returns the active fields of n for values.
//
// Base properties and required fields are merged with every satisfied
// conditional branch (allOf entries, the node's own if/then/else, and branches
// nested inside then/else bodies to any depth). Later branches overwrite
// earlier ones on key collision; required lists are unioned and never shrink.
// Object-valued fields are then resolved again against their own slice of
// values, one level of nesting at a time.
//
// Resolve never panics; on an internal failure it logs and returns an empty
// set.
func Resolve(n *schema.Node, values map[string]any) (out ActiveFieldSet) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "resolver").Interface("panic", r).Msg("resolution failed")
			out = ActiveFieldSet{
				Fields:   schema.NewProperties(),
				Warnings: []Warning{{Message: fmt.Sprintf("resolution failed: %v", r)}},
			}
		}
	}()
	return resolve(n, values, "", nil)
}

// levelFunc resolves a single level (no nested expansion). The memoizing
// Resolver swaps in a cached version.
type levelFunc func(n *schema.Node, values map[string]any, path string) level

type level struct {
	fields   *schema.Properties
	required []string
	warnings []Warning
	// synthetic marks fields that exist only because an if-clause tests them.
	synthetic map[string]bool
}

func resolve(n *schema.Node, values map[string]any, path string, lf levelFunc) ActiveFieldSet {
	// A resolved object field is resolved again from its declaration.
	n = n.Origin()
	if values == nil {
		values = map[string]any{}
	}
	if lf == nil {
		lf = resolveLevel
	}
	lv := lf(n, values, path)

	fields := schema.NewProperties()
	warnings := append([]Warning(nil), lv.warnings...)
	lv.fields.Each(func(key string, field *schema.Node) {
		if !field.IsComposite() {
			fields.Set(key, field)
			return
		}
		nested := resolve(field, formvalue.Scope(values, key), formvalue.Join(path, key), lf)
		warnings = append(warnings, nested.Warnings...)
		fields.Set(key, field.WithFields(nested.Fields, nested.Required))
	})

	return ActiveFieldSet{
		Fields:   fields,
		Required: append([]string(nil), lv.required...),
		Warnings: warnings,
	}
}

// resolveLevel merges n's own properties with every satisfied branch.
func resolveLevel(n *schema.Node, values map[string]any, path string) level {
	lv := level{fields: schema.NewProperties(), synthetic: map[string]bool{}}
	mergeInto(&lv, n, values, path)
	return lv
}

func mergeInto(lv *level, n *schema.Node, values map[string]any, path string) {
	if n == nil {
		return
	}
	lv.fields.Merge(n.Properties)
	n.Properties.Each(func(key string, _ *schema.Node) {
		delete(lv.synthetic, key)
	})
	lv.required = union(lv.required, n.Required)

	if n.IsConditional() {
		mergeBranch(lv, n, values, path, "if")
	}
	for i, entry := range n.AllOf {
		at := fmt.Sprintf("allOf[%d]", i)
		if entry.IsConditional() {
			mergeBranch(lv, entry, values, path, at)
			continue
		}
		mergeInto(lv, entry, values, path)
	}
}

func mergeBranch(lv *level, entry *schema.Node, values map[string]any, path, at string) {
	b := schema.Branch{Conditions: schema.ExtractConditions(entry.If), Then: entry.Then, Else: entry.Else}
	addTriggerFields(lv, entry.If)
	if len(b.Conditions) == 0 {
		w := Warning{Path: formvalue.Join(path, at), Message: "if clause has no extractable condition; branch is never active"}
		log.Debug().Str("component", "resolver").Str("path", w.Path).Msg(w.Message)
		lv.warnings = append(lv.warnings, w)
	}
	mergeInto(lv, b.Active(values), values, path)
}

// addTriggerFields makes the fields an if-clause tests visible even when no
// branch declares them, so the user can pick the value that opens a branch.
// A declared property always takes precedence over the synthesized one; the
// synthesized node collects the const/enum values of every clause as options.
func addTriggerFields(lv *level, ifNode *schema.Node) {
	ifNode.Properties.Each(func(key string, p *schema.Node) {
		var opts []any
		switch {
		case p.HasConst:
			opts = []any{p.Const}
		case len(p.Enum) > 0:
			opts = p.Enum
		default:
			return
		}
		existing, ok := lv.fields.Get(key)
		if ok && !lv.synthetic[key] {
			return
		}
		synth := &schema.Node{Kind: kindOf(opts[0])}
		if ok {
			synth.Enum = append(synth.Enum, existing.Enum...)
		}
		for _, o := range opts {
			if !containsValue(synth.Enum, o) {
				synth.Enum = append(synth.Enum, o)
			}
		}
		lv.fields.Set(key, synth)
		lv.synthetic[key] = true
	})
}

func kindOf(v any) schema.Kind {
	switch v.(type) {
	case string:
		return schema.KindString
	case bool:
		return schema.KindBoolean
	case int, int64, float64:
		return schema.KindNumber
	default:
		return schema.KindUnknown
	}
}

func containsValue(list []any, v any) bool {
	for _, e := range list {
		if condition.Equal(e, v) {
			return true
		}
	}
	return false
}

// union appends the entries of add that are not yet in base.
func union(base, add []string) []string {
	for _, a := range add {
		found := false
		for _, b := range base {
			if a == b {
				found = true
				break
			}
		}
		if !found {
			base = append(base, a)
		}
	}
	return base
}
