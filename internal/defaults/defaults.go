// Package defaults builds the initial value bag of a form from its schema.
//
// Defaults are computed against the active field set: a declared default that
// opens a conditional branch gets that branch's fields defaulted as well. The
// generator never picks a value just to force a branch open.
package defaults

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/bh-premnath-git/bhui-sub000/internal/condition"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

// HintsField is the array property that is always seeded with one join hint
// row.
const HintsField = "hints"

// maxPasses bounds the default/resolve fixpoint. Each pass adds at least one
// key, so only pathological schemas reach it.
const maxPasses = 32

// ResolveFunc computes the active fields of a node for a value bag.
type ResolveFunc func(n *schema.Node, values map[string]any) resolver.ActiveFieldSet

// Generator produces default and initial values. The zero value is not
// usable; call New.
type Generator struct {
	keys    *Counter
	resolve ResolveFunc
}

// Option configures a Generator.
type Option func(*Generator)

// WithCounter shares a row-key counter, typically with the array widgets of
// the same form.
func WithCounter(c *Counter) Option {
	return func(g *Generator) { g.keys = c }
}

// WithResolver routes resolution through a memoizing resolver.
func WithResolver(r *resolver.Resolver) Option {
	return func(g *Generator) { g.resolve = r.Resolve }
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, o := range opts {
		o(g)
	}
	if g.keys == nil {
		g.keys = NewCounter()
	}
	if g.resolve == nil {
		g.resolve = resolver.Resolve
	}
	return g
}

// Keys returns the generator's row-key counter.
func (g *Generator) Keys() *Counter {
	return g.keys
}

// Generate returns the default values of n.
func (g *Generator) Generate(n *schema.Node) map[string]any {
	values := g.fill(n, map[string]any{}, "")
	return g.transformBag(n, values, "")
}

// Initial merges externally supplied values over the defaults of n. Supplied
// values win. Fields opened by the supplied values are defaulted, and arrays
// are brought into row shape. initial is not modified.
func (g *Generator) Initial(n *schema.Node, initial map[string]any) (map[string]any, error) {
	values := g.fill(n, map[string]any{}, "")
	if len(initial) > 0 {
		src := formvalue.CloneBag(initial)
		if err := mergo.Merge(&values, src, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
			return nil, fmt.Errorf("merging initial values: %w", err)
		}
	}
	values = g.fill(n, values, "")
	return g.transformBag(n, values, ""), nil
}

// ValueFor returns the default value of a single field.
func (g *Generator) ValueFor(field *schema.Node, key string, required bool) any {
	return g.valueFor(field, key, key, required, false)
}

// NewRow builds a fresh array row for items with a new row key. Object items
// are defaulted like a sub-form; primitive items are wrapped as
// {value, _key}.
func (g *Generator) NewRow(items *schema.Node, field string, rows []any) map[string]any {
	var row map[string]any
	if items.IsObject() || items.HasAllOf() {
		row = g.fill(items, map[string]any{}, field)
		row = g.transformBag(items, row, field)
	} else {
		row = map[string]any{"value": g.valueFor(items, field, field, false, false)}
	}
	row[formvalue.RowKey] = g.keys.Next(field, rows)
	return row
}

// fill adds defaults for every active field of n missing from values and
// repeats until the active set is stable. values is modified in place.
func (g *Generator) fill(n *schema.Node, values map[string]any, path string) map[string]any {
	guard := make(map[string]bool)
	for _, f := range schema.TriggerFields(n) {
		guard[f] = true
	}

	converged := false
	for pass := 0; pass < maxPasses; pass++ {
		active := g.resolve(n, values)
		changed := false
		active.Fields.Each(func(key string, field *schema.Node) {
			if _, ok := values[key]; ok {
				return
			}
			values[key] = g.valueFor(field, key, formvalue.Join(path, key), active.IsRequired(key), guard[key])
			changed = true
		})
		var seeded bool
		values, seeded = seedTriggers(n, values)
		if !changed && !seeded {
			converged = true
			break
		}
	}
	if !converged {
		log.Debug().Str("component", "defaults").Str("path", path).Msg("default generation did not converge")
	}

	// Objects supplied from outside may lack keys of their own.
	active := g.resolve(n, values)
	active.Fields.Each(func(key string, field *schema.Node) {
		if field.IsArray() || !field.IsComposite() {
			return
		}
		if m, ok := values[key].(map[string]any); ok {
			values[key] = g.fill(field, m, formvalue.Join(path, key))
		}
	})
	return values
}

func (g *Generator) valueFor(field *schema.Node, key, path string, required, trigger bool) any {
	switch {
	case field == nil:
		return ""
	case field.HasConst:
		return formvalue.Clone(field.Const)
	case field.HasDefault():
		return coerce(field.Kind, formvalue.Clone(field.Default))
	case field.IsArray():
		return g.arrayValue(field, key, path, required)
	case field.IsObject() || field.HasAllOf():
		return g.fill(field, map[string]any{}, path)
	}

	switch field.Kind {
	case schema.KindNumber:
		return float64(0)
	case schema.KindInteger:
		return 0
	case schema.KindBoolean:
		return false
	case schema.KindNull:
		return nil
	}
	if len(field.Enum) > 0 && !trigger {
		return coerce(field.Kind, formvalue.Clone(field.Enum[0]))
	}
	return ""
}

func (g *Generator) arrayValue(field *schema.Node, key, path string, required bool) []any {
	if key == HintsField {
		return []any{g.hintsRow(field, path)}
	}
	if required && field.ItemsAreObjects() {
		row := g.fill(field.Items, map[string]any{}, path)
		row[formvalue.RowKey] = g.keys.Next(path, nil)
		return []any{row}
	}
	return []any{}
}

// hintsRow is the join-hint row every "hints" array starts with.
func (g *Generator) hintsRow(field *schema.Node, path string) map[string]any {
	row := map[string]any{}
	if field.ItemsAreObjects() {
		row = g.fill(field.Items, row, path)
	}
	row["join_input"] = ""
	row["hint_type"] = "broadcast"
	row["propagate_all_columns"] = false
	row[formvalue.RowKey] = g.keys.Next(path, nil)
	return row
}

// SeedTriggerFields fills blank trigger fields of n's conditionals with the
// condition's expected value, but only when the field's declared default is
// that value. It never chooses a value on its own.
func SeedTriggerFields(n *schema.Node, values map[string]any) map[string]any {
	out, _ := seedTriggers(n, formvalue.CloneBag(values))
	return out
}

func seedTriggers(n *schema.Node, values map[string]any) (map[string]any, bool) {
	seeded := false
	for _, b := range schema.ExtractConditionalFields(n) {
		for _, c := range b.Conditions {
			if c.Negate {
				continue
			}
			if cur, ok := condition.Lookup(values, c.Field); ok && !formvalue.IsBlank(cur) {
				continue
			}
			decl := findProperty(n, c.Field)
			if !decl.HasDefault() {
				continue
			}
			var match bool
			switch c.Operator {
			case condition.Equals:
				match = condition.Equal(decl.Default, c.Value)
			case condition.In:
				for _, v := range c.Values {
					if condition.Equal(decl.Default, v) {
						match = true
						break
					}
				}
			}
			if !match {
				continue
			}
			values = formvalue.Set(values, c.Field, formvalue.Clone(decl.Default))
			seeded = true
		}
	}
	return values, seeded
}

// findProperty looks up a dotted field among n's properties, its allOf
// entries and their then/else bodies. The first declaration wins.
func findProperty(n *schema.Node, path string) *schema.Node {
	if n == nil {
		return nil
	}
	head, rest := path, ""
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			head, rest = path[:i], path[i+1:]
			break
		}
	}
	if p, ok := n.Properties.Get(head); ok {
		if rest == "" {
			return p
		}
		if found := findProperty(p, rest); found != nil {
			return found
		}
	}
	for _, entry := range n.AllOf {
		for _, body := range []*schema.Node{entry, entry.Then, entry.Else} {
			if found := findProperty(body, path); found != nil {
				return found
			}
		}
	}
	return nil
}

// coerce converts v to the scalar type of kind when it can. Values that
// cannot be converted are returned unchanged.
func coerce(k schema.Kind, v any) any {
	var (
		out any
		err error
	)
	switch k {
	case schema.KindString:
		if _, ok := v.(string); ok {
			return v
		}
		out, err = cast.ToStringE(v)
	case schema.KindInteger:
		out, err = cast.ToIntE(v)
	case schema.KindNumber:
		out, err = cast.ToFloat64E(v)
	case schema.KindBoolean:
		out, err = cast.ToBoolE(v)
	default:
		return v
	}
	if err != nil {
		return v
	}
	return out
}
