package defaults

import (
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

// TransformArray brings externally supplied rows into the shape array widgets
// work with. Scalars of a primitive array become {value, _key}; map rows are
// copied and get a _key when they lack one. Scalars in an object array are
// passed through unchanged. rows is not modified.
func (g *Generator) TransformArray(items *schema.Node, field string, rows []any) []any {
	objects := items.IsObject() || items.HasAllOf()
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		if m, ok := r.(map[string]any); ok {
			cp := make(map[string]any, len(m)+1)
			for k, v := range m {
				cp[k] = v
			}
			if k, _ := cp[formvalue.RowKey].(string); k == "" {
				cp[formvalue.RowKey] = g.keys.Next(field, rows)
			}
			out = append(out, cp)
			continue
		}
		if objects {
			out = append(out, r)
			continue
		}
		out = append(out, map[string]any{"value": r, formvalue.RowKey: g.keys.Next(field, rows)})
	}
	return out
}

// transformBag applies TransformArray to every active array field of n,
// descending into objects and object rows. values is modified in place.
func (g *Generator) transformBag(n *schema.Node, values map[string]any, path string) map[string]any {
	active := g.resolve(n, values)
	active.Fields.Each(func(key string, field *schema.Node) {
		cur, ok := values[key]
		if !ok {
			return
		}
		p := formvalue.Join(path, key)
		switch {
		case field.IsArray():
			rows, ok := cur.([]any)
			if !ok {
				return
			}
			rows = g.TransformArray(field.Items, p, rows)
			if field.ItemsAreObjects() {
				for i, r := range rows {
					if m, ok := r.(map[string]any); ok {
						rows[i] = g.transformBag(field.Items, m, p)
					}
				}
			}
			values[key] = rows
		case field.IsComposite():
			if m, ok := cur.(map[string]any); ok {
				values[key] = g.transformBag(field, m, p)
			}
		}
	})
	return values
}

// StripFormArtifacts returns a copy of values without row keys, with
// {value, _key} rows unwrapped back to their scalar. Use it before values
// leave the form.
func StripFormArtifacts(values map[string]any) map[string]any {
	out, _ := strip(values).(map[string]any)
	if out == nil {
		return map[string]any{}
	}
	return out
}

func strip(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if k == formvalue.RowKey {
				continue
			}
			out[k] = strip(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			if m, ok := e.(map[string]any); ok && isWrapped(m) {
				out[i] = strip(m["value"])
				continue
			}
			out[i] = strip(e)
		}
		return out
	default:
		return v
	}
}

func isWrapped(m map[string]any) bool {
	_, hasValue := m["value"]
	_, hasKey := m[formvalue.RowKey]
	return hasValue && hasKey && len(m) == 2
}
