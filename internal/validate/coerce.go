package validate

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cast"

	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

// Coerce converts the values of active fields to their schema types: "42" to
// 42 for numbers, "true" to true for booleans, numbers to strings for string
// fields. Blank values are left alone. Values that cannot be converted are
// kept as they are and reported as TypeMismatch. values is not modified.
func Coerce(n *schema.Node, values map[string]any) (map[string]any, map[string]FieldError) {
	errs := map[string]FieldError{}
	out := coerceLevel(n, formvalue.CloneBag(values), "", errs)
	return out, errs
}

func coerceLevel(n *schema.Node, values map[string]any, path string, errs map[string]FieldError) map[string]any {
	resolver.Resolve(n, values).Fields.Each(func(key string, field *schema.Node) {
		val, ok := values[key]
		if !ok || formvalue.IsBlank(val) {
			return
		}
		values[key] = coerceValue(key, field, val, formvalue.Join(path, key), errs)
	})
	return values
}

func coerceValue(key string, n *schema.Node, val any, path string, errs map[string]FieldError) any {
	switch {
	case n.IsArray():
		rows, ok := val.([]any)
		if !ok {
			return val
		}
		for i, r := range rows {
			rp := formvalue.Join(path, strconv.Itoa(i))
			m, isMap := r.(map[string]any)
			switch {
			case n.ItemsAreObjects() && isMap:
				rows[i] = coerceLevel(n.Items, m, rp, errs)
			case isMap:
				if v, ok := m["value"]; ok && !formvalue.IsBlank(v) {
					m["value"] = coerceScalar(key, n.Items, v, rp, errs)
				}
			case !formvalue.IsBlank(r):
				rows[i] = coerceScalar(key, n.Items, r, rp, errs)
			}
		}
		return rows
	case n.IsComposite():
		if m, ok := val.(map[string]any); ok {
			return coerceLevel(n, m, path, errs)
		}
		return val
	default:
		return coerceScalar(key, n, val, path, errs)
	}
}

func coerceScalar(key string, n *schema.Node, val any, path string, errs map[string]FieldError) any {
	if n == nil {
		return val
	}
	var (
		out any
		err error
	)
	switch n.Kind {
	case schema.KindInteger:
		var f float64
		f, err = cast.ToFloat64E(val)
		switch {
		case err != nil:
		case f != math.Trunc(f):
			err = fmt.Errorf("%v is not a whole number", val)
		case f < math.MinInt || f >= -float64(math.MinInt):
			err = fmt.Errorf("%v is out of integer range", val)
		}
		out = int(f)
	case schema.KindNumber:
		out, err = cast.ToFloat64E(val)
	case schema.KindBoolean:
		out, err = cast.ToBoolE(val)
	case schema.KindString:
		switch val.(type) {
		case string, map[string]any, []any:
			return val
		}
		out, err = cast.ToStringE(val)
	default:
		return val
	}
	if err != nil {
		errs[path] = FieldError{Kind: TypeMismatch, Message: fmt.Sprintf("%s must be %s", key, article(n.Kind))}
		return val
	}
	return out
}

func article(k schema.Kind) string {
	switch k {
	case schema.KindInteger:
		return "an integer"
	case schema.KindBoolean:
		return "true or false"
	default:
		return "a " + k.String()
	}
}
