// Package formvalue provides dotted-path access to form value bags.
//
// A bag is the nested map[string]any a host form library holds for a form.
// Readers treat bags as immutable snapshots: Set returns a new bag that shares
// every untouched subtree with the original.
package formvalue

import (
	"sort"
	"strconv"
	"strings"
)

// RowKey is the synthetic identity field carried by array rows.
const RowKey = "_key"

// Get walks path (dot separated) through nested maps and returns the value.
// Numeric segments index into slices. Missing intermediate keys yield
// (nil, false), never an error.
func Get(bag map[string]any, path string) (any, bool) {
	if bag == nil || path == "" {
		return nil, false
	}
	var cur any = bag
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set returns a copy of bag with value stored at path. Maps along the path are
// copied; intermediate maps are created when absent or not a map. Slices along
// the path are copied when a numeric segment addresses an existing element.
func Set(bag map[string]any, path string, value any) map[string]any {
	if path == "" {
		return bag
	}
	out, _ := setIn(bag, strings.Split(path, "."), value).(map[string]any)
	return out
}

func setIn(cur any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	seg := segs[0]
	if list, ok := cur.([]any); ok {
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(list) {
			next := make([]any, len(list))
			copy(next, list)
			next[i] = setIn(list[i], segs[1:], value)
			return next
		}
	}
	src, _ := cur.(map[string]any)
	next := make(map[string]any, len(src)+1)
	for k, v := range src {
		next[k] = v
	}
	next[seg] = setIn(src[seg], segs[1:], value)
	return next
}

// Scope returns bag[key] when it is a map, or an empty map otherwise.
func Scope(bag map[string]any, key string) map[string]any {
	if m, ok := bag[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Clone deep-copies maps and slices; scalars are shared.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// CloneBag deep-copies a bag. A nil bag clones to an empty map.
func CloneBag(bag map[string]any) map[string]any {
	if bag == nil {
		return map[string]any{}
	}
	return Clone(bag).(map[string]any)
}

// IsBlank reports whether v counts as "not filled in": nil or an empty string.
// Empty lists and maps are values the user has interacted with and are not blank.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}

// Keys returns the map keys of bag in sorted order, skipping RowKey.
func Keys(bag map[string]any) []string {
	keys := make([]string, 0, len(bag))
	for k := range bag {
		if k == RowKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Join builds a dotted path from a prefix and a key. An empty prefix yields key.
func Join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}

// AsList returns v as a slice. Anything that is not a []any yields nil.
func AsList(v any) []any {
	list, _ := v.([]any)
	return list
}

// AsMap returns v as a map. Anything that is not a map[string]any yields nil.
func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
