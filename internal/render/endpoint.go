package render

import (
	"github.com/spf13/cast"

	"github.com/bh-premnath-git/bhui-sub000/internal/condition"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
)

// Option is one selectable value.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// EndpointOptions is the outcome of fetching one endpoint. A non-empty Error
// disables the field and is shown inline.
type EndpointOptions struct {
	Options []Option `json:"options,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// OptionSet maps endpoint URLs to fetched options.
type OptionSet map[string]EndpointOptions

// Endpoint responses come in several shapes and option objects name their
// fields differently. The lookup chains below bridge the shapes seen so far:
//
//	[...]            {"data": [...]}   {"items": [...]}   {"results": [...]}
//
// Option value: id, value, name, label. Option label: label, name, value, id.
var (
	listEnvelopes = []string{"data", "items", "results"}
	valueChain    = []string{"id", "value", "name", "label"}
	labelChain    = []string{"label", "name", "value", "id"}
)

// NormalizeOptions turns an endpoint response into options. Scalars become
// options labelled by their string form; objects with none of the known keys
// are skipped.
func NormalizeOptions(raw any) []Option {
	list := formvalue.AsList(raw)
	if list == nil {
		if m := formvalue.AsMap(raw); m != nil {
			for _, k := range listEnvelopes {
				if l, ok := m[k].([]any); ok {
					list = l
					break
				}
			}
		}
	}

	out := make([]Option, 0, len(list))
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			if e == nil {
				continue
			}
			out = append(out, Option{Value: e, Label: cast.ToString(e)})
			continue
		}
		value, vok := firstOf(m, valueChain)
		label, lok := firstOf(m, labelChain)
		if !vok && !lok {
			continue
		}
		out = append(out, Option{Value: value, Label: cast.ToString(label)})
	}
	return out
}

// MatchOption finds the option a stored value refers to. The stored value may
// be the option value itself or an option-like object; its id, value, name
// and label are tried in that order, then labels are compared.
func MatchOption(opts []Option, stored any) (Option, bool) {
	if stored == nil {
		return Option{}, false
	}
	candidates := []any{stored}
	if m, ok := stored.(map[string]any); ok {
		candidates = candidates[:0]
		for _, k := range valueChain {
			if v, ok := m[k]; ok && !formvalue.IsBlank(v) {
				candidates = append(candidates, v)
			}
		}
	}
	for _, c := range candidates {
		for _, o := range opts {
			if condition.Equal(o.Value, c) {
				return o, true
			}
		}
	}
	for _, c := range candidates {
		s, err := cast.ToStringE(c)
		if err != nil {
			continue
		}
		for _, o := range opts {
			if o.Label == s {
				return o, true
			}
		}
	}
	return Option{}, false
}

func firstOf(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && !formvalue.IsBlank(v) {
			return v, true
		}
	}
	return nil, false
}
