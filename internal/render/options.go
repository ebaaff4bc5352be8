package render

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Options controls layout.
type Options struct {
	TwoColumnLayout bool `json:"two_column_layout" mapstructure:"two_column_layout"`
	UseTabs         bool `json:"use_tabs" mapstructure:"use_tabs"`
	UseTableView    bool `json:"use_table_view" mapstructure:"use_table_view"`

	// Endpoints holds option lists (or fetch errors) per endpoint URL.
	Endpoints OptionSet `json:"-" mapstructure:"-"`
}

// DefaultOptions returns tabs and table views on, single column.
func DefaultOptions() Options {
	return Options{UseTabs: true, UseTableView: true}
}

// DecodeOptions reads options from a loosely typed map such as a decoded
// request body, starting from base. "true"/"1" style strings are accepted.
// An "endpoints" entry maps endpoint URLs to raw responses, or to
// {"error": msg} when the fetch failed.
func DecodeOptions(raw map[string]any, base Options) (Options, error) {
	if len(raw) == 0 {
		return base, nil
	}
	out := base
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return base, fmt.Errorf("creating options decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return base, fmt.Errorf("decoding render options: %w", err)
	}

	if eps, ok := raw["endpoints"].(map[string]any); ok {
		out.Endpoints = make(OptionSet, len(eps))
		for url, resp := range eps {
			if m, ok := resp.(map[string]any); ok {
				if msg, ok := m["error"].(string); ok && msg != "" {
					out.Endpoints[url] = EndpointOptions{Error: msg}
					continue
				}
			}
			out.Endpoints[url] = EndpointOptions{Options: NormalizeOptions(resp)}
		}
	}
	return out, nil
}
