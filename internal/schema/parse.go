package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Issue is a non-fatal schema problem found while parsing. The offending
// keyword is ignored and parsing continues.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// object is an insertion-ordered decoded JSON/YAML object.
type object struct {
	keys []string
	vals map[string]any
}

func newObject() *object {
	return &object{vals: make(map[string]any)}
}

func (o *object) set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Parse decodes a JSON schema document, preserving property order.
func Parse(data []byte) (*Node, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return fromRaw(raw)
}

// ParseYAML decodes a YAML schema document, preserving property order.
func ParseYAML(data []byte) (*Node, error) {
	raw, err := decodeYAML(data)
	if err != nil {
		return nil, err
	}
	return fromRaw(raw)
}

// FromValue builds a node from an already-decoded value such as the result of
// json.Unmarshal into any. Map keys are taken in sorted order since Go maps
// carry no order; prefer Parse when field order matters.
func FromValue(v any) (*Node, []Issue) {
	d := &decoder{}
	n := d.node(orderPlain(v), "")
	return n, d.issues
}

func fromRaw(raw any) (*Node, error) {
	if _, ok := raw.(*object); !ok {
		return nil, fmt.Errorf("schema document must be an object, got %T", raw)
	}
	d := &decoder{}
	n := d.node(raw, "")
	logIssues(d.issues)
	return n, nil
}

func logIssues(issues []Issue) {
	for _, is := range issues {
		log.Warn().Str("component", "schema").Str("path", is.Path).Msg(is.Message)
	}
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decoding schema JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding schema JSON: trailing data after document")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		obj := newObject()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key %v is not a string", kt)
			}
			v, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			obj.set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		list := []any{}
		for dec.More() {
			v, err := decodeJSONValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

func decodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding schema YAML: %w", err)
	}
	if doc.Kind == 0 {
		return nil, fmt.Errorf("decoding schema YAML: empty document")
	}
	return yamlValue(&doc)
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.set(n.Content[i].Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
}

// orderPlain converts plain decoded maps into ordered objects (sorted keys).
func orderPlain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := newObject()
		for _, k := range keys {
			obj.set(k, orderPlain(t[k]))
		}
		return obj
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = orderPlain(e)
		}
		return out
	default:
		return v
	}
}

// plain converts ordered objects back into map[string]any for value positions
// (default, enum, const).
func plain(v any) any {
	switch t := v.(type) {
	case *object:
		m := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			m[k] = plain(t.vals[k])
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

type decoder struct {
	issues []Issue
}

func (d *decoder) issue(path, format string, args ...any) {
	d.issues = append(d.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func join(path, seg string) string {
	if path == "" {
		return seg
	}
	return path + "/" + seg
}

func (d *decoder) node(raw any, path string) *Node {
	obj, ok := raw.(*object)
	if !ok {
		d.issue(path, "schema node must be an object, got %T", raw)
		return &Node{}
	}

	n := &Node{}
	for _, key := range obj.keys {
		v := obj.vals[key]
		at := join(path, key)
		switch key {
		case "type":
			n.Kind = d.kind(v, at)
		case "title":
			n.Title = d.str(v, at)
		case "description":
			n.Description = d.str(v, at)
		case "default":
			n.Default = plain(v)
		case "enum":
			if list, ok := v.([]any); ok {
				n.Enum = plain(list).([]any)
			} else {
				d.issue(at, "enum must be a list")
			}
		case "const":
			n.Const = plain(v)
			n.HasConst = true
		case "properties":
			n.Properties = d.properties(v, at)
		case "items":
			if _, ok := v.(*object); ok {
				n.Items = d.node(v, at)
			} else {
				d.issue(at, "only single-schema items are supported")
			}
		case "required":
			n.Required = d.strings(v, at)
		case "allOf":
			n.AllOf = d.nodes(v, at)
		case "anyOf":
			n.AnyOf = d.nodes(v, at)
		case "oneOf":
			n.OneOf = d.nodes(v, at)
		case "if":
			n.If = d.node(v, at)
		case "then":
			n.Then = d.node(v, at)
		case "else":
			n.Else = d.node(v, at)
		case "not":
			n.Not = d.node(v, at)
		case "minItems":
			n.MinItems = d.intPtr(v, at)
		case "maxItems":
			n.MaxItems = d.intPtr(v, at)
		case "minLength":
			n.MinLength = d.intPtr(v, at)
		case "maxLength":
			n.MaxLength = d.intPtr(v, at)
		case "minimum":
			n.Minimum = d.floatPtr(v, at)
		case "maximum":
			n.Maximum = d.floatPtr(v, at)
		case "pattern":
			n.Pattern = d.str(v, at)
		case "format":
			n.Format = d.str(v, at)
		case "uiHint", "ui-hint":
			n.UIHint = d.str(v, at)
		case "endpoint":
			n.Endpoint = d.str(v, at)
		default:
			if n.Extra == nil {
				n.Extra = make(map[string]any)
			}
			n.Extra[key] = plain(v)
		}
	}
	if n.Kind == KindObject && n.Properties == nil && !n.HasAllOf() && !n.IsConditional() && n.UIHint == "" && !n.IsEndpoint() {
		d.issue(path, "object node declares no properties")
	}
	return n
}

func (d *decoder) kind(v any, at string) Kind {
	var name string
	switch t := v.(type) {
	case string:
		name = t
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s != "null" {
				name = s
				break
			}
		}
	}
	k, ok := parseKind(name)
	if !ok {
		d.issue(at, "unsupported type %v", v)
	}
	return k
}

func (d *decoder) properties(v any, at string) *Properties {
	obj, ok := v.(*object)
	if !ok {
		d.issue(at, "properties must be an object")
		return nil
	}
	props := NewProperties()
	for _, k := range obj.keys {
		props.Set(k, d.node(obj.vals[k], join(at, k)))
	}
	return props
}

func (d *decoder) nodes(v any, at string) []*Node {
	list, ok := v.([]any)
	if !ok {
		d.issue(at, "must be a list of schemas")
		return nil
	}
	out := make([]*Node, 0, len(list))
	for i, e := range list {
		out = append(out, d.node(e, join(at, fmt.Sprint(i))))
	}
	return out
}

func (d *decoder) str(v any, at string) string {
	s, ok := v.(string)
	if !ok {
		d.issue(at, "must be a string")
	}
	return s
}

func (d *decoder) strings(v any, at string) []string {
	list, ok := v.([]any)
	if !ok {
		d.issue(at, "must be a list of strings")
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		} else {
			d.issue(at, "ignoring non-string entry %v", e)
		}
	}
	return out
}

func (d *decoder) intPtr(v any, at string) *int {
	i, err := cast.ToIntE(v)
	if err != nil {
		d.issue(at, "must be an integer")
		return nil
	}
	return &i
}

func (d *decoder) floatPtr(v any, at string) *float64 {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		d.issue(at, "must be a number")
		return nil
	}
	return &f
}
