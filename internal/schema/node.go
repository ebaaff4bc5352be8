// Package schema models the pipeline form schema documents: a pragmatic subset
// of JSON Schema (type, properties, items, required, enum, const, allOf,
// if/then/else) plus the uiHint and endpoint extensions consumed by the renderer.
//
// Nodes are immutable once parsed. Derived nodes (for example a resolved
// object field) are built with WithFields, which copies only the top-level
// struct and shares every unchanged subtree.
package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a node by its declared JSON Schema type.
type Kind int

const (
	KindUnknown Kind = iota // no type declared
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindArray
	KindObject
	KindNull
)

var kindNames = map[Kind]string{
	KindUnknown: "",
	KindString:  "string",
	KindNumber:  "number",
	KindInteger: "integer",
	KindBoolean: "boolean",
	KindArray:   "array",
	KindObject:  "object",
	KindNull:    "null",
}

// String returns the JSON Schema type name, or "" for KindUnknown.
func (k Kind) String() string {
	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsPrimitive is true for string, number, integer and boolean.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindString, KindNumber, KindInteger, KindBoolean:
		return true
	default:
		return false
	}
}

func parseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name != "" && name == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// UI hint values with renderer meaning.
const (
	HintEndpoint = "endpoint"
	HintTextarea = "textarea"
)

// Node is one schema node.
type Node struct {
	Kind        Kind
	Title       string
	Description string
	Default     any
	Enum        []any
	Const       any
	HasConst    bool

	Properties *Properties
	Items      *Node
	Required   []string

	AllOf []*Node
	AnyOf []*Node
	OneOf []*Node
	If    *Node
	Then  *Node
	Else  *Node
	Not   *Node

	MinItems  *int
	MaxItems  *int
	MinLength *int
	MaxLength *int
	Minimum   *float64
	Maximum   *float64
	Pattern   string
	Format    string

	UIHint   string // "uiHint" / "ui-hint"
	Endpoint string

	// Extra holds keywords this package does not interpret.
	Extra map[string]any

	// origin is the declared node a WithFields copy was derived from.
	origin *Node
}

// IsObject reports whether the node describes an object: declared as one, or
// untyped but carrying properties.
func (n *Node) IsObject() bool {
	if n == nil {
		return false
	}
	return n.Kind == KindObject || (n.Kind == KindUnknown && n.Properties.Len() > 0)
}

// IsArray reports whether the node is declared as an array.
func (n *Node) IsArray() bool {
	return n != nil && n.Kind == KindArray
}

// IsPrimitive reports whether the node is a string, number, integer or boolean.
func (n *Node) IsPrimitive() bool {
	return n != nil && n.Kind.IsPrimitive()
}

// HasAllOf reports whether the node carries allOf entries.
func (n *Node) HasAllOf() bool {
	return n != nil && len(n.AllOf) > 0
}

// IsConditional reports whether the node is an if/then(/else) branch.
func (n *Node) IsConditional() bool {
	return n != nil && n.If != nil && (n.Then != nil || n.Else != nil)
}

// IsComposite is true for nodes the resolver expands one level deeper:
// allOf-bearing nodes and objects with properties.
func (n *Node) IsComposite() bool {
	if n == nil {
		return false
	}
	return n.HasAllOf() || (n.IsObject() && n.Properties.Len() > 0)
}

// ItemsAreObjects reports whether the node is an array of objects.
func (n *Node) ItemsAreObjects() bool {
	return n.IsArray() && n.Items != nil && (n.Items.IsObject() || n.Items.HasAllOf())
}

// IsEndpoint reports whether the node's options come from an endpoint.
func (n *Node) IsEndpoint() bool {
	return n != nil && (n.Endpoint != "" || strings.EqualFold(n.UIHint, HintEndpoint))
}

// HasDefault reports whether the schema declares a non-null default.
func (n *Node) HasDefault() bool {
	return n != nil && n.Default != nil
}

// Label returns the node title, or a humanized form of key.
func (n *Node) Label(key string) string {
	if n != nil && n.Title != "" {
		return n.Title
	}
	return Humanize(key)
}

// WithFields returns a copy of n whose properties and required list are
// replaced. All other subtrees are shared with n. The copy remembers the
// declared node it came from; see Origin.
func (n *Node) WithFields(props *Properties, required []string) *Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Properties = props
	cp.Required = required
	cp.origin = n.Origin()
	if cp.Kind == KindUnknown && props.Len() > 0 {
		cp.Kind = KindObject
	}
	return &cp
}

// Origin returns the declared node n was derived from by WithFields, or n
// itself when n was parsed. Copies of copies share one origin.
func (n *Node) Origin() *Node {
	if n == nil || n.origin == nil {
		return n
	}
	return n.origin
}

// RequiredSet returns the node's required list as a set.
func (n *Node) RequiredSet() map[string]bool {
	if n == nil {
		return map[string]bool{}
	}
	set := make(map[string]bool, len(n.Required))
	for _, r := range n.Required {
		set[r] = true
	}
	return set
}

// Humanize turns a snake_case or dotted key into a label: "file_name" -> "File Name".
func Humanize(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Properties is an insertion-ordered map of property name to schema node.
// A nil *Properties behaves as empty.
type Properties struct {
	keys  []string
	nodes map[string]*Node
}

// NewProperties returns an empty property map.
func NewProperties() *Properties {
	return &Properties{nodes: make(map[string]*Node)}
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns property names in insertion order.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Get returns the node stored under key.
func (p *Properties) Get(key string) (*Node, bool) {
	if p == nil {
		return nil, false
	}
	n, ok := p.nodes[key]
	return n, ok
}

// Has reports whether key is present.
func (p *Properties) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Set stores node under key. An existing key keeps its position and its node
// is replaced (last write wins).
func (p *Properties) Set(key string, node *Node) {
	if _, ok := p.nodes[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.nodes[key] = node
}

// Merge sets every property of other into p, in other's order.
func (p *Properties) Merge(other *Properties) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		p.Set(k, other.nodes[k])
	}
}

// Each calls fn for every property in order.
func (p *Properties) Each(fn func(key string, node *Node)) {
	if p == nil {
		return
	}
	for _, k := range p.keys {
		fn(k, p.nodes[k])
	}
}

// Clone returns a shallow copy: the map is new, the nodes are shared.
func (p *Properties) Clone() *Properties {
	out := NewProperties()
	out.Merge(p)
	return out
}
