package arrayfield

import (
	"github.com/bh-premnath-git/bhui-sub000/internal/defaults"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

// maxTableDepth is the deepest array nesting a table view renders. Deeper
// items fall back to cards.
const maxTableDepth = 2

// Column is one table column. Node is nil for columns inferred from row data.
type Column struct {
	Key   string       `json:"key"`
	Title string       `json:"title"`
	Node  *schema.Node `json:"-"`
}

// ViewKind is the widget used for an array field.
type ViewKind string

const (
	ViewTable         ViewKind = "table"
	ViewCards         ViewKind = "cards"
	ViewPrimitiveList ViewKind = "primitive_list"
)

// DiscoverColumns returns the union, in order of first appearance, of:
// the item schema's direct properties, the fields active for each row, and
// the fields active for an empty row. Only when none of those yields a
// column are the keys found in the rows used.
func DiscoverColumns(items *schema.Node, rows []any, resolve defaults.ResolveFunc) []Column {
	if resolve == nil {
		resolve = resolver.Resolve
	}
	var cols []Column
	seen := map[string]int{}
	add := func(key string, n *schema.Node) {
		if key == formvalue.RowKey {
			return
		}
		if i, ok := seen[key]; ok {
			if cols[i].Node == nil {
				cols[i].Node = n
			}
			return
		}
		seen[key] = len(cols)
		cols = append(cols, Column{Key: key, Title: n.Label(key), Node: n})
	}

	if items != nil {
		items.Properties.Each(add)
		for _, r := range rows {
			if m, ok := r.(map[string]any); ok {
				resolve(items, m).Fields.Each(add)
			}
		}
		resolve(items, map[string]any{}).Fields.Each(add)
	}
	if len(cols) > 0 {
		return cols
	}

	found := map[string]any{}
	for _, r := range rows {
		if m, ok := r.(map[string]any); ok {
			for k := range m {
				found[k] = true
			}
		}
	}
	for _, k := range formvalue.Keys(found) {
		add(k, nil)
	}
	return cols
}

// NeedsCardView reports whether an array of object items nests arrays too
// deep for a table: some column is itself an array of objects holding
// another array.
func NeedsCardView(items *schema.Node, rows []any, resolve defaults.ResolveFunc) bool {
	for _, c := range DiscoverColumns(items, rows, resolve) {
		if arrayDepth(c.Node) >= maxTableDepth {
			return true
		}
	}
	return false
}

// ViewFor picks the widget for an array node.
func ViewFor(n *schema.Node, rows []any, useTableView bool, resolve defaults.ResolveFunc) ViewKind {
	if !n.ItemsAreObjects() {
		return ViewPrimitiveList
	}
	if useTableView && !NeedsCardView(n.Items, rows, resolve) {
		return ViewTable
	}
	return ViewCards
}

// arrayDepth counts nested array levels below and including n. Properties
// from every conditional branch are considered.
func arrayDepth(n *schema.Node) int {
	if n == nil {
		return 0
	}
	if n.IsArray() {
		return 1 + arrayDepth(n.Items)
	}
	deepest := 0
	visit := func(_ string, p *schema.Node) {
		if d := arrayDepth(p); d > deepest {
			deepest = d
		}
	}
	n.Properties.Each(visit)
	for _, entry := range n.AllOf {
		for _, body := range []*schema.Node{entry, entry.Then, entry.Else} {
			if d := arrayDepth(body); d > deepest {
				deepest = d
			}
		}
	}
	for _, body := range []*schema.Node{n.Then, n.Else} {
		if d := arrayDepth(body); d > deepest {
			deepest = d
		}
	}
	return deepest
}
