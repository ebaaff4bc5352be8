package schema

import (
	"github.com/bh-premnath-git/bhui-sub000/internal/condition"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
)

// Branch is one conditional entry of a node: a condition list (AND) and the
// sub-schemas applied when it holds (Then) or not (Else).
type Branch struct {
	Index      int // position in allOf, -1 for the node's own if/then/else
	Conditions []condition.Condition
	Then       *Node
	Else       *Node
}

// Active returns the sub-schema that applies for values, or nil.
func (b Branch) Active(values map[string]any) *Node {
	if condition.AllMet(b.Conditions, values) {
		return b.Then
	}
	return b.Else
}

// ExtractProperties returns copies of the node's direct properties and
// required list. Conditional branches are not consulted.
func ExtractProperties(n *Node) (*Properties, []string) {
	if n == nil {
		return NewProperties(), nil
	}
	req := make([]string, len(n.Required))
	copy(req, n.Required)
	return n.Properties.Clone(), req
}

// ExtractConditionalFields lists the conditional branches declared directly on
// n: its own if/then/else first, then each conditional allOf entry in order.
func ExtractConditionalFields(n *Node) []Branch {
	if n == nil {
		return nil
	}
	var out []Branch
	if n.IsConditional() {
		out = append(out, Branch{Index: -1, Conditions: ExtractConditions(n.If), Then: n.Then, Else: n.Else})
	}
	for i, entry := range n.AllOf {
		if entry.IsConditional() {
			out = append(out, Branch{Index: i, Conditions: ExtractConditions(entry.If), Then: entry.Then, Else: entry.Else})
		}
	}
	return out
}

// ExtractConditions turns an if-schema into an AND list of conditions.
//
//	properties.<k>.const        -> Equals
//	properties.<k>.enum         -> In
//	properties.<k>.not.const    -> NotEquals
//	properties.<k>.not.enum     -> NotIn
//	properties.<k>.properties   -> nested, dotted field path
//	allOf entries               -> flattened into the same list
//	not (single condition)      -> negated
//
// An if-schema that yields no conditions returns nil; callers treat that as
// a condition that is never met.
func ExtractConditions(ifNode *Node) []condition.Condition {
	if ifNode == nil {
		return nil
	}
	var out []condition.Condition
	collectConditions(ifNode, "", &out)
	for _, sub := range ifNode.AllOf {
		out = append(out, ExtractConditions(sub)...)
	}
	if ifNode.Not != nil {
		if neg := ExtractConditions(ifNode.Not); len(neg) == 1 {
			c := neg[0]
			c.Negate = !c.Negate
			out = append(out, c)
		}
	}
	return out
}

func collectConditions(n *Node, prefix string, out *[]condition.Condition) {
	n.Properties.Each(func(key string, p *Node) {
		field := formvalue.Join(prefix, key)
		switch {
		case p.HasConst:
			*out = append(*out, condition.Condition{Field: field, Operator: condition.Equals, Value: p.Const})
		case len(p.Enum) > 0:
			*out = append(*out, condition.Condition{Field: field, Operator: condition.In, Values: p.Enum})
		case p.Not != nil && p.Not.HasConst:
			*out = append(*out, condition.Condition{Field: field, Operator: condition.NotEquals, Value: p.Not.Const})
		case p.Not != nil && len(p.Not.Enum) > 0:
			*out = append(*out, condition.Condition{Field: field, Operator: condition.NotIn, Values: p.Not.Enum})
		case p.Properties.Len() > 0:
			collectConditions(p, field, out)
		}
	})
}

// TriggerFields returns the fields read by the conditionals that apply at n's
// level: its own branches, branches nested in then/else bodies, and branches
// inside unconditional allOf entries. Fields are unique, in discovery order.
func TriggerFields(n *Node) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(*Node)
	walk = func(node *Node) {
		if node == nil {
			return
		}
		for _, b := range ExtractConditionalFields(node) {
			for _, c := range b.Conditions {
				if !seen[c.Field] {
					seen[c.Field] = true
					out = append(out, c.Field)
				}
			}
			walk(b.Then)
			walk(b.Else)
		}
		for _, entry := range node.AllOf {
			if !entry.IsConditional() {
				walk(entry)
			}
		}
	}
	walk(n)
	return out
}
