package schema

// ToJSONSchema converts the node into a standard JSON Schema document (draft
// 2020-12 keywords only). The uiHint and endpoint extensions are dropped.
//
// Every if-clause is exported with its condition fields listed as required.
// Plain JSON Schema treats an if over an absent property as satisfied, while
// the form engine treats an absent trigger as "condition not met"; requiring
// the trigger keeps both readings aligned.
func (n *Node) ToJSONSchema() map[string]any {
	return exportNode(n, false)
}

func exportNode(n *Node, inIf bool) map[string]any {
	out := map[string]any{}
	if n == nil {
		return out
	}
	if n.Kind != KindUnknown {
		out["type"] = n.Kind.String()
	}
	if n.Title != "" {
		out["title"] = n.Title
	}
	if n.Description != "" {
		out["description"] = n.Description
	}
	if n.Default != nil {
		out["default"] = n.Default
	}
	if len(n.Enum) > 0 {
		out["enum"] = n.Enum
	}
	if n.HasConst {
		out["const"] = n.Const
	}
	if n.Properties.Len() > 0 {
		props := make(map[string]any, n.Properties.Len())
		n.Properties.Each(func(k string, p *Node) {
			props[k] = exportNode(p, inIf)
		})
		out["properties"] = props
	}
	if n.Items != nil {
		out["items"] = exportNode(n.Items, false)
	}

	required := append([]string(nil), n.Required...)
	if inIf {
		n.Properties.Each(func(k string, p *Node) {
			if p.HasConst || len(p.Enum) > 0 || p.Properties.Len() > 0 {
				required = appendUnique(required, k)
			}
		})
	}
	if len(required) > 0 {
		out["required"] = toAnyList(required)
	}

	if list := exportList(n.AllOf); list != nil {
		out["allOf"] = list
	}
	if list := exportList(n.AnyOf); list != nil {
		out["anyOf"] = list
	}
	if list := exportList(n.OneOf); list != nil {
		out["oneOf"] = list
	}
	if n.If != nil {
		out["if"] = exportNode(n.If, true)
	}
	if n.Then != nil {
		out["then"] = exportNode(n.Then, false)
	}
	if n.Else != nil {
		out["else"] = exportNode(n.Else, false)
	}
	if n.Not != nil {
		out["not"] = exportNode(n.Not, false)
	}

	if n.MinItems != nil {
		out["minItems"] = *n.MinItems
	}
	if n.MaxItems != nil {
		out["maxItems"] = *n.MaxItems
	}
	if n.MinLength != nil {
		out["minLength"] = *n.MinLength
	}
	if n.MaxLength != nil {
		out["maxLength"] = *n.MaxLength
	}
	if n.Minimum != nil {
		out["minimum"] = *n.Minimum
	}
	if n.Maximum != nil {
		out["maximum"] = *n.Maximum
	}
	if n.Pattern != "" {
		out["pattern"] = n.Pattern
	}
	return out
}

func exportList(nodes []*Node) []any {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = exportNode(n, false)
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, e := range list {
		if e == s {
			return list
		}
	}
	return append(list, s)
}

func toAnyList(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}
