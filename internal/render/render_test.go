package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bh-premnath-git/bhui-sub000/internal/arrayfield"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

func mustParse(t *testing.T, src string) *schema.Node {
	t.Helper()
	n, err := schema.Parse([]byte(src))
	require.NoError(t, err)
	return n
}

func fieldKeys(fields []FieldPlan) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

const readerSchema = `{
	"allOf": [
		{
			"if": {"properties": {"source_type": {"const": "File"}}},
			"then": {"properties": {"file_name": {"type": "string"}}, "required": ["file_name"]}
		},
		{
			"if": {"properties": {"source_type": {"const": "Relational"}}},
			"then": {"properties": {"table_name": {"type": "string"}}, "required": ["table_name"]}
		}
	]
}`

func TestRender_SingleTabIsSuppressed(t *testing.T) {
	plan := NewRenderer(nil).Render(mustParse(t, readerSchema), "", map[string]any{"source_type": "File"}, DefaultOptions())

	assert.Empty(t, plan.Tabs)
	require.Equal(t, []string{"source_type", "file_name"}, fieldKeys(plan.Fields))

	src := plan.Fields[0]
	assert.Equal(t, WidgetSelect, src.Widget)
	assert.Equal(t, []Option{{Value: "File", Label: "File"}, {Value: "Relational", Label: "Relational"}}, src.Options)
	require.NotNil(t, src.Selected)
	assert.Equal(t, "File", src.Selected.Value)

	file := plan.Fields[1]
	assert.Equal(t, WidgetText, file.Widget)
	assert.True(t, file.Required)
	assert.Equal(t, "File Name", file.Label)
	assert.Equal(t, []string{"source_type"}, plan.Watch)
}

const tabbedSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string", "title": "Job name"},
		"tags": {"type": "array", "items": {"type": "string"}},
		"retry": {"type": "object", "properties": {"count": {"type": "integer"}, "delay": {"type": "number"}}},
		"target": {
			"type": "object",
			"properties": {"schema": {"type": "string"}, "table": {"type": "string"}, "mode": {"type": "string"}}
		}
	}
}`

func TestRender_Tabs(t *testing.T) {
	plan := NewRenderer(nil).Render(mustParse(t, tabbedSchema), "", map[string]any{}, DefaultOptions())

	require.Len(t, plan.Tabs, 3)
	assert.Equal(t, TabBasic, plan.Tabs[0].Kind)
	assert.Equal(t, []string{"name", "retry"}, fieldKeys(plan.Tabs[0].Fields), "small object inlined")

	assert.Equal(t, TabArray, plan.Tabs[1].Kind)
	assert.Equal(t, "tags", plan.Tabs[1].ID)

	assert.Equal(t, TabObject, plan.Tabs[2].Kind)
	assert.Equal(t, "Target", plan.Tabs[2].Title)
	assert.Equal(t, []string{"schema", "table", "mode"}, fieldKeys(plan.Tabs[2].Fields))
	assert.Equal(t, "target.schema", plan.Tabs[2].Fields[0].Path)
}

func TestRender_WithoutTabs(t *testing.T) {
	opts := DefaultOptions()
	opts.UseTabs = false
	plan := NewRenderer(nil).Render(mustParse(t, tabbedSchema), "", nil, opts)
	assert.Empty(t, plan.Tabs)
	assert.Equal(t, []string{"name", "tags", "retry", "target"}, fieldKeys(plan.Fields))
}

func TestRender_EmptySchema(t *testing.T) {
	plan := NewRenderer(nil).Render(mustParse(t, `{"type": "object"}`), "", nil, DefaultOptions())
	assert.True(t, plan.Empty())
}

func TestRender_TwoColumnSpan(t *testing.T) {
	n := mustParse(t, `{"properties": {
		"name": {"type": "string"},
		"query": {"type": "string", "uiHint": "textarea"},
		"enabled": {"type": "boolean"}
	}}`)
	opts := DefaultOptions()
	opts.TwoColumnLayout = true

	plan := NewRenderer(nil).Render(n, "", nil, opts)
	require.Len(t, plan.Fields, 3)
	assert.Equal(t, 1, plan.Fields[0].Span)
	assert.Equal(t, WidgetTextarea, plan.Fields[1].Widget)
	assert.Equal(t, 2, plan.Fields[1].Span)
	assert.Equal(t, WidgetCheckbox, plan.Fields[2].Widget)
}

func TestRender_NestedConditionalObjectUsesScopedValues(t *testing.T) {
	n := mustParse(t, `{
		"properties": {
			"write": {
				"type": "object",
				"properties": {"mode": {"type": "string", "enum": ["append", "merge"]}},
				"allOf": [{
					"if": {"properties": {"mode": {"const": "merge"}}},
					"then": {"properties": {"merge_keys": {"type": "string"}, "dedupe": {"type": "boolean"}}}
				}]
			}
		}
	}`)

	// Three fields give "write" a tab of its own; being the only tab, its
	// fields are shown directly.
	plan := NewRenderer(nil).Render(n, "target", map[string]any{"write": map[string]any{"mode": "merge"}}, DefaultOptions())
	assert.Empty(t, plan.Tabs)
	assert.Equal(t, []string{"mode", "merge_keys", "dedupe"}, fieldKeys(plan.Fields))
	assert.Equal(t, "target.write.merge_keys", plan.Fields[1].Path)

	plan = NewRenderer(nil).Render(n, "", map[string]any{"mode": "merge"}, DefaultOptions())
	require.Len(t, plan.Fields, 1)
	assert.Equal(t, WidgetObject, plan.Fields[0].Widget)
	assert.Equal(t, []string{"mode"}, fieldKeys(plan.Fields[0].Fields))
}

func TestRender_ArrayRowsResolvePerRow(t *testing.T) {
	n := mustParse(t, `{
		"properties": {
			"rules": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {"rule_type": {"type": "string", "enum": ["range", "regex"]}},
					"allOf": [
						{"if": {"properties": {"rule_type": {"const": "range"}}}, "then": {"properties": {"min": {"type": "number"}}}},
						{"if": {"properties": {"rule_type": {"const": "regex"}}}, "then": {"properties": {"pattern": {"type": "string"}}}}
					]
				}
			}
		},
		"required": ["rules"]
	}`)
	values := map[string]any{"rules": []any{
		map[string]any{"rule_type": "range", "_key": "rules-1"},
		map[string]any{"rule_type": "regex", "_key": "rules-2"},
	}}

	plan := NewRenderer(nil).Render(n, "", values, DefaultOptions())
	require.Len(t, plan.Fields, 1)
	arr := plan.Fields[0].Array
	require.NotNil(t, arr)
	assert.Equal(t, arrayfield.ViewTable, arr.View)
	assert.True(t, arr.CanRemove)

	var cols []string
	for _, c := range arr.Columns {
		cols = append(cols, c.Key)
	}
	assert.Equal(t, []string{"rule_type", "min", "pattern"}, cols)

	require.Len(t, arr.Rows, 2)
	assert.Equal(t, "rules-1", arr.Rows[0].Key)
	assert.Equal(t, []string{"rule_type", "min"}, fieldKeys(arr.Rows[0].Fields))
	assert.Equal(t, []string{"rule_type", "pattern"}, fieldKeys(arr.Rows[1].Fields))
	assert.Equal(t, "rules.1.pattern", arr.Rows[1].Fields[1].Path)
}

func TestRender_PrimitiveList(t *testing.T) {
	n := mustParse(t, `{"properties": {"tags": {"type": "array", "minItems": 1, "items": {"type": "string"}}}}`)
	plan := NewRenderer(nil).Render(n, "", map[string]any{"tags": []any{"a"}}, DefaultOptions())

	arr := plan.Fields[0].Array
	require.NotNil(t, arr)
	assert.Equal(t, arrayfield.ViewPrimitiveList, arr.View)
	assert.Equal(t, 1, arr.MinItems)
	require.Len(t, arr.Rows, 1)
	assert.Equal(t, "tags.0.value", arr.Rows[0].Fields[0].Path)
	assert.Equal(t, "a", arr.Rows[0].Fields[0].Value)
}

func TestRender_Endpoint(t *testing.T) {
	n := mustParse(t, `{"properties": {
		"connection": {"type": "object", "uiHint": "endpoint", "endpoint": "/api/connections"},
		"format": {"type": "object", "ui-hint": "file-format"}
	}}`)

	opts := DefaultOptions()
	opts.Endpoints = OptionSet{"/api/connections": {Options: []Option{{Value: 1, Label: "warehouse"}, {Value: 2, Label: "lake"}}}}
	plan := NewRenderer(nil).Render(n, "", map[string]any{"connection": map[string]any{"id": float64(2), "name": "lake"}}, opts)

	require.Len(t, plan.Fields, 2)
	conn := plan.Fields[0]
	assert.Equal(t, WidgetEndpointSelect, conn.Widget)
	assert.Equal(t, "/api/connections", conn.Endpoint)
	require.NotNil(t, conn.Selected)
	assert.Equal(t, "lake", conn.Selected.Label)
	assert.Equal(t, WidgetCustom, plan.Fields[1].Widget)
	assert.Equal(t, "file-format", plan.Fields[1].Hint)

	opts.Endpoints = OptionSet{"/api/connections": {Error: "upstream timeout"}}
	plan = NewRenderer(nil).Render(n, "", nil, opts)
	conn = plan.Fields[0]
	assert.True(t, conn.Disabled)
	assert.Equal(t, "upstream timeout", conn.Error)
	assert.Empty(t, conn.Options)
}

func TestPivotFields(t *testing.T) {
	n := mustParse(t, `{
		"properties": {"file_type": {"type": "string"}},
		"allOf": [{"if": {"properties": {"source_type": {"const": "File"}}}, "then": {}}]
	}`)
	assert.Equal(t, []string{"source.source_type", "source.file_type"}, PivotFields(n, "source"))
}
