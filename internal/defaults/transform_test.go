package defaults

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

func TestTransformArray(t *testing.T) {
	objItems := &schema.Node{Kind: schema.KindObject}
	strItems := &schema.Node{Kind: schema.KindString}

	tests := []struct {
		name  string
		items *schema.Node
		rows  []any
		want  []any
	}{
		{
			name:  "object rows get missing keys",
			items: objItems,
			rows:  []any{map[string]any{"a": 1}, map[string]any{"a": 2, "_key": "x-1"}},
			want:  []any{map[string]any{"a": 1, "_key": "x-2"}, map[string]any{"a": 2, "_key": "x-1"}},
		},
		{
			name:  "scalars in object arrays pass through",
			items: objItems,
			rows:  []any{5},
			want:  []any{5},
		},
		{
			name:  "primitive rows are wrapped",
			items: strItems,
			rows:  []any{"a", map[string]any{"value": "b", "_key": "x-9"}},
			want:  []any{map[string]any{"value": "a", "_key": "x-1"}, map[string]any{"value": "b", "_key": "x-9"}},
		},
		{
			name:  "untyped items wrap scalars",
			items: nil,
			rows:  []any{true},
			want:  []any{map[string]any{"value": true, "_key": "x-1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New().TransformArray(tt.items, "x", tt.rows)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransformArray_DoesNotModifyInput(t *testing.T) {
	rows := []any{map[string]any{"a": 1}}
	New().TransformArray(&schema.Node{Kind: schema.KindObject}, "x", rows)
	assert.Equal(t, []any{map[string]any{"a": 1}}, rows)
}

func TestStripFormArtifacts(t *testing.T) {
	in := map[string]any{
		"tags":  []any{map[string]any{"value": "a", "_key": "tags-1"}},
		"rules": []any{map[string]any{"column": "id", "_key": "rules-1"}},
		"opt":   map[string]any{"value": "v"},
		"_key":  "root",
	}
	got := StripFormArtifacts(in)
	assert.Equal(t, map[string]any{
		"tags":  []any{"a"},
		"rules": []any{map[string]any{"column": "id"}},
		"opt":   map[string]any{"value": "v"},
	}, got)
	assert.Contains(t, in, "_key", "input untouched")

	assert.Equal(t, map[string]any{}, StripFormArtifacts(nil))
}

func TestCounter(t *testing.T) {
	c := NewCounter()
	assert.Equal(t, "f-2", c.Next("f", []any{map[string]any{"_key": "f-1"}}))
	assert.Equal(t, "f-3", c.Next("f", nil))
	assert.Equal(t, "g-1", c.Next("g", nil))
}
