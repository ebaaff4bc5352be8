package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOptions(t *testing.T) {
	rows := []any{
		map[string]any{"id": "c1", "name": "Warehouse"},
		map[string]any{"value": "c2", "label": "Lake"},
		map[string]any{"name": "only-name"},
		map[string]any{"unrelated": true},
		"plain",
	}
	want := []Option{
		{Value: "c1", Label: "Warehouse"},
		{Value: "c2", Label: "Lake"},
		{Value: "only-name", Label: "only-name"},
		{Value: "plain", Label: "plain"},
	}

	tests := []struct {
		name string
		raw  any
	}{
		{"bare list", rows},
		{"data envelope", map[string]any{"data": rows}},
		{"items envelope", map[string]any{"items": rows}},
		{"results envelope", map[string]any{"results": rows, "total": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, NormalizeOptions(tt.raw))
		})
	}

	assert.Empty(t, NormalizeOptions(map[string]any{"unknown": rows}))
	assert.Empty(t, NormalizeOptions(nil))
}

func TestMatchOption(t *testing.T) {
	opts := []Option{{Value: "c1", Label: "Warehouse"}, {Value: float64(7), Label: "Seven"}}

	tests := []struct {
		name   string
		stored any
		want   string
		found  bool
	}{
		{"by value", "c1", "Warehouse", true},
		{"numeric across types", 7, "Seven", true},
		{"object id", map[string]any{"id": "c1"}, "Warehouse", true},
		{"object name falls back to label", map[string]any{"name": "Seven"}, "Seven", true},
		{"label", "Warehouse", "Warehouse", true},
		{"missing", "nope", "", false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchOption(opts, tt.stored)
			require.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got.Label)
		})
	}
}

func TestDecodeOptions(t *testing.T) {
	got, err := DecodeOptions(map[string]any{
		"use_tabs":          "false",
		"two_column_layout": true,
		"endpoints": map[string]any{
			"/api/a": map[string]any{"data": []any{"x"}},
			"/api/b": map[string]any{"error": "boom"},
		},
	}, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, got.UseTabs)
	assert.True(t, got.TwoColumnLayout)
	assert.True(t, got.UseTableView, "unset keys keep the base value")
	assert.Equal(t, []Option{{Value: "x", Label: "x"}}, got.Endpoints["/api/a"].Options)
	assert.Equal(t, "boom", got.Endpoints["/api/b"].Error)

	_, err = DecodeOptions(map[string]any{"use_tabs": map[string]any{"on": 1}}, DefaultOptions())
	assert.Error(t, err)
}
