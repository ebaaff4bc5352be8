package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCondition_Met(t *testing.T) {
	values := map[string]any{
		"source_type": "File",
		"limit":       float64(10),
		"engine": map[string]any{
			"kind": "spark",
		},
	}

	testCases := []struct {
		name string
		cond Condition
		want bool
	}{
		{name: "equals match", cond: Condition{Field: "source_type", Operator: Equals, Value: "File"}, want: true},
		{name: "equals mismatch", cond: Condition{Field: "source_type", Operator: Equals, Value: "Relational"}, want: false},
		{name: "equals nested path", cond: Condition{Field: "engine.kind", Operator: Equals, Value: "spark"}, want: true},
		{name: "equals numeric normalised", cond: Condition{Field: "limit", Operator: Equals, Value: 10}, want: true},
		{name: "equals string vs number is strict", cond: Condition{Field: "limit", Operator: Equals, Value: "10"}, want: false},
		{name: "equals missing field", cond: Condition{Field: "target", Operator: Equals, Value: "x"}, want: false},
		{name: "in match", cond: Condition{Field: "source_type", Operator: In, Values: []any{"Relational", "File"}}, want: true},
		{name: "in mismatch", cond: Condition{Field: "source_type", Operator: In, Values: []any{"Relational"}}, want: false},
		{name: "not equals", cond: Condition{Field: "source_type", Operator: NotEquals, Value: "Relational"}, want: true},
		{name: "not equals missing field", cond: Condition{Field: "target", Operator: NotEquals, Value: "x"}, want: true},
		{name: "not in", cond: Condition{Field: "source_type", Operator: NotIn, Values: []any{"File"}}, want: false},
		{name: "negated equals", cond: Condition{Field: "source_type", Operator: Equals, Value: "File", Negate: true}, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cond.Met(values))
		})
	}
}

func TestAllMet(t *testing.T) {
	values := map[string]any{"a": "x", "b": "y"}

	assert.True(t, AllMet([]Condition{
		{Field: "a", Operator: Equals, Value: "x"},
		{Field: "b", Operator: Equals, Value: "y"},
	}, values))

	assert.False(t, AllMet([]Condition{
		{Field: "a", Operator: Equals, Value: "x"},
		{Field: "b", Operator: Equals, Value: "z"},
	}, values))

	assert.False(t, AllMet(nil, values), "empty condition list is never met")
}

func TestLookup_LegacySourceShapes(t *testing.T) {
	testCases := []struct {
		name   string
		values map[string]any
		field  string
		want   any
		found  bool
	}{
		{
			name:   "whitelisted root field under source",
			values: map[string]any{"source": map[string]any{"file_name": "a.csv"}},
			field:  "file_name",
			want:   "a.csv",
			found:  true,
		},
		{
			name:   "non whitelisted root field is not redirected",
			values: map[string]any{"source": map[string]any{"delimiter": ","}},
			field:  "delimiter",
			found:  false,
		},
		{
			name:   "nested source type falls back to root",
			values: map[string]any{"source_type": "File"},
			field:  "source.source_type",
			want:   "File",
			found:  true,
		},
		{
			name:   "nested source type falls back to source.type",
			values: map[string]any{"source": map[string]any{"type": "Relational"}},
			field:  "source.source_type",
			want:   "Relational",
			found:  true,
		},
		{
			name: "nested source type falls back to double nesting",
			values: map[string]any{"source": map[string]any{
				"source": map[string]any{"source_type": "File"},
			}},
			field: "source.source_type",
			want:  "File",
			found: true,
		},
		{
			name:   "direct hit wins",
			values: map[string]any{"source_type": "Root", "source": map[string]any{"source_type": "Nested"}},
			field:  "source_type",
			want:   "Root",
			found:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Lookup(tc.values, tc.field)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(1, 1.0))
	assert.True(t, Equal("a", "a"))
	assert.True(t, Equal(nil, nil))
	assert.True(t, Equal(true, true))
	assert.False(t, Equal(true, "true"))
	assert.False(t, Equal(nil, ""))
	assert.True(t, Equal([]any{"a"}, []any{"a"}))
}
