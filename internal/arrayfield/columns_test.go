package arrayfield

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

func columnKeys(cols []Column) []string {
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	return keys
}

func TestDiscoverColumns_SupersetAcrossTriggerValues(t *testing.T) {
	items := mustParse(t, rulesSchema).Items

	one := DiscoverColumns(items, []any{map[string]any{"rule_type": "range"}}, nil)
	assert.Equal(t, []string{"column", "rule_type", "min", "max"}, columnKeys(one))

	both := DiscoverColumns(items, []any{
		map[string]any{"rule_type": "range"},
		map[string]any{"rule_type": "regex"},
	}, nil)
	assert.Equal(t, []string{"column", "rule_type", "min", "max", "pattern"}, columnKeys(both))
	assert.Equal(t, "Pattern", both[4].Title)
	assert.NotNil(t, both[4].Node)
}

func TestDiscoverColumns_EmptyBagColumns(t *testing.T) {
	items := mustParse(t, `{
		"type": "object",
		"allOf": [
			{"properties": {"always": {"type": "string"}}},
			{
				"if": {"properties": {"mode": {"not": {"const": "off"}}}},
				"then": {"properties": {"extra": {"type": "string"}}}
			}
		]
	}`)

	cols := DiscoverColumns(items, nil, nil)
	assert.Equal(t, []string{"always", "extra"}, columnKeys(cols))
}

func TestDiscoverColumns_FallbackToRowKeys(t *testing.T) {
	rows := []any{
		map[string]any{"b": 1, "a": 2, "_key": "x-1"},
		map[string]any{"c": 3},
	}
	cols := DiscoverColumns(&schema.Node{Kind: schema.KindObject}, rows, nil)
	assert.Equal(t, []string{"a", "b", "c"}, columnKeys(cols))
	assert.Nil(t, cols[0].Node)

	assert.Equal(t, []string{"a", "b", "c"}, columnKeys(DiscoverColumns(nil, rows, nil)))
}

func TestNeedsCardViewAndViewFor(t *testing.T) {
	deep := mustParse(t, `{
		"type": "array",
		"items": {
			"type": "object",
			"properties": {
				"steps": {
					"type": "array",
					"items": {"type": "object", "properties": {"args": {"type": "array", "items": {"type": "string"}}}}
				}
			}
		}
	}`)
	shallow := mustParse(t, `{
		"type": "array",
		"items": {"type": "object", "properties": {"tags": {"type": "array", "items": {"type": "string"}}}}
	}`)

	assert.True(t, NeedsCardView(deep.Items, nil, nil))
	assert.False(t, NeedsCardView(shallow.Items, nil, nil))

	assert.Equal(t, ViewCards, ViewFor(deep, nil, true, nil))
	assert.Equal(t, ViewTable, ViewFor(shallow, nil, true, nil))
	assert.Equal(t, ViewCards, ViewFor(shallow, nil, false, nil))
	assert.Equal(t, ViewPrimitiveList, ViewFor(mustParse(t, `{"type": "array", "items": {"type": "number"}}`), nil, true, nil))
}
