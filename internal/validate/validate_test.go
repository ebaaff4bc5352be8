package validate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bh-premnath-git/bhui-sub000/internal/defaults"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

func mustParse(t *testing.T, src string) *schema.Node {
	t.Helper()
	n, err := schema.Parse([]byte(src))
	require.NoError(t, err)
	return n
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

func TestValidate_ActiveBranchRequired(t *testing.T) {
	n := mustParse(t, readerSchema)

	res := Validate(n, map[string]any{"source_type": "File"})
	assert.False(t, res.Valid)
	assert.Equal(t, map[string]FieldError{
		"file_name": {Kind: RequiredFieldMissing, Message: "file_name is required"},
	}, res.Errors)

	res = Validate(n, map[string]any{"source_type": "File", "file_name": "a.csv"})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)

	res = Validate(n, map[string]any{"source_type": "File", "file_name": ""})
	assert.Equal(t, []string{"file_name"}, res.Paths(), "empty string counts as missing")
}

func TestValidate_InactiveBranchIgnored(t *testing.T) {
	n := mustParse(t, readerSchema)
	res := Validate(n, map[string]any{"source_type": "Relational", "table_name": "t1"})
	assert.True(t, res.Valid)
}

func TestValidate_Arrays(t *testing.T) {
	n := mustParse(t, `{
		"properties": {
			"tags": {"type": "array", "items": {"type": "string"}},
			"keys": {"type": "array", "minItems": 2, "items": {"type": "string"}}
		},
		"required": ["tags"]
	}`)

	tests := []struct {
		name   string
		values map[string]any
		want   map[string]FieldError
	}{
		{
			name:   "empty required array",
			values: map[string]any{"tags": []any{}},
			want:   map[string]FieldError{"tags": {Kind: ArrayTooShort, Message: "tags must have at least 1 item"}},
		},
		{
			name:   "absent required array",
			values: map[string]any{},
			want:   map[string]FieldError{"tags": {Kind: RequiredFieldMissing, Message: "tags is required"}},
		},
		{
			name:   "optional array below minItems",
			values: map[string]any{"tags": []any{"a"}, "keys": []any{"k"}},
			want:   map[string]FieldError{"keys": {Kind: ArrayTooShort, Message: "keys must have at least 2 items"}},
		},
		{
			name:   "optional array absent",
			values: map[string]any{"tags": []any{"a"}},
			want:   map[string]FieldError{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(n, tt.values)
			if diff := cmp.Diff(tt.want, res.Errors); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, len(tt.want) == 0, res.Valid)
		})
	}
}

func TestValidate_MinLength(t *testing.T) {
	n := mustParse(t, `{"properties": {"name": {"type": "string", "minLength": 3}}}`)

	res := Validate(n, map[string]any{"name": "ab"})
	assert.Equal(t, map[string]FieldError{
		"name": {Kind: StringTooShort, Message: "name must be at least 3 characters"},
	}, res.Errors)

	assert.True(t, Validate(n, map[string]any{"name": ""}).Valid, "empty optional string is not checked")
	assert.True(t, Validate(n, map[string]any{"name": "abc"}).Valid)
}

func TestValidate_RowRequired(t *testing.T) {
	n := mustParse(t, `{
		"properties": {
			"rules": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {"column": {"type": "string"}, "note": {"type": "string", "minLength": 2}},
					"required": ["column"]
				}
			}
		}
	}`)
	res := Validate(n, map[string]any{"rules": []any{
		map[string]any{"column": "a", "_key": "rules-1"},
		map[string]any{"_key": "rules-2", "note": "x"},
	}})
	assert.Equal(t, []string{"rules.1.column", "rules.1.note"}, res.Paths())
	assert.Equal(t, "column is required", res.Errors["rules.1.column"].Message)
}

func TestValidate_AnyOfThen(t *testing.T) {
	n := mustParse(t, `{
		"properties": {"mode": {"type": "string", "enum": ["append", "merge"]}},
		"anyOf": [
			{"if": {"properties": {"mode": {"const": "merge"}}}, "then": {"required": ["merge_keys"]}}
		]
	}`)

	res := Validate(n, map[string]any{"mode": "merge"})
	assert.Equal(t, []string{"merge_keys"}, res.Paths())

	assert.True(t, Validate(n, map[string]any{"mode": "append"}).Valid)
	assert.True(t, Validate(n, map[string]any{"mode": "merge", "merge_keys": "id"}).Valid)
}

func TestValidate_NilSchema(t *testing.T) {
	res := Validate(nil, nil)
	assert.True(t, res.Valid)
	assert.NotNil(t, res.Errors)
}

func TestValidate_GeneratedDefaultsAreValid(t *testing.T) {
	n := mustParse(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string", "default": "job"},
			"count": {"type": "integer"},
			"enabled": {"type": "boolean"},
			"mode": {"type": "string", "enum": ["append", "merge"]},
			"comment": {"type": "string"}
		},
		"required": ["name", "count", "enabled", "mode"]
	}`)
	values := defaults.New().Generate(n)
	res := Validate(n, values)
	assert.True(t, res.Valid, "errors: %v", res.Errors)
}

func TestCoerce(t *testing.T) {
	n := mustParse(t, `{"properties": {
		"count": {"type": "integer"},
		"ratio": {"type": "number"},
		"on": {"type": "boolean"},
		"label": {"type": "string"},
		"ports": {"type": "array", "items": {"type": "integer"}}
	}}`)

	in := map[string]any{
		"count": "42",
		"ratio": "0.5",
		"on":    "true",
		"label": 7,
		"ports": []any{map[string]any{"value": "80", "_key": "ports-1"}, "443"},
	}
	got, errs := Coerce(n, in)
	assert.Empty(t, errs)
	assert.Equal(t, 42, got["count"])
	assert.Equal(t, 0.5, got["ratio"])
	assert.Equal(t, true, got["on"])
	assert.Equal(t, "7", got["label"])
	assert.Equal(t, []any{map[string]any{"value": 80, "_key": "ports-1"}, 443}, got["ports"])
	assert.Equal(t, "42", in["count"], "input is not modified")

	_, errs = Coerce(n, map[string]any{"count": "abc", "on": ""})
	assert.Equal(t, map[string]FieldError{
		"count": {Kind: TypeMismatch, Message: "count must be an integer"},
	}, errs)

	_, errs = Coerce(n, map[string]any{"count": 3.5})
	assert.Contains(t, errs, "count")
}

func TestCoerce_IntegerRange(t *testing.T) {
	n := mustParse(t, `{"properties": {"count": {"type": "integer"}}}`)

	tests := []struct {
		name  string
		value any
		ok    bool
	}{
		{"large but in range", "1e9", true},
		{"negative", "-12", true},
		{"far above range", "1e30", false},
		{"far below range", "-1e30", false},
		{"infinity", "Inf", false},
		{"not a number", "NaN", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := Coerce(n, map[string]any{"count": tt.value})
			if tt.ok {
				assert.Empty(t, errs)
				assert.IsType(t, 0, got["count"])
				return
			}
			assert.Equal(t, FieldError{Kind: TypeMismatch, Message: "count must be an integer"}, errs["count"])
			assert.Equal(t, tt.value, got["count"], "rejected value is kept as given")
		})
	}
}

func TestFull(t *testing.T) {
	n := mustParse(t, `{
		"type": "object",
		"properties": {
			"retries": {"type": "integer", "maximum": 5},
			"bucket": {"type": "string", "pattern": "^s3://"},
			"region": {"type": "string"}
		},
		"required": ["region"]
	}`)
	chk, err := NewChecker(n)
	require.NoError(t, err)

	res := Full(n, chk, map[string]any{"retries": "9", "bucket": "gs://x"})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"bucket", "region", "retries"}, res.Paths())
	assert.Equal(t, SchemaViolation, res.Errors["bucket"].Kind)
	assert.Equal(t, SchemaViolation, res.Errors["retries"].Kind)
	assert.Equal(t, RequiredFieldMissing, res.Errors["region"].Kind)

	res = Full(n, nil, map[string]any{"retries": "abc", "region": "eu"})
	assert.Equal(t, map[string]FieldError{
		"retries": {Kind: TypeMismatch, Message: "retries must be an integer"},
	}, res.Errors)

	res = Full(n, chk, map[string]any{"retries": 3, "bucket": "s3://data", "region": "eu"})
	assert.True(t, res.Valid, "errors: %v", res.Errors)
}

func TestFull_ConditionalTriggerAbsent(t *testing.T) {
	n := mustParse(t, readerSchema)
	res := Full(n, nil, map[string]any{})
	assert.True(t, res.Valid, "errors: %v", res.Errors)

	res = Full(n, nil, map[string]any{"source_type": "File"})
	assert.Equal(t, []string{"file_name"}, res.Paths())
	assert.Equal(t, RequiredFieldMissing, res.Errors["file_name"].Kind)
}

func TestFull_UncompilableSchema(t *testing.T) {
	n := mustParse(t, `{"properties": {"name": {"type": "string", "pattern": "(["}}}`)
	res := Full(n, nil, map[string]any{"name": "x"})
	assert.False(t, res.Valid)
	assert.Equal(t, SchemaMalformed, res.Errors[""].Kind)
}
