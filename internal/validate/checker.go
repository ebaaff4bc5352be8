package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/bh-premnath-git/bhui-sub000/internal/defaults"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

const checkerURL = "internal://form.json"

// leafKeywords are the JSON Schema keywords whose failures the form rules do
// not already cover.
var leafKeywords = map[string]bool{
	"type":                 true,
	"enum":                 true,
	"const":                true,
	"pattern":              true,
	"format":               true,
	"minimum":              true,
	"maximum":              true,
	"exclusiveMinimum":     true,
	"exclusiveMaximum":     true,
	"maxLength":            true,
	"maxItems":             true,
	"uniqueItems":          true,
	"multipleOf":           true,
	"additionalProperties": true,
	"not":                  true,
	"false":                true,
}

// Checker runs a compiled standard JSON Schema over form values. It reports
// the keywords the form rules leave out: maximum, pattern, enum membership
// and the like.
type Checker struct {
	sch *jsonschema.Schema
}

// NewChecker compiles n's JSON Schema export.
func NewChecker(n *schema.Node) (*Checker, error) {
	b, err := json.Marshal(n.ToJSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(checkerURL, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile(checkerURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Checker{sch: sch}, nil
}

// outputUnit mirrors the basic output format of a validation error.
type outputUnit struct {
	KeywordLocation  string          `json:"keywordLocation"`
	InstanceLocation string          `json:"instanceLocation"`
	Error            json.RawMessage `json:"error"`
	Errors           []outputUnit    `json:"errors"`
}

// Check validates values and returns SchemaViolation errors keyed by dotted
// path. Failures on blank values are dropped.
func (c *Checker) Check(values map[string]any) map[string]FieldError {
	out := map[string]FieldError{}
	clean := defaults.StripFormArtifacts(values)
	b, err := json.Marshal(clean)
	if err != nil {
		out[""] = FieldError{Kind: SchemaViolation, Message: fmt.Sprintf("values cannot be encoded: %v", err)}
		return out
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		out[""] = FieldError{Kind: SchemaViolation, Message: fmt.Sprintf("values cannot be decoded: %v", err)}
		return out
	}

	verr := c.sch.Validate(inst)
	if verr == nil {
		return out
	}
	ve, ok := verr.(*jsonschema.ValidationError)
	if !ok {
		out[""] = FieldError{Kind: SchemaViolation, Message: verr.Error()}
		return out
	}
	raw, err := json.Marshal(ve.BasicOutput())
	if err != nil {
		out[""] = FieldError{Kind: SchemaViolation, Message: ve.Error()}
		return out
	}
	var root outputUnit
	if err := json.Unmarshal(raw, &root); err != nil {
		out[""] = FieldError{Kind: SchemaViolation, Message: ve.Error()}
		return out
	}
	collect(root, clean, out)
	return out
}

func collect(u outputUnit, values map[string]any, out map[string]FieldError) {
	for _, child := range u.Errors {
		collect(child, values, out)
	}
	if len(u.Errors) > 0 || len(u.Error) == 0 {
		return
	}
	if !leafKeywords[lastSegment(u.KeywordLocation)] {
		return
	}
	path := dotted(u.InstanceLocation)
	if path != "" {
		if v, ok := formvalue.Get(values, path); !ok || formvalue.IsBlank(v) {
			return
		}
	}
	if _, seen := out[path]; seen {
		return
	}
	msg := string(u.Error)
	var s string
	if json.Unmarshal(u.Error, &s) == nil {
		msg = s
	}
	out[path] = FieldError{Kind: SchemaViolation, Message: msg}
}

func lastSegment(ptr string) string {
	if i := strings.LastIndexByte(ptr, '/'); i >= 0 {
		return ptr[i+1:]
	}
	return ptr
}

// dotted converts a JSON pointer ("/a/0/b") to a value path ("a.0.b").
func dotted(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	segs := strings.Split(ptr, "/")
	for i, s := range segs {
		segs[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
	}
	return strings.Join(segs, ".")
}

// Full runs every check: type coercion, the form rules over the coerced
// values, then the standard JSON Schema keywords. chk may be nil, in which
// case the schema is compiled for this call.
func Full(n *schema.Node, chk *Checker, values map[string]any) Result {
	coerced, typeErrs := Coerce(n, values)
	res := Validate(n, coerced)
	for p, e := range typeErrs {
		res.add(p, e)
	}

	if chk == nil {
		var err error
		chk, err = NewChecker(n)
		if err != nil {
			log.Warn().Str("component", "validate").Err(err).Msg("schema does not compile")
			res.add("", FieldError{Kind: SchemaMalformed, Message: err.Error()})
			return res.seal()
		}
	}
	for p, e := range chk.Check(coerced) {
		if _, mismatch := typeErrs[p]; mismatch {
			continue
		}
		res.add(p, e)
	}
	return res.seal()
}
