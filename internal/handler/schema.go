package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bh-premnath-git/bhui-sub000/internal/catalog"
	"github.com/bh-premnath-git/bhui-sub000/internal/defaults"
	"github.com/bh-premnath-git/bhui-sub000/internal/render"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
	"github.com/bh-premnath-git/bhui-sub000/internal/validate"
)

// SchemaHandler implements the stateless form endpoints over the schema
// catalog.
type SchemaHandler struct {
	schemas *catalog.Registry
	options render.Options
}

// NewSchemaHandler creates a new SchemaHandler. options are the render
// defaults requests start from.
func NewSchemaHandler(schemas *catalog.Registry, options render.Options) *SchemaHandler {
	return &SchemaHandler{schemas: schemas, options: options}
}

func (h *SchemaHandler) entry(w http.ResponseWriter, r *http.Request) (*catalog.Entry, bool) {
	e, err := h.schemas.Get(chi.URLParam(r, "name"))
	if err != nil {
		catalogErrorToHTTP(w, err)
		return nil, false
	}
	return e, true
}

type valuesRequest struct {
	Values map[string]any `json:"values"`
}

func (h *SchemaHandler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"schemas": h.schemas.List()})
}

type schemaResponse struct {
	Name       string         `json:"name"`
	Source     string         `json:"source"`
	Issues     []schema.Issue `json:"issues,omitempty"`
	Triggers   []string       `json:"triggers"`
	JSONSchema map[string]any `json:"json_schema"`
}

func (h *SchemaHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	triggers := schema.TriggerFields(e.Root())
	if triggers == nil {
		triggers = []string{}
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Name:       e.Name(),
		Source:     e.Doc.Source,
		Issues:     e.Doc.Issues,
		Triggers:   triggers,
		JSONSchema: e.Root().ToJSONSchema(),
	})
}

// activeField describes one resolved field.
type activeField struct {
	Key      string        `json:"key"`
	Type     string        `json:"type,omitempty"`
	Title    string        `json:"title"`
	Required bool          `json:"required"`
	Enum     []any         `json:"enum,omitempty"`
	Fields   []activeField `json:"fields,omitempty"`
}

type resolveResponse struct {
	Fields   []activeField      `json:"fields"`
	Required []string           `json:"required"`
	Warnings []resolver.Warning `json:"warnings,omitempty"`
}

func describe(props *schema.Properties, required map[string]bool) []activeField {
	out := make([]activeField, 0, props.Len())
	props.Each(func(key string, n *schema.Node) {
		f := activeField{
			Key:      key,
			Type:     n.Kind.String(),
			Title:    n.Label(key),
			Required: required[key],
			Enum:     n.Enum,
		}
		if n.IsComposite() && !n.IsArray() {
			f.Fields = describe(n.Properties, n.RequiredSet())
		}
		out = append(out, f)
	})
	return out
}

func (h *SchemaHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var req valuesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	active := e.Resolver.Resolve(e.Root(), req.Values)
	required := active.Required
	if required == nil {
		required = []string{}
	}
	writeJSON(w, http.StatusOK, resolveResponse{
		Fields:   describe(active.Fields, active.Node().RequiredSet()),
		Required: required,
		Warnings: active.Warnings,
	})
}

func (h *SchemaHandler) Defaults(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var req valuesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	values, err := defaults.New(defaults.WithResolver(e.Resolver)).Initial(e.Root(), req.Values)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_VALUES", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"values": values})
}

type validateRequest struct {
	Values map[string]any `json:"values"`
	// RulesOnly skips type coercion and the JSON Schema keywords.
	RulesOnly bool `json:"rules_only"`
}

func (h *SchemaHandler) Validate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.RulesOnly {
		writeJSON(w, http.StatusOK, validate.Validate(e.Root(), req.Values))
		return
	}
	writeJSON(w, http.StatusOK, validate.Full(e.Root(), e.Checker, req.Values))
}

type renderRequest struct {
	Values     map[string]any `json:"values"`
	ParentPath string         `json:"parent_path"`
	Options    map[string]any `json:"options"`
}

func (h *SchemaHandler) Render(w http.ResponseWriter, r *http.Request) {
	e, ok := h.entry(w, r)
	if !ok {
		return
	}
	var req renderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	opts, err := render.DecodeOptions(req.Options, h.options)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_OPTIONS", err.Error())
		return
	}
	plan := render.NewRenderer(e.Resolver.Resolve).Render(e.Root(), req.ParentPath, req.Values, opts)
	writeJSON(w, http.StatusOK, plan)
}
