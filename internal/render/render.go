// Package render turns a resolved schema and live values into a widget plan:
// tabs, fields and the widget each field is drawn with. Drawing the plan is
// the host's job.
package render

import (
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/arrayfield"
	"github.com/bh-premnath-git/bhui-sub000/internal/defaults"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

// inlineObjectMax is the largest object inlined into the basic tab instead of
// getting a tab of its own.
const inlineObjectMax = 2

// Pivot fields are watched explicitly on top of the whole form.
var pivotFields = []string{"source_type", "file_type"}

// WidgetKind names the widget a field is drawn with.
type WidgetKind string

const (
	WidgetText           WidgetKind = "text"
	WidgetTextarea       WidgetKind = "textarea"
	WidgetNumber         WidgetKind = "number"
	WidgetCheckbox       WidgetKind = "checkbox"
	WidgetSelect         WidgetKind = "select"
	WidgetConst          WidgetKind = "const"
	WidgetEndpointSelect WidgetKind = "endpoint_select"
	WidgetCustom         WidgetKind = "custom"
	WidgetObject         WidgetKind = "object"
	WidgetArray          WidgetKind = "array"
)

// TabKind groups tabs.
type TabKind string

const (
	TabBasic  TabKind = "basic"
	TabArray  TabKind = "array"
	TabObject TabKind = "object"
)

type category int

const (
	categoryBasic category = iota
	categoryArray
	categoryObject
)

// FieldPlan describes one field widget.
type FieldPlan struct {
	Key         string     `json:"key"`
	Path        string     `json:"path"`
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Widget      WidgetKind `json:"widget"`
	Hint        string     `json:"hint,omitempty"`
	Required    bool       `json:"required,omitempty"`
	Value       any        `json:"value,omitempty"`
	Span        int        `json:"span"`

	Options  []Option `json:"options,omitempty"`
	Selected *Option  `json:"selected,omitempty"`
	Endpoint string   `json:"endpoint,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
	Error    string   `json:"error,omitempty"`

	// Object fields.
	Fields []FieldPlan `json:"fields,omitempty"`

	// Array fields.
	Array *ArrayPlan `json:"array,omitempty"`

	category category
}

// ArrayPlan describes an array widget and its rows.
type ArrayPlan struct {
	View      arrayfield.ViewKind `json:"view"`
	Columns   []arrayfield.Column `json:"columns,omitempty"`
	Rows      []RowPlan           `json:"rows"`
	CanRemove bool                `json:"can_remove"`
	MinItems  int                 `json:"min_items,omitempty"`
}

// RowPlan is one array row, resolved against its own values.
type RowPlan struct {
	Key    string      `json:"key"`
	Fields []FieldPlan `json:"fields"`
}

// Tab is one tab of the form.
type Tab struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Kind   TabKind     `json:"kind"`
	Fields []FieldPlan `json:"fields"`
}

// Plan is the rendering of one form level. Exactly one of Tabs and Fields is
// set, or neither when there is nothing to show.
type Plan struct {
	Tabs     []Tab              `json:"tabs,omitempty"`
	Fields   []FieldPlan        `json:"fields,omitempty"`
	Watch    []string           `json:"watch,omitempty"`
	Warnings []resolver.Warning `json:"warnings,omitempty"`
}

// Empty reports whether the plan shows nothing.
func (p Plan) Empty() bool {
	return len(p.Tabs) == 0 && len(p.Fields) == 0
}

// Renderer builds plans. It is stateless and safe for concurrent use.
type Renderer struct {
	resolve    defaults.ResolveFunc
	dispatcher *strategyDispatcher
}

// NewRenderer creates a Renderer. A nil resolve uses resolver.Resolve.
func NewRenderer(resolve defaults.ResolveFunc) *Renderer {
	if resolve == nil {
		resolve = resolver.Resolve
	}
	r := &Renderer{resolve: resolve}
	r.dispatcher = newStrategyDispatcher(r)
	return r
}

// Render resolves n against values (scoped to n's level) and lays out the
// active fields under parentPath. It never panics; on an internal failure it
// logs and returns an empty plan.
func (r *Renderer) Render(n *schema.Node, parentPath string, values map[string]any, opts Options) (plan Plan) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("component", "render").Str("path", parentPath).Interface("panic", rec).Msg("render failed")
			plan = Plan{}
		}
	}()
	if values == nil {
		values = map[string]any{}
	}

	active := r.resolve(n, values)
	fields := r.planFields(active, parentPath, values, opts)
	plan.Warnings = active.Warnings
	plan.Watch = PivotFields(n, parentPath)

	if !opts.UseTabs {
		plan.Fields = fields
		return plan
	}
	tabs := categorize(fields)
	switch len(tabs) {
	case 0:
	case 1:
		plan.Fields = tabs[0].Fields
	default:
		plan.Tabs = tabs
	}
	return plan
}

// PivotFields lists the value paths whose change re-runs resolution beyond the
// whole-form watch: the trigger fields of n and the fixed pivot fields it
// declares.
func PivotFields(n *schema.Node, parentPath string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(f string) {
		p := formvalue.Join(parentPath, f)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, f := range schema.TriggerFields(n) {
		add(f)
	}
	if n != nil {
		for _, f := range pivotFields {
			if n.Properties.Has(f) {
				add(f)
			}
		}
	}
	return out
}

func (r *Renderer) planFields(active resolver.ActiveFieldSet, path string, values map[string]any, opts Options) []FieldPlan {
	out := make([]FieldPlan, 0, active.Fields.Len())
	active.Fields.Each(func(key string, node *schema.Node) {
		ctx := &fieldContext{
			Key:      key,
			Path:     formvalue.Join(path, key),
			Node:     node,
			Value:    values[key],
			Required: active.IsRequired(key),
			Opts:     opts,
		}
		out = append(out, r.dispatcher.Dispatch(ctx))
	})
	return out
}

// nestedFields lays out an already resolved object node.
func (r *Renderer) nestedFields(n *schema.Node, path string, values map[string]any, opts Options) []FieldPlan {
	set := resolver.ActiveFieldSet{Fields: n.Properties, Required: n.Required}
	if set.Fields == nil {
		set.Fields = schema.NewProperties()
	}
	return r.planFields(set, path, values, opts)
}

func (r *Renderer) arrayPlan(ctx *fieldContext) *ArrayPlan {
	f := arrayfield.New(arrayfield.Config{
		Name:     ctx.Path,
		Schema:   ctx.Node,
		Required: ctx.Required,
		Resolve:  r.resolve,
	}, formvalue.AsList(ctx.Value))

	ap := &ArrayPlan{
		View:      f.View(ctx.Opts.UseTableView),
		CanRemove: f.CanRemove(),
		Rows:      make([]RowPlan, 0, f.Len()),
	}
	if ctx.Node.MinItems != nil {
		ap.MinItems = *ctx.Node.MinItems
	}
	if ap.View == arrayfield.ViewTable {
		ap.Columns = f.Columns()
	}

	rows := f.Values()
	for i := range rows {
		key, _ := f.Key(i)
		rowPath := formvalue.Join(ctx.Path, strconv.Itoa(i))
		rowValues := formvalue.AsMap(rows[i])
		rp := RowPlan{Key: key}
		if ap.View == arrayfield.ViewPrimitiveList {
			item := &fieldContext{
				Key:   "value",
				Path:  formvalue.Join(rowPath, "value"),
				Node:  ctx.Node.Items,
				Value: rowValues["value"],
				Opts:  ctx.Opts,
			}
			rp.Fields = []FieldPlan{r.dispatcher.Dispatch(item)}
		} else {
			active, _ := f.RowFields(i)
			rp.Fields = r.planFields(active, rowPath, rowValues, ctx.Opts)
		}
		ap.Rows = append(ap.Rows, rp)
	}
	return ap
}

// categorize splits fields into a basic tab, one tab per array and one tab
// per object with more than inlineObjectMax fields. Smaller objects stay in
// the basic tab.
func categorize(fields []FieldPlan) []Tab {
	basic := Tab{ID: "basic", Title: "Basic", Kind: TabBasic}
	var rest []Tab
	for _, f := range fields {
		switch {
		case f.category == categoryArray:
			rest = append(rest, Tab{ID: f.Path, Title: f.Label, Kind: TabArray, Fields: []FieldPlan{f}})
		case f.category == categoryObject && len(f.Fields) > inlineObjectMax:
			rest = append(rest, Tab{ID: f.Path, Title: f.Label, Kind: TabObject, Fields: f.Fields})
		default:
			basic.Fields = append(basic.Fields, f)
		}
	}
	if len(basic.Fields) == 0 {
		return rest
	}
	return append([]Tab{basic}, rest...)
}
