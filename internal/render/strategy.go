package render

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

// fieldContext carries what a strategy needs to plan one field.
type fieldContext struct {
	Key      string
	Path     string
	Node     *schema.Node
	Value    any
	Required bool
	Opts     Options
}

// fieldStrategy plans one kind of field.
type fieldStrategy interface {
	CanHandle(ctx *fieldContext) bool
	Plan(ctx *fieldContext, fp *FieldPlan)
}

// strategyDispatcher picks the first strategy that handles a field.
type strategyDispatcher struct {
	strategies []fieldStrategy
}

func newStrategyDispatcher(r *Renderer) *strategyDispatcher {
	return &strategyDispatcher{
		strategies: []fieldStrategy{
			constStrategy{},
			endpointStrategy{},
			customStrategy{},
			arrayStrategy{renderer: r},
			objectStrategy{renderer: r},
			enumStrategy{},
			primitiveStrategy{},
		},
	}
}

// Dispatch plans ctx with the first matching strategy.
func (d *strategyDispatcher) Dispatch(ctx *fieldContext) FieldPlan {
	fp := FieldPlan{
		Key:      ctx.Key,
		Path:     ctx.Path,
		Label:    ctx.Node.Label(ctx.Key),
		Required: ctx.Required,
		Value:    ctx.Value,
		Hint:     hintOf(ctx.Node),
		Span:     1,
	}
	if ctx.Node != nil {
		fp.Description = ctx.Node.Description
	}
	for _, s := range d.strategies {
		if s.CanHandle(ctx) {
			s.Plan(ctx, &fp)
			break
		}
	}
	if ctx.Opts.TwoColumnLayout && fullWidth(fp.Widget) {
		fp.Span = 2
	}
	return fp
}

func hintOf(n *schema.Node) string {
	if n == nil {
		return ""
	}
	return n.UIHint
}

func fullWidth(w WidgetKind) bool {
	switch w {
	case WidgetTextarea, WidgetObject, WidgetArray, WidgetCustom:
		return true
	}
	return false
}

type constStrategy struct{}

func (constStrategy) CanHandle(ctx *fieldContext) bool {
	return ctx.Node != nil && ctx.Node.HasConst
}

func (constStrategy) Plan(ctx *fieldContext, fp *FieldPlan) {
	fp.Widget = WidgetConst
	if formvalue.IsBlank(fp.Value) {
		fp.Value = ctx.Node.Const
	}
}

// endpointStrategy draws a selector fed by an external option fetch.
type endpointStrategy struct{}

func (endpointStrategy) CanHandle(ctx *fieldContext) bool {
	return ctx.Node.IsEndpoint()
}

func (endpointStrategy) Plan(ctx *fieldContext, fp *FieldPlan) {
	fp.Widget = WidgetEndpointSelect
	fp.Endpoint = ctx.Node.Endpoint
	lookup := fp.Endpoint
	if lookup == "" {
		lookup = ctx.Path
	}
	res, ok := ctx.Opts.Endpoints[lookup]
	if !ok {
		return
	}
	if res.Error != "" {
		fp.Disabled = true
		fp.Error = res.Error
		return
	}
	fp.Options = res.Options
	if o, ok := MatchOption(res.Options, ctx.Value); ok {
		fp.Selected = &o
	}
}

// customStrategy hands an object with a UI hint to a single custom widget.
type customStrategy struct{}

func (customStrategy) CanHandle(ctx *fieldContext) bool {
	n := ctx.Node
	return n.IsObject() && n.UIHint != "" && !strings.EqualFold(n.UIHint, schema.HintEndpoint)
}

func (customStrategy) Plan(_ *fieldContext, fp *FieldPlan) {
	fp.Widget = WidgetCustom
}

type arrayStrategy struct {
	renderer *Renderer
}

func (arrayStrategy) CanHandle(ctx *fieldContext) bool {
	return ctx.Node.IsArray()
}

func (s arrayStrategy) Plan(ctx *fieldContext, fp *FieldPlan) {
	fp.Widget = WidgetArray
	fp.Array = s.renderer.arrayPlan(ctx)
	fp.category = categoryArray
}

// objectStrategy lays out an already resolved object against its own slice
// of the values.
type objectStrategy struct {
	renderer *Renderer
}

func (objectStrategy) CanHandle(ctx *fieldContext) bool {
	return ctx.Node.IsObject() || ctx.Node.HasAllOf()
}

func (s objectStrategy) Plan(ctx *fieldContext, fp *FieldPlan) {
	fp.Widget = WidgetObject
	values := formvalue.AsMap(ctx.Value)
	if values == nil {
		values = map[string]any{}
	}
	fp.Fields = s.renderer.nestedFields(ctx.Node, ctx.Path, values, ctx.Opts)
	fp.category = categoryObject
}

type enumStrategy struct{}

func (enumStrategy) CanHandle(ctx *fieldContext) bool {
	return ctx.Node != nil && len(ctx.Node.Enum) > 0
}

func (enumStrategy) Plan(ctx *fieldContext, fp *FieldPlan) {
	fp.Widget = WidgetSelect
	fp.Options = make([]Option, 0, len(ctx.Node.Enum))
	for _, e := range ctx.Node.Enum {
		fp.Options = append(fp.Options, Option{Value: e, Label: cast.ToString(e)})
	}
	if o, ok := MatchOption(fp.Options, ctx.Value); ok {
		fp.Selected = &o
	}
}

type primitiveStrategy struct{}

func (primitiveStrategy) CanHandle(*fieldContext) bool { return true }

func (primitiveStrategy) Plan(ctx *fieldContext, fp *FieldPlan) {
	kind := schema.KindUnknown
	if ctx.Node != nil {
		kind = ctx.Node.Kind
	}
	switch kind {
	case schema.KindNumber, schema.KindInteger:
		fp.Widget = WidgetNumber
	case schema.KindBoolean:
		fp.Widget = WidgetCheckbox
	default:
		fp.Widget = WidgetText
		if strings.EqualFold(fp.Hint, schema.HintTextarea) {
			fp.Widget = WidgetTextarea
		}
	}
}
