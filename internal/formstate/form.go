package formstate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/arrayfield"
	"github.com/bh-premnath-git/bhui-sub000/internal/defaults"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/render"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
	"github.com/bh-premnath-git/bhui-sub000/internal/validate"
)

var (
	// ErrUnknownField is returned for a path that names no active field.
	ErrUnknownField = errors.New("no active field at path")
	// ErrNotArray is returned when a row operation targets a non-array field.
	ErrNotArray = errors.New("field is not an array")
)

// Config describes a form.
type Config struct {
	Schema *schema.Node
	// Store holds the values. Defaults to a MemoryStore.
	Store Store
	// Initial values are merged over the generated defaults. When nil and a
	// Store is given, the store's snapshot is used.
	Initial map[string]any
	Options render.Options
	// Resolver is shared between forms of the same schema. Defaults to a
	// fresh memoizing resolver.
	Resolver *resolver.Resolver
	// Checker is the compiled JSON Schema of Schema. Compiled on demand when
	// nil.
	Checker *validate.Checker
}

// State is everything a client needs to draw the form.
type State struct {
	Values   map[string]any     `json:"values"`
	Active   []string           `json:"active"`
	Required []string           `json:"required"`
	Warnings []resolver.Warning `json:"warnings,omitempty"`
	Plan     render.Plan        `json:"plan"`
}

// Form drives one form: it keeps the value bag in its Store, fills in
// defaults for fields that become active, and owns the row state of array
// fields. Methods are safe for concurrent use.
type Form struct {
	mu       sync.Mutex
	node     *schema.Node
	store    Store
	resolver *resolver.Resolver
	gen      *defaults.Generator
	renderer *render.Renderer
	checker  *validate.Checker
	opts     render.Options
	arrays   map[string]*arrayfield.Field
}

// New builds a form and stores its initial values.
func New(cfg Config) (*Form, error) {
	if cfg.Schema == nil {
		return nil, errors.New("formstate: schema is required")
	}
	res := cfg.Resolver
	if res == nil {
		res = resolver.New(0)
	}
	gen := defaults.New(defaults.WithResolver(res))

	initial := cfg.Initial
	if initial == nil && cfg.Store != nil {
		initial = cfg.Store.Snapshot()
	}
	values, err := gen.Initial(cfg.Schema, initial)
	if err != nil {
		return nil, fmt.Errorf("building initial values: %w", err)
	}

	store := cfg.Store
	if store == nil {
		store = NewMemoryStore(values)
	} else {
		for _, k := range formvalue.Keys(values) {
			store.Set(k, values[k])
		}
	}

	chk := cfg.Checker
	if chk == nil {
		if chk, err = validate.NewChecker(cfg.Schema); err != nil {
			log.Warn().Str("component", "formstate").Err(err).Msg("schema does not compile, strict checks disabled")
			chk = nil
		}
	}

	return &Form{
		node:     cfg.Schema,
		store:    store,
		resolver: res,
		gen:      gen,
		renderer: render.NewRenderer(res.Resolve),
		checker:  chk,
		opts:     cfg.Options,
		arrays:   make(map[string]*arrayfield.Field),
	}, nil
}

// Schema returns the form's schema.
func (f *Form) Schema() *schema.Node {
	return f.node
}

// Store returns the form's value container.
func (f *Form) Store() Store {
	return f.store
}

// Values returns the current value bag.
func (f *Form) Values() map[string]any {
	return f.store.Snapshot()
}

// Active resolves the active fields for the current values.
func (f *Form) Active() resolver.ActiveFieldSet {
	return f.resolver.Resolve(f.node, f.store.Snapshot())
}

// SetOptions replaces the render options, typically to hand in fetched
// endpoint options.
func (f *Form) SetOptions(opts render.Options) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = opts
}

// Set stores value at path, then gives every field the change activated its
// default value.
func (f *Form) Set(path string, value any) error {
	if path == "" {
		return fmt.Errorf("setting value: %w", ErrUnknownField)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.store.Set(path, value)
	f.dropArrays(path)
	f.fillActivated()
	return nil
}

// fillActivated sets the default of every value the generator produces that
// the bag does not hold yet. A scratch generator keeps the form's row key
// counters untouched by rows that are thrown away.
func (f *Form) fillActivated() {
	snap := f.store.Snapshot()
	filled, err := defaults.New(defaults.WithResolver(f.resolver)).Initial(f.node, snap)
	if err != nil {
		log.Warn().Str("component", "formstate").Err(err).Msg("filling activated fields")
		return
	}
	missing(filled, snap, "", f.store.Set)
}

func missing(filled, have map[string]any, prefix string, set func(string, any)) {
	keys := make([]string, 0, len(filled))
	for k := range filled {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := formvalue.Join(prefix, k)
		cur, ok := have[k]
		if !ok {
			set(p, filled[k])
			continue
		}
		fm, fok := filled[k].(map[string]any)
		hm, hok := cur.(map[string]any)
		if fok && hok {
			missing(fm, hm, p, set)
		}
	}
}

func (f *Form) dropArrays(path string) {
	for p := range f.arrays {
		if p == path || strings.HasPrefix(path, p+".") || strings.HasPrefix(p, path+".") {
			delete(f.arrays, p)
		}
	}
}

// AddRow appends a default row to the array at path.
func (f *Form) AddRow(path string) (arrayfield.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fld, err := f.array(path)
	if err != nil {
		return 0, err
	}
	h := fld.Add()
	f.store.Set(path, fld.Values())
	return h, nil
}

// RemoveRow deletes row index of the array at path.
func (f *Form) RemoveRow(path string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fld, err := f.array(path)
	if err != nil {
		return err
	}
	if err := fld.Remove(index); err != nil {
		return err
	}
	f.store.Set(path, fld.Values())
	return nil
}

// UpdateRow replaces row index of the array at path, keeping its row key.
func (f *Form) UpdateRow(path string, index int, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fld, err := f.array(path)
	if err != nil {
		return err
	}
	if err := fld.Update(index, value); err != nil {
		return err
	}
	f.store.Set(path, fld.Values())
	return nil
}

func (f *Form) array(path string) (*arrayfield.Field, error) {
	if fld, ok := f.arrays[path]; ok {
		return fld, nil
	}
	node, required, err := f.fieldAt(path)
	if err != nil {
		return nil, err
	}
	if !node.IsArray() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotArray)
	}
	rows, _ := formvalue.Get(f.store.Snapshot(), path)
	fld := arrayfield.New(arrayfield.Config{
		Name:      path,
		Schema:    node,
		Required:  required,
		Generator: f.gen,
		Resolve:   f.resolver.Resolve,
	}, formvalue.AsList(rows))
	f.arrays[path] = fld
	return fld, nil
}

// fieldAt finds the active field at a dotted path of object keys.
func (f *Form) fieldAt(path string) (*schema.Node, bool, error) {
	segs := strings.Split(path, ".")
	cur, vals := f.node, f.store.Snapshot()
	for i, seg := range segs {
		active := f.resolver.Resolve(cur, vals)
		field, ok := active.Field(seg)
		if !ok {
			return nil, false, fmt.Errorf("%s: %w", path, ErrUnknownField)
		}
		if i == len(segs)-1 {
			return field, active.IsRequired(seg), nil
		}
		cur, vals = field, formvalue.Scope(vals, seg)
	}
	return nil, false, fmt.Errorf("%s: %w", path, ErrUnknownField)
}

// State resolves and renders the current values.
func (f *Form) State() State {
	f.mu.Lock()
	opts := f.opts
	f.mu.Unlock()

	snap := f.store.Snapshot()
	active := f.resolver.Resolve(f.node, snap)
	return State{
		Values:   snap,
		Active:   active.Keys(),
		Required: active.Required,
		Warnings: active.Warnings,
		Plan:     f.renderer.Render(f.node, "", snap, opts),
	}
}

// Validate runs every check over the current values.
func (f *Form) Validate() validate.Result {
	return validate.Full(f.node, f.checker, f.store.Snapshot())
}

// Submit validates the current values and, when they pass, returns them
// without form artifacts.
func (f *Form) Submit() (map[string]any, validate.Result) {
	snap := f.store.Snapshot()
	res := validate.Full(f.node, f.checker, snap)
	if !res.Valid {
		return nil, res
	}
	return defaults.StripFormArtifacts(snap), res
}
