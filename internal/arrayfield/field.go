// Package arrayfield holds the row state of one array field of a form.
//
// Rows live in an arena: each row gets a Handle that never changes and is
// never reused, and a synthetic row key from the form's defaults.Counter.
// A Field is not safe for concurrent use; the owning form serializes access.
package arrayfield

import (
	"errors"
	"fmt"

	"github.com/bh-premnath-git/bhui-sub000/internal/defaults"
	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

var (
	// ErrIndexOutOfRange is returned for a row index outside the field.
	ErrIndexOutOfRange = errors.New("row index out of range")
	// ErrRemoveRequired is returned when removing the last row of a required
	// array.
	ErrRemoveRequired = errors.New("cannot remove the last row of a required array")
)

// State is the lifecycle state of an array field.
type State int

const (
	StateEmpty State = iota
	StateSeeded
	StateRows
)

var stateNames = [...]string{"empty", "seeded", "rows"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Handle identifies a row for the lifetime of a Field.
type Handle uint64

type row struct {
	handle Handle
	values map[string]any
}

// Config describes an array field.
type Config struct {
	// Name is the dotted path of the field in the form; it prefixes row keys.
	Name     string
	Schema   *schema.Node
	Required bool
	// Generator builds new rows. Defaults to a fresh defaults.Generator.
	Generator *defaults.Generator
	// Resolve computes per-row active fields. Defaults to resolver.Resolve.
	Resolve defaults.ResolveFunc
}

// Field is the row state of one array field.
type Field struct {
	cfg    Config
	rows   []row
	next   Handle
	seeded Handle // handle of the seed row, 0 when none
}

// New creates a Field holding rows, which are brought into row shape first.
func New(cfg Config, rows []any) *Field {
	if cfg.Generator == nil {
		cfg.Generator = defaults.New()
	}
	if cfg.Resolve == nil {
		cfg.Resolve = resolver.Resolve
	}
	f := &Field{cfg: cfg}
	for _, r := range cfg.Generator.TransformArray(f.items(), cfg.Name, rows) {
		m, ok := r.(map[string]any)
		if !ok {
			m = map[string]any{"value": r}
		}
		f.push(m)
	}
	return f
}

// Name returns the dotted path of the field.
func (f *Field) Name() string {
	return f.cfg.Name
}

// Required reports whether the array itself is required.
func (f *Field) Required() bool {
	return f.cfg.Required
}

// Schema returns the array schema.
func (f *Field) Schema() *schema.Node {
	return f.cfg.Schema
}

func (f *Field) items() *schema.Node {
	if f.cfg.Schema == nil {
		return nil
	}
	return f.cfg.Schema.Items
}

func (f *Field) push(values map[string]any) Handle {
	f.next++
	f.rows = append(f.rows, row{handle: f.next, values: values})
	return f.next
}

// State reports the lifecycle state.
func (f *Field) State() State {
	switch {
	case len(f.rows) == 0:
		return StateEmpty
	case len(f.rows) == 1 && f.rows[0].handle == f.seeded:
		return StateSeeded
	default:
		return StateRows
	}
}

// Len returns the number of rows.
func (f *Field) Len() int {
	return len(f.rows)
}

// Seed adds one default row to an empty required array. It reports whether a
// row was added.
func (f *Field) Seed() bool {
	if !f.cfg.Required || len(f.rows) > 0 {
		return false
	}
	f.seeded = f.push(f.cfg.Generator.NewRow(f.items(), f.cfg.Name, nil))
	return true
}

// Add appends a default row with a fresh key and returns its handle.
func (f *Field) Add() Handle {
	return f.push(f.cfg.Generator.NewRow(f.items(), f.cfg.Name, f.Values()))
}

// CanRemove reports whether a row may be removed: more than one row remains
// or the array is optional.
func (f *Field) CanRemove() bool {
	return len(f.rows) > 1 || !f.cfg.Required
}

// Remove deletes the row at index.
func (f *Field) Remove(index int) error {
	if index < 0 || index >= len(f.rows) {
		return fmt.Errorf("removing row %d of %s: %w", index, f.cfg.Name, ErrIndexOutOfRange)
	}
	if !f.CanRemove() {
		return fmt.Errorf("removing row %d of %s: %w", index, f.cfg.Name, ErrRemoveRequired)
	}
	f.rows = append(f.rows[:index:index], f.rows[index+1:]...)
	return nil
}

// Update replaces the fields of the row at index and keeps its key. A map
// value replaces the row's fields; any other value is stored as the row's
// "value", which is how primitive rows hold their scalar.
func (f *Field) Update(index int, value any) error {
	if index < 0 || index >= len(f.rows) {
		return fmt.Errorf("updating row %d of %s: %w", index, f.cfg.Name, ErrIndexOutOfRange)
	}
	key := f.rows[index].values[formvalue.RowKey]

	var next map[string]any
	if m, ok := value.(map[string]any); ok {
		next = make(map[string]any, len(m)+1)
		for k, v := range m {
			next[k] = v
		}
	} else {
		next = map[string]any{"value": value}
	}
	next[formvalue.RowKey] = key
	f.rows[index].values = next
	return nil
}

// Handle returns the stable handle of the row at index.
func (f *Field) Handle(index int) (Handle, error) {
	if index < 0 || index >= len(f.rows) {
		return 0, fmt.Errorf("row %d of %s: %w", index, f.cfg.Name, ErrIndexOutOfRange)
	}
	return f.rows[index].handle, nil
}

// Index returns the current position of the row with handle h, or -1.
func (f *Field) Index(h Handle) int {
	for i, r := range f.rows {
		if r.handle == h {
			return i
		}
	}
	return -1
}

// Key returns the row key of the row at index.
func (f *Field) Key(index int) (string, error) {
	if index < 0 || index >= len(f.rows) {
		return "", fmt.Errorf("row %d of %s: %w", index, f.cfg.Name, ErrIndexOutOfRange)
	}
	k, _ := f.rows[index].values[formvalue.RowKey].(string)
	return k, nil
}

// Values returns the rows in value-bag form. Each row map is a copy.
func (f *Field) Values() []any {
	out := make([]any, len(f.rows))
	for i, r := range f.rows {
		cp := make(map[string]any, len(r.values))
		for k, v := range r.values {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// RowFields resolves the item schema against the row's own values, so rows of
// the same array may show different fields.
func (f *Field) RowFields(index int) (resolver.ActiveFieldSet, error) {
	if index < 0 || index >= len(f.rows) {
		return resolver.ActiveFieldSet{}, fmt.Errorf("row %d of %s: %w", index, f.cfg.Name, ErrIndexOutOfRange)
	}
	return f.cfg.Resolve(f.items(), f.rows[index].values), nil
}

// Columns returns the table columns for the current rows.
func (f *Field) Columns() []Column {
	return DiscoverColumns(f.items(), f.Values(), f.cfg.Resolve)
}

// View picks the widget for the field.
func (f *Field) View(useTableView bool) ViewKind {
	return ViewFor(f.cfg.Schema, f.Values(), useTableView, f.cfg.Resolve)
}
