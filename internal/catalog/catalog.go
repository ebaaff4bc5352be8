// Package catalog holds the named schema documents a server or CLI works
// with.
//
// Each entry carries what is shared by every form built from the schema: a
// memoizing resolver and the compiled JSON Schema checker.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/defaults"
	"github.com/bh-premnath-git/bhui-sub000/internal/resolver"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
	"github.com/bh-premnath-git/bhui-sub000/internal/validate"
)

// ErrNotFound is returned for an unknown schema name.
var ErrNotFound = errors.New("schema not found")

// Entry is one registered schema.
type Entry struct {
	Doc      *schema.Document
	Resolver *resolver.Resolver
	// Checker is nil when the schema's JSON Schema export does not compile;
	// CheckerErr says why.
	Checker    *validate.Checker
	CheckerErr error
}

// Name returns the schema name.
func (e *Entry) Name() string {
	return e.Doc.Name
}

// Root returns the schema tree.
func (e *Entry) Root() *schema.Node {
	return e.Doc.Root
}

// Summary describes an entry for listings.
type Summary struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Issues int    `json:"issues"`
}

// Registry maps schema names to entries. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	cacheSize int
}

// NewRegistry creates an empty registry. cacheSize bounds each schema's
// resolver cache; values below one use the resolver default.
func NewRegistry(cacheSize int) *Registry {
	return &Registry{
		entries:   make(map[string]*Entry),
		cacheSize: cacheSize,
	}
}

// Register adds doc, replacing any schema of the same name.
func (r *Registry) Register(doc *schema.Document) *Entry {
	e := &Entry{Doc: doc, Resolver: resolver.New(r.cacheSize)}
	e.Checker, e.CheckerErr = validate.NewChecker(doc.Root)
	if e.CheckerErr != nil {
		log.Warn().Str("component", "catalog").Str("schema", doc.Name).Err(e.CheckerErr).Msg("schema does not compile as JSON Schema")
	}

	r.mu.Lock()
	r.entries[doc.Name] = e
	r.mu.Unlock()
	return e
}

// Get returns the entry for name.
func (r *Registry) Get(name string) (*Entry, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return e, nil
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// List summarizes every entry, sorted by name.
func (r *Registry) List() []Summary {
	names := r.Names()
	out := make([]Summary, 0, len(names))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range names {
		e, ok := r.entries[n]
		if !ok {
			continue
		}
		out = append(out, Summary{Name: n, Source: e.Doc.Source, Issues: len(e.Doc.Issues)})
	}
	return out
}

var extensions = map[string]bool{".json": true, ".yaml": true, ".yml": true, ".cue": true}

// LoadDir registers every schema file directly inside dir. Files with other
// extensions are skipped. Two files with the same base name are an error.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading schema dir: %w", err)
	}
	seen := make(map[string]string)
	loaded := 0
	for _, de := range entries {
		if de.IsDir() || !extensions[strings.ToLower(filepath.Ext(de.Name()))] {
			continue
		}
		path := filepath.Join(dir, de.Name())
		doc, err := schema.LoadFile(path, "")
		if err != nil {
			return loaded, err
		}
		if prev, dup := seen[doc.Name]; dup {
			return loaded, fmt.Errorf("schema %q defined by both %s and %s", doc.Name, prev, path)
		}
		seen[doc.Name] = path
		r.Register(doc)
		loaded++
	}
	log.Info().Str("component", "catalog").Str("dir", dir).Int("schemas", loaded).Msg("schemas loaded")
	return loaded, nil
}

// Lint reports the problems of a schema: parse issues, conditional branches
// that can never be active, and a JSON Schema export that does not compile.
func Lint(e *Entry) []string {
	var out []string
	for _, is := range e.Doc.Issues {
		out = append(out, is.String())
	}
	values := defaults.New(defaults.WithResolver(e.Resolver)).Generate(e.Root())
	for _, w := range resolver.Resolve(e.Root(), values).Warnings {
		out = append(out, w.String())
	}
	if e.CheckerErr != nil {
		out = append(out, "json schema: "+e.CheckerErr.Error())
	}
	return out
}
