package resolver

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"github.com/bh-premnath-git/bhui-sub000/internal/condition"
	"github.com/bh-premnath-git/bhui-sub000/internal/schema"
)

// DefaultCacheSize bounds the number of cached levels per Resolver.
const DefaultCacheSize = 4096

// Resolver is a memoizing front for Resolve. Each schema level is cached
// under its declared node and the values of the trigger fields its
// conditionals read, so a keystroke in a field no conditional looks at reuses
// every cached branch selection. Results are identical to Resolve.
//
// Both caches are LRU bounded. A Resolver is safe for concurrent use.
type Resolver struct {
	levels   *lru.Cache[levelKey, level]
	triggers *lru.Cache[*schema.Node, []string]
	hits     atomic.Int64
	misses   atomic.Int64
}

type levelKey struct {
	node        *schema.Node
	path        string
	fingerprint string
}

// New creates a Resolver holding at most maxEntries cached levels and at most
// maxEntries trigger lists. Values below one use DefaultCacheSize.
func New(maxEntries int) *Resolver {
	if maxEntries < 1 {
		maxEntries = DefaultCacheSize
	}
	levels, err := lru.New[levelKey, level](maxEntries)
	if err != nil {
		panic(fmt.Sprintf("resolver: level cache: %v", err))
	}
	triggers, err := lru.New[*schema.Node, []string](maxEntries)
	if err != nil {
		panic(fmt.Sprintf("resolver: trigger cache: %v", err))
	}
	return &Resolver{levels: levels, triggers: triggers}
}

// Resolve returns the active fields of n for values, reusing cached levels.
func (r *Resolver) Resolve(n *schema.Node, values map[string]any) (out ActiveFieldSet) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("component", "resolver").Interface("panic", rec).Msg("resolution failed")
			out = ActiveFieldSet{
				Fields:   schema.NewProperties(),
				Warnings: []Warning{{Message: fmt.Sprintf("resolution failed: %v", rec)}},
			}
		}
	}()
	return resolve(n, values, "", r.level)
}

// Stats returns cache hit and miss counts.
func (r *Resolver) Stats() (hits, misses int) {
	return int(r.hits.Load()), int(r.misses.Load())
}

// Len returns the number of cached levels and trigger lists.
func (r *Resolver) Len() (levels, triggers int) {
	return r.levels.Len(), r.triggers.Len()
}

func (r *Resolver) level(n *schema.Node, values map[string]any, path string) level {
	n = n.Origin()
	fp, ok := fingerprint(values, r.triggerFields(n))
	if !ok {
		return resolveLevel(n, values, path)
	}
	key := levelKey{node: n, path: path, fingerprint: fp}

	if lv, ok := r.levels.Get(key); ok {
		r.hits.Add(1)
		return lv
	}
	r.misses.Add(1)

	lv := resolveLevel(n, values, path)
	r.levels.Add(key, lv)
	return lv
}

func (r *Resolver) triggerFields(n *schema.Node) []string {
	if f, ok := r.triggers.Get(n); ok {
		return f
	}
	f := schema.TriggerFields(n)
	r.triggers.Add(n, f)
	return f
}

// fingerprint encodes the trigger values a level depends on. Values that
// cannot be encoded disable caching for the call.
func fingerprint(values map[string]any, fields []string) (string, bool) {
	if len(fields) == 0 {
		return "", true
	}
	key := make([]any, len(fields))
	for i, f := range fields {
		if v, found := condition.Lookup(values, f); found {
			key[i] = []any{v}
		}
	}
	b, err := json.Marshal(key)
	if err != nil {
		return "", false
	}
	return string(b), true
}
