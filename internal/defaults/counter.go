package defaults

import (
	"strconv"
	"sync"

	"github.com/bh-premnath-git/bhui-sub000/internal/formvalue"
)

// Counter issues synthetic row keys of the form "<field>-<n>" from a
// monotonic per-field sequence. Keys already present in the rows passed to
// Next are skipped, so keys stay unique after rows are loaded from outside.
type Counter struct {
	mu   sync.Mutex
	next map[string]int
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{next: make(map[string]int)}
}

// Next returns a fresh key for field that no row in rows carries.
func (c *Counter) Next(field string, rows []any) string {
	used := usedKeys(rows)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next == nil {
		c.next = make(map[string]int)
	}
	for {
		c.next[field]++
		key := field + "-" + strconv.Itoa(c.next[field])
		if !used[key] {
			return key
		}
	}
}

func usedKeys(rows []any) map[string]bool {
	used := make(map[string]bool, len(rows))
	for _, r := range rows {
		if m, ok := r.(map[string]any); ok {
			if k, ok := m[formvalue.RowKey].(string); ok && k != "" {
				used[k] = true
			}
		}
	}
	return used
}
