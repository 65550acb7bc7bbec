// Package planstats caches the field-name list from a RUN summary, keyed by
// statement text, so a caller re-running the same statement can skip
// re-deriving Keys() from a freshly fetched summary. It is a convenience
// cache only: pkg/cypher always populates it from a summary that actually
// arrived over the wire, and a cache miss never blocks or re-queries the
// server — the caller falls back to the summary already in hand.
package planstats

import (
	"strings"

	"github.com/dgraph-io/ristretto/v2"
)

// defaultNumCounters and defaultMaxCost follow ristretto's own documented
// rule of thumb: ~10x the number of items you expect to hold, and a cost
// budget in arbitrary units (here, one unit per cached statement).
const (
	defaultNumCounters = 10_000
	defaultMaxCost     = 1_000
	defaultBufferItems = 64
)

// Cache maps statement text to its RUN-summary field names.
type Cache struct {
	store *ristretto.Cache[string, []string]
}

// NewCache builds a ristretto-backed cache sized for a typical interactive
// or CLI session's statement variety.
func NewCache() (*Cache, error) {
	store, err := ristretto.NewCache(&ristretto.Config[string, []string]{
		NumCounters: defaultNumCounters,
		MaxCost:     defaultMaxCost,
		BufferItems: defaultBufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{store: store}, nil
}

// Put records fields for statement, keyed on the statement's normalized
// (whitespace-trimmed) text.
func (c *Cache) Put(statement string, fields []string) {
	c.store.Set(normalize(statement), fields, 1)
}

// Get retrieves previously cached fields for statement, if any.
func (c *Cache) Get(statement string) ([]string, bool) {
	return c.store.Get(normalize(statement))
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() { c.store.Close() }

func normalize(statement string) string { return strings.TrimSpace(statement) }
