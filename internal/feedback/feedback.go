// Package feedback aggregates the confirmed entity names of a run into the
// folded set that the masker consumes on later runs.
package feedback

import (
	"sort"
	"sync"

	"github.com/rocknews/rocktag/internal/models"
	"github.com/rocknews/rocktag/internal/normalize"
)

// FoldFunc normalizes a canonical name for the feedback set.
type FoldFunc func(string) string

// Collect flattens CombinedTags and MemberTags across sets, folds each name
// and returns the distinct results in ascending order. A nil fold uses
// normalize.Fold.
func Collect(sets []models.TagSet, fold FoldFunc) []string {
	c := NewCollector(fold)
	for i := range sets {
		c.Add(sets[i])
	}
	return c.Names()
}

// Collector is the incremental, concurrency-safe form of Collect.
type Collector struct {
	fold FoldFunc

	mu    sync.Mutex
	names map[string]struct{}
}

// NewCollector returns an empty Collector.
func NewCollector(fold FoldFunc) *Collector {
	if fold == nil {
		fold = normalize.Fold
	}
	return &Collector{
		fold:  fold,
		names: make(map[string]struct{}),
	}
}

// Add merges the names of one tag set.
func (c *Collector) Add(ts models.TagSet) {
	c.AddNames(ts.CombinedTags...)
	c.AddNames(ts.MemberTags...)
}

// AddNames merges raw canonical names. Names that fold to nothing are
// dropped.
func (c *Collector) AddNames(names ...string) {
	if len(names) == 0 {
		return
	}
	folded := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if f := c.fold(n); f != "" {
			folded = append(folded, f)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range folded {
		c.names[f] = struct{}{}
	}
}

// Len returns the number of distinct names collected so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

// Names returns the collected names in ascending order. Never nil.
func (c *Collector) Names() []string {
	c.mu.Lock()
	out := make([]string, 0, len(c.names))
	for n := range c.names {
		out = append(out, n)
	}
	c.mu.Unlock()
	sort.Strings(out)
	return out
}
