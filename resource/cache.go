package resource

import (
	"github.com/google/btree"
)

// cache is one named category. Callers hold the database lock. The map
// serves lookups and the tree keeps names ordered for listings.
type cache[T any] struct {
	category string
	m        map[string]T
	order    *btree.BTreeG[string]
}

func newCache[T any](category string) *cache[T] {
	return &cache[T]{category: category, m: make(map[string]T), order: newNameTree()}
}

func newNameTree() *btree.BTreeG[string] {
	return btree.NewG(8, func(a, b string) bool { return a < b })
}

func (c *cache[T]) get(name string) (T, bool) {
	v, ok := c.m[name]
	return v, ok
}

// set inserts or overwrites and reports whether name was already bound.
func (c *cache[T]) set(name string, v T) bool {
	_, existed := c.m[name]
	c.m[name] = v
	if !existed {
		c.order.ReplaceOrInsert(name)
		entriesGauge.WithLabelValues(c.category).Inc()
	}
	return existed
}

func (c *cache[T]) erase(name string) bool {
	if _, ok := c.m[name]; !ok {
		return false
	}
	delete(c.m, name)
	c.order.Delete(name)
	entriesGauge.WithLabelValues(c.category).Dec()
	return true
}

// names returns a sorted snapshot.
func (c *cache[T]) names() []string {
	out := make([]string, 0, c.order.Len())
	c.order.Ascend(func(name string) bool {
		out = append(out, name)
		return true
	})
	return out
}

func (c *cache[T]) len() int { return len(c.m) }

func (c *cache[T]) reset() {
	entriesGauge.WithLabelValues(c.category).Sub(float64(len(c.m)))
	c.m = make(map[string]T)
	c.order.Clear(false)
}
