package summary

import "sort"

// counter is a frequency map that remembers first-seen order, so ranked
// output can break ties deterministically.
type counter struct {
	index   map[string]int
	entries []entry
}

type entry struct {
	key   string
	count int
}

func newCounter() *counter {
	return &counter{index: map[string]int{}}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.entries[i].count++
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, entry{key: key, count: 1})
}

// top returns at most n entries by descending count; equal counts keep
// first-seen order.
func (c *counter) top(n int) []entry {
	ranked := make([]entry, len(c.entries))
	copy(ranked, c.entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].count > ranked[j].count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func (c *counter) toMap() map[string]int {
	m := make(map[string]int, len(c.entries))
	for _, e := range c.entries {
		m[e.key] = e.count
	}
	return m
}
