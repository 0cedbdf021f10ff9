package locale

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator compares strings by the collation order of one locale.
// collate.Collator reuses internal buffers, so every call is serialized.
type Collator struct {
	mu       sync.Mutex
	tag      language.Tag
	collator *collate.Collator
}

// NewCollator builds a collator for tag.
func NewCollator(tag language.Tag, opts ...collate.Option) *Collator {
	return &Collator{
		tag:      tag,
		collator: collate.New(tag, opts...),
	}
}

// Tag is the locale the collator was built for.
func (c *Collator) Tag() language.Tag {
	return c.tag
}

// Compare returns -1, 0 or 1 as a sorts before, equal to or after b.
func (c *Collator) Compare(a, b string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collator.CompareString(a, b)
}

// Sort orders values in place.
func (c *Collator) Sort(values []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collator.SortStrings(values)
}
