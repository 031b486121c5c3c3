// Package carousel tracks the highlighted position in the collection carousel.
package carousel

import "sync"

// Carousel is a circular index over a live list whose length is supplied on
// every call. When the list shrinks below the stored index, reads clamp to the
// last element and the clamp is kept.
type Carousel struct {
	mu    sync.Mutex
	index int
}

// New returns a carousel positioned at the first element.
func New() *Carousel {
	return &Carousel{}
}

// Next advances one step, wrapping to 0. A zero count is a no-op.
func (c *Carousel) Next(count int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if count <= 0 {
		return c.index
	}
	c.index = (c.clampLocked(count) + 1) % count
	return c.index
}

// Prev steps back one, wrapping to count-1. A zero count is a no-op.
func (c *Carousel) Prev(count int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if count <= 0 {
		return c.index
	}
	c.index = (c.clampLocked(count) - 1 + count) % count
	return c.index
}

// Index returns the current position for a list of count elements.
// An empty list reports 0.
func (c *Carousel) Index(count int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if count <= 0 {
		return 0
	}
	return c.clampLocked(count)
}

// Reset moves back to the first element.
func (c *Carousel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = 0
}

func (c *Carousel) clampLocked(count int) int {
	if c.index >= count {
		c.index = count - 1
	}
	if c.index < 0 {
		c.index = 0
	}
	return c.index
}
