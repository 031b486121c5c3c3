// Package drawer holds the open/closed signal of the cart drawer. It knows
// nothing about cart contents.
package drawer

import "sync"

// Listener receives the new state after a real transition.
type Listener func(open bool)

// Controller is an idempotent open/closed toggle.
type Controller struct {
	mu          sync.Mutex
	open        bool
	transitions int
	listeners   map[int]Listener
	order       []int
	nextID      int
}

// New returns a closed drawer.
func New() *Controller {
	return &Controller{listeners: make(map[int]Listener)}
}

// Open opens the drawer; opening an open drawer changes nothing.
func (c *Controller) Open() {
	c.set(true)
}

// Close closes the drawer; closing a closed drawer changes nothing.
func (c *Controller) Close() {
	c.set(false)
}

// IsOpen reports the current state.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Transitions counts state changes since creation.
func (c *Controller) Transitions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitions
}

// Subscribe registers fn for future transitions and returns its remover.
func (c *Controller) Subscribe(fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	c.order = append(c.order, id)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Controller) set(open bool) {
	c.mu.Lock()
	if c.open == open {
		c.mu.Unlock()
		return
	}
	c.open = open
	c.transitions++
	listeners := make([]Listener, 0, len(c.listeners))
	live := c.order[:0]
	for _, id := range c.order {
		if fn, ok := c.listeners[id]; ok {
			listeners = append(listeners, fn)
			live = append(live, id)
		}
	}
	c.order = live
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(open)
	}
}
