package state

import (
	"sync"
)

// Listener is called with the new state after every dispatch. Listeners run
// while the container is locked and must not dispatch.
type Listener func(State)

// Container owns the current State for one application session.
type Container struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]Listener
	nextID    int
}

// NewContainer returns a container in the initial state
func NewContainer() *Container {
	return &Container{
		state:     Initial(),
		listeners: make(map[int]Listener),
	}
}

// Dispatch applies the actions in order as a single transition and notifies
// listeners once with the result.
func (c *Container) Dispatch(actions ...Action) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state
	for _, a := range actions {
		next = Reduce(next, a)
	}
	c.state = next

	for _, l := range c.listeners {
		l(next)
	}
	return next
}

// Snapshot returns the current state. The returned value is never modified by
// later dispatches; callers must not modify it either.
func (c *Container) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Subscribe registers l and returns a function that removes it
func (c *Container) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Reset returns the container to its initial state, as at session teardown
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Initial()
	for _, l := range c.listeners {
		l(c.state)
	}
}
