// Package controller keeps track of the single active translation pipeline
// and cancels it when a newer trigger arrives.
package controller

import (
	"context"
	"sync"
)

// Controller allows at most one active pipeline at a time. A new Begin
// always wins; superseded pipelines are cancelled and can no longer Commit.
type Controller struct {
	mu       sync.Mutex
	activeID string
	cancel   context.CancelFunc
	closed   bool
}

// New creates an idle Controller.
func New() *Controller {
	return &Controller{}
}

// Begin cancels the previously active pipeline, if any, and returns a context
// owned by pipeline id. The returned context is derived from parent.
// After Close, Begin returns an already-cancelled context.
func (c *Controller) Begin(parent context.Context, id string) context.Context {
	ctx, cancel := context.WithCancel(parent)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		cancel()
		return ctx
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.activeID = id
	c.cancel = cancel
	return ctx
}

// IsActive reports whether id is the current pipeline.
func (c *Controller) IsActive(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID != "" && c.activeID == id
}

// Active returns the id of the current pipeline, or "" when idle.
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// Commit runs fn while holding the lock, but only if id is still active.
// It reports whether fn ran. A Begin for a newer pipeline cannot interleave
// with fn.
func (c *Controller) Commit(id string, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeID == "" || c.activeID != id {
		return false
	}
	fn()
	return true
}

// End releases pipeline id. It is a no-op if id was already superseded.
func (c *Controller) End(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activeID != id {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.activeID = ""
	c.cancel = nil
}

// Close cancels the active pipeline and rejects future ones.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.activeID = ""
	c.cancel = nil
	c.closed = true
}
