// Package round owns the per-round state of the graph builder.
//
// Every memoizing cache is registered with a Context and cleared when the
// round ends, so a long-lived process can run any number of rounds without
// retaining declarations from earlier ones.
package round

import (
	"log/slog"

	"github.com/google/uuid"
)

// Clearable is a cache that can be emptied at a round boundary.
type Clearable interface {
	ClearCache()
}

// Context tracks the current round and the caches that belong to it.
// It is not safe for concurrent use.
type Context struct {
	logger *slog.Logger
	caches []Clearable
	id     string
	active bool
}

// NewContext returns a context with no active round.
func NewContext(logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{logger: logger}
}

// Register adds caches that must be cleared at the end of every round.
func (c *Context) Register(caches ...Clearable) {
	c.caches = append(c.caches, caches...)
}

// NewRound starts a round and returns its ID. An active round is ended first.
func (c *Context) NewRound() string {
	if c.active {
		c.EndRound()
	}
	c.id = uuid.NewString()
	c.active = true
	c.logger.Debug("round started", "round", c.id)
	return c.id
}

// EndRound clears every registered cache. Calling it without an active round
// still clears the caches.
func (c *Context) EndRound() {
	for _, cache := range c.caches {
		cache.ClearCache()
	}
	c.logger.Debug("round ended", "round", c.id, "caches", len(c.caches))
	c.active = false
}

// ID returns the ID of the current round, or of the last one if none is active.
func (c *Context) ID() string {
	return c.id
}

// Active reports whether a round is in progress.
func (c *Context) Active() bool {
	return c.active
}
