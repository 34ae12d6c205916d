package orchestrator

import (
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
)

// Context is the accumulated key/value state of a workflow run. Values are
// immutable: With and Merge return new contexts and leave the receiver
// untouched.
type Context struct {
	values skilltypes.Payload
}

// NewContext returns an empty workflow context.
func NewContext() Context {
	return Context{values: skilltypes.Payload{}}
}

// With returns a new context with output layered over the current values.
func (c Context) With(output skilltypes.Payload) Context {
	next := c.values.Clone()
	for k, v := range output {
		next[k] = v
	}
	return Context{values: next}
}

// Merge returns the effective input for a step: the current values with
// the explicit input layered on top, so explicit keys win.
func (c Context) Merge(explicit skilltypes.Payload) skilltypes.Payload {
	return c.With(explicit).values
}

// Get returns a single value.
func (c Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Values returns a copy of the current values.
func (c Context) Values() skilltypes.Payload {
	return c.values.Clone()
}

// Len returns the number of keys held.
func (c Context) Len() int {
	return len(c.values)
}
