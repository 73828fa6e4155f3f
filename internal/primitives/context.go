package primitives

import "sync"

// Context is a thread-safe key-value store for whatever extended state
// compiler-generated code wants to stash between transitions. The runtime
// does not pass it to action or condition callbacks (they receive only the
// triggering Event), and the CHSM core itself never reads or writes it.
type Context struct {
	data sync.Map
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{}
}

// Get retrieves a value by key.
func (c *Context) Get(key string) (any, bool) {
	return c.data.Load(key)
}

// Set stores a value by key.
func (c *Context) Set(key string, val any) {
	c.data.Store(key, val)
}

// Delete removes a key.
func (c *Context) Delete(key string) {
	c.data.Delete(key)
}

// Snapshot returns a copy of the context contents.
func (c *Context) Snapshot() map[string]any {
	snap := map[string]any{}
	c.data.Range(func(k, v any) bool {
		snap[k.(string)] = v
		return true
	})
	return snap
}
