// Package compctx implements the scoped composite context (§4.4, §9):
// a per-invocation key->value map active only inside a composite
// runner's scope, replacing the source's implicit thread-local context
// variable with an explicit parameter threaded through composite
// invocations.
package compctx

import (
	"context"
	"sync"

	"github.com/opensearch-project/osbenchmark-go/internal/benchmarkerrors"
)

type ctxKey struct{}

// Context is the scoped key-value store. Values survive only within
// the composite scope that created them (§9 "scoped composite
// context").
type Context struct {
	mu   sync.Mutex
	vals map[string]any
}

func newContext() *Context { return &Context{vals: map[string]any{}} }

// WithScope installs a fresh composite context for the duration of fn,
// used by the composite runner to bound each top-level composite
// invocation's scope.
func WithScope(ctx context.Context, fn func(context.Context) error) error {
	return fn(context.WithValue(ctx, ctxKey{}, newContext()))
}

func from(ctx context.Context) (*Context, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Context)
	return c, ok
}

// Put stores a value under key. Outside a composite scope this fails
// fatally per §4.4 ("put/get/remove outside a composite scope fail
// fatally").
func Put(ctx context.Context, key string, value any) error {
	c, ok := from(ctx)
	if !ok {
		return benchmarkerrors.Benchmark("composite context put(%q) outside a composite scope", key)
	}
	c.mu.Lock()
	c.vals[key] = value
	c.mu.Unlock()
	return nil
}

// Get retrieves a value previously Put in the current composite scope.
func Get(ctx context.Context, key string) (any, error) {
	c, ok := from(ctx)
	if !ok {
		return nil, benchmarkerrors.Benchmark("composite context get(%q) outside a composite scope", key)
	}
	c.mu.Lock()
	v, present := c.vals[key]
	c.mu.Unlock()
	if !present {
		return nil, benchmarkerrors.NotFound("composite context key %q not set", key)
	}
	return v, nil
}

// Remove deletes a value from the current composite scope.
func Remove(ctx context.Context, key string) error {
	c, ok := from(ctx)
	if !ok {
		return benchmarkerrors.Benchmark("composite context remove(%q) outside a composite scope", key)
	}
	c.mu.Lock()
	delete(c.vals, key)
	c.mu.Unlock()
	return nil
}

// InScope reports whether ctx currently carries a composite scope.
func InScope(ctx context.Context) bool {
	_, ok := from(ctx)
	return ok
}
