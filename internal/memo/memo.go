// Package memo is a compute-once cache keyed by name.
//
// Each key is computed at most once at a time. Concurrent callers of the
// same key wait for and share the result; different keys compute in
// parallel. Successful results, including "not found", are kept for the
// life of the cache. Errors are returned to every waiter but not kept.
//
// A compute function may look up other keys. A lookup that would wait on
// a computation that is itself, directly or through other goroutines,
// waiting on the caller fails with a cycle error instead of blocking.
package memo

import (
	"context"
	"slices"
	"sync"

	"github.com/wippyai/jar-remapper/errors"
)

// node is one in-flight computation in the wait-for graph.
type node struct {
	waiting *node
	key     string
}

// graphMu guards node.waiting for every cache.
var graphMu sync.Mutex

type chainKey struct{}

func chainFrom(ctx context.Context) []*node {
	chain, _ := ctx.Value(chainKey{}).([]*node)
	return chain
}

func withNode(ctx context.Context, n *node) context.Context {
	chain := chainFrom(ctx)
	next := make([]*node, len(chain), len(chain)+1)
	copy(next, chain)
	return context.WithValue(ctx, chainKey{}, append(next, n))
}

type entry[V any] struct {
	val V
	ok  bool
}

type flight[V any] struct {
	node
	done chan struct{}
	val  V
	ok   bool
	err  error
}

// Cache memoizes optional values. The zero value is ready to use.
type Cache[V any] struct {
	mu      sync.Mutex
	values  map[string]entry[V]
	flights map[string]*flight[V]
}

// Get returns the value for key, running compute if it is neither cached
// nor in flight. compute receives a context that carries the lookup
// chain; pass it to nested lookups so that cycles are detected.
func (c *Cache[V]) Get(ctx context.Context, key string, compute func(context.Context) (V, bool, error)) (V, bool, error) {
	c.mu.Lock()
	if e, ok := c.values[key]; ok {
		c.mu.Unlock()
		return e.val, e.ok, nil
	}
	if f, ok := c.flights[key]; ok {
		c.mu.Unlock()
		return c.wait(ctx, f)
	}
	if c.flights == nil {
		c.flights = make(map[string]*flight[V])
		c.values = make(map[string]entry[V])
	}
	f := &flight[V]{node: node{key: key}, done: make(chan struct{})}
	c.flights[key] = f
	c.mu.Unlock()

	c.run(ctx, key, f, compute)
	return f.val, f.ok, f.err
}

// run computes f and always retires the flight. A compute that panics or
// exits its goroutine releases the waiters with an error; a panic then
// continues.
func (c *Cache[V]) run(ctx context.Context, key string, f *flight[V], compute func(context.Context) (V, bool, error)) {
	completed := false
	defer func() {
		if !completed {
			r := recover()
			f.err = errors.New(errors.PhaseRemap, errors.KindInvalidData).
				Path(key).
				Value(r).
				Detail("computing %q did not return: %v", key, r).
				Build()
			if r != nil {
				defer panic(r)
			}
		}
		c.mu.Lock()
		delete(c.flights, key)
		if f.err == nil {
			c.values[key] = entry[V]{val: f.val, ok: f.ok}
		}
		c.mu.Unlock()
		close(f.done)
	}()

	f.val, f.ok, f.err = compute(withNode(ctx, &f.node))
	completed = true
}

func (c *Cache[V]) wait(ctx context.Context, f *flight[V]) (V, bool, error) {
	var zero V
	chain := chainFrom(ctx)
	if err := enterWait(chain, &f.node); err != nil {
		return zero, false, err
	}
	defer leaveWait(chain)

	select {
	case <-f.done:
		return f.val, f.ok, f.err
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// enterWait records that the innermost computation of chain waits for
// target, unless target already leads back into chain.
func enterWait(chain []*node, target *node) error {
	graphMu.Lock()
	defer graphMu.Unlock()

	for n := target; n != nil; n = n.waiting {
		if slices.Contains(chain, n) {
			keys := make([]string, 0, len(chain)+1)
			for _, c := range chain {
				keys = append(keys, c.key)
			}
			return errors.Cycle(errors.PhaseRemap, append(keys, target.key))
		}
	}
	if len(chain) > 0 {
		chain[len(chain)-1].waiting = target
	}
	return nil
}

func leaveWait(chain []*node) {
	if len(chain) == 0 {
		return
	}
	graphMu.Lock()
	chain[len(chain)-1].waiting = nil
	graphMu.Unlock()
}

// Len returns the number of kept results.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// Peek returns a kept result without computing.
func (c *Cache[V]) Peek(key string) (val V, ok, cached bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, cached := c.values[key]
	return e.val, e.ok, cached
}
