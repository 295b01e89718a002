// Package derive evaluates a small directed acyclic graph of derived values.
//
// Inputs are supplied per evaluation; every other node declares the keys it
// depends on and a compute function. Evaluation walks the graph level by
// level: a node recomputes only when one of its dependencies changed since the
// previous result, nodes in the same level run concurrently, and a level
// starts only after the previous level has settled.
package derive

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Key identifies a node
type Key string

// Values exposes settled dependency values to a compute function
type Values map[Key]any

// ComputeFunc derives a node value from its dependencies
type ComputeFunc func(ctx context.Context, deps Values) (any, error)

// EqualFunc reports whether two values of a node are equivalent. Equivalent
// values do not propagate a change to dependents.
type EqualFunc func(a, b any) bool

// Option configures a node
type Option func(*node)

// WithEqual sets the change-detection function of a node
func WithEqual(fn EqualFunc) Option {
	return func(n *node) { n.equal = fn }
}

// Comparable detects changes with ==. Only for comparable value types.
func Comparable() Option {
	return WithEqual(func(a, b any) bool { return a == b })
}

var (
	ErrNotBuilt     = errors.New("derive: graph not built")
	ErrCycle        = errors.New("derive: dependency cycle")
	ErrUnknownNode  = errors.New("derive: unknown node")
	ErrDuplicate    = errors.New("derive: duplicate node")
	ErrMissingInput = errors.New("derive: missing input")
)

type node struct {
	key     Key
	deps    []Key
	compute ComputeFunc
	equal   EqualFunc
	input   bool
}

// Graph is a set of nodes. Declare nodes, call Build once, then Evaluate any
// number of times concurrently.
type Graph struct {
	mu     sync.RWMutex
	nodes  map[Key]*node
	order  []Key
	levels [][]Key
}

// New creates an empty graph
func New() *Graph {
	return &Graph{nodes: make(map[Key]*node)}
}

// Input declares a node whose value is supplied to Evaluate
func (g *Graph) Input(key Key, opts ...Option) error {
	return g.add(&node{key: key, input: true}, opts)
}

// Node declares a derived node
func (g *Graph) Node(key Key, deps []Key, fn ComputeFunc, opts ...Option) error {
	if fn == nil {
		return fmt.Errorf("derive: node %s has no compute function", key)
	}
	return g.add(&node{key: key, deps: append([]Key(nil), deps...), compute: fn}, opts)
}

func (g *Graph) add(n *node, opts []Option) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.levels != nil {
		return fmt.Errorf("derive: cannot add %s after Build", n.key)
	}
	if _, ok := g.nodes[n.key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, n.key)
	}
	for _, opt := range opts {
		opt(n)
	}
	g.nodes[n.key] = n
	g.order = append(g.order, n.key)
	return nil
}

// Build validates dependencies and fixes the evaluation levels
func (g *Graph) Build() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, key := range g.order {
		for _, dep := range g.nodes[key].deps {
			if _, ok := g.nodes[dep]; !ok {
				return fmt.Errorf("%w: %s depends on %s", ErrUnknownNode, key, dep)
			}
		}
	}

	level := make(map[Key]int, len(g.nodes))
	remaining := append([]Key(nil), g.order...)
	for len(remaining) > 0 {
		var next []Key
		progressed := false
		for _, key := range remaining {
			lvl, ready := 0, true
			for _, dep := range g.nodes[key].deps {
				dl, ok := level[dep]
				if !ok {
					ready = false
					break
				}
				if dl+1 > lvl {
					lvl = dl + 1
				}
			}
			if !ready {
				next = append(next, key)
				continue
			}
			level[key] = lvl
			progressed = true
		}
		if !progressed {
			return fmt.Errorf("%w among %v", ErrCycle, next)
		}
		remaining = next
	}

	depth := 0
	for _, l := range level {
		if l+1 > depth {
			depth = l + 1
		}
	}
	g.levels = make([][]Key, depth)
	for _, key := range g.order {
		g.levels[level[key]] = append(g.levels[level[key]], key)
	}
	return nil
}

// Levels returns the evaluation levels; keys within a level keep declaration order
func (g *Graph) Levels() [][]Key {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([][]Key, len(g.levels))
	for i, l := range g.levels {
		out[i] = append([]Key(nil), l...)
	}
	return out
}

// Evaluate computes every node for one generation. Nodes whose dependencies
// did not change since prev reuse prev's values. prev may be nil.
func (g *Graph) Evaluate(ctx context.Context, generation uint64, inputs map[Key]any, prev *Result) (*Result, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.levels == nil {
		return nil, ErrNotBuilt
	}

	res := &Result{
		Generation: generation,
		values:     make(map[Key]any, len(g.nodes)),
		versions:   make(map[Key]uint64, len(g.nodes)),
	}
	changed := make(map[Key]bool, len(g.nodes))

	for _, keys := range g.levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs []error
		)
		for _, key := range keys {
			n := g.nodes[key]
			if n.input {
				value, ok := inputs[key]
				if !ok {
					wg.Wait()
					return nil, fmt.Errorf("%w: %s", ErrMissingInput, key)
				}
				mu.Lock()
				res.settle(n, value, prev, changed)
				mu.Unlock()
				continue
			}

			// dependencies live in earlier levels and are settled; the lock
			// guards the maps against writers of this level
			mu.Lock()
			if !g.stale(n, prev, changed) {
				res.values[key] = prev.values[key]
				res.versions[key] = prev.versions[key]
				mu.Unlock()
				continue
			}
			deps := make(Values, len(n.deps))
			for _, dep := range n.deps {
				deps[dep] = res.values[dep]
			}
			mu.Unlock()

			wg.Add(1)
			go func(n *node, deps Values) {
				defer wg.Done()
				value, err := n.compute(ctx, deps)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, fmt.Errorf("derive: %s: %w", n.key, err))
					return
				}
				res.Recomputed = append(res.Recomputed, n.key)
				res.settle(n, value, prev, changed)
			}(n, deps)
		}
		wg.Wait()

		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
	}

	res.sortRecomputed(g.order)
	for _, key := range g.order {
		if changed[key] {
			res.Changed = append(res.Changed, key)
		}
	}
	return res, nil
}

// stale reports whether n must be recomputed
func (g *Graph) stale(n *node, prev *Result, changed map[Key]bool) bool {
	if prev == nil {
		return true
	}
	if _, ok := prev.values[n.key]; !ok {
		return true
	}
	for _, dep := range n.deps {
		if changed[dep] {
			return true
		}
	}
	return false
}
