package derive

// Result holds the settled values of one evaluation. It is immutable once
// returned by Evaluate.
type Result struct {
	Generation uint64
	// Recomputed lists the nodes whose compute function ran, in declaration order
	Recomputed []Key
	// Changed lists the nodes whose value differs from the previous result
	Changed []Key

	values   map[Key]any
	versions map[Key]uint64
}

// Value returns the settled value of key
func (r *Result) Value(key Key) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Version counts how many times the value of key changed across evaluations
func (r *Result) Version(key Key) uint64 {
	return r.versions[key]
}

// Get returns the value of key as T
func Get[T any](r *Result, key Key) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	v, ok := r.values[key]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// settle records value for n and marks it changed unless it equals prev's
// value under the node's equality function
func (r *Result) settle(n *node, value any, prev *Result, changed map[Key]bool) {
	if prev != nil && n.equal != nil {
		if old, ok := prev.values[n.key]; ok && n.equal(old, value) {
			r.values[n.key] = old
			r.versions[n.key] = prev.versions[n.key]
			return
		}
	}
	var version uint64 = 1
	if prev != nil {
		version = prev.versions[n.key] + 1
	}
	r.values[n.key] = value
	r.versions[n.key] = version
	changed[n.key] = true
}

func (r *Result) sortRecomputed(order []Key) {
	if len(r.Recomputed) < 2 {
		return
	}
	ran := make(map[Key]bool, len(r.Recomputed))
	for _, k := range r.Recomputed {
		ran[k] = true
	}
	r.Recomputed = r.Recomputed[:0]
	for _, k := range order {
		if ran[k] {
			r.Recomputed = append(r.Recomputed, k)
		}
	}
}
