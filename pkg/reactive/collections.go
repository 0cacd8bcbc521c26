package reactive

// ReactiveSlice is a sequence-like observable target: reads of an index or
// of Len track individually, and Truncate exercises the length-shrink
// trigger fan-out (any index >= the new length, plus the length slot
// itself, are invalidated; nothing else is).
type ReactiveSlice[T any] struct {
	rt    *Runtime
	items []T
}

// NewReactiveSlice wraps items as an observable sequence on rt.
func NewReactiveSlice[T any](rt *Runtime, items ...T) *ReactiveSlice[T] {
	cp := make([]T, len(items))
	copy(cp, items)
	return &ReactiveSlice[T]{rt: rt, items: cp}
}

// CollectionKind marks this target as sequence-like for Trigger's fan-out.
func (s *ReactiveSlice[T]) CollectionKind() CollectionKind { return KindSequence }

// Len reads the current length, tracking the length slot.
func (s *ReactiveSlice[T]) Len() int {
	s.rt.Track(s, LengthKey, TrackGet)
	return len(s.items)
}

// At reads the element at index i, tracking that index. An index outside
// the current bounds yields the zero value of T.
func (s *ReactiveSlice[T]) At(i int) T {
	s.rt.Track(s, i, TrackGet)
	if i < 0 || i >= len(s.items) {
		var zero T
		return zero
	}
	return s.items[i]
}

// Set overwrites the element at index i.
func (s *ReactiveSlice[T]) Set(i int, v T) {
	old := s.items[i]
	s.items[i] = v
	s.rt.Trigger(s, i, TriggerSet, v, old, nil)
}

// Push appends v, extending the length and triggering the new index as an
// addition (which also invalidates the length slot).
func (s *ReactiveSlice[T]) Push(v T) {
	s.items = append(s.items, v)
	idx := len(s.items) - 1
	s.rt.Trigger(s, idx, TriggerAdd, v, nil, nil)
}

// Truncate shrinks the slice to n elements, invalidating every index >= n
// and the length slot itself.
func (s *ReactiveSlice[T]) Truncate(n int) {
	if n >= len(s.items) {
		return
	}
	s.items = s.items[:n]
	s.rt.Trigger(s, LengthKey, TriggerSet, n, nil, nil)
}

// ReactiveMap is a keyed-collection observable target: Set/Delete/Clear
// exercise the ITERATE_KEY/MAP_KEY_ITERATE_KEY fan-out rules described for
// map/set-like targets.
type ReactiveMap[K comparable, V any] struct {
	rt *Runtime
	m  map[K]V
}

// NewReactiveMap constructs an empty observable keyed collection on rt.
func NewReactiveMap[K comparable, V any](rt *Runtime) *ReactiveMap[K, V] {
	return &ReactiveMap[K, V]{rt: rt, m: make(map[K]V)}
}

// CollectionKind marks this target as keyed-collection-like for Trigger's
// fan-out.
func (m *ReactiveMap[K, V]) CollectionKind() CollectionKind { return KindKeyed }

// Get reads the value at k, tracking that key.
func (m *ReactiveMap[K, V]) Get(k K) (V, bool) {
	m.rt.Track(m, k, TrackGet)
	v, ok := m.m[k]
	return v, ok
}

// Has reports whether k is present, tracking that key.
func (m *ReactiveMap[K, V]) Has(k K) bool {
	m.rt.Track(m, k, TrackHas)
	_, ok := m.m[k]
	return ok
}

// Set inserts or overwrites the value at k.
func (m *ReactiveMap[K, V]) Set(k K, v V) {
	old, existed := m.m[k]
	m.m[k] = v
	if existed {
		m.rt.Trigger(m, k, TriggerSet, v, old, nil)
	} else {
		m.rt.Trigger(m, k, TriggerAdd, v, nil, nil)
	}
}

// Delete removes k if present.
func (m *ReactiveMap[K, V]) Delete(k K) {
	old, existed := m.m[k]
	if !existed {
		return
	}
	delete(m.m, k)
	m.rt.Trigger(m, k, TriggerDelete, nil, old, nil)
}

// Len reads the current size, tracking the iteration slot (any key
// add/delete changes how many entries a range over this map would see).
func (m *ReactiveMap[K, V]) Len() int {
	m.rt.Track(m, IterateKey, TrackIterate)
	return len(m.m)
}

// Clear empties the map, invalidating every dep registered for this
// target.
func (m *ReactiveMap[K, V]) Clear() {
	if len(m.m) == 0 {
		return
	}
	old := m.m
	m.m = make(map[K]V)
	m.rt.Trigger(m, nil, TriggerClear, nil, nil, old)
}
