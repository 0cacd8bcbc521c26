package reactive

import "reflect"

func trackRefValue(rt *Runtime, d *dep) {
	if rt.shouldTrack && rt.activeEffect != nil {
		trackEffects(rt, d)
	}
}

func triggerRefValue(rt *Runtime, d *dep) {
	triggerEffects(rt, d)
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Computed is a memoized value backed by an effect. Reading Value subscribes
// the current active effect to the computed's own Dep, and - if the
// computed is dirty - re-runs its getter inside the effect's tracking
// scope, so it re-subscribes to exactly the upstream Deps it still reads.
type Computed[T any] struct {
	rt     *Runtime
	dep    *dep
	dirty  bool
	value  T
	effect *ReactiveEffect
	getter func() T
}

// NewComputed builds a Computed[T] from a getter; the getter runs for the
// first time on the first Value() read, not at construction.
func NewComputed[T any](rt *Runtime, getter func() T) *Computed[T] {
	c := &Computed[T]{rt: rt, dep: newDep(), dirty: true, getter: getter}

	c.effect = &ReactiveEffect{
		rt:         rt,
		active:     true,
		isComputed: true,
		fn: func() (any, error) {
			c.value = getter()
			return c.value, nil
		},
	}
	c.effect.scheduler = func() {
		if !c.dirty {
			c.dirty = true
			triggerRefValue(rt, c.dep)
		}
	}

	return c
}

// Value returns the memoized value, recomputing it first if dirty.
func (c *Computed[T]) Value() T {
	trackRefValue(c.rt, c.dep)
	if c.dirty {
		c.dirty = false
		c.effect.Run()
	}
	return c.value
}

// Stop tears down the backing effect, so upstream writes no longer mark
// this computed dirty.
func (c *Computed[T]) Stop() { c.effect.Stop() }

// DeferredComputed is a Computed whose downstream notifications are
// deferred to Runtime.Tick's microtask-equivalent pass and suppressed when
// the recomputed value turns out to equal its pre-change snapshot.
type DeferredComputed[T any] struct {
	rt            *Runtime
	dep           *dep
	dirty         bool
	value         T
	compareTarget T
	effect        *ReactiveEffect
	getter        func() T
	pendingFlush  bool
}

// NewDeferredComputed builds a DeferredComputed[T] from a getter.
func NewDeferredComputed[T any](rt *Runtime, getter func() T) *DeferredComputed[T] {
	dc := &DeferredComputed[T]{rt: rt, dep: newDep(), dirty: true, getter: getter}

	dc.effect = &ReactiveEffect{
		rt:         rt,
		active:     true,
		isComputed: true,
		fn: func() (any, error) {
			dc.value = getter()
			return dc.value, nil
		},
	}
	dc.effect.deferredOwner = dc
	dc.effect.scheduler = func() { dc.notify(false) }

	return dc
}

// notifyUpstream implements deferredNotifiable, letting an upstream
// DeferredComputed reach this one synchronously when it is itself notified.
func (dc *DeferredComputed[T]) notifyUpstream(computedTrigger bool) { dc.notify(computedTrigger) }

// notify is the scheduler body described by the core design: a synchronous
// upstream notification (computedTrigger=true) just snapshots the current
// value for later comparison; a real upstream write (computedTrigger=false)
// schedules (at most once) a microtask-equivalent recompute-and-compare.
// Either way, every downstream DeferredComputed is notified synchronously
// so chained deferred computeds stay coherent even if read before the
// microtask fires.
func (dc *DeferredComputed[T]) notify(computedTrigger bool) {
	if computedTrigger {
		dc.compareTarget = dc.value
	} else if !dc.pendingFlush {
		dc.pendingFlush = true
		dc.compareTarget = dc.value
		dc.rt.scheduleDeferredFlush(func() {
			dc.pendingFlush = false
			next := dc.getter()
			if !valuesEqual(next, dc.compareTarget) {
				dc.value = next
				triggerRefValue(dc.rt, dc.dep)
			}
		})
	}

	dc.dep.each(func(e *ReactiveEffect) {
		if e.deferredOwner != nil {
			e.deferredOwner.notifyUpstream(true)
		}
	})

	dc.dirty = true
}

// Value returns the memoized value, recomputing it first if dirty.
func (dc *DeferredComputed[T]) Value() T {
	trackRefValue(dc.rt, dc.dep)
	if dc.dirty {
		dc.dirty = false
		dc.effect.Run()
	}
	return dc.value
}

// Stop tears down the backing effect.
func (dc *DeferredComputed[T]) Stop() { dc.effect.Stop() }
