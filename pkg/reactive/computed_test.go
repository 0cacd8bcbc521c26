package reactive_test

import (
	"testing"

	"github.com/reactivegraph/corereactive/pkg/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A Computed does not recompute its getter until Value is read; writes to
// an upstream it depends on only mark it dirty.
func TestComputedIsLazy(t *testing.T) {
	rt := reactive.NewRuntime()
	o := &pair{a: 1}

	calls := 0
	c := reactive.NewComputed(rt, func() int {
		rt.Track(o, "a", reactive.TrackGet)
		calls++
		return o.a * 10
	})

	assert.Equal(t, 0, calls)
	assert.Equal(t, 10, c.Value())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 10, c.Value())
	assert.Equal(t, 1, calls, "second read of a non-dirty computed must not recompute")

	o.a = 2
	rt.Trigger(o, "a", reactive.TriggerSet, 2, 1, nil)
	assert.Equal(t, 1, calls, "marking dirty must not eagerly recompute")
	assert.Equal(t, 20, c.Value())
	assert.Equal(t, 2, calls)
}

// DeferredComputed suppression: base goes 1, 2, then back to 0 synchronously; since the
// deferred value at flush time equals its pre-change snapshot, an effect
// reading it must not re-run during the microtask pass.
func TestDeferredComputedSuppressesNoOpFlush(t *testing.T) {
	rt := reactive.NewRuntime()
	base := reactive.NewRef(rt, 0)

	d := reactive.NewDeferredComputed(rt, func() int { return base.Value() })
	require.Equal(t, 0, d.Value())

	runs := 0
	rt.Effect(func() (any, error) {
		d.Value()
		runs++
		return nil, nil
	})
	assert.Equal(t, 1, runs)

	base.SetValue(1)
	base.SetValue(2)
	base.SetValue(0)
	rt.Tick()

	assert.Equal(t, 1, runs, "effect must not re-run when the deferred value round-trips back to its snapshot")
	assert.Equal(t, 0, d.Value())
}

// When the deferred value genuinely differs after the flush's recompute,
// the downstream effect does re-run, exactly once per flush regardless of
// how many upstream writes preceded it.
func TestDeferredComputedNotifiesOnRealChange(t *testing.T) {
	rt := reactive.NewRuntime()
	base := reactive.NewRef(rt, 0)

	d := reactive.NewDeferredComputed(rt, func() int { return base.Value() })
	require.Equal(t, 0, d.Value())

	runs := 0
	rt.Effect(func() (any, error) {
		d.Value()
		runs++
		return nil, nil
	})
	assert.Equal(t, 1, runs)

	base.SetValue(1)
	base.SetValue(2)
	rt.Tick()

	assert.Equal(t, 2, runs)
	assert.Equal(t, 2, d.Value())
}
