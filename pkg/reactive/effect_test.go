package reactive_test

import (
	"testing"

	"github.com/reactivegraph/corereactive/pkg/reactive"
	"github.com/stretchr/testify/assert"
)

type pair struct{ a, b int }

// Two-effect fan-out: E1 reads o.a only, E2 reads o.a and o.b. Writing o.a
// re-runs both exactly once.
func TestTwoEffectFanOut(t *testing.T) {
	rt := reactive.NewRuntime()
	o := &pair{a: 1, b: 2}

	var e1Runs, e2Runs int
	rt.Effect(func() (any, error) {
		rt.Track(o, "a", reactive.TrackGet)
		e1Runs++
		return nil, nil
	})
	rt.Effect(func() (any, error) {
		rt.Track(o, "a", reactive.TrackGet)
		rt.Track(o, "b", reactive.TrackGet)
		e2Runs++
		return nil, nil
	})
	assert.Equal(t, 1, e1Runs)
	assert.Equal(t, 1, e2Runs)

	o.a = 10
	rt.Trigger(o, "a", reactive.TriggerSet, 10, 1, nil)

	assert.Equal(t, 2, e1Runs)
	assert.Equal(t, 2, e2Runs)
}

// A self-mutating effect's own trigger must not re-enter itself: the
// effect === activeEffect check suppresses recursion even though the
// effect both reads and writes the same slot.
func TestSelfDependencySuppression(t *testing.T) {
	rt := reactive.NewRuntime()
	c := &pair{a: 0}

	rt.Effect(func() (any, error) {
		rt.Track(c, "a", reactive.TrackGet)
		old := c.a
		c.a = old + 1
		rt.Trigger(c, "a", reactive.TriggerSet, c.a, old, nil)
		return nil, nil
	})

	assert.Equal(t, 1, c.a)
}

// An effect stopped before a later trigger never runs again, even though
// its Dep still names the (now-orphaned) target key.
func TestStopPreventsFurtherRuns(t *testing.T) {
	rt := reactive.NewRuntime()
	o := &pair{a: 1}

	runs := 0
	runner := rt.Effect(func() (any, error) {
		rt.Track(o, "a", reactive.TrackGet)
		runs++
		return nil, nil
	})
	assert.Equal(t, 1, runs)

	rt.Stop(runner)
	o.a = 2
	rt.Trigger(o, "a", reactive.TriggerSet, 2, 1, nil)

	assert.Equal(t, 1, runs)
}

// Reading the same keys across successive runs with no intervening write
// leaves the effect's subscriptions stable: re-running doesn't grow or
// shrink how many Deps observe it.
func TestTrackStableAcrossRepeatedRuns(t *testing.T) {
	rt := reactive.NewRuntime()
	o := &pair{a: 1, b: 2}

	runner := rt.Effect(func() (any, error) {
		rt.Track(o, "a", reactive.TrackGet)
		rt.Track(o, "b", reactive.TrackGet)
		return nil, nil
	})

	runner.Run()
	runner.Run()

	assert.Len(t, runner.Effect().Deps(), 2)
}

// pauseTracking/enableTracking/resetTracking form a stack: resetTracking
// restores whatever shouldTrack was before the matching push, regardless
// of what ran in between.
func TestTrackingStackRestoresPriorState(t *testing.T) {
	rt := reactive.NewRuntime()

	rt.PauseTracking()
	rt.EnableTracking()
	rt.ResetTracking()
	assert.False(t, rt.ShouldTrack())

	rt.ResetTracking()
	assert.True(t, rt.ShouldTrack())
}

// Nesting effects 31 deep exceeds the 30-bit marker ceiling: the innermost
// effect falls back to full-cleanup tracking instead of the bitmask sweep,
// and still ends up subscribed to exactly the Dep it read.
func TestDeepNestingFallsBackToFullCleanup(t *testing.T) {
	rt := reactive.NewRuntime()
	o := &pair{a: 1}

	var innerRuns int
	var build func(depth int) func() (any, error)
	build = func(depth int) func() (any, error) {
		return func() (any, error) {
			if depth == 0 {
				rt.Track(o, "a", reactive.TrackGet)
				innerRuns++
				return nil, nil
			}
			rt.Effect(build(depth - 1))
			return nil, nil
		}
	}

	rt.Effect(build(31))
	assert.Equal(t, 1, innerRuns)

	o.a = 2
	rt.Trigger(o, "a", reactive.TriggerSet, 2, 1, nil)
	assert.Equal(t, 2, innerRuns)
}
