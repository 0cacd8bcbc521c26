package reactive_test

import (
	"testing"

	"github.com/reactivegraph/corereactive/pkg/reactive"
	"github.com/stretchr/testify/assert"
)

// InvalidateJob cancels a job that's still queued (and not yet the one
// running): it never runs.
func TestInvalidateJobCancelsQueuedJob(t *testing.T) {
	rt := reactive.NewRuntime()
	var order []string

	first := reactive.NewFuncJob(func() error {
		order = append(order, "first")
		return nil
	}).WithID(1)
	second := reactive.NewFuncJob(func() error {
		order = append(order, "second")
		return nil
	}).WithID(2)

	rt.QueueJob(first)
	rt.QueueJob(second)
	rt.InvalidateJob(second)
	rt.Tick()

	assert.Equal(t, []string{"first"}, order)
}

// FlushPreFlushCbs runs every pre-marked job immediately, ahead of a
// normal Tick, without touching non-pre jobs still sitting in the queue.
func TestFlushPreFlushCbsRunsOnlyPreJobsNow(t *testing.T) {
	rt := reactive.NewRuntime()
	var order []string

	pre := reactive.NewFuncJob(func() error {
		order = append(order, "pre")
		return nil
	}).WithPre(true)
	normal := reactive.NewFuncJob(func() error {
		order = append(order, "normal")
		return nil
	})

	rt.QueueJob(pre)
	rt.QueueJob(normal)
	rt.FlushPreFlushCbs()

	assert.Equal(t, []string{"pre"}, order)

	rt.Tick()
	assert.Equal(t, []string{"pre", "normal"}, order)
}

// FlushPreFlushCbs splices each pre-job out of the queue before invoking
// it, then keeps scanning from that mutated index: a pre-job that queues
// another pre-job mid-scan gets it picked up and run within the same
// FlushPreFlushCbs call, not deferred to the next one.
func TestFlushPreFlushCbsRescansAfterCascadedPreJob(t *testing.T) {
	rt := reactive.NewRuntime()
	var order []string

	cascaded := reactive.NewFuncJob(func() error {
		order = append(order, "cascaded")
		return nil
	}).WithPre(true)

	trigger := reactive.NewFuncJob(func() error {
		order = append(order, "trigger")
		rt.QueueJob(cascaded)
		return nil
	}).WithPre(true)

	rt.QueueJob(trigger)
	rt.FlushPreFlushCbs()

	assert.Equal(t, []string{"trigger", "cascaded"}, order)
}

// A job skipped because its Active() returned false before the drain
// reached it never runs, and a stopped job queued alongside live ones
// doesn't block them from running.
func TestInactiveJobIsSkipped(t *testing.T) {
	rt := reactive.NewRuntime()
	var order []string

	skip := reactive.NewFuncJob(func() error {
		order = append(order, "skip")
		return nil
	})
	skip.Deactivate()
	keep := reactive.NewFuncJob(func() error {
		order = append(order, "keep")
		return nil
	})

	rt.QueueJob(skip)
	rt.QueueJob(keep)
	rt.Tick()

	assert.Equal(t, []string{"keep"}, order)
}

// A job's returned error is routed to OnSchedulerError instead of being
// swallowed, and the drain continues running the jobs queued after it.
func TestJobErrorRoutesToSchedulerErrorHook(t *testing.T) {
	rt := reactive.NewRuntime()
	boom := assert.AnError

	var captured error
	rt.OnSchedulerError = func(err error, job reactive.Job) { captured = err }

	failing := reactive.NewFuncJob(func() error { return boom }).WithID(0)
	var ranAfter bool
	after := reactive.NewFuncJob(func() error { ranAfter = true; return nil }).WithID(1)

	rt.QueueJob(failing)
	rt.QueueJob(after)
	rt.Tick()

	assert.ErrorIs(t, captured, reactive.ErrScheduler)
	assert.ErrorIs(t, captured, boom)
	assert.True(t, ranAfter)
}
