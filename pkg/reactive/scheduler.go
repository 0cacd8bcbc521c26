package reactive

import (
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// recursionLimit bounds how many times a single scheduler drain attempt
// will invoke the same job (or post callback) before it is skipped with a
// warning. Counting is per drain attempt, not per job class: deeply nested
// re-entry across nested flushes can reset the counter. That quirk is
// preserved deliberately, not fixed.
const recursionLimit = 100

// Job is an item the scheduler can queue: typically an effect's scheduler
// callback, wrapped so the scheduler can order, dedupe, and rate-limit it.
type Job interface {
	// ID is the ordering key; (0, false) means "no id", sorting last.
	ID() (int, bool)
	Pre() bool
	Active() bool
	Run() error
	AllowRecurse() bool
	// OwnerInstance names the component/owner for recursion-overflow
	// warnings; "" if unknown.
	OwnerInstance() string
}

// PostFlushCb is a callback deferred until the main job queue has drained,
// e.g. a mounted/updated-style lifecycle hook.
type PostFlushCb interface {
	Run()
}

// idProvider is an optional extension a PostFlushCb can implement to
// participate in the post-phase's ascending-id sort.
type idProvider interface {
	ID() (int, bool)
}

// FuncPostFlushCb adapts a plain function into a PostFlushCb with a stable
// pointer identity, the post-phase counterpart to FuncJob.
type FuncPostFlushCb struct {
	fn func()
	id *int
}

// NewFuncPostFlushCb wraps fn as an id-less PostFlushCb.
func NewFuncPostFlushCb(fn func()) *FuncPostFlushCb { return &FuncPostFlushCb{fn: fn} }

func (c *FuncPostFlushCb) WithID(id int) *FuncPostFlushCb { c.id = &id; return c }

func (c *FuncPostFlushCb) Run() { c.fn() }

func (c *FuncPostFlushCb) ID() (int, bool) {
	if c.id == nil {
		return 0, false
	}
	return *c.id, true
}

// FuncJob adapts a plain function into a Job with a stable pointer identity
// (needed for the scheduler's reference-equality dedup).
type FuncJob struct {
	fn            func() error
	id            *int
	pre           bool
	active        bool
	allowRecurse  bool
	ownerInstance string
}

// NewFuncJob wraps fn as an always-active Job with no id.
func NewFuncJob(fn func() error) *FuncJob {
	return &FuncJob{fn: fn, active: true}
}

func (j *FuncJob) WithID(id int) *FuncJob            { j.id = &id; return j }
func (j *FuncJob) WithPre(pre bool) *FuncJob         { j.pre = pre; return j }
func (j *FuncJob) WithAllowRecurse() *FuncJob        { j.allowRecurse = true; return j }
func (j *FuncJob) WithOwner(owner string) *FuncJob   { j.ownerInstance = owner; return j }
func (j *FuncJob) Deactivate()                        { j.active = false }

func (j *FuncJob) ID() (int, bool) {
	if j.id == nil {
		return 0, false
	}
	return *j.id, true
}
func (j *FuncJob) Pre() bool             { return j.pre }
func (j *FuncJob) Active() bool          { return j.active }
func (j *FuncJob) Run() error            { return j.fn() }
func (j *FuncJob) AllowRecurse() bool    { return j.allowRecurse }
func (j *FuncJob) OwnerInstance() string { return j.ownerInstance }

// effectJob adapts a scheduler-backed ReactiveEffect into a Job, so effects
// created with WithScheduler(rt.ScheduleEffect(e)) flow through QueueJob.
type effectJob struct {
	effect *ReactiveEffect
	id     *int
	pre    bool
	owner  string
}

func (j *effectJob) ID() (int, bool) {
	if j.id == nil {
		return 0, false
	}
	return *j.id, true
}
func (j *effectJob) Pre() bool          { return j.pre }
func (j *effectJob) Active() bool       { return j.effect.active }
func (j *effectJob) AllowRecurse() bool { return j.effect.allowRecurse }
func (j *effectJob) Run() error         { _, err := j.effect.Run(); return err }

// OwnerInstance falls back to a short xxhash-derived label built from the
// effect's address, so a recursion-overflow warning can still name
// *something* when the host never supplied an explicit owner.
func (j *effectJob) OwnerInstance() string {
	if j.owner != "" {
		return j.owner
	}
	sum := xxhash.Sum64String(fmt.Sprintf("%p", j.effect))
	return fmt.Sprintf("effect-%06x", sum&0xffffff)
}

// ScheduleEffect builds a Job-backed SchedulerFunc for effect e: calling the
// returned SchedulerFunc enqueues e onto the Runtime's job queue instead of
// running it immediately.
func (rt *Runtime) ScheduleEffect(e *ReactiveEffect, id *int, pre bool, owner string) SchedulerFunc {
	job := &effectJob{effect: e, id: id, pre: pre, owner: owner}
	return func() { rt.QueueJob(job) }
}

// Awaitable is the Go rendering of nextTick's promise: Wait blocks
// (cooperatively - this package never runs work on another goroutine)
// until the tick resolves, running any callback passed to NextTick exactly
// once; Done exposes the same moment as a channel for select-based waiting.
type Awaitable interface {
	Wait()
	Done() <-chan struct{}
}

type flushFuture struct {
	done chan struct{}
}

func newFlushFuture() *flushFuture { return &flushFuture{done: make(chan struct{})} }

func (f *flushFuture) Wait()                   { <-f.done }
func (f *flushFuture) Done() <-chan struct{}   { return f.done }
func (f *flushFuture) resolve()                { close(f.done) }

func resolvedFuture() *flushFuture {
	f := newFlushFuture()
	f.resolve()
	return f
}

type chainedAwaitable struct {
	base *flushFuture
	fn   func()
	ran  bool
}

func (c *chainedAwaitable) Wait() {
	c.base.Wait()
	if !c.ran {
		c.ran = true
		c.fn()
	}
}
func (c *chainedAwaitable) Done() <-chan struct{} { return c.base.Done() }

// scheduler holds the two-phase job queue state described by the core
// design: an id-ordered pre+normal queue and a deferred post-phase list.
type scheduler struct {
	rt *Runtime

	queue      []Job
	flushIndex int

	pendingPostFlushCbs []PostFlushCb
	activePostFlushCbs  []PostFlushCb
	postFlushIndex      int

	isFlushing     bool
	isFlushPending bool

	currentFlush *flushFuture
}

func newScheduler(rt *Runtime) *scheduler { return &scheduler{rt: rt} }

func getJobID(job Job) int {
	if id, ok := job.ID(); ok {
		return id
	}
	return math.MaxInt
}

// QueueJob enqueues a normal job, deduplicating against the still-pending
// tail of the queue and inserting it in id order.
func (rt *Runtime) QueueJob(job Job) { rt.scheduler.queueJob(job) }

func (s *scheduler) queueJob(job Job) {
	start := s.flushIndex
	if s.isFlushing && job.AllowRecurse() {
		start = s.flushIndex + 1
	}

	for i := start; i < len(s.queue); i++ {
		if s.queue[i] == job {
			return
		}
	}

	jobID := getJobID(job)
	if jobID == math.MaxInt {
		s.queue = append(s.queue, job)
	} else {
		start := s.flushIndex + 1
		if start > len(s.queue) {
			start = len(s.queue)
		}
		lo, hi := start, len(s.queue)
		for lo < hi {
			mid := (lo + hi) / 2
			if getJobID(s.queue[mid]) < jobID {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		s.queue = append(s.queue, nil)
		copy(s.queue[lo+1:], s.queue[lo:])
		s.queue[lo] = job
	}

	s.queueFlush()
}

// QueuePostFlushCb enqueues a post-phase callback, deduplicating against
// the currently-draining post list if one is active.
func (rt *Runtime) QueuePostFlushCb(cb PostFlushCb) { rt.scheduler.queuePostFlushCb(cb, false) }

// QueuePostFlushCbAllowRecurse is QueuePostFlushCb for a callback allowed to
// requeue itself while the post phase that contains it is draining.
func (rt *Runtime) QueuePostFlushCbAllowRecurse(cb PostFlushCb) {
	rt.scheduler.queuePostFlushCb(cb, true)
}

func (s *scheduler) queuePostFlushCb(cb PostFlushCb, allowRecurse bool) {
	if len(s.activePostFlushCbs) == 0 {
		s.pendingPostFlushCbs = append(s.pendingPostFlushCbs, cb)
		s.queueFlush()
		return
	}

	start := s.postFlushIndex
	if allowRecurse {
		start = s.postFlushIndex + 1
	}
	for i := start; i < len(s.activePostFlushCbs); i++ {
		if s.activePostFlushCbs[i] == cb {
			return
		}
	}
	s.pendingPostFlushCbs = append(s.pendingPostFlushCbs, cb)
	s.queueFlush()
}

// QueuePostFlushCbs appends a batch of post callbacks (a lifecycle group)
// without deduplication.
func (rt *Runtime) QueuePostFlushCbs(cbs []PostFlushCb) { rt.scheduler.queuePostFlushCbs(cbs) }

func (s *scheduler) queuePostFlushCbs(cbs []PostFlushCb) {
	if len(cbs) == 0 {
		return
	}
	s.pendingPostFlushCbs = append(s.pendingPostFlushCbs, cbs...)
	s.queueFlush()
}

// InvalidateJob removes a job from the queue if it sits strictly after the
// job currently running; it cannot cancel the running job or one that has
// already run.
func (rt *Runtime) InvalidateJob(job Job) { rt.scheduler.invalidateJob(job) }

func (s *scheduler) invalidateJob(job Job) {
	for i := s.flushIndex + 1; i < len(s.queue); i++ {
		if s.queue[i] == job {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// FlushPreFlushCbs runs every pre=true job currently in the queue, ahead of
// the normal drain. Each pre-job is spliced out of the queue before it
// runs, and the scan resumes at the index it occupied: a pre-job it
// enqueues at or after that index runs in the same call, one inserted
// before it does not - this splice-then-invoke quirk is preserved
// deliberately.
func (rt *Runtime) FlushPreFlushCbs() { rt.scheduler.flushPreFlushCbs() }

func (s *scheduler) flushPreFlushCbs() {
	start := 0
	if s.isFlushing {
		start = s.flushIndex + 1
	}
	for i := start; i < len(s.queue); i++ {
		job := s.queue[i]
		if job == nil || !job.Pre() {
			continue
		}
		s.queue = append(s.queue[:i], s.queue[i+1:]...)
		i--
		s.runJob(job, nil)
	}
}

// NextTick returns an Awaitable that resolves no earlier than the
// completion of the drain that was in flight (or about to begin) when
// NextTick was called; it never starts a flush itself. If fn is non-nil it
// runs exactly once, on the first Wait call after that resolution; waiting
// on Done alone does not run it.
func (rt *Runtime) NextTick(fn func()) Awaitable {
	base := rt.scheduler.currentFlush
	if base == nil {
		base = resolvedFuture()
	}
	if fn == nil {
		return base
	}
	return &chainedAwaitable{base: base, fn: fn}
}

func (s *scheduler) queueFlush() {
	if !s.isFlushing && !s.isFlushPending {
		s.isFlushPending = true
		s.currentFlush = newFlushFuture()
	}
}

// Tick drains any pending scheduler work and any pending DeferredComputed
// microtasks. Nothing in this package spins up a goroutine to do this
// implicitly; the host must call Tick at its own well-defined yield points
// (end of an event-handler turn, a test's explicit pump, a CLI command
// loop).
func (rt *Runtime) Tick() {
	if rt.scheduler.isFlushPending && !rt.scheduler.isFlushing {
		rt.scheduler.flushJobs()
	}
	rt.flushDeferredComputeds()
}

func (rt *Runtime) flushDeferredComputeds() {
	if len(rt.pendingDeferredFlushes) == 0 {
		return
	}
	pending := rt.pendingDeferredFlushes
	rt.pendingDeferredFlushes = nil
	for _, fn := range pending {
		fn()
	}
}

func (rt *Runtime) scheduleDeferredFlush(fn func()) {
	rt.pendingDeferredFlushes = append(rt.pendingDeferredFlushes, fn)
}

// jobLess implements the drain comparator: ascending id (undefined id
// sorts last), with pre jobs before non-pre jobs at the same id.
func jobLess(a, b Job) bool {
	ai, bi := getJobID(a), getJobID(b)
	if ai != bi {
		return ai < bi
	}
	return a.Pre() && !b.Pre()
}

// flushJobs is the iterative equivalent of the spec's recursive drain: it
// sorts and runs the queue, drains post callbacks, and - if either was
// repopulated by that post drain - loops rather than returning, sharing one
// "seen" recursion-count map across every iteration of this outer call, so
// a job's count keeps growing across those iterations and starts from zero
// only in the next flushJobs call.
func (s *scheduler) flushJobs() {
	s.isFlushPending = false
	s.isFlushing = true
	seen := map[any]int{}

	for {
		sort.SliceStable(s.queue, func(i, j int) bool { return jobLess(s.queue[i], s.queue[j]) })

		for s.flushIndex = 0; s.flushIndex < len(s.queue); s.flushIndex++ {
			job := s.queue[s.flushIndex]
			if job != nil {
				s.runJob(job, seen)
			}
		}

		s.flushIndex = 0
		s.queue = s.queue[:0]

		s.flushPostFlushCbs(seen)

		if len(s.queue) == 0 && len(s.pendingPostFlushCbs) == 0 {
			break
		}
	}

	s.isFlushing = false
	if s.currentFlush != nil {
		s.currentFlush.resolve()
		s.currentFlush = nil
	}
}

func (s *scheduler) runJob(job Job, seen map[any]int) {
	if !job.Active() {
		return
	}
	if s.rt.DevMode && seen != nil {
		seen[job]++
		if seen[job] > recursionLimit {
			s.rt.Logger.Printf("reactive: max recursive updates exceeded%s; a reactive effect is mutating its own dependencies", ownerSuffix(job.OwnerInstance()))
			return
		}
	}
	if err := job.Run(); err != nil {
		s.rt.OnSchedulerError(wrapSchedulerError(err), job)
	}
}

func ownerSuffix(owner string) string {
	if owner == "" {
		return ""
	}
	return fmt.Sprintf(" in %s", owner)
}

func dedupPostCbs(cbs []PostFlushCb) []PostFlushCb {
	seen := make(map[PostFlushCb]bool, len(cbs))
	out := make([]PostFlushCb, 0, len(cbs))
	for _, cb := range cbs {
		if seen[cb] {
			continue
		}
		seen[cb] = true
		out = append(out, cb)
	}
	return out
}

func postCbID(cb PostFlushCb) int {
	if p, ok := cb.(idProvider); ok {
		if id, has := p.ID(); has {
			return id
		}
	}
	return math.MaxInt
}

func (s *scheduler) flushPostFlushCbs(seen map[any]int) {
	if len(s.pendingPostFlushCbs) == 0 {
		return
	}

	deduped := dedupPostCbs(s.pendingPostFlushCbs)
	s.pendingPostFlushCbs = s.pendingPostFlushCbs[:0]

	if len(s.activePostFlushCbs) > 0 {
		s.activePostFlushCbs = append(s.activePostFlushCbs, deduped...)
		return
	}

	s.activePostFlushCbs = deduped
	sort.SliceStable(s.activePostFlushCbs, func(i, j int) bool {
		return postCbID(s.activePostFlushCbs[i]) < postCbID(s.activePostFlushCbs[j])
	})

	for s.postFlushIndex = 0; s.postFlushIndex < len(s.activePostFlushCbs); s.postFlushIndex++ {
		cb := s.activePostFlushCbs[s.postFlushIndex]
		if s.rt.DevMode {
			seen[cb]++
			if seen[cb] > recursionLimit {
				s.rt.Logger.Printf("reactive: max recursive post-flush updates exceeded")
				continue
			}
		}
		cb.Run()
	}

	s.activePostFlushCbs = nil
	s.postFlushIndex = 0
}
