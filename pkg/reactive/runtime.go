package reactive

import (
	"log"
	"sync"
)

// Runtime consolidates every piece of process-wide mutable state the core
// design calls for (the target map, the active-effect chain, the tracking
// flag stack, the scheduler queues) into one explicitly-threaded handle, so
// a host program can run more than one independent reactive graph.
//
// Runtime is not safe for concurrent use from multiple goroutines; this
// mirrors the single-threaded, cooperative execution model the core design
// assumes (see the package-level rationale in DESIGN.md). Embedders that
// need to guard a Runtime from concurrent access can wrap calls with the
// coarse lock returned by WithMutex.
type Runtime struct {
	targetMap *targetMap
	scheduler *scheduler

	activeEffect *ReactiveEffect
	shouldTrack  bool
	trackStack   []bool

	effectTrackDepth int
	trackOpBit       uint32

	pendingDeferredFlushes []func()

	// DevMode gates the recursion-limit warning counters; production
	// drains skip the bookkeeping.
	DevMode bool
	// Logger receives recursion-overflow warnings and the default
	// scheduler error routing. Defaults to log.Default().
	Logger *log.Logger
	// OnSchedulerError routes a job's returned error; defaults to logging
	// it through Logger and continuing the drain.
	OnSchedulerError func(err error, job Job)
}

// NewRuntime constructs a Runtime ready to track effects and drain jobs.
func NewRuntime() *Runtime {
	rt := &Runtime{
		targetMap:   newTargetMap(),
		shouldTrack: true,
		trackOpBit:  1,
		Logger:      log.Default(),
	}
	rt.scheduler = newScheduler(rt)
	rt.OnSchedulerError = func(err error, job Job) {
		rt.Logger.Printf("reactive: scheduler job failed: %v", err)
	}
	return rt
}

// PauseTracking pushes the current shouldTrack state and disables tracking.
func (rt *Runtime) PauseTracking() {
	rt.trackStack = append(rt.trackStack, rt.shouldTrack)
	rt.shouldTrack = false
}

// EnableTracking pushes the current shouldTrack state and enables tracking.
func (rt *Runtime) EnableTracking() {
	rt.trackStack = append(rt.trackStack, rt.shouldTrack)
	rt.shouldTrack = true
}

// ResetTracking pops the last pushed shouldTrack state, restoring it.
func (rt *Runtime) ResetTracking() {
	if len(rt.trackStack) == 0 {
		rt.shouldTrack = true
		return
	}
	last := rt.trackStack[len(rt.trackStack)-1]
	rt.trackStack = rt.trackStack[:len(rt.trackStack)-1]
	rt.shouldTrack = last
}

// ShouldTrack reports whether a Track call right now would record a
// dependency; exposed mainly so tests can assert on PauseTracking /
// EnableTracking / ResetTracking behavior.
func (rt *Runtime) ShouldTrack() bool { return rt.shouldTrack }

// Forget drops a target's whole deps map. Go has no weak map, so unlike the
// host runtimes this design mirrors, a target's Deps otherwise persist for
// the Runtime's lifetime; Forget lets a host that tracks its own object
// lifecycle reclaim that memory explicitly.
func (rt *Runtime) Forget(target any) { rt.targetMap.forget(target) }

// Guard is an opt-in coarse lock an embedder can wrap around a batch of
// Runtime calls when a single Runtime must be shared across goroutines -
// the core engine itself takes no lock on its hot path.
type Guard struct {
	mu sync.Mutex
}

// WithMutex returns a fresh Guard for this Runtime.
func (rt *Runtime) WithMutex() *Guard { return &Guard{} }

// Do runs fn while holding the guard's lock.
func (g *Guard) Do(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// Default is the package-level Runtime used by the free-function sugar
// below, for the common case of a single reactive graph per process.
var Default = NewRuntime()

// Effect creates an effect on the default Runtime.
func Effect(fn func() (any, error), opts ...EffectOption) *Runner {
	return Default.Effect(fn, opts...)
}

// Stop stops an effect created on the default Runtime.
func Stop(r *Runner) { Default.Stop(r) }

// Track records a read against the default Runtime.
func Track(target, key any, opType TrackOpType) { Default.Track(target, key, opType) }

// TriggerValue notifies effects of a write against the default Runtime.
func TriggerValue(target, key any, opType TriggerOpType, newValue, oldValue, oldTarget any) {
	Default.Trigger(target, key, opType, newValue, oldValue, oldTarget)
}
