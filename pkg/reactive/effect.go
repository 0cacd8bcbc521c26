package reactive

// maxMarkerBits is the recursion depth beyond which the w/n bitmask sweep
// can no longer address a unique bit and effects fall back to clearing and
// rebuilding their whole deps list on every run.
const maxMarkerBits = 30

// TrackOpType is the kind of read that produced a Track call.
type TrackOpType int

const (
	TrackGet TrackOpType = iota
	TrackHas
	TrackIterate
)

// TriggerOpType is the kind of write that produced a Trigger call.
type TriggerOpType int

const (
	TriggerSet TriggerOpType = iota
	TriggerAdd
	TriggerDelete
	TriggerClear
)

// DebugEvent is passed to an effect's OnTrack/OnTrigger hooks.
type DebugEvent struct {
	Effect *ReactiveEffect
	Target any
	Key    any
	// TrackType is set for OnTrack events. OnTrigger events carry only
	// Effect and IsTrigger; Target, Key and TriggerType stay at their zero
	// values.
	TrackType   TrackOpType
	TriggerType TriggerOpType
	IsTrigger   bool
}

// SchedulerFunc replaces an effect's default "re-run on trigger" behavior;
// when set, Trigger hands the effect to the scheduler instead of calling
// Run directly.
type SchedulerFunc func()

// deferredNotifiable lets an upstream DeferredComputed synchronously notify
// a downstream DeferredComputed it finds through that one's backing effect,
// without the two generic types needing to know each other's type parameter.
type deferredNotifiable interface {
	notifyUpstream(computedTrigger bool)
}

// ReactiveEffect is the tracked computation described by the core design:
// it owns the Deps it currently subscribes to, runs fn inside a tracking
// scope, and supports nested activation via a parent pointer.
type ReactiveEffect struct {
	rt *Runtime

	fn        func() (any, error)
	scheduler SchedulerFunc

	active bool
	deps   []*dep
	parent *ReactiveEffect

	allowRecurse bool
	deferStop    bool

	// isComputed marks this effect as backing a Computed/DeferredComputed;
	// Trigger fires computed-backed effects before ordinary ones.
	isComputed bool
	// deferredOwner is set when this effect backs a DeferredComputed, so
	// that a synchronous upstream notification can reach it directly.
	deferredOwner deferredNotifiable

	onStop    func()
	onTrack   func(DebugEvent)
	onTrigger func(DebugEvent)
}

// EffectOption configures a ReactiveEffect at construction.
type EffectOption func(*effectConfig)

type effectConfig struct {
	lazy         bool
	scheduler    SchedulerFunc
	scope        Scope
	allowRecurse bool
	onStop       func()
	onTrack      func(DebugEvent)
	onTrigger    func(DebugEvent)
}

// Lazy skips the first run; the caller must invoke Runner.Run explicitly.
func Lazy() EffectOption { return func(c *effectConfig) { c.lazy = true } }

// WithScheduler replaces direct run-on-trigger with a scheduler callback.
func WithScheduler(s SchedulerFunc) EffectOption {
	return func(c *effectConfig) { c.scheduler = s }
}

// WithScope registers the effect with an external effect-scope collaborator.
func WithScope(s Scope) EffectOption { return func(c *effectConfig) { c.scope = s } }

// AllowRecurse permits an effect to retrigger itself while it is running.
func AllowRecurse() EffectOption { return func(c *effectConfig) { c.allowRecurse = true } }

// OnStopHook installs a cleanup callback invoked exactly once when the
// effect stops.
func OnStopHook(fn func()) EffectOption { return func(c *effectConfig) { c.onStop = fn } }

// OnTrackHook installs a debug hook fired whenever this effect tracks a Dep.
func OnTrackHook(fn func(DebugEvent)) EffectOption { return func(c *effectConfig) { c.onTrack = fn } }

// OnTriggerHook installs a debug hook fired whenever this effect is triggered.
func OnTriggerHook(fn func(DebugEvent)) EffectOption {
	return func(c *effectConfig) { c.onTrigger = fn }
}

// Runner is the handle returned by Runtime.Effect: invoking Run re-runs the
// effect, and Effect exposes the backing ReactiveEffect for Stop/inspection.
type Runner struct {
	effect *ReactiveEffect
}

// Run re-runs the underlying effect.
func (r *Runner) Run() (any, error) { return r.effect.Run() }

// Effect exposes the backing ReactiveEffect.
func (r *Runner) Effect() *ReactiveEffect { return r.effect }

// Effect creates (and, unless Lazy is set, immediately runs) a tracked
// effect, returning a handle that can re-run or stop it.
func (rt *Runtime) Effect(fn func() (any, error), opts ...EffectOption) *Runner {
	cfg := &effectConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	e := &ReactiveEffect{
		rt:           rt,
		fn:           fn,
		scheduler:    cfg.scheduler,
		active:       true,
		allowRecurse: cfg.allowRecurse,
		onStop:       cfg.onStop,
		onTrack:      cfg.onTrack,
		onTrigger:    cfg.onTrigger,
	}
	if cfg.scope != nil {
		cfg.scope.Register(e)
	}

	runner := &Runner{effect: e}
	if !cfg.lazy {
		e.Run()
	}
	return runner
}

// Stop terminates the effect behind a Runner.
func (rt *Runtime) Stop(r *Runner) { r.effect.Stop() }

// Run executes the effect's function inside a tracking scope, re-subscribing
// to exactly the Deps it reads during this call. Re-entrant activation of
// the same effect (found on the current activeEffect's parent chain) is
// suppressed. If the effect has been stopped, fn runs untracked.
func (e *ReactiveEffect) Run() (result any, err error) {
	if !e.active {
		return e.fn()
	}

	for p := e.rt.activeEffect; p != nil; p = p.parent {
		if p == e {
			return nil, nil
		}
	}

	lastShouldTrack := e.rt.shouldTrack
	lastEffect := e.rt.activeEffect
	e.parent = lastEffect
	e.rt.activeEffect = e
	e.rt.shouldTrack = true

	e.rt.effectTrackDepth++
	e.rt.trackOpBit = 1 << uint(e.rt.effectTrackDepth)

	withinMarkerRange := e.rt.effectTrackDepth <= maxMarkerBits
	if withinMarkerRange {
		initDepMarkers(e)
	} else {
		cleanupEffect(e)
	}

	defer func() {
		if withinMarkerRange {
			finalizeDepMarkers(e)
		}

		e.rt.effectTrackDepth--
		e.rt.trackOpBit = 1 << uint(e.rt.effectTrackDepth)
		e.rt.activeEffect = lastEffect
		e.rt.shouldTrack = lastShouldTrack
		e.parent = nil

		if e.deferStop {
			e.deferStop = false
			e.stopNow()
		}
	}()

	return e.fn()
}

// Deps returns the Deps this effect is currently subscribed to, for tests
// and debug tooling to assert against (see P1 in the package's testable
// properties).
func (e *ReactiveEffect) Deps() []*dep { return e.deps }

// Stop terminates the effect. If called while the effect is the one
// currently running, the stop is deferred until that run completes.
func (e *ReactiveEffect) Stop() {
	if e.rt.activeEffect == e {
		e.deferStop = true
		return
	}
	e.stopNow()
}

func (e *ReactiveEffect) stopNow() {
	if !e.active {
		return
	}
	for _, d := range e.deps {
		d.delete(e)
	}
	e.deps = e.deps[:0]
	if e.onStop != nil {
		e.onStop()
	}
	e.active = false
}

func initDepMarkers(e *ReactiveEffect) {
	bit := e.rt.trackOpBit
	for _, d := range e.deps {
		d.w |= bit
	}
}

// finalizeDepMarkers performs the single-pass sweep: a Dep that was tracked
// before this run but not newly tracked during it is dropped; everything
// else is kept, compacted in place, with its bits for this depth cleared.
func finalizeDepMarkers(e *ReactiveEffect) {
	bit := e.rt.trackOpBit
	deps := e.deps
	kept := deps[:0]
	for _, d := range deps {
		if d.wasTracked(bit) && !d.newTracked(bit) {
			d.delete(e)
		} else {
			kept = append(kept, d)
		}
		d.w &^= bit
		d.n &^= bit
	}
	e.deps = kept
}

func cleanupEffect(e *ReactiveEffect) {
	for _, d := range e.deps {
		d.delete(e)
	}
	e.deps = e.deps[:0]
}
