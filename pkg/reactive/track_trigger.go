package reactive

// Track records that the current active effect observed the (target, key)
// slot. It is a no-op when tracking is paused or there is no active effect.
func (rt *Runtime) Track(target, key any, opType TrackOpType) {
	if !rt.shouldTrack || rt.activeEffect == nil {
		return
	}
	d := rt.targetMap.getOrCreateDep(target, key)
	trackEffects(rt, d)

	if rt.activeEffect.onTrack != nil {
		rt.activeEffect.onTrack(DebugEvent{
			Effect:    rt.activeEffect,
			Target:    target,
			Key:       key,
			TrackType: opType,
		})
	}
}

// trackEffects decides, under the bitmarker or full-cleanup regime, whether
// the active effect needs to (re-)subscribe to dep.
func trackEffects(rt *Runtime, d *dep) {
	shouldSub := false

	if rt.effectTrackDepth <= maxMarkerBits {
		if !d.newTracked(rt.trackOpBit) {
			d.n |= rt.trackOpBit
			shouldSub = !d.wasTracked(rt.trackOpBit)
		}
	} else {
		shouldSub = !d.has(rt.activeEffect)
	}

	if shouldSub {
		d.add(rt.activeEffect)
		rt.activeEffect.deps = append(rt.activeEffect.deps, d)
	}
}

// Trigger notifies the effects associated with a write to (target, key),
// applying the sequence/keyed-collection fan-out rules before dispatch.
func (rt *Runtime) Trigger(target, key any, opType TriggerOpType, newValue, oldValue, oldTarget any) {
	depsMap, ok := rt.targetMap.depsMapFor(target)
	if !ok {
		return
	}

	var deps []*dep
	push := func(k any) {
		if d, ok := depsMap[k]; ok {
			deps = append(deps, d)
		}
	}

	kind := kindOf(target)

	switch {
	case opType == TriggerClear:
		for _, d := range depsMap {
			deps = append(deps, d)
		}

	case kind == KindSequence && key == LengthKey:
		newLen, _ := toInt(newValue)
		for k, d := range depsMap {
			if k == LengthKey {
				deps = append(deps, d)
				continue
			}
			if idx, isIdx := toInt(k); isIdx && idx >= newLen {
				deps = append(deps, d)
			}
		}

	default:
		if key != nil {
			push(key)
		}
		switch opType {
		case TriggerAdd:
			if kind != KindSequence {
				push(IterateKey)
				if kind == KindKeyed {
					push(MapKeyIterateKey)
				}
			} else if isIntegerKey(key) {
				push(LengthKey)
			}
		case TriggerDelete:
			if kind != KindSequence {
				push(IterateKey)
				if kind == KindKeyed {
					push(MapKeyIterateKey)
				}
			}
		case TriggerSet:
			if kind == KindKeyed {
				push(IterateKey)
			}
		}
	}

	switch len(deps) {
	case 0:
		return
	case 1:
		triggerEffects(rt, deps[0])
	default:
		var effects []*ReactiveEffect
		for _, d := range deps {
			effects = append(effects, d.snapshot()...)
		}
		triggerEffects(rt, newDepFromEffects(effects))
	}
}

// triggerEffects fires every computed-backed effect in dep before any
// non-computed effect, so computed values invalidate (and potentially
// re-notify) before plain effects read them.
func triggerEffects(rt *Runtime, d *dep) {
	effects := d.snapshot()

	for _, e := range effects {
		if e.isComputed {
			triggerEffect(rt, e)
		}
	}
	for _, e := range effects {
		if !e.isComputed {
			triggerEffect(rt, e)
		}
	}
}

func triggerEffect(rt *Runtime, e *ReactiveEffect) {
	if e == rt.activeEffect && !e.allowRecurse {
		return
	}

	if e.onTrigger != nil {
		e.onTrigger(DebugEvent{Effect: e, IsTrigger: true})
	}

	if e.scheduler != nil {
		e.scheduler()
	} else {
		e.Run()
	}
}
