package reactive

import mapset "github.com/deckarep/golang-set/v2"

// dep is the set of effects that observed one (target, key) slot, plus the
// was-tracked/newly-tracked bitmasks used to re-subscribe an effect to its
// dependencies in one pass instead of clearing and rebuilding its whole
// deps list on every run.
type dep struct {
	effects mapset.Set[*ReactiveEffect]
	w       uint32
	n       uint32
}

func newDep() *dep {
	return &dep{effects: mapset.NewThreadUnsafeSet[*ReactiveEffect]()}
}

// newDepFromEffects seeds a fresh Dep from an already-collected effect list,
// used by Trigger to merge several Deps into one before dispatch.
func newDepFromEffects(effects []*ReactiveEffect) *dep {
	d := newDep()
	for _, e := range effects {
		d.effects.Add(e)
	}
	return d
}

func (d *dep) add(e *ReactiveEffect)      { d.effects.Add(e) }
func (d *dep) delete(e *ReactiveEffect)   { d.effects.Remove(e) }
func (d *dep) has(e *ReactiveEffect) bool { return d.effects.Contains(e) }
func (d *dep) size() int                  { return d.effects.Cardinality() }

// snapshot returns a stable slice of the current members; Trigger must
// iterate a snapshot since running an effect may add or remove members of
// this same Dep.
func (d *dep) snapshot() []*ReactiveEffect { return d.effects.ToSlice() }

func (d *dep) each(fn func(*ReactiveEffect)) {
	for _, e := range d.snapshot() {
		fn(e)
	}
}

func (d *dep) wasTracked(bit uint32) bool { return d.w&bit != 0 }
func (d *dep) newTracked(bit uint32) bool { return d.n&bit != 0 }
