package reactive

// Scope is the narrow interface an effect registers itself with on
// construction, standing in for the full effectScope grouping facility
// named as an external collaborator and out of scope for this package.
type Scope interface {
	Register(*ReactiveEffect)
	Deregister(*ReactiveEffect)
}

// DetachedScope is a Scope that does not track membership; effects
// registered with it must be stopped individually.
type DetachedScope struct{}

func (DetachedScope) Register(*ReactiveEffect)   {}
func (DetachedScope) Deregister(*ReactiveEffect) {}

// EffectScope collects every effect registered with it so they can all be
// stopped together, e.g. when a component unmounts.
type EffectScope struct {
	effects []*ReactiveEffect
}

func NewEffectScope() *EffectScope { return &EffectScope{} }

func (s *EffectScope) Register(e *ReactiveEffect) {
	s.effects = append(s.effects, e)
}

func (s *EffectScope) Deregister(e *ReactiveEffect) {
	for i, x := range s.effects {
		if x == e {
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			return
		}
	}
}

// Stop stops every effect still registered with this scope.
func (s *EffectScope) Stop() {
	for _, e := range s.effects {
		e.Stop()
	}
	s.effects = nil
}
