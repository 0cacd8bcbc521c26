package reactive

// sentinelKey is the concrete type behind the ITERATE_KEY and
// MAP_KEY_ITERATE_KEY sentinels, so they never collide with a user-supplied
// key of any other type stored in the same map[any]*dep.
type sentinelKey int

const (
	// IterateKey represents dependence on the enumeration order of a
	// collection's values (or, for a plain object-like target, on its set
	// of own keys).
	IterateKey sentinelKey = iota
	// MapKeyIterateKey represents dependence on the enumeration order of a
	// keyed collection's keys only (e.g. Map.keys()).
	MapKeyIterateKey
)

// lengthKeyType is the key type used for sequence-length dependencies; kept
// distinct from int and string so it can never alias a real index or a
// user key literally named "length".
type lengthKeyType struct{}

// LengthKey is the sentinel key a ReactiveSlice (or any sequence-like
// target) uses for its length slot.
var LengthKey = lengthKeyType{}

// targetMap is the process-wide two-level mapping from target to (key to
// Dep). Go has no built-in weak map, so - unlike the host runtimes this
// design is modeled on - entries are not reclaimed when their target
// becomes otherwise unreachable; see Runtime.Forget.
type targetMap struct {
	m map[any]map[any]*dep
}

func newTargetMap() *targetMap {
	return &targetMap{m: make(map[any]map[any]*dep)}
}

func (t *targetMap) depsMapFor(target any) (map[any]*dep, bool) {
	dm, ok := t.m[target]
	return dm, ok
}

func (t *targetMap) getOrCreateDep(target, key any) *dep {
	dm, ok := t.m[target]
	if !ok {
		dm = make(map[any]*dep)
		t.m[target] = dm
	}
	d, ok := dm[key]
	if !ok {
		d = newDep()
		dm[key] = d
	}
	return d
}

func (t *targetMap) forget(target any) {
	delete(t.m, target)
}

// CollectionKind distinguishes the trigger fan-out rules that apply to a
// target: plain objects, sequences (array-like, with an integer-indexed
// "length" slot), and keyed collections (map/set-like, with key-based
// iteration dependencies).
type CollectionKind int

const (
	KindPlain CollectionKind = iota
	KindSequence
	KindKeyed
)

// kindProvider lets a target opt into sequence or keyed-collection trigger
// semantics. Targets that don't implement it are treated as plain objects.
type kindProvider interface {
	CollectionKind() CollectionKind
}

func kindOf(target any) CollectionKind {
	if kp, ok := target.(kindProvider); ok {
		return kp.CollectionKind()
	}
	return KindPlain
}

func toInt(v any) (int, bool) {
	i, ok := v.(int)
	return i, ok
}

func isIntegerKey(key any) bool {
	_, ok := toInt(key)
	return ok
}
