package reactive_test

import (
	"sync"
	"testing"

	"github.com/reactivegraph/corereactive/pkg/reactive"
	"github.com/stretchr/testify/assert"
)

// Forget drops every Dep a target accumulated, so later writes to it don't
// reach effects that read it before Forget - the explicit stand-in for the
// weak-map reclamation this package can't do implicitly.
func TestForgetDropsTargetDeps(t *testing.T) {
	rt := reactive.NewRuntime()
	o := &pair{a: 1}

	runs := 0
	rt.Effect(func() (any, error) {
		rt.Track(o, "a", reactive.TrackGet)
		runs++
		return nil, nil
	})
	assert.Equal(t, 1, runs)

	rt.Forget(o)
	o.a = 2
	rt.Trigger(o, "a", reactive.TriggerSet, 2, 1, nil)

	assert.Equal(t, 1, runs, "a forgotten target's old subscribers must not be notified")
}

// WithMutex gives an embedder a fresh coarse lock per call; Do serializes
// access to whatever runs inside it.
func TestGuardSerializesAccess(t *testing.T) {
	rt := reactive.NewRuntime()
	guard := rt.WithMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guard.Do(func() { counter++ })
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}
