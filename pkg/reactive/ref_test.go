package reactive_test

import (
	"testing"

	"github.com/reactivegraph/corereactive/pkg/reactive"
	"github.com/stretchr/testify/assert"
)

// Reading a Ref subscribes the active effect; writing a different value
// re-runs it, but writing the same value again is a no-op.
func TestRefTracksAndSuppressesEqualWrites(t *testing.T) {
	rt := reactive.NewRuntime()
	r := reactive.NewRef(rt, 1)

	runs := 0
	rt.Effect(func() (any, error) {
		r.Value()
		runs++
		return nil, nil
	})
	assert.Equal(t, 1, runs)

	r.SetValue(1)
	assert.Equal(t, 1, runs, "setting the same value must not retrigger subscribers")

	r.SetValue(2)
	assert.Equal(t, 2, runs)
	assert.Equal(t, 2, r.Value())
}
