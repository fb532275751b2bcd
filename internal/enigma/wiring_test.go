package enigma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RotorsArePermutations(t *testing.T) {
	for _, name := range RotorNames() {
		d, err := LookupRotor(name)
		require.NoError(t, err)
		for i := 0; i < 26; i++ {
			assert.Equal(t, i, d.backward[d.forward[i]], "rotor %s", name)
		}
		assert.NotEmpty(t, d.Notches)
	}
}

func TestRegistry_ReflectorsAreFixedPointFreeInvolutions(t *testing.T) {
	for _, name := range ReflectorNames() {
		d, err := LookupReflector(name)
		require.NoError(t, err)
		for i := 0; i < 26; i++ {
			assert.NotEqual(t, i, d.table[i], "reflector %s", name)
			assert.Equal(t, i, d.table[d.table[i]], "reflector %s", name)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	_, err := LookupRotor("IX")
	assert.ErrorIs(t, err, ErrUnknownRotor)
	_, err = LookupReflector("A")
	assert.ErrorIs(t, err, ErrUnknownReflector)

	assert.Equal(t, []string{"B", "C"}, ReflectorNames())
	assert.Equal(t, 2, RotorIndex("III"))
	assert.Equal(t, -1, RotorIndex("IX"))
}

func TestRotor_RingSettingShiftsWiring(t *testing.T) {
	d, err := LookupRotor("I")
	require.NoError(t, err)

	r := NewRotor(d)
	assert.Equal(t, 4, r.Forward(0)) // A -> E

	r.ringSetting = 1
	assert.Equal(t, 5, r.Forward(1)) // ring B: B -> F
	for c := 0; c < 26; c++ {
		assert.Equal(t, c, r.Backward(r.Forward(c)))
	}
}
