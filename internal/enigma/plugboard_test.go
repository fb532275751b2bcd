package enigma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlugboard_Involution(t *testing.T) {
	pb, err := NewPlugboard([]string{"ab", "QZ", "MX", "EY"})
	require.NoError(t, err)

	for c := 0; c < 26; c++ {
		assert.Equal(t, c, pb.Swap(pb.Swap(c)))
	}
	assert.Equal(t, 1, pb.Swap(0))
	assert.Equal(t, 2, pb.Swap(2))
	assert.Equal(t, 4, pb.PairCount())
}

func TestPlugboard_PairsAndMap(t *testing.T) {
	pb, err := NewPlugboard([]string{"ZQ", "BA"})
	require.NoError(t, err)

	assert.Equal(t, []string{"AB", "QZ"}, pb.Pairs())
	assert.Equal(t, map[rune]rune{'A': 'B', 'B': 'A', 'Q': 'Z', 'Z': 'Q'}, pb.Map())
}

func TestPlugboard_ConnectLimit(t *testing.T) {
	pb := EmptyPlugboard()
	letters := "ABCDEFGHIJKLMNOPQRST"
	for i := 0; i < len(letters); i += 2 {
		require.NoError(t, pb.Connect(rune(letters[i]), rune(letters[i+1])))
	}
	assert.ErrorIs(t, pb.Connect('U', 'V'), ErrTooManyPairs)
	assert.ErrorIs(t, pb.Connect('1', 'V'), ErrInvalidPlug)
}

func TestEmptyPlugboard(t *testing.T) {
	pb := EmptyPlugboard()
	for c := 0; c < 26; c++ {
		assert.Equal(t, c, pb.Swap(c))
	}
	assert.Empty(t, pb.Pairs())
	assert.Empty(t, pb.Map())
}
