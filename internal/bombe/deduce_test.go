package bombe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollux/enigma/internal/enigma"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.RotorTypes == nil {
		opts.RotorTypes = []string{"I", "II", "III"}
	}
	if opts.Reflector == "" {
		opts.Reflector = "B"
	}
	if opts.Workers == 0 {
		opts.Workers = 2
	}
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

// reencrypt enciphers crib with the candidate's settings from its offset.
func reencrypt(t *testing.T, c Candidate, crib string) string {
	t.Helper()
	m, err := enigma.New(enigma.Settings{
		Rotors:    c.RotorOrder,
		Reflector: "B",
		Positions: c.Positions,
		Plugboard: c.Pairs(),
	})
	require.NoError(t, err)
	m.Advance(c.Offset)
	return m.Encrypt(crib)
}

func TestSolver_DeducesPlugboard(t *testing.T) {
	tests := []struct {
		name      string
		crib      string
		cipher    string
		positions [3]int
		offset    int
	}{
		{"unsteckered first letter", "WETTERVORHERSAGE", "KKHEGTSQCNCLJFRR", [3]int{0, 0, 0}, 0},
		{"crib at offset 2", "WETTERVORHERSAGE", "GMYTXRCTNSVOKMFPJJ", [3]int{0, 0, 0}, 2},
		{"two pairs", "HEILHITLER", "BVSWCQZFHA", [3]int{7, 3, 12}, 0},
		{"single letter", "B", "Z", [3]int{2, 5, 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, Options{Crib: tt.crib, Ciphertext: tt.cipher})
			s := newSolver(e)

			c, st, ok := s.evaluate(task{order: 0, offset: tt.offset, positions: tt.positions})
			require.True(t, ok)
			assert.Equal(t, statusDeduced, st)
			assert.Equal(t, tt.positions, c.Positions)
			assert.Equal(t, tt.offset, c.Offset)
			assert.Equal(t, 1.0, c.MatchRate)
			assert.Equal(t, len(c.Pairs()), c.PlugboardPairs)
			assert.LessOrEqual(t, c.PlugboardPairs, enigma.MaxPairs)
			assert.Equal(t, 100-2*float64(c.PlugboardPairs), c.Score)
			assert.Equal(t, tt.cipher[tt.offset:tt.offset+len(tt.crib)], reencrypt(t, c, tt.crib))
		})
	}
}

func TestSolver_SingleLetterDirect(t *testing.T) {
	e := newTestEngine(t, Options{Crib: "B", Ciphertext: "Z"})
	c, _, ok := newSolver(e).evaluate(task{positions: [3]int{2, 5, 10}})
	require.True(t, ok)
	assert.Equal(t, []string{"PZ"}, c.Pairs())
	assert.Equal(t, 98.0, c.Score)
}

func TestSolver_Exact(t *testing.T) {
	e := newTestEngine(t, Options{
		Crib:       "KEINEBESONDERENEREIGNISSE",
		Ciphertext: "CBKVIHUIBUJOZSBRBWDZFUOUD",
		RotorTypes: []string{"III", "I", "II"},
	})
	c, st, ok := newSolver(e).evaluate(task{positions: [3]int{4, 17, 9}})
	require.True(t, ok)
	assert.Equal(t, statusExact, st)
	assert.Equal(t, 100.0, c.Score)
	assert.Empty(t, c.Plugboard)
	assert.Equal(t, [3]string{"III", "I", "II"}, c.RotorOrder)
}

func TestSolver_LetterNeverEnciphersToItself(t *testing.T) {
	e := newTestEngine(t, Options{Crib: "A", Ciphertext: "A"})
	s := newSolver(e)
	for _, p := range [][3]int{{0, 0, 0}, {2, 5, 10}, {25, 25, 25}} {
		_, st, ok := s.evaluate(task{positions: p})
		assert.False(t, ok)
		assert.Equal(t, statusContradiction, st)
	}
}

func TestSolver_NoPlugboard(t *testing.T) {
	crib := "KEINEBESONDERENEREIGNISSE"
	cipher := []byte("CBKVIHUIBUJOZSBRBWDZFUOUD")
	// Spoil 5 of 25 letters; every Enigma letter differs from its plaintext
	// so swapping in the crib letter is always a miss.
	for _, i := range []int{0, 3, 7, 12, 20} {
		cipher[i] = crib[i]
	}
	e := newTestEngine(t, Options{
		Crib:        crib,
		Ciphertext:  string(cipher),
		RotorTypes:  []string{"III", "I", "II"},
		NoPlugboard: true,
	})
	c, st, ok := newSolver(e).evaluate(task{positions: [3]int{4, 17, 9}})
	require.True(t, ok)
	assert.Equal(t, statusUnplugged, st)
	assert.InDelta(t, 0.8, c.MatchRate, 1e-9)
	assert.InDelta(t, 80.0, c.Score, 1e-9)
	assert.Empty(t, c.Plugboard)
	assert.Zero(t, c.PlugboardPairs)
}

func TestSolver_NoPlugboardThreshold(t *testing.T) {
	crib := "KEINEBESONDERENEREIGNISSE"
	tests := []struct {
		spoiled int
		keep    bool
	}{
		{12, true},  // 13/25 = 0.52
		{13, false}, // 12/25 = 0.48
	}
	for _, tt := range tests {
		cipher := []byte("CBKVIHUIBUJOZSBRBWDZFUOUD")
		for i := 0; i < tt.spoiled; i++ {
			cipher[i] = crib[i]
		}
		e := newTestEngine(t, Options{
			Crib:        crib,
			Ciphertext:  string(cipher),
			RotorTypes:  []string{"III", "I", "II"},
			NoPlugboard: true,
		})
		_, st, ok := newSolver(e).evaluate(task{positions: [3]int{4, 17, 9}})
		assert.Equal(t, tt.keep, ok, "spoiled %d", tt.spoiled)
		assert.Equal(t, statusUnplugged, st)
	}
}

func TestSolver_OffsetPastEnd(t *testing.T) {
	e := newTestEngine(t, Options{Crib: "AB", Ciphertext: "XYZ"})
	_, st, ok := newSolver(e).evaluate(task{offset: 2})
	assert.False(t, ok)
	assert.Equal(t, statusContradiction, st)
}

func TestHypothesis_Bind(t *testing.T) {
	h := newHypothesis()
	assert.True(t, h.bind(0, 1))
	assert.True(t, h.bind(1, 0), "rebinding the same pair")
	assert.False(t, h.bind(0, 2), "A already cabled")
	assert.False(t, h.bind(0, 0), "A cannot be both cabled and free")
	assert.True(t, h.bind(2, 2))
	assert.False(t, h.bind(2, 3), "C marked free")
	assert.True(t, h.known(2))
	assert.Equal(t, 2, h.value(2))
	assert.Equal(t, 1, h.value(0))
	assert.False(t, h.known(3))
	assert.Equal(t, 1, h.pairs)

	pb, ok := h.plugboard()
	require.True(t, ok)
	assert.Equal(t, []string{"AB"}, pb.Pairs())
}

func TestHypothesis_PairLimit(t *testing.T) {
	h := newHypothesis()
	for i := 0; i < enigma.MaxPairs; i++ {
		require.True(t, h.bind(2*i, 2*i+1))
	}
	assert.False(t, h.bind(22, 23))
	assert.True(t, h.bind(24, 24), "marking a letter free needs no cable")
	assert.Equal(t, enigma.MaxPairs, h.pairs)
}
