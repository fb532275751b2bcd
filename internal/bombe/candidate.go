package bombe

import (
	"cmp"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/pollux/enigma/internal/enigma"
)

// Candidate is a verified setting. It is never modified after creation.
type Candidate struct {
	Score          float64
	Positions      [3]int
	RotorOrder     [3]string
	Plugboard      map[rune]rune
	MatchRate      float64
	PlugboardPairs int
	Offset         int
}

// PositionString renders the start positions as window letters, e.g. "ADU".
func (c Candidate) PositionString() string {
	return enigma.FormatPositions(c.Positions)
}

// RotorString renders the rotor order as "I-II-III".
func (c Candidate) RotorString() string {
	return strings.Join(c.RotorOrder[:], "-")
}

// Pairs lists the plugboard cables as sorted two-letter strings.
func (c Candidate) Pairs() []string {
	out := make([]string, 0, len(c.Plugboard)/2)
	for a, b := range c.Plugboard {
		if a < b {
			out = append(out, string([]rune{a, b}))
		}
	}
	sort.Strings(out)
	return out
}

// compareCandidates orders by score descending, then offset, rotor order,
// positions and plugboard ascending. It is a total order over distinct
// candidates, so sorted output does not depend on worker timing.
func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
		return c
	}
	for i := 0; i < 3; i++ {
		if c := cmp.Compare(enigma.RotorIndex(a.RotorOrder[i]), enigma.RotorIndex(b.RotorOrder[i])); c != 0 {
			return c
		}
	}
	for i := 0; i < 3; i++ {
		if c := cmp.Compare(a.Positions[i], b.Positions[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(strings.Join(a.Pairs(), " "), strings.Join(b.Pairs(), " "))
}

// results is the append-only collection shared by all workers of one run.
type results struct {
	mu    sync.Mutex
	items []Candidate
}

func (r *results) add(c Candidate) {
	r.mu.Lock()
	r.items = append(r.items, c)
	r.mu.Unlock()
}

func (r *results) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// sorted returns a sorted copy of everything collected so far.
func (r *results) sorted() []Candidate {
	r.mu.Lock()
	out := slices.Clone(r.items)
	r.mu.Unlock()
	slices.SortFunc(out, compareCandidates)
	if out == nil {
		out = []Candidate{}
	}
	return out
}
