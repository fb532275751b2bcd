package bombe

import (
	"github.com/pollux/enigma/internal/diagonal"
	"github.com/pollux/enigma/internal/enigma"
)

// task is one rotor order, crib offset and start position triple.
type task struct {
	order     int
	offset    int
	positions [3]int
}

type status int

const (
	statusContradiction status = iota // no consistent plugboard here
	statusExact                       // matches with no plugboard at all
	statusDeduced                     // matches with the deduced plugboard
	statusUnplugged                   // deduction disabled, no exact match
)

// deduction is the value each task hands back from plugboard deduction.
type deduction struct {
	status    status
	plugboard enigma.Plugboard
}

// hypothesis is the working plugboard for one task. fixed marks letters
// known to have no cable.
type hypothesis struct {
	wiring diagonal.Wiring
	fixed  [26]bool
	pairs  int
}

func newHypothesis() hypothesis {
	return hypothesis{wiring: diagonal.NewWiring()}
}

func (h *hypothesis) known(c int) bool {
	return h.fixed[c] || h.wiring[c] != diagonal.Unmapped
}

// value is the letter c becomes after the plugboard, if known.
func (h *hypothesis) value(c int) int {
	if p := h.wiring[c]; p != diagonal.Unmapped {
		return p
	}
	return c
}

// bind records that a and b are joined by a cable, or that a has none when
// a == b. It returns false when that contradicts what is already known or
// would need more than MaxPairs cables.
func (h *hypothesis) bind(a, b int) bool {
	if a == b {
		if h.wiring[a] != diagonal.Unmapped {
			return false
		}
		h.fixed[a] = true
		return true
	}
	pa, pb := h.wiring[a], h.wiring[b]
	if pa == b && pb == a {
		return true
	}
	if pa != diagonal.Unmapped || pb != diagonal.Unmapped || h.fixed[a] || h.fixed[b] {
		return false
	}
	if h.pairs == enigma.MaxPairs {
		return false
	}
	h.wiring[a], h.wiring[b] = b, a
	h.pairs++
	return true
}

func (h *hypothesis) plugboard() (enigma.Plugboard, bool) {
	pb := enigma.EmptyPlugboard()
	for a, b := range h.wiring {
		if b != diagonal.Unmapped && a < b {
			if err := pb.Connect(rune('A'+a), rune('A'+b)); err != nil {
				return pb, false
			}
		}
	}
	return pb, true
}

// solver evaluates tasks for one worker. Nothing in it is shared.
type solver struct {
	e      *Engine
	board  diagonal.Board
	states []enigma.Machine // plugboard-less machine as each crib letter is enciphered
	raw    []int            // plugboard-less output for each crib letter
	t      task
	nodes  int
}

func newSolver(e *Engine) *solver {
	return &solver{
		e:      e,
		states: make([]enigma.Machine, len(e.crib)),
		raw:    make([]int, len(e.crib)),
	}
}

// prepare runs a plugboard-less machine from the task's start positions,
// advanced to its offset, across the crib.
func (s *solver) prepare(t task) {
	s.t = t
	m := enigma.Build(s.e.orders[t.order].defs, s.e.reflector, enigma.EmptyPlugboard())
	m.SetPositions(t.positions[0], t.positions[1], t.positions[2])
	m.Advance(t.offset)
	for i, c := range s.e.crib {
		m.Step()
		s.states[i] = *m
		s.raw[i] = m.Scramble(c)
	}
}

// evaluate is the full test of one task.
func (s *solver) evaluate(t task) (Candidate, status, bool) {
	if t.offset+len(s.e.crib) > len(s.e.cipher) {
		return Candidate{}, statusContradiction, false
	}
	s.prepare(t)
	d := s.deduce()

	c := Candidate{
		Positions:  t.positions,
		RotorOrder: s.e.orders[t.order].names,
		Offset:     t.offset,
	}
	switch d.status {
	case statusExact, statusDeduced:
		c.MatchRate = 1
		c.PlugboardPairs = d.plugboard.PairCount()
		c.Plugboard = d.plugboard.Map()
		c.Score = 100 - 2*float64(c.PlugboardPairs)
		return c, d.status, true
	case statusUnplugged:
		c.MatchRate = s.matchRate()
		if c.MatchRate < partialThreshold {
			return Candidate{}, d.status, false
		}
		c.Plugboard = map[rune]rune{}
		c.Score = c.MatchRate * 100
		return c, d.status, true
	default:
		return Candidate{}, d.status, false
	}
}

// partialThreshold is the share of crib letters a plugboard-less setting
// must reproduce to be kept when deduction is disabled.
const partialThreshold = 0.5

func (s *solver) matchRate() float64 {
	cipher := s.e.cipher[s.t.offset:]
	hits := 0
	for i, c := range s.raw {
		if c == cipher[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(s.raw))
}

// deduce works out a plugboard for the prepared task. Every returned
// plugboard has already been verified by re-encryption.
func (s *solver) deduce() deduction {
	cipher := s.e.cipher[s.t.offset:]

	exact := true
	for i, c := range s.raw {
		if c != cipher[i] {
			exact = false
			break
		}
	}
	if exact {
		return deduction{status: statusExact, plugboard: enigma.EmptyPlugboard()}
	}
	if !s.e.deducePlugboard {
		return deduction{status: statusUnplugged}
	}

	if pb, ok := s.propagate(); ok {
		return deduction{status: statusDeduced, plugboard: pb}
	}

	first := s.e.crib[0]
	s.nodes = 0
	for partner := 0; partner < 26; partner++ {
		if partner == first {
			continue
		}
		if pb, ok := s.seed(first, partner); ok {
			return deduction{status: statusDeduced, plugboard: pb}
		}
	}
	if pb, ok := s.seed(first, first); ok {
		return deduction{status: statusDeduced, plugboard: pb}
	}
	return deduction{status: statusContradiction}
}

// propagate assumes the crib letters carry no cable: every letter where
// the plugboard-less output differs from the ciphertext then forces a
// cable between the two.
func (s *solver) propagate() (enigma.Plugboard, bool) {
	cipher := s.e.cipher[s.t.offset:]
	h := newHypothesis()
	for i, out := range s.raw {
		if out == cipher[i] {
			continue
		}
		if !h.bind(out, cipher[i]) {
			return enigma.Plugboard{}, false
		}
	}
	return s.accept(&h)
}

// maxSearchNodes caps the hypotheses one task may explore once direct
// propagation has failed.
const maxSearchNodes = 2048

// seed starts from the hypothesis that first is cabled to partner (or to
// nothing, when they are equal) and searches for a plugboard consistent
// with the whole crib.
func (s *solver) seed(first, partner int) (enigma.Plugboard, bool) {
	h := newHypothesis()
	h.bind(first, partner)
	return s.search(h)
}

// search closes h over the crib, then branches on the first crib letter
// whose cable is still unknown, trying "no cable" before each partner.
func (s *solver) search(h hypothesis) (enigma.Plugboard, bool) {
	if s.nodes >= maxSearchNodes {
		return enigma.Plugboard{}, false
	}
	s.nodes++
	if !s.settle(&h) {
		return enigma.Plugboard{}, false
	}

	open := -1
	for _, c := range s.e.crib {
		if !h.known(c) {
			open = c
			break
		}
	}
	if open < 0 {
		return s.accept(&h)
	}

	for i := 0; i < 26; i++ {
		partner := (open + i) % 26
		next := h
		if !next.bind(open, partner) {
			continue
		}
		if pb, ok := s.search(next); ok {
			return pb, true
		}
		if s.nodes >= maxSearchNodes {
			break
		}
	}
	return enigma.Plugboard{}, false
}

// settle applies every implication the crib forces on h until nothing
// changes. A known crib letter fixes the scrambler input and so ties the
// scrambler output to the cipher letter; a known cipher letter works the
// same way backwards, since each scrambler state is its own inverse.
func (s *solver) settle(h *hypothesis) bool {
	cipher := s.e.cipher[s.t.offset:]
	for changed := true; changed; {
		changed = false
		for i, plain := range s.e.crib {
			c := cipher[i]
			switch {
			case h.known(plain):
				out := s.states[i].Scramble(h.value(plain))
				if h.known(out) && h.known(c) {
					if h.value(out) != c {
						return false
					}
					continue
				}
				if !h.bind(out, c) {
					return false
				}
				changed = true
			case h.known(c):
				if !h.bind(s.states[i].Scramble(h.value(c)), plain) {
					return false
				}
				changed = true
			}
		}
	}
	return true
}

// accept runs the diagonal board over h and, if it is clean, verifies the
// plugboard by enciphering the whole crib with it.
func (s *solver) accept(h *hypothesis) (enigma.Plugboard, bool) {
	if s.board.Contradicts(&h.wiring) {
		return enigma.Plugboard{}, false
	}
	pb, ok := h.plugboard()
	if !ok || !s.verify(pb) {
		return enigma.Plugboard{}, false
	}
	return pb, true
}

func (s *solver) verify(pb enigma.Plugboard) bool {
	m := enigma.Build(s.e.orders[s.t.order].defs, s.e.reflector, pb)
	m.SetPositions(s.t.positions[0], s.t.positions[1], s.t.positions[2])
	m.Advance(s.t.offset)
	cipher := s.e.cipher[s.t.offset:]
	for i, c := range s.e.crib {
		if m.EncryptIndex(c) != cipher[i] {
			return false
		}
	}
	return true
}
