// Package diagonal checks hypothesised plugboard wirings for internal
// contradictions, the job done by the diagonal board on the Bombe.
package diagonal

// Unmapped marks a letter with no hypothesised partner.
const Unmapped = -1

// Wiring is a directed letter map: w[a] == b means a is wired to b. A
// consistent plugboard is symmetric, but hypotheses under test need not be.
type Wiring [26]int

// NewWiring returns a wiring with every letter unmapped.
func NewWiring() Wiring {
	var w Wiring
	for i := range w {
		w[i] = Unmapped
	}
	return w
}

// WiringFromMap converts a rune map. ok is false when a key or value is not
// an upper-case letter.
func WiringFromMap(m map[rune]rune) (w Wiring, ok bool) {
	w = NewWiring()
	for from, to := range m {
		if from < 'A' || from > 'Z' || to < 'A' || to > 'Z' {
			return w, false
		}
		w[from-'A'] = int(to - 'A')
	}
	return w, true
}

// Board holds scratch space for Contradicts. It is cleared on every call,
// so one Board can check any number of wirings, but it must not be shared
// between goroutines.
type Board struct {
	partner [26]int
	parent  [26]int
	size    [26]int
	used    [26]bool
}

// Contradicts reports whether w cannot be part of a valid plugboard: a
// letter wired to itself, a letter implied to have two partners, or a chain
// of three or more letters that closes on itself. Odd-sized groups are also
// checked, though the partner rule already excludes them. w is not modified.
func (b *Board) Contradicts(w *Wiring) bool {
	b.reset()

	for from, to := range w {
		if to == Unmapped {
			continue
		}
		if to < 0 || to >= 26 || to == from {
			return true
		}
		if !b.link(from, to) || !b.link(to, from) {
			return true
		}
		b.union(from, to)
	}

	// Defensive: with link holding every letter to one partner, each group
	// is a single pair, so this never fires.
	for i := 0; i < 26; i++ {
		if b.used[i] && b.find(i) == i && b.size[i]%2 != 0 {
			return true
		}
	}

	return hasLongCycle(w)
}

// ContradictsMap is Contradicts for a rune map. Keys or values outside A-Z
// count as a contradiction.
func (b *Board) ContradictsMap(m map[rune]rune) bool {
	w, ok := WiringFromMap(m)
	if !ok {
		return true
	}
	return b.Contradicts(&w)
}

func (b *Board) reset() {
	for i := 0; i < 26; i++ {
		b.partner[i] = Unmapped
		b.parent[i] = i
		b.size[i] = 1
		b.used[i] = false
	}
}

// link records a as partner of c, failing if c already has another one.
func (b *Board) link(c, a int) bool {
	b.used[c] = true
	switch b.partner[c] {
	case Unmapped:
		b.partner[c] = a
		return true
	case a:
		return true
	default:
		return false
	}
}

func (b *Board) find(x int) int {
	for b.parent[x] != x {
		b.parent[x] = b.parent[b.parent[x]]
		x = b.parent[x]
	}
	return x
}

func (b *Board) union(x, y int) {
	rx, ry := b.find(x), b.find(y)
	if rx == ry {
		return
	}
	if b.size[rx] < b.size[ry] {
		rx, ry = ry, rx
	}
	b.parent[ry] = rx
	b.size[rx] += b.size[ry]
}

// hasLongCycle follows w from every letter; an involution only ever comes
// back after exactly two hops.
func hasLongCycle(w *Wiring) bool {
	for start := 0; start < 26; start++ {
		cur := w[start]
		for steps := 1; cur != Unmapped && steps <= 26; steps++ {
			if cur == start {
				if steps >= 3 {
					return true
				}
				break
			}
			cur = w[cur]
		}
	}
	return false
}
