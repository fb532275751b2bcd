package enigma

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// MaxPairs is the number of cables issued with the machine.
const MaxPairs = 10

// Plugboard swaps up to MaxPairs disjoint letter pairs. The zero value is
// not usable; start from NewPlugboard or EmptyPlugboard.
type Plugboard struct {
	wiring [26]int
	pairs  int
}

// EmptyPlugboard returns a plugboard with no cables.
func EmptyPlugboard() Plugboard {
	var p Plugboard
	for i := range p.wiring {
		p.wiring[i] = i
	}
	return p
}

// NewPlugboard builds a plugboard from pairs such as "AB", "CD". Letters are
// case-insensitive.
func NewPlugboard(pairs []string) (Plugboard, error) {
	p := EmptyPlugboard()
	if len(pairs) > MaxPairs {
		return p, fmt.Errorf("%w: %d (max %d)", ErrTooManyPairs, len(pairs), MaxPairs)
	}
	for _, pair := range pairs {
		r := []rune(strings.TrimSpace(pair))
		if len(r) != 2 {
			return p, fmt.Errorf("%w: %q", ErrInvalidPlug, pair)
		}
		if err := p.Connect(r[0], r[1]); err != nil {
			return p, err
		}
	}
	return p, nil
}

// Connect adds one cable between a and b.
func (p *Plugboard) Connect(a, b rune) error {
	a = unicode.ToUpper(a)
	b = unicode.ToUpper(b)
	if a < 'A' || a > 'Z' || b < 'A' || b > 'Z' {
		return fmt.Errorf("%w: connections must be between A and Z", ErrInvalidPlug)
	}
	if a == b {
		return fmt.Errorf("%w: letter %c cannot be connected to itself", ErrInvalidPlug, a)
	}
	x, y := int(a-'A'), int(b-'A')
	if p.wiring[x] != x {
		return fmt.Errorf("%w: letter %c is already connected", ErrInvalidPlug, a)
	}
	if p.wiring[y] != y {
		return fmt.Errorf("%w: letter %c is already connected", ErrInvalidPlug, b)
	}
	if p.pairs == MaxPairs {
		return fmt.Errorf("%w: max %d", ErrTooManyPairs, MaxPairs)
	}
	p.wiring[x] = y
	p.wiring[y] = x
	p.pairs++
	return nil
}

// Swap returns the partner of letter index c, or c when it has no cable.
func (p *Plugboard) Swap(c int) int {
	return p.wiring[c]
}

// PairCount is the number of cables in use.
func (p *Plugboard) PairCount() int { return p.pairs }

// Pairs lists the cables as sorted two-letter strings, lower letter first.
func (p *Plugboard) Pairs() []string {
	out := make([]string, 0, p.pairs)
	for i, j := range p.wiring {
		if i < j {
			out = append(out, string([]byte{byte('A' + i), byte('A' + j)}))
		}
	}
	sort.Strings(out)
	return out
}

// Map returns the symmetric letter mapping of every connected letter.
func (p *Plugboard) Map() map[rune]rune {
	m := make(map[rune]rune, 2*p.pairs)
	for i, j := range p.wiring {
		if i != j {
			m[rune('A'+i)] = rune('A' + j)
		}
	}
	return m
}
