package enigma

import (
	"fmt"
	"strings"
	"unicode"
)

// Settings is a complete key for the direct encrypt/decrypt mode. Rotors are
// listed left to right; Positions and Rings are 0-25 in the same order.
type Settings struct {
	Rotors    [3]string
	Reflector string
	Positions [3]int
	Rings     [3]int
	Plugboard []string
}

// Machine is a three-rotor Enigma. rotors[0] is the left (slow) rotor and
// rotors[2] the right (fast) one. A Machine is not safe for concurrent use;
// copying the value yields an independent machine.
type Machine struct {
	rotors    [3]Rotor
	reflector Reflector
	plugboard Plugboard
	start     [3]int
}

// New validates s and returns a machine set to its start positions.
func New(s Settings) (*Machine, error) {
	var defs [3]*RotorDefinition
	for i, name := range s.Rotors {
		d, err := LookupRotor(name)
		if err != nil {
			return nil, err
		}
		defs[i] = d
	}
	refl, err := LookupReflector(s.Reflector)
	if err != nil {
		return nil, err
	}
	for i := 0; i < 3; i++ {
		if s.Positions[i] < 0 || s.Positions[i] > 25 {
			return nil, fmt.Errorf("%w: position %d of rotor %d", ErrInvalidPosition, s.Positions[i], i+1)
		}
		if s.Rings[i] < 0 || s.Rings[i] > 25 {
			return nil, fmt.Errorf("%w: ring setting %d of rotor %d", ErrInvalidPosition, s.Rings[i], i+1)
		}
	}
	pb, err := NewPlugboard(s.Plugboard)
	if err != nil {
		return nil, err
	}

	m := Build(defs, refl, pb)
	for i := range m.rotors {
		m.rotors[i].ringSetting = s.Rings[i]
	}
	m.SetPositions(s.Positions[0], s.Positions[1], s.Positions[2])
	return m, nil
}

// Build assembles a machine from already resolved parts with every position
// and ring setting at zero. It performs no validation.
func Build(defs [3]*RotorDefinition, refl *ReflectorDefinition, pb Plugboard) *Machine {
	m := &Machine{reflector: NewReflector(refl), plugboard: pb}
	for i, d := range defs {
		m.rotors[i] = NewRotor(d)
	}
	return m
}

// SetPositions sets the window letters, left to right, and records them as
// the positions Reset returns to.
func (m *Machine) SetPositions(left, middle, right int) {
	m.start = [3]int{mod26(left), mod26(middle), mod26(right)}
	for i := range m.rotors {
		m.rotors[i].position = m.start[i]
	}
}

// Positions reports the current window positions, left to right.
func (m *Machine) Positions() [3]int {
	return [3]int{m.rotors[0].position, m.rotors[1].position, m.rotors[2].position}
}

// Reset returns the rotors to the last positions given to SetPositions.
func (m *Machine) Reset() {
	for i := range m.rotors {
		m.rotors[i].position = m.start[i]
	}
}

// Rotor returns a copy of rotor i, 0 being the left one.
func (m *Machine) Rotor(i int) Rotor { return m.rotors[i] }

func (m *Machine) Plugboard() Plugboard { return m.plugboard }

// Step advances the rotors for one key press. The notch state is read
// before anything moves: a middle rotor at its notch carries itself and the
// left rotor (double step); otherwise a right rotor at its notch carries the
// middle one. The right rotor always moves.
func (m *Machine) Step() {
	left, middle, right := &m.rotors[0], &m.rotors[1], &m.rotors[2]
	if middle.atNotch() {
		middle.rotate()
		left.rotate()
	} else if right.atNotch() {
		middle.rotate()
	}
	right.rotate()
}

// Advance applies Step n times without enciphering anything.
func (m *Machine) Advance(n int) {
	for ; n > 0; n-- {
		m.Step()
	}
}

// Scramble passes letter index c through the rotors and reflector at the
// current positions. It neither steps nor applies the plugboard.
func (m *Machine) Scramble(c int) int {
	for i := 2; i >= 0; i-- {
		c = m.rotors[i].Forward(c)
	}
	c = m.reflector.Reflect(c)
	for i := 0; i < 3; i++ {
		c = m.rotors[i].Backward(c)
	}
	return c
}

// EncryptIndex steps the rotors and enciphers letter index c.
func (m *Machine) EncryptIndex(c int) int {
	m.Step()
	c = m.plugboard.Swap(c)
	c = m.Scramble(c)
	return m.plugboard.Swap(c)
}

// EncryptChar enciphers one letter. Anything outside A-Z is returned as is
// and does not move the rotors.
func (m *Machine) EncryptChar(c rune) rune {
	c = unicode.ToUpper(c)
	if c < 'A' || c > 'Z' {
		return c
	}
	return rune('A' + m.EncryptIndex(int(c-'A')))
}

// Encrypt enciphers text letter by letter. Because the machine is
// reciprocal the same call deciphers.
func (m *Machine) Encrypt(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, c := range text {
		b.WriteRune(m.EncryptChar(c))
	}
	return b.String()
}

// Letters upper-cases text and drops everything that is not A-Z.
func Letters(text string) string {
	var b strings.Builder
	for _, c := range strings.ToUpper(text) {
		if c >= 'A' && c <= 'Z' {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// ParsePositions reads three window letters such as "ADU".
func ParsePositions(s string) ([3]int, error) {
	var out [3]int
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return out, fmt.Errorf("%w: %q must be three letters", ErrInvalidPosition, s)
	}
	for i := 0; i < 3; i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return out, fmt.Errorf("%w: %q must be three letters", ErrInvalidPosition, s)
		}
		out[i] = int(s[i] - 'A')
	}
	return out, nil
}

// FormatPositions renders positions as window letters.
func FormatPositions(p [3]int) string {
	return string([]byte{byte('A' + p[0]), byte('A' + p[1]), byte('A' + p[2])})
}
