package enigma

import (
	"fmt"
	"sort"
)

// RotorDefinition is the fixed wiring of one rotor type. forward and
// backward are index tables derived from the wiring string.
type RotorDefinition struct {
	Name    string
	Wiring  string
	Notches []int

	forward  [26]int
	backward [26]int
	notch    [26]bool
}

// ReflectorDefinition is the fixed wiring of one reflector type.
type ReflectorDefinition struct {
	Name   string
	Wiring string

	table [26]int
}

var rotorOrder = []string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII"}

var rotorWirings = map[string]string{
	"I":    "EKMFLGDQVZNTOWYHXUSPAIBRCJ",
	"II":   "AJDKSIRUXBLHWTMCQGZNPYFVOE",
	"III":  "BDFHJLCPRTXVZNYEIWGAKMUSQO",
	"IV":   "ESOVPZJAYQUIRHXLNFTGKDCMWB",
	"V":    "VZBRGITYUPSDNHLXAWMJQOFECK",
	"VI":   "JPGVOUMFYQBENHZRDKASXLICTW",
	"VII":  "NZJHGRCXMYSWBOUFAIVLPEKQDT",
	"VIII": "FKQHTLXOCBJSPDZRAMEWNIUYGV",
}

// Turnover positions, 0-based: the rotor carries its left neighbour when it
// steps away from one of these.
var rotorNotches = map[string][]int{
	"I":    {16},     // Q
	"II":   {4},      // E
	"III":  {21},     // V
	"IV":   {9},      // J
	"V":    {25},     // Z
	"VI":   {12, 25}, // M, Z
	"VII":  {12, 25}, // M, Z
	"VIII": {12, 25}, // M, Z
}

var reflectorWirings = map[string]string{
	"B": "YRUHQSLDPXNGOKMIEBFZCWVJAT",
	"C": "FVPJIAOYEDRZXWGCTKUQSBNMHL",
}

// The registry is filled once at init and only read afterwards.
var (
	rotors     = map[string]*RotorDefinition{}
	reflectors = map[string]*ReflectorDefinition{}
)

func init() {
	for _, name := range rotorOrder {
		rotors[name] = newRotorDefinition(name, rotorWirings[name], rotorNotches[name])
	}
	for name, wiring := range reflectorWirings {
		reflectors[name] = newReflectorDefinition(name, wiring)
	}
}

func newRotorDefinition(name, wiring string, notches []int) *RotorDefinition {
	d := &RotorDefinition{Name: name, Wiring: wiring, Notches: notches}
	for i := 0; i < 26; i++ {
		out := int(wiring[i] - 'A')
		d.forward[i] = out
		d.backward[out] = i
	}
	for _, n := range notches {
		d.notch[n] = true
	}
	return d
}

func newReflectorDefinition(name, wiring string) *ReflectorDefinition {
	d := &ReflectorDefinition{Name: name, Wiring: wiring}
	for i := 0; i < 26; i++ {
		d.table[i] = int(wiring[i] - 'A')
	}
	return d
}

// LookupRotor returns the registered definition for a rotor type such as "III".
func LookupRotor(name string) (*RotorDefinition, error) {
	d, ok := rotors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRotor, name)
	}
	return d, nil
}

// LookupReflector returns the registered definition for reflector "B" or "C".
func LookupReflector(name string) (*ReflectorDefinition, error) {
	d, ok := reflectors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReflector, name)
	}
	return d, nil
}

// RotorNames lists the registered rotor types in historical order.
func RotorNames() []string {
	return append([]string(nil), rotorOrder...)
}

// RotorIndex reports the position of a rotor type in RotorNames, or -1.
func RotorIndex(name string) int {
	for i, n := range rotorOrder {
		if n == name {
			return i
		}
	}
	return -1
}

// ReflectorNames lists the registered reflector types.
func ReflectorNames() []string {
	names := make([]string, 0, len(reflectorWirings))
	for name := range reflectorWirings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
