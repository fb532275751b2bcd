package enigma

// Rotor is one mounted rotor: a definition plus its window position and
// ring setting, both 0-25.
type Rotor struct {
	def         *RotorDefinition
	position    int
	ringSetting int
}

// NewRotor mounts def at position 0 with ring setting 0.
func NewRotor(def *RotorDefinition) Rotor {
	return Rotor{def: def}
}

func (r Rotor) Name() string     { return r.def.Name }
func (r Rotor) Position() int    { return r.position }
func (r Rotor) RingSetting() int { return r.ringSetting }

func (r *Rotor) rotate() {
	r.position = (r.position + 1) % 26
}

func (r *Rotor) atNotch() bool {
	return r.def.notch[r.position]
}

// Forward maps a contact entering from the right.
func (r *Rotor) Forward(c int) int {
	shift := r.position - r.ringSetting
	return mod26(r.def.forward[mod26(c+shift)] - shift)
}

// Backward maps a contact returning from the reflector.
func (r *Rotor) Backward(c int) int {
	shift := r.position - r.ringSetting
	return mod26(r.def.backward[mod26(c+shift)] - shift)
}

// Reflector is a fixed involution with no self-mapped letter.
type Reflector struct {
	def *ReflectorDefinition
}

func NewReflector(def *ReflectorDefinition) Reflector {
	return Reflector{def: def}
}

func (r Reflector) Name() string { return r.def.Name }

func (r Reflector) Reflect(c int) int {
	return r.def.table[c]
}

func mod26(n int) int {
	n %= 26
	if n < 0 {
		n += 26
	}
	return n
}
