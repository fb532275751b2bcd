package enigma

import "errors"

var (
	ErrUnknownRotor     = errors.New("invalid rotor type")
	ErrUnknownReflector = errors.New("invalid reflector type")
	ErrTooManyPairs     = errors.New("too many plugboard pairs")
	ErrInvalidPlug      = errors.New("invalid plugboard connection")
	ErrInvalidPosition  = errors.New("rotor position out of range")
)
