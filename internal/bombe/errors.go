package bombe

import "errors"

// Configuration errors returned by NewEngine. None of them is ever produced
// once a search is running.
var (
	ErrEmptyCrib   = errors.New("crib has no letters")
	ErrCribTooLong = errors.New("crib is longer than the ciphertext")
	ErrRotorCount  = errors.New("wrong number of rotor types")
	ErrRotorReused = errors.New("rotor type listed more than once")
)
