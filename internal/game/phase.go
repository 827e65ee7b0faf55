package game

import (
	"errors"
	"fmt"
)

// ErrInvalidPhase is returned when decoding an unknown phase name.
var ErrInvalidPhase = errors.New("game: invalid phase")

// Phase names a stage of community-card disclosure.
type Phase string

const (
	PreFlop Phase = "pre_flop"
	Flop    Phase = "flop"
	Turn    Phase = "turn"
	River   Phase = "river"
)

// IsStreet reports whether the phase has community cards of its own.
func (p Phase) IsStreet() bool {
	return p == Flop || p == Turn || p == River
}

// Valid reports whether p is one of the four known phases.
func (p Phase) Valid() bool {
	return p == PreFlop || p.IsStreet()
}

// String returns the wire name of the phase.
func (p Phase) String() string {
	return string(p)
}

// UnmarshalText accepts only the four known phase names.
func (p *Phase) UnmarshalText(text []byte) error {
	phase := Phase(text)
	if !phase.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPhase, text)
	}
	*p = phase
	return nil
}
