package game

import (
	"github.com/google/uuid"

	"github.com/lox/pokerdealer/internal/deck"
)

// Player is one seat of a dealt hand, including everything that is private
// to that player.
type Player struct {
	Username  string    `json:"username"`
	PlayerID  uuid.UUID `json:"player_id"`
	PublicKey string    `json:"public_key"`

	Hand       []deck.Card `json:"hand"`
	HandSecret uint64      `json:"hand_secret"`

	FlopSecretShare  uint64 `json:"flop_secret_share"`
	TurnSecretShare  uint64 `json:"turn_secret_share"`
	RiverSecretShare uint64 `json:"river_secret_share"`
}

// Share returns the player's share of the given street's secret.
func (p *Player) Share(phase Phase) (uint64, bool) {
	switch phase {
	case Flop:
		return p.FlopSecretShare, true
	case Turn:
		return p.TurnSecretShare, true
	case River:
		return p.RiverSecretShare, true
	default:
		return 0, false
	}
}
