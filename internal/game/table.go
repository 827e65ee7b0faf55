package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lox/pokerdealer/internal/deck"
)

var (
	// ErrAlreadyRetrieved is returned when a one-shot reveal is repeated.
	ErrAlreadyRetrieved = errors.New("game: cards already retrieved")

	// ErrNotAStreet is returned for phases that carry no community cards.
	ErrNotAStreet = errors.New("game: phase has no community cards")
)

// Flop holds the first three community cards.
type Flop struct {
	Cards       []deck.Card `json:"cards"`
	Secret      uint64      `json:"secret"`
	RetrievedAt *time.Time  `json:"retrieved_at"`
}

// Street holds the single community card of the turn or the river.
type Street struct {
	Card        deck.Card  `json:"card"`
	Secret      uint64     `json:"secret"`
	RetrievedAt *time.Time `json:"retrieved_at"`
}

// CommunityCards holds the three streets of a hand.
type CommunityCards struct {
	Flop  Flop   `json:"flop"`
	Turn  Street `json:"turn"`
	River Street `json:"river"`
}

// Cards returns the cards of one street.
func (c *CommunityCards) Cards(phase Phase) ([]deck.Card, bool) {
	switch phase {
	case Flop:
		return append([]deck.Card(nil), c.Flop.Cards...), true
	case Turn:
		return []deck.Card{c.Turn.Card}, true
	case River:
		return []deck.Card{c.River.Card}, true
	default:
		return nil, false
	}
}

// Secret returns the unlock secret of one street.
func (c *CommunityCards) Secret(phase Phase) (uint64, bool) {
	switch phase {
	case Flop:
		return c.Flop.Secret, true
	case Turn:
		return c.Turn.Secret, true
	case River:
		return c.River.Secret, true
	default:
		return 0, false
	}
}

// RetrievedAt returns when a street was revealed, or nil.
func (c *CommunityCards) RetrievedAt(phase Phase) *time.Time {
	if slot := c.retrievedSlot(phase); slot != nil {
		return *slot
	}
	return nil
}

// MarkRetrieved records the reveal of a street. It fails without changing
// anything if the street was already revealed.
func (c *CommunityCards) MarkRetrieved(phase Phase, at time.Time) error {
	slot := c.retrievedSlot(phase)
	if slot == nil {
		return fmt.Errorf("%w: %s", ErrNotAStreet, phase)
	}
	if *slot != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyRetrieved, phase)
	}
	*slot = &at
	return nil
}

func (c *CommunityCards) retrievedSlot(phase Phase) **time.Time {
	switch phase {
	case Flop:
		return &c.Flop.RetrievedAt
	case Turn:
		return &c.Turn.RetrievedAt
	case River:
		return &c.River.RetrievedAt
	default:
		return nil
	}
}

// All returns flop, turn and river cards in board order.
func (c *CommunityCards) All() []deck.Card {
	cards := make([]deck.Card, 0, 5)
	cards = append(cards, c.Flop.Cards...)
	return append(cards, c.Turn.Card, c.River.Card)
}

// Runout returns the community cards still to come after the street already
// reached, as shown when players are all in: everything after pre-flop, turn
// and river after the flop, the river after the turn. Any other phase has
// nothing left to show and returns nil.
func (c *CommunityCards) Runout(reached Phase) []deck.Card {
	switch reached {
	case PreFlop:
		return c.All()
	case Flop:
		return []deck.Card{c.Turn.Card, c.River.Card}
	case Turn:
		return []deck.Card{c.River.Card}
	default:
		return nil
	}
}

// Table is the persisted record of one hand at one table id.
type Table struct {
	HandRef             uint32         `json:"hand_ref"`
	Players             []Player       `json:"players"`
	CommunityCards      CommunityCards `json:"community_cards"`
	ShowdownRetrievedAt *time.Time     `json:"showdown_retrieved_at"`
}

// PlayerByID finds a player by id.
func (t *Table) PlayerByID(id uuid.UUID) (*Player, bool) {
	for i := range t.Players {
		if t.Players[i].PlayerID == id {
			return &t.Players[i], true
		}
	}
	return nil, false
}

// PlayerByPublicKey finds a player by public key.
func (t *Table) PlayerByPublicKey(key string) (*Player, bool) {
	for i := range t.Players {
		if t.Players[i].PublicKey == key {
			return &t.Players[i], true
		}
	}
	return nil, false
}

// PlayerByHandSecret finds the player whose hand secret equals secret.
func (t *Table) PlayerByHandSecret(secret uint64) (*Player, bool) {
	for i := range t.Players {
		if t.Players[i].HandSecret == secret {
			return &t.Players[i], true
		}
	}
	return nil, false
}

// Usernames returns player names in seat order.
func (t *Table) Usernames() []string {
	names := make([]string, len(t.Players))
	for i, p := range t.Players {
		names[i] = p.Username
	}
	return names
}

// MarkShowdown records the showdown. It fails without changing anything if
// the showdown already happened.
func (t *Table) MarkShowdown(at time.Time) error {
	if t.ShowdownRetrievedAt != nil {
		return fmt.Errorf("%w: showdown", ErrAlreadyRetrieved)
	}
	t.ShowdownRetrievedAt = &at
	return nil
}
