package deck

import (
	"errors"
	"fmt"
)

// Size is the number of cards in a full deck.
const Size = 52

// ErrNotEnoughCards is returned when dealing more cards than remain.
var ErrNotEnoughCards = errors.New("deck: not enough cards")

// Deck represents an ordered deck of playing cards. Cards are dealt from
// the end.
type Deck struct {
	cards []Card
}

// New creates a standard 52-card deck in canonical order: suits Clubs to
// Spades, ranks Ace to King within each suit.
func New() *Deck {
	d := &Deck{cards: make([]Card, 0, Size)}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Ace; rank <= King; rank++ {
			d.cards = append(d.cards, MustCard(suit, rank))
		}
	}
	return d
}

// FromCards creates a deck holding a copy of cards.
func FromCards(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// Cards returns a copy of the remaining cards in deck order.
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// Len returns the number of cards left in the deck
func (d *Deck) Len() int {
	return len(d.cards)
}

// Pop removes and returns the last card of the deck.
func (d *Deck) Pop() (Card, error) {
	if len(d.cards) == 0 {
		return 0, ErrNotEnoughCards
	}
	last := len(d.cards) - 1
	card := d.cards[last]
	d.cards = d.cards[:last]
	return card, nil
}

// Deal pops n cards, in pop order.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrNotEnoughCards, n, len(d.cards))
	}
	cards := make([]Card, 0, n)
	for range n {
		card, err := d.Pop()
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}
