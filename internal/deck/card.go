package deck

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidCard is returned when a suit or rank is out of range.
var ErrInvalidCard = errors.New("deck: invalid card")

// Suit represents a card suit
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// The symbol order is shared with every client that renders hand logs, so
// the audit trail written by one build must read the same in another.
var suitSymbols = [4]string{"♣", "♦", "♥", "♠"}

// String returns the string representation of a suit
func (s Suit) String() string {
	if int(s) >= len(suitSymbols) {
		return "?"
	}
	return suitSymbols[s]
}

// Rank represents a card rank, Ace low.
type Rank uint8

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankSymbols = [13]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String returns the string representation of a rank
func (r Rank) String() string {
	if r < Ace || r > King {
		return "?"
	}
	return rankSymbols[r-1]
}

// Card packs a suit and rank into a single byte: suit in the high nibble,
// rank in the low nibble.
type Card uint8

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) (Card, error) {
	if suit > Spades {
		return 0, fmt.Errorf("%w: suit %d", ErrInvalidCard, suit)
	}
	if rank < Ace || rank > King {
		return 0, fmt.Errorf("%w: rank %d", ErrInvalidCard, rank)
	}
	return Card(uint8(suit)<<4 | uint8(rank)), nil
}

// MustCard is like NewCard but panics on invalid input. Only use it with
// constant arguments.
func MustCard(suit Suit, rank Rank) Card {
	c, err := NewCard(suit, rank)
	if err != nil {
		panic(err)
	}
	return c
}

// Suit returns the card's suit
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

// Rank returns the card's rank
func (c Card) Rank() Rank {
	return Rank(c & 0x0f)
}

// Valid reports whether the card encodes a real suit and rank.
func (c Card) Valid() bool {
	return c.Suit() <= Spades && c.Rank() >= Ace && c.Rank() <= King
}

// String returns the suit symbol followed by the rank (e.g. "♠K", "♣10").
func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return c.Suit().String() + c.Rank().String()
}

// MarshalJSON encodes the card as its packed byte value. Without it a
// []Card would be encoded as a base64 string.
func (c Card) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, uint64(c), 10), nil
}

// UnmarshalJSON decodes a packed byte value and rejects invalid cards.
func (c *Card) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseUint(string(data), 10, 8)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCard, data)
	}
	card := Card(v)
	if !card.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCard, v)
	}
	*c = card
	return nil
}

// Strings renders each card with String.
func Strings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}
