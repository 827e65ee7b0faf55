package deck

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		suit    Suit
		rank    Rank
		want    Card
		wantErr bool
	}{
		{name: "ace of clubs", suit: Clubs, rank: Ace, want: 0x01},
		{name: "king of spades", suit: Spades, rank: King, want: 0x3d},
		{name: "ten of hearts", suit: Hearts, rank: Ten, want: 0x2a},
		{name: "suit out of range", suit: 4, rank: Ace, wantErr: true},
		{name: "rank zero", suit: Clubs, rank: 0, wantErr: true},
		{name: "rank fourteen", suit: Diamonds, rank: 14, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := NewCard(tt.suit, tt.rank)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCard) {
					t.Fatalf("expected ErrInvalidCard, got %v", err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, card)
			assert.Equal(t, tt.suit, card.Suit())
			assert.Equal(t, tt.rank, card.Rank())
		})
	}
}

func TestCardString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		card Card
		want string
	}{
		{MustCard(Spades, King), "♠K"},
		{MustCard(Clubs, Ten), "♣10"},
		{MustCard(Diamonds, Ace), "♦A"},
		{MustCard(Hearts, Two), "♥2"},
		{Card(0), "??"},
		{Card(0x4e), "??"},
	}
	for _, tc := range cases {
		if got := tc.card.String(); got != tc.want {
			t.Errorf("Card(%#x).String() = %q, want %q", uint8(tc.card), got, tc.want)
		}
	}
}

func TestCardJSON(t *testing.T) {
	t.Parallel()

	cards := []Card{MustCard(Clubs, Ace), MustCard(Spades, King)}
	data, err := json.Marshal(cards)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 61]`, string(data))

	var decoded []Card
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, cards, decoded)

	var bad Card
	err = json.Unmarshal([]byte(`64`), &bad)
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestStrings(t *testing.T) {
	t.Parallel()

	got := Strings([]Card{MustCard(Hearts, Queen), MustCard(Diamonds, Three)})
	assert.Equal(t, []string{"♥Q", "♦3"}, got)
}
