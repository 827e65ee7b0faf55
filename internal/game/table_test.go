package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerdealer/internal/deck"
)

var (
	aceClubs    = deck.MustCard(deck.Clubs, deck.Ace)
	twoClubs    = deck.MustCard(deck.Clubs, deck.Two)
	threeClubs  = deck.MustCard(deck.Clubs, deck.Three)
	kingSpades  = deck.MustCard(deck.Spades, deck.King)
	queenHearts = deck.MustCard(deck.Hearts, deck.Queen)
)

func testTable() *Table {
	return &Table{
		HandRef: 7,
		Players: []Player{
			{Username: "alice", PlayerID: uuid.MustParse("2928c53b-5d14-4a7c-b56e-83ef56a0644e"), PublicKey: "key1", HandSecret: 11, FlopSecretShare: 1, TurnSecretShare: 2, RiverSecretShare: 3},
			{Username: "bob", PlayerID: uuid.MustParse("8f204fcc-54a5-4473-8ac3-4845bff291ab"), PublicKey: "key2", HandSecret: 22},
		},
		CommunityCards: CommunityCards{
			Flop:  Flop{Cards: []deck.Card{aceClubs, twoClubs, threeClubs}, Secret: 100},
			Turn:  Street{Card: kingSpades, Secret: 200},
			River: Street{Card: queenHearts, Secret: 300},
		},
	}
}

func TestPhase(t *testing.T) {
	t.Parallel()

	assert.True(t, PreFlop.Valid())
	assert.False(t, PreFlop.IsStreet())
	for _, p := range []Phase{Flop, Turn, River} {
		assert.True(t, p.IsStreet(), p)
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, Phase("showdown").Valid())
}

func TestCommunityCardsLookups(t *testing.T) {
	t.Parallel()

	cc := testTable().CommunityCards

	cards, ok := cc.Cards(Flop)
	require.True(t, ok)
	assert.Equal(t, []deck.Card{aceClubs, twoClubs, threeClubs}, cards)

	cards, ok = cc.Cards(River)
	require.True(t, ok)
	assert.Equal(t, []deck.Card{queenHearts}, cards)

	_, ok = cc.Cards(PreFlop)
	assert.False(t, ok)

	secret, ok := cc.Secret(Turn)
	require.True(t, ok)
	assert.Equal(t, uint64(200), secret)

	assert.Equal(t, []deck.Card{aceClubs, twoClubs, threeClubs, kingSpades, queenHearts}, cc.All())
}

func TestRunout(t *testing.T) {
	t.Parallel()

	cc := testTable().CommunityCards
	assert.Len(t, cc.Runout(PreFlop), 5)
	assert.Equal(t, []deck.Card{kingSpades, queenHearts}, cc.Runout(Flop))
	assert.Equal(t, []deck.Card{queenHearts}, cc.Runout(Turn))
	assert.Nil(t, cc.Runout(River))
	assert.Nil(t, cc.Runout(Phase("bogus")))
}

func TestMarkRetrievedOnce(t *testing.T) {
	t.Parallel()

	table := testTable()
	first := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, table.CommunityCards.MarkRetrieved(Flop, first))
	err := table.CommunityCards.MarkRetrieved(Flop, first.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyRetrieved)
	assert.Equal(t, first, *table.CommunityCards.RetrievedAt(Flop), "second reveal must not overwrite")

	assert.Nil(t, table.CommunityCards.RetrievedAt(Turn))
	assert.ErrorIs(t, table.CommunityCards.MarkRetrieved(PreFlop, first), ErrNotAStreet)

	require.NoError(t, table.MarkShowdown(first))
	assert.ErrorIs(t, table.MarkShowdown(first), ErrAlreadyRetrieved)
}

func TestPlayerLookups(t *testing.T) {
	t.Parallel()

	table := testTable()

	p, ok := table.PlayerByID(uuid.MustParse("8f204fcc-54a5-4473-8ac3-4845bff291ab"))
	require.True(t, ok)
	assert.Equal(t, "bob", p.Username)

	_, ok = table.PlayerByID(uuid.New())
	assert.False(t, ok)

	p, ok = table.PlayerByPublicKey("key1")
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username)

	p, ok = table.PlayerByHandSecret(22)
	require.True(t, ok)
	assert.Equal(t, "bob", p.Username)

	_, ok = table.PlayerByHandSecret(33)
	assert.False(t, ok)

	assert.Equal(t, []string{"alice", "bob"}, table.Usernames())

	share, ok := table.Players[0].Share(Turn)
	require.True(t, ok)
	assert.Equal(t, uint64(2), share)
	_, ok = table.Players[0].Share(PreFlop)
	assert.False(t, ok)
}

func TestTableJSONRoundTrip(t *testing.T) {
	t.Parallel()

	table := testTable()
	table.Players[0].HandSecret = ^uint64(0)
	require.NoError(t, table.CommunityCards.MarkRetrieved(Turn, time.Date(2025, 5, 6, 7, 8, 9, 10, time.UTC)))

	data, err := json.Marshal(table)
	require.NoError(t, err)

	var decoded Table
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ^uint64(0), decoded.Players[0].HandSecret, "uint64 secrets must survive storage encoding")
	assert.True(t, decoded.CommunityCards.Turn.RetrievedAt.Equal(*table.CommunityCards.Turn.RetrievedAt))
	assert.Nil(t, decoded.CommunityCards.Flop.RetrievedAt)
	assert.Equal(t, table.CommunityCards.Flop.Cards, decoded.CommunityCards.Flop.Cards)
}

func TestPhaseUnmarshal(t *testing.T) {
	t.Parallel()

	var msg struct {
		GameState Phase `json:"game_state"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"game_state":"pre_flop"}`), &msg))
	assert.Equal(t, PreFlop, msg.GameState)

	for _, bad := range []string{`"preflop"`, `"Flop"`, `""`, `"showdown"`} {
		err := json.Unmarshal([]byte(`{"game_state":`+bad+`}`), &msg)
		assert.ErrorIs(t, err, ErrInvalidPhase, bad)
	}
}
