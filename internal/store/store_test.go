package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerdealer/internal/deck"
	"github.com/lox/pokerdealer/internal/game"
	"github.com/lox/pokerdealer/internal/randutil"
)

var errAbort = errors.New("abort")

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory() },
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "dealer.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
		"sqlite-memory": func(t *testing.T) Store {
			s, err := OpenSQLite(context.Background(), ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func sampleTable(ref uint32) *game.Table {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &game.Table{
		HandRef: ref,
		Players: []game.Player{
			{
				Username:        "alice",
				PlayerID:        uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
				PublicKey:       "pk-alice",
				Hand:            []deck.Card{deck.MustCard(deck.Spades, deck.King), deck.MustCard(deck.Clubs, deck.Ten)},
				HandSecret:      ^uint64(0),
				FlopSecretShare: 1,
			},
		},
		CommunityCards: game.CommunityCards{
			Flop: game.Flop{
				Cards:       []deck.Card{deck.MustCard(deck.Hearts, deck.Ace), deck.MustCard(deck.Hearts, deck.Two), deck.MustCard(deck.Hearts, deck.Three)},
				Secret:      42,
				RetrievedAt: &at,
			},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			err := s.View(ctx, func(tx Tx) error {
				_, ok, err := tx.Table(7)
				require.NoError(t, err)
				assert.False(t, ok)

				_, err = tx.Counter()
				assert.ErrorIs(t, err, ErrNotInstantiated)
				_, err = tx.Config()
				assert.ErrorIs(t, err, ErrNotInstantiated)
				return nil
			})
			require.NoError(t, err)

			want := sampleTable(3)
			counter := randutil.Counter{Hi: 1, Lo: ^uint64(0)}
			cfg := game.Config{Owner: "operator", ContractAddress: "dealer"}

			require.NoError(t, s.Update(ctx, func(tx Tx) error {
				require.NoError(t, tx.PutTable(7, want))
				require.NoError(t, tx.PutCounter(counter))
				return tx.PutConfig(cfg)
			}))

			require.NoError(t, s.View(ctx, func(tx Tx) error {
				got, ok, err := tx.Table(7)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, want.HandRef, got.HandRef)
				assert.Equal(t, want.Players, got.Players)
				assert.Equal(t, want.CommunityCards.Flop.Cards, got.CommunityCards.Flop.Cards)
				require.NotNil(t, got.CommunityCards.Flop.RetrievedAt)
				assert.True(t, want.CommunityCards.Flop.RetrievedAt.Equal(*got.CommunityCards.Flop.RetrievedAt))
				assert.Nil(t, got.ShowdownRetrievedAt)

				gotCounter, err := tx.Counter()
				require.NoError(t, err)
				assert.Equal(t, counter, gotCounter)

				gotCfg, err := tx.Config()
				require.NoError(t, err)
				assert.Equal(t, cfg, gotCfg)
				return nil
			}))
		})
	}
}

func TestStoreFailedUpdateLeavesNoTrace(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			require.NoError(t, s.Update(ctx, func(tx Tx) error {
				require.NoError(t, tx.PutTable(1, sampleTable(1)))
				return tx.PutCounter(randutil.Counter{Lo: 10})
			}))

			err := s.Update(ctx, func(tx Tx) error {
				require.NoError(t, tx.PutTable(1, sampleTable(2)))
				require.NoError(t, tx.PutTable(2, sampleTable(9)))
				require.NoError(t, tx.PutCounter(randutil.Counter{Lo: 99}))

				// writes are visible inside the transaction
				table, ok, err := tx.Table(1)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, uint32(2), table.HandRef)
				c, err := tx.Counter()
				require.NoError(t, err)
				assert.Equal(t, randutil.Counter{Lo: 99}, c)
				return errAbort
			})
			require.ErrorIs(t, err, errAbort)

			require.NoError(t, s.View(ctx, func(tx Tx) error {
				table, ok, err := tx.Table(1)
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, uint32(1), table.HandRef)

				_, ok, err = tx.Table(2)
				require.NoError(t, err)
				assert.False(t, ok)

				c, err := tx.Counter()
				require.NoError(t, err)
				assert.Equal(t, randutil.Counter{Lo: 10}, c)
				return nil
			}))
		})
	}
}

func TestStoreViewIsReadOnly(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			err := s.View(context.Background(), func(tx Tx) error {
				assert.ErrorIs(t, tx.PutTable(1, sampleTable(1)), ErrReadOnly)
				assert.ErrorIs(t, tx.PutCounter(randutil.Counter{}), ErrReadOnly)
				return tx.PutConfig(game.Config{})
			})
			assert.ErrorIs(t, err, ErrReadOnly)
		})
	}
}

func TestMemoryTablesAreCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		return tx.PutTable(1, sampleTable(1))
	}))

	require.NoError(t, s.View(ctx, func(tx Tx) error {
		table, _, err := tx.Table(1)
		require.NoError(t, err)
		table.HandRef = 100
		table.Players[0].Username = "mallory"
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx Tx) error {
		table, _, err := tx.Table(1)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), table.HandRef)
		assert.Equal(t, "alice", table.Players[0].Username)
		return nil
	}))
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemory().Update(ctx, func(Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLite(context.Background(), "  ")
	assert.Error(t, err)
}

func TestSQLiteReopenKeepsState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dealer.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		require.NoError(t, tx.PutCounter(randutil.Counter{Lo: 5}))
		return tx.PutTable(4, sampleTable(8))
	}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.View(ctx, func(tx Tx) error {
		c, err := tx.Counter()
		require.NoError(t, err)
		assert.Equal(t, randutil.Counter{Lo: 5}, c)
		table, ok, err := tx.Table(4)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint32(8), table.HandRef)
		return nil
	}))
}
