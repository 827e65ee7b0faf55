package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/pokerdealer/internal/dealer"
	"github.com/lox/pokerdealer/internal/deck"
	"github.com/lox/pokerdealer/internal/game"
	"github.com/lox/pokerdealer/internal/protocol"
	"github.com/lox/pokerdealer/internal/randutil"
	"github.com/lox/pokerdealer/internal/store"
)

// DealCmd runs one hand end to end against an in-memory store
type DealCmd struct {
	Players int    `short:"n" default:"2" help:"Number of players (2-9)"`
	Seed    *int64 `help:"Deterministic entropy seed (optional)"`
	Secrets bool   `help:"Also print secrets and shares"`
}

func (c *DealCmd) Run() error {
	return c.run(context.Background(), os.Stdout)
}

func (c *DealCmd) run(ctx context.Context, out io.Writer) error {
	var opts []dealer.Option
	if c.Seed != nil {
		opts = append(opts, dealer.WithEntropy(randutil.NewSeededEntropy(*c.Seed)))
	}
	engine := dealer.New(store.NewMemory(), log.New(io.Discard), opts...)

	const owner = "cli"
	if err := engine.Instantiate(ctx, owner, "pokerdealer"); err != nil {
		return err
	}

	seated := make([]protocol.StartGamePlayer, c.Players)
	for i := range seated {
		seated[i] = protocol.StartGamePlayer{
			Username:  fmt.Sprintf("player%d", i+1),
			PlayerID:  uuid.New(),
			PublicKey: fmt.Sprintf("cli-key-%d", i+1),
		}
	}

	const tableID = 1
	if _, err := engine.StartGame(ctx, protocol.StartGame{TableID: tableID, HandRef: 1, Players: seated}); err != nil {
		return err
	}

	for _, p := range seated {
		data, err := engine.PlayerPrivateData(ctx, tableID, p.PublicKey)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%-10s %s\n", p.Username, strings.Join(data.HandText, " "))
		if c.Secrets {
			_, _ = fmt.Fprintf(out, "%-10s hand=%d flop=%d turn=%d river=%d\n", "",
				data.HandSecret, data.FlopSecretShare, data.TurnSecretShare, data.RiverSecretShare)
		}
	}

	for _, phase := range []game.Phase{game.Flop, game.Turn, game.River} {
		street, err := engine.RevealCommunityCards(ctx, tableID, phase)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%-10s %s\n", phase, strings.Join(deck.Strings(street.CommunityCards), " "))
	}

	ids := make([]uuid.UUID, len(seated))
	for i, p := range seated {
		ids[i] = p.PlayerID
	}
	if _, err := engine.Showdown(ctx, tableID, game.River, ids); err != nil {
		return err
	}

	counter, err := engine.Counter(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%-10s %s\n", "counter", counter)
	return nil
}
