package dealer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lox/pokerdealer/internal/deck"
	"github.com/lox/pokerdealer/internal/game"
	"github.com/lox/pokerdealer/internal/protocol"
	"github.com/lox/pokerdealer/internal/randutil"
	"github.com/lox/pokerdealer/internal/sharing"
	"github.com/lox/pokerdealer/internal/store"
)

const (
	holeCards = 2
	flopCards = 3
)

// StartGameResult is the public outcome of StartGame.
type StartGameResult struct {
	Response protocol.StartGameResponse
	// PreviousHandLog is set when the deal replaced an existing hand.
	PreviousHandLog *protocol.LastHandLog
}

// StartGame deals a new hand at req.TableID, replacing any previous hand
// there. The new table and the advanced counter are committed together.
func (e *Engine) StartGame(ctx context.Context, req protocol.StartGame) (*StartGameResult, error) {
	if err := validatePlayers(req.Players); err != nil {
		return nil, err
	}

	entropy, err := e.entropy.Random()
	if err != nil {
		return nil, storageError(err)
	}

	var result StartGameResult
	err = e.store.Update(ctx, func(tx store.Tx) error {
		prev, found, err := tx.Table(req.TableID)
		if err != nil {
			return err
		}
		if found {
			entry, err := handLog(req.TableID, prev, req.PrevHandShowdownPlayers)
			if err != nil {
				return err
			}
			result.PreviousHandLog = entry
		}

		counter, err := tx.Counter()
		if err != nil {
			return err
		}
		deriver, err := randutil.NewDeriver(entropy, &counter)
		if err != nil {
			return err
		}

		table, err := deal(deriver, req)
		if err != nil {
			return err
		}
		if err := tx.PutTable(req.TableID, table); err != nil {
			return err
		}
		if err := tx.PutCounter(deriver.Counter()); err != nil {
			return err
		}

		result.Response = protocol.StartGameResponse{
			Type:    protocol.TypeStartGame,
			TableID: req.TableID,
			HandRef: req.HandRef,
			Players: table.Usernames(),
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	e.logger.Info("Started hand", "table", req.TableID, "hand", req.HandRef, "players", len(req.Players))

	if result.PreviousHandLog != nil && e.audit != nil {
		if err := e.audit.RecordHand(ctx, *result.PreviousHandLog); err != nil {
			e.logger.Error("Failed to archive hand", "table", req.TableID, "hand", result.PreviousHandLog.HandRef, "error", err)
		}
	}
	return &result, nil
}

func validatePlayers(players []protocol.StartGamePlayer) error {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return &Error{Kind: KindInvalidPlayerCount, Count: len(players)}
	}
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if _, dup := seen[p.PublicKey]; dup {
			return &Error{Kind: KindDuplicatePublicKeys}
		}
		seen[p.PublicKey] = struct{}{}
	}
	return nil
}

// deal shuffles a fresh deck and builds the table. Derivation order is
// fixed: deck seed, then secret and shares for flop, turn and river, then
// one hand secret per player.
func deal(deriver *randutil.Deriver, req protocol.StartGame) (*game.Table, error) {
	d := deck.New()
	d.Shuffle(deriver.Next())

	hands := make([][]deck.Card, len(req.Players))
	for i := range req.Players {
		cards, err := d.Deal(holeCards)
		if err != nil {
			return nil, fmt.Errorf("deal hole cards: %w", err)
		}
		hands[i] = cards
	}

	phases := []game.Phase{game.Flop, game.Turn, game.River}
	secrets := make(map[game.Phase]uint64, len(phases))
	shares := make(map[game.Phase][]uint64, len(phases))
	for _, phase := range phases {
		secret := deriver.Next()
		split, err := sharing.Split(secret, len(req.Players), deriver)
		if err != nil {
			return nil, err
		}
		secrets[phase] = secret
		shares[phase] = split
	}

	flop, err := d.Deal(flopCards)
	if err != nil {
		return nil, fmt.Errorf("deal flop: %w", err)
	}
	turn, err := d.Pop()
	if err != nil {
		return nil, fmt.Errorf("deal turn: %w", err)
	}
	river, err := d.Pop()
	if err != nil {
		return nil, fmt.Errorf("deal river: %w", err)
	}

	players := make([]game.Player, len(req.Players))
	for i, p := range req.Players {
		players[i] = game.Player{
			Username:         p.Username,
			PlayerID:         p.PlayerID,
			PublicKey:        p.PublicKey,
			Hand:             hands[i],
			HandSecret:       deriver.Next(),
			FlopSecretShare:  shares[game.Flop][i],
			TurnSecretShare:  shares[game.Turn][i],
			RiverSecretShare: shares[game.River][i],
		}
	}

	return &game.Table{
		HandRef: req.HandRef,
		Players: players,
		CommunityCards: game.CommunityCards{
			Flop:  game.Flop{Cards: flop, Secret: secrets[game.Flop]},
			Turn:  game.Street{Card: turn, Secret: secrets[game.Turn]},
			River: game.Street{Card: river, Secret: secrets[game.River]},
		},
	}, nil
}

// handLog builds the public record of the outgoing hand. Every id in
// showdown must be seated at the outgoing table.
func handLog(tableID uint32, prev *game.Table, showdown []uuid.UUID) (*protocol.LastHandLog, error) {
	players := make([]protocol.ShowdownPlayer, 0, len(showdown))
	for _, id := range showdown {
		p, ok := prev.PlayerByID(id)
		if !ok {
			return nil, &Error{Kind: KindPlayerNotFound, TableID: tableID, PlayerID: id.String()}
		}
		players = append(players, protocol.ShowdownPlayer{
			Username: p.Username,
			Hand:     deck.Strings(p.Hand),
		})
	}

	cc := prev.CommunityCards
	return &protocol.LastHandLog{
		Type:                protocol.TypeLastHand,
		TableID:             tableID,
		HandRef:             prev.HandRef,
		ShowdownPlayers:     players,
		CommunityCards:      deck.Strings(cc.All()),
		FlopRetrievedAt:     cc.Flop.RetrievedAt,
		TurnRetrievedAt:     cc.Turn.RetrievedAt,
		RiverRetrievedAt:    cc.River.RetrievedAt,
		ShowdownRetrievedAt: prev.ShowdownRetrievedAt,
	}, nil
}
