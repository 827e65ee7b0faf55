package dealer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lox/pokerdealer/internal/auth"
	"github.com/lox/pokerdealer/internal/deck"
	"github.com/lox/pokerdealer/internal/game"
	"github.com/lox/pokerdealer/internal/protocol"
	"github.com/lox/pokerdealer/internal/store"
)

// PlayerPrivateData returns the hole cards, hand secret and street shares of
// the player seated with publicKey. The caller must have verified that the
// requester owns publicKey.
func (e *Engine) PlayerPrivateData(ctx context.Context, tableID uint32, publicKey string) (*protocol.PlayerDataResponse, error) {
	var resp *protocol.PlayerDataResponse
	err := e.store.View(ctx, func(tx store.Tx) error {
		table, err := loadTable(tx, tableID)
		if err != nil {
			return err
		}
		p, ok := table.PlayerByPublicKey(publicKey)
		if !ok {
			return &Error{Kind: KindPlayerNotFound, TableID: tableID, PlayerID: publicKey}
		}
		resp = &protocol.PlayerDataResponse{
			TableID:          tableID,
			HandRef:          table.HandRef,
			Hand:             append([]deck.Card(nil), p.Hand...),
			HandText:         deck.Strings(p.Hand),
			HandSecret:       protocol.Uint64(p.HandSecret),
			FlopSecretShare:  protocol.Uint64(p.FlopSecretShare),
			TurnSecretShare:  protocol.Uint64(p.TurnSecretShare),
			RiverSecretShare: protocol.Uint64(p.RiverSecretShare),
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}
	return resp, nil
}

// CommunityCardsBySecret returns a street's cards to anyone holding its
// secret, without recording a reveal.
func (e *Engine) CommunityCardsBySecret(ctx context.Context, tableID uint32, phase game.Phase, secret uint64) (*protocol.CommunityCardsResponse, error) {
	var resp *protocol.CommunityCardsResponse
	err := e.store.View(ctx, func(tx store.Tx) error {
		table, err := loadTable(tx, tableID)
		if err != nil {
			return err
		}
		stored, ok := table.CommunityCards.Secret(phase)
		if !ok {
			return &Error{Kind: KindGameState, Method: methodCommunityCardsQuery, TableID: tableID, Phase: phase}
		}
		if stored != secret {
			return &Error{Kind: KindInvalidKey, TableID: tableID, Phase: phase}
		}
		cards, _ := table.CommunityCards.Cards(phase)
		resp = &protocol.CommunityCardsResponse{
			Type:           protocol.TypeCommunityCards,
			TableID:        tableID,
			HandRef:        table.HandRef,
			GameState:      phase,
			CommunityCards: cards,
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}
	return resp, nil
}

// ShowdownBySecrets returns the streets and hands unlocked by the supplied
// secrets. Any secret that does not match fails the whole query.
func (e *Engine) ShowdownBySecrets(ctx context.Context, q protocol.ShowdownQuery) (*protocol.ShowdownResponse, error) {
	var resp *protocol.ShowdownResponse
	err := e.store.View(ctx, func(tx store.Tx) error {
		table, err := loadTable(tx, q.TableID)
		if err != nil {
			return err
		}

		community := []deck.Card{}
		streets := []struct {
			phase  game.Phase
			secret *protocol.Uint64
		}{
			{game.Flop, q.FlopSecret},
			{game.Turn, q.TurnSecret},
			{game.River, q.RiverSecret},
		}
		for _, s := range streets {
			if s.secret == nil {
				continue
			}
			stored, _ := table.CommunityCards.Secret(s.phase)
			if stored != uint64(*s.secret) {
				return &Error{Kind: KindInvalidKey, TableID: q.TableID, Phase: s.phase}
			}
			cards, _ := table.CommunityCards.Cards(s.phase)
			community = append(community, cards...)
		}

		hands := make([]protocol.PlayerCards, 0, len(q.PlayersSecrets))
		for i, secret := range q.PlayersSecrets {
			p, ok := table.PlayerByHandSecret(uint64(secret))
			if !ok {
				return &Error{Kind: KindPlayerNotFound, TableID: q.TableID, PlayerID: fmt.Sprintf("#%d", i)}
			}
			hands = append(hands, playerCards(p))
		}

		resp = &protocol.ShowdownResponse{
			Type:               protocol.TypeShowdown,
			TableID:            q.TableID,
			HandRef:            table.HandRef,
			PlayersCards:       hands,
			CommunityCards:     community,
			CommunityCardsText: deck.Strings(community),
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}
	return resp, nil
}

// Query answers a read-only message and returns the JSON result. Permit
// queries are verified with viewer against the configured audience.
func (e *Engine) Query(ctx context.Context, msg protocol.QueryMsg, viewer auth.Validator) ([]byte, error) {
	method, err := msg.Method()
	if err != nil {
		return nil, err
	}

	var result any
	switch method {
	case "with_permit":
		result, err = e.permitQuery(ctx, msg.WithPermit, viewer)
	case "community_cards":
		q := msg.CommunityCards
		result, err = e.CommunityCardsBySecret(ctx, q.TableID, q.GameState, uint64(q.SecretKey))
	case "showdown":
		result, err = e.ShowdownBySecrets(ctx, *msg.Showdown)
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, serializationError(err)
	}
	return data, nil
}

func (e *Engine) permitQuery(ctx context.Context, q *protocol.WithPermit, viewer auth.Validator) (any, error) {
	if q.Query.PlayerPrivateData == nil {
		return nil, fmt.Errorf("%w: empty permit query", protocol.ErrAmbiguousMessage)
	}
	cfg, err := e.Config(ctx)
	if err != nil {
		return nil, err
	}
	identity, err := viewer.Validate(ctx, q.Permit, cfg.ContractAddress)
	if err != nil {
		return nil, &Error{Kind: KindUnauthorized, Err: err}
	}
	return e.PlayerPrivateData(ctx, q.Query.PlayerPrivateData.TableID, identity.PublicKey)
}
