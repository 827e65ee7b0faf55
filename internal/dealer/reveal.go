package dealer

import (
	"context"

	"github.com/google/uuid"

	"github.com/lox/pokerdealer/internal/deck"
	"github.com/lox/pokerdealer/internal/game"
	"github.com/lox/pokerdealer/internal/protocol"
	"github.com/lox/pokerdealer/internal/store"
)

const (
	methodRevealCommunityCards = "distribute_community_cards"
	methodCommunityCardsQuery  = "query_community_cards"
	methodShowdown             = "showdown"
)

// RevealCommunityCards publishes the cards of one street. Each street can be
// revealed once; the reveal time is recorded with the table.
func (e *Engine) RevealCommunityCards(ctx context.Context, tableID uint32, phase game.Phase) (*protocol.CommunityCardsResponse, error) {
	var resp *protocol.CommunityCardsResponse
	err := e.store.Update(ctx, func(tx store.Tx) error {
		table, err := loadTable(tx, tableID)
		if err != nil {
			return err
		}
		cards, ok := table.CommunityCards.Cards(phase)
		if !ok {
			return &Error{Kind: KindGameState, Method: methodRevealCommunityCards, TableID: tableID, Phase: phase}
		}
		if table.CommunityCards.RetrievedAt(phase) != nil {
			return &Error{Kind: KindCardsAlreadyRetrieved, TableID: tableID, Phase: phase}
		}
		if err := table.CommunityCards.MarkRetrieved(phase, e.clock.Now()); err != nil {
			return err
		}
		if err := tx.PutTable(tableID, table); err != nil {
			return err
		}

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

	e.logger.Info("Revealed community cards", "table", tableID, "hand", resp.HandRef, "phase", phase)
	return resp, nil
}

// Showdown publishes the hands of the listed players together with any
// community cards not yet dealt at the street reached. It can run once per
// hand.
func (e *Engine) Showdown(ctx context.Context, tableID uint32, phase game.Phase, playerIDs []uuid.UUID) (*protocol.ShowdownResponse, error) {
	if !phase.Valid() {
		return nil, &Error{Kind: KindGameState, Method: methodShowdown, TableID: tableID, Phase: phase}
	}

	var resp *protocol.ShowdownResponse
	err := e.store.Update(ctx, func(tx store.Tx) error {
		table, err := loadTable(tx, tableID)
		if err != nil {
			return err
		}
		if table.ShowdownRetrievedAt != nil {
			return &Error{Kind: KindCardsAlreadyRetrieved, TableID: tableID}
		}

		hands := make([]protocol.PlayerCards, 0, len(playerIDs))
		for _, id := range playerIDs {
			p, ok := table.PlayerByID(id)
			if !ok {
				return &Error{Kind: KindPlayerNotFound, TableID: tableID, PlayerID: id.String()}
			}
			hands = append(hands, playerCards(p))
		}

		runout := table.CommunityCards.Runout(phase)
		if err := table.MarkShowdown(e.clock.Now()); err != nil {
			return err
		}
		if err := tx.PutTable(tableID, table); err != nil {
			return err
		}

		resp = &protocol.ShowdownResponse{
			Type:           protocol.TypeShowdown,
			TableID:        tableID,
			HandRef:        table.HandRef,
			PlayersCards:   hands,
			CommunityCards: runout,
		}
		if runout != nil {
			resp.CommunityCardsText = deck.Strings(runout)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}

	e.logger.Info("Showdown", "table", tableID, "hand", resp.HandRef, "phase", phase, "players", len(playerIDs))
	return resp, nil
}

func loadTable(tx store.Tx, tableID uint32) (*game.Table, error) {
	table, ok, err := tx.Table(tableID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &Error{Kind: KindTableNotFound, TableID: tableID}
	}
	return table, nil
}

func playerCards(p *game.Player) protocol.PlayerCards {
	return protocol.PlayerCards{
		PlayerID: p.PlayerID,
		Hand:     append([]deck.Card(nil), p.Hand...),
		HandText: deck.Strings(p.Hand),
	}
}
