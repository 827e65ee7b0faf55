package dealer

import (
	"context"

	"github.com/lox/pokerdealer/internal/protocol"
)

// Execute authorizes sender as the operator, runs msg and returns the
// encoded response attributes.
func (e *Engine) Execute(ctx context.Context, sender string, msg protocol.ExecuteMsg) (*protocol.Response, error) {
	if err := e.Authorize(ctx, sender); err != nil {
		return nil, err
	}
	method, err := msg.Method()
	if err != nil {
		return nil, err
	}

	resp := &protocol.Response{}
	switch method {
	case "start_game":
		result, err := e.StartGame(ctx, *msg.StartGame)
		if err != nil {
			return nil, err
		}
		if err := addPayload(resp, protocol.AttrResponse, &result.Response); err != nil {
			return nil, err
		}
		if result.PreviousHandLog != nil {
			if err := addPayload(resp, protocol.AttrPreviousHandLog, result.PreviousHandLog); err != nil {
				return nil, err
			}
		}

	case "community_cards":
		m := msg.CommunityCards
		result, err := e.RevealCommunityCards(ctx, m.TableID, m.GameState)
		if err != nil {
			return nil, err
		}
		if err := addPayload(resp, protocol.AttrResponse, result); err != nil {
			return nil, err
		}

	case "showdown":
		m := msg.Showdown
		result, err := e.Showdown(ctx, m.TableID, m.GameState, m.ShowdownPlayerIDs)
		if err != nil {
			return nil, err
		}
		if err := addPayload(resp, protocol.AttrResponse, result); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// addPayload encodes a payload into an attribute. A failure here means the
// operation itself has already been committed.
func addPayload(resp *protocol.Response, key string, payload any) error {
	data, err := protocol.Marshal(payload)
	if err != nil {
		return serializationError(err)
	}
	resp.Add(key, string(data))
	return nil
}
