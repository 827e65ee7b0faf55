package protocol

import (
	"time"

	"github.com/google/uuid"

	"github.com/lox/pokerdealer/internal/auth"
	"github.com/lox/pokerdealer/internal/deck"
	"github.com/lox/pokerdealer/internal/game"
)

// Response payload types
const (
	TypeStartGame      = "start_game"
	TypeLastHand       = "last_hand"
	TypeCommunityCards = "community_cards"
	TypeShowdown       = "showdown"
	TypeError          = "error"
)

// Response attribute keys
const (
	AttrResponse        = "response"
	AttrPreviousHandLog = "previous_hand_log"
)

// Execute messages (operator only)

// StartGamePlayer seats one player in a new hand.
type StartGamePlayer struct {
	Username  string    `json:"username"`
	PlayerID  uuid.UUID `json:"player_id"`
	PublicKey string    `json:"public_key"`
}

// StartGame deals a new hand at a table.
type StartGame struct {
	TableID uint32            `json:"table_id"`
	HandRef uint32            `json:"hand_ref"`
	Players []StartGamePlayer `json:"players"`
	// Players of the outgoing hand whose cards were shown at its showdown.
	PrevHandShowdownPlayers []uuid.UUID `json:"prev_hand_showdown_players"`
}

// RevealCommunityCards reveals one street.
type RevealCommunityCards struct {
	TableID   uint32     `json:"table_id"`
	GameState game.Phase `json:"game_state"`
}

// Showdown reveals player hands and the all-in runout.
type Showdown struct {
	TableID           uint32      `json:"table_id"`
	GameState         game.Phase  `json:"game_state"`
	ShowdownPlayerIDs []uuid.UUID `json:"showdown_player_ids"`
}

// ExecuteMsg is the externally tagged union of operator messages, for
// example {"start_game": {...}}. Exactly one field is set.
type ExecuteMsg struct {
	StartGame      *StartGame            `json:"start_game,omitempty"`
	CommunityCards *RevealCommunityCards `json:"community_cards,omitempty"`
	Showdown       *Showdown             `json:"showdown,omitempty"`
}

// Method returns the tag of the message that is set.
func (m ExecuteMsg) Method() (string, error) {
	return oneOf(map[string]bool{
		"start_game":      m.StartGame != nil,
		"community_cards": m.CommunityCards != nil,
		"showdown":        m.Showdown != nil,
	})
}

// Query messages

// PlayerPrivateDataQuery asks for the caller's own private data.
type PlayerPrivateDataQuery struct {
	TableID uint32 `json:"table_id"`
}

// QueryWithPermit is the union of queries that need a verified identity.
type QueryWithPermit struct {
	PlayerPrivateData *PlayerPrivateDataQuery `json:"player_private_data,omitempty"`
}

// WithPermit wraps a query with the permit proving the caller's key.
type WithPermit struct {
	Permit auth.Permit     `json:"permit"`
	Query  QueryWithPermit `json:"query"`
}

// CommunityCardsQuery unlocks a street with its reconstructed secret.
type CommunityCardsQuery struct {
	TableID   uint32     `json:"table_id"`
	GameState game.Phase `json:"game_state"`
	SecretKey Uint64     `json:"secret_key"`
}

// ShowdownQuery unlocks any streets and hands whose secrets are supplied.
type ShowdownQuery struct {
	TableID        uint32   `json:"table_id"`
	FlopSecret     *Uint64  `json:"flop_secret,omitempty"`
	TurnSecret     *Uint64  `json:"turn_secret,omitempty"`
	RiverSecret    *Uint64  `json:"river_secret,omitempty"`
	PlayersSecrets []Uint64 `json:"players_secrets"`
}

// QueryMsg is the externally tagged union of read-only messages.
type QueryMsg struct {
	WithPermit     *WithPermit          `json:"with_permit,omitempty"`
	CommunityCards *CommunityCardsQuery `json:"community_cards,omitempty"`
	Showdown       *ShowdownQuery       `json:"showdown,omitempty"`
}

// Method returns the tag of the message that is set.
func (m QueryMsg) Method() (string, error) {
	return oneOf(map[string]bool{
		"with_permit":     m.WithPermit != nil,
		"community_cards": m.CommunityCards != nil,
		"showdown":        m.Showdown != nil,
	})
}

// Response payloads

// StartGameResponse is the public result of dealing a hand.
type StartGameResponse struct {
	Type    string   `json:"type"`
	TableID uint32   `json:"table_id"`
	HandRef uint32   `json:"hand_ref"`
	Players []string `json:"players"`
}

// ShowdownPlayer is one shown hand in a hand log.
type ShowdownPlayer struct {
	Username string   `json:"username"`
	Hand     []string `json:"hand"`
}

// LastHandLog is the public audit record of the hand a StartGame replaced.
type LastHandLog struct {
	Type                string           `json:"type"`
	TableID             uint32           `json:"table_id"`
	HandRef             uint32           `json:"hand_ref"`
	ShowdownPlayers     []ShowdownPlayer `json:"showdown_players"`
	CommunityCards      []string         `json:"community_cards"`
	FlopRetrievedAt     *time.Time       `json:"flop_retrieved_at"`
	TurnRetrievedAt     *time.Time       `json:"turn_retrieved_at"`
	RiverRetrievedAt    *time.Time       `json:"river_retrieved_at"`
	ShowdownRetrievedAt *time.Time       `json:"showdown_retrieved_at"`
}

// CommunityCardsResponse carries the cards of one street.
type CommunityCardsResponse struct {
	Type           string      `json:"type"`
	TableID        uint32      `json:"table_id"`
	HandRef        uint32      `json:"hand_ref"`
	GameState      game.Phase  `json:"game_state"`
	CommunityCards []deck.Card `json:"community_cards"`
}

// PlayerCards is one player's hand at showdown.
type PlayerCards struct {
	PlayerID uuid.UUID   `json:"player_id"`
	Hand     []deck.Card `json:"hand"`
	HandText []string    `json:"hand_text"`
}

// ShowdownResponse carries the shown hands and any runout cards.
type ShowdownResponse struct {
	Type               string        `json:"type"`
	TableID            uint32        `json:"table_id"`
	HandRef            uint32        `json:"hand_ref"`
	PlayersCards       []PlayerCards `json:"players_cards"`
	CommunityCards     []deck.Card   `json:"community_cards"`
	CommunityCardsText []string      `json:"community_cards_text,omitempty"`
}

// PlayerDataResponse is a player's private view of a hand. Secrets and
// shares are decimal strings.
type PlayerDataResponse struct {
	TableID          uint32      `json:"table_id"`
	HandRef          uint32      `json:"hand_ref"`
	Hand             []deck.Card `json:"hand"`
	HandText         []string    `json:"hand_text"`
	HandSecret       Uint64      `json:"hand_secret"`
	FlopSecretShare  Uint64      `json:"flop_secret_share"`
	TurnSecretShare  Uint64      `json:"turn_secret_share"`
	RiverSecretShare Uint64      `json:"river_secret_share"`
}

// Error is sent to a client when a request fails.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Attribute is one key/value pair of an execute response.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Response is the result of an execute message. Values are encoded payloads.
type Response struct {
	Attributes []Attribute `json:"attributes"`
}

// Add appends an attribute.
func (r *Response) Add(key, value string) {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
}

// Attribute returns the value stored under key.
func (r *Response) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}
