package dealer

import (
	"errors"
	"fmt"

	"github.com/lox/pokerdealer/internal/game"
)

// Kind classifies dealer errors.
type Kind int

const (
	// KindStorage wraps failures of the store or the entropy source.
	KindStorage Kind = iota + 1
	KindUnauthorized
	KindGameState
	KindCardsAlreadyRetrieved
	KindPlayerNotFound
	KindTableNotFound
	KindSerializationFailed
	KindDuplicatePublicKeys
	KindInvalidPlayerCount
	KindInvalidKey
	KindAlreadyInstantiated
)

var kindNames = map[Kind]string{
	KindStorage:               "storage",
	KindUnauthorized:          "unauthorized",
	KindGameState:             "game_state",
	KindCardsAlreadyRetrieved: "cards_already_retrieved",
	KindPlayerNotFound:        "player_not_found",
	KindTableNotFound:         "table_not_found",
	KindSerializationFailed:   "serialization_failed",
	KindDuplicatePublicKeys:   "duplicate_public_keys",
	KindInvalidPlayerCount:    "invalid_player_count",
	KindInvalidKey:            "invalid_key",
	KindAlreadyInstantiated:   "already_instantiated",
}

// String returns the snake_case code of the kind, used as the wire error code.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the single error type returned by Engine operations. Only the
// fields relevant to Kind are set.
type Error struct {
	Kind     Kind
	Method   string
	TableID  uint32
	PlayerID string
	Phase    game.Phase
	Count    int
	Err      error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrStorage               = &Error{Kind: KindStorage}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized}
	ErrGameState             = &Error{Kind: KindGameState}
	ErrCardsAlreadyRetrieved = &Error{Kind: KindCardsAlreadyRetrieved}
	ErrPlayerNotFound        = &Error{Kind: KindPlayerNotFound}
	ErrTableNotFound         = &Error{Kind: KindTableNotFound}
	ErrSerializationFailed   = &Error{Kind: KindSerializationFailed}
	ErrDuplicatePublicKeys   = &Error{Kind: KindDuplicatePublicKeys}
	ErrInvalidPlayerCount    = &Error{Kind: KindInvalidPlayerCount}
	ErrInvalidKey            = &Error{Kind: KindInvalidKey}
	ErrAlreadyInstantiated   = &Error{Kind: KindAlreadyInstantiated}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindStorage:
		if e.Err == nil {
			return "storage error"
		}
		return "storage error: " + e.Err.Error()
	case KindUnauthorized:
		return "Unauthorized"
	case KindGameState:
		return fmt.Sprintf("Game state error in method %s for table %d: got %s", e.Method, e.TableID, e.Phase)
	case KindCardsAlreadyRetrieved:
		if e.Phase != "" {
			return fmt.Sprintf("Cards already retrieved for table %d: %s", e.TableID, e.Phase)
		}
		return fmt.Sprintf("Cards already retrieved for table %d", e.TableID)
	case KindPlayerNotFound:
		return fmt.Sprintf("Player %s not found in table %d", e.PlayerID, e.TableID)
	case KindTableNotFound:
		return fmt.Sprintf("Table %d not found", e.TableID)
	case KindSerializationFailed:
		return fmt.Sprintf("Serialization error: %v", e.Err)
	case KindDuplicatePublicKeys:
		return "Duplicate public key"
	case KindInvalidPlayerCount:
		return fmt.Sprintf("Players invalid count: %d", e.Count)
	case KindInvalidKey:
		return fmt.Sprintf("Invalid secret key for table %d", e.TableID)
	case KindAlreadyInstantiated:
		return "Dealer already instantiated"
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of err, or 0 if err is not a dealer error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func storageError(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindStorage, Err: err}
}

func serializationError(err error) error {
	return &Error{Kind: KindSerializationFailed, Err: err}
}
