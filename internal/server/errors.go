package server

import (
	"errors"
	"net/http"

	"github.com/lox/pokerdealer/internal/dealer"
	"github.com/lox/pokerdealer/internal/protocol"
	"github.com/lox/pokerdealer/internal/store"
)

var (
	errInvalidMessage   = errors.New("invalid message")
	errMethodNotAllowed = errors.New("method not allowed")
	errNotAuthenticated = errors.New("connection is not authenticated")
)

var kindStatus = map[dealer.Kind]int{
	dealer.KindUnauthorized:          http.StatusUnauthorized,
	dealer.KindTableNotFound:         http.StatusNotFound,
	dealer.KindPlayerNotFound:        http.StatusNotFound,
	dealer.KindCardsAlreadyRetrieved: http.StatusConflict,
	dealer.KindAlreadyInstantiated:   http.StatusConflict,
	dealer.KindGameState:             http.StatusBadRequest,
	dealer.KindInvalidPlayerCount:    http.StatusBadRequest,
	dealer.KindDuplicatePublicKeys:   http.StatusBadRequest,
	dealer.KindInvalidKey:            http.StatusForbidden,
	dealer.KindStorage:               http.StatusInternalServerError,
	dealer.KindSerializationFailed:   http.StatusInternalServerError,
}

// classifyError maps an engine or transport error to an HTTP status and the
// error payload sent to the client.
func classifyError(err error) (int, *protocol.Error) {
	if errors.Is(err, store.ErrNotInstantiated) {
		return http.StatusServiceUnavailable, &protocol.Error{Code: "not_instantiated", Message: "Dealer not instantiated"}
	}
	if kind := dealer.KindOf(err); kind != 0 {
		status, ok := kindStatus[kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		message := err.Error()
		if status >= http.StatusInternalServerError {
			message = "internal error"
		}
		return status, &protocol.Error{Code: kind.String(), Message: message}
	}

	switch {
	case errors.Is(err, protocol.ErrAmbiguousMessage), errors.Is(err, errInvalidMessage):
		return http.StatusBadRequest, &protocol.Error{Code: "invalid_message", Message: err.Error()}
	case errors.Is(err, errNotAuthenticated):
		return http.StatusUnauthorized, &protocol.Error{Code: "not_authenticated", Message: err.Error()}
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed, &protocol.Error{Code: "method_not_allowed", Message: err.Error()}
	default:
		return http.StatusInternalServerError, &protocol.Error{Code: "internal", Message: "internal error"}
	}
}
