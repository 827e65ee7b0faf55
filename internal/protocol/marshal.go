package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnknownMessageType is returned for payloads without a known type.
	ErrUnknownMessageType = errors.New("protocol: unknown message type")

	// ErrAmbiguousMessage is returned when a tagged union does not have
	// exactly one member set.
	ErrAmbiguousMessage = errors.New("protocol: message must set exactly one variant")
)

// Marshal stamps a response payload with its type tag and encodes it.
func Marshal(v any) ([]byte, error) {
	switch msg := v.(type) {
	case *StartGameResponse:
		msg.Type = TypeStartGame
	case *LastHandLog:
		msg.Type = TypeLastHand
	case *CommunityCardsResponse:
		msg.Type = TypeCommunityCards
	case *ShowdownResponse:
		msg.Type = TypeShowdown
	case *Error:
		msg.Type = TypeError
	default:
		return nil, ErrUnknownMessageType
	}
	return json.Marshal(v)
}

// Unmarshal decodes a tagged response payload into the matching struct.
func Unmarshal(data []byte) (any, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("protocol: decode type: %w", err)
	}

	var v any
	switch tag.Type {
	case TypeStartGame:
		v = &StartGameResponse{}
	case TypeLastHand:
		v = &LastHandLog{}
	case TypeCommunityCards:
		v = &CommunityCardsResponse{}
	case TypeShowdown:
		v = &ShowdownResponse{}
	case TypeError:
		v = &Error{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, tag.Type)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("protocol: decode %s: %w", tag.Type, err)
	}
	return v, nil
}

func oneOf(variants map[string]bool) (string, error) {
	var set []string
	for name, ok := range variants {
		if ok {
			set = append(set, name)
		}
	}
	if len(set) != 1 {
		sort.Strings(set)
		return "", fmt.Errorf("%w: got [%s]", ErrAmbiguousMessage, strings.Join(set, ", "))
	}
	return set[0], nil
}

// Uint64 is a uint64 that travels as a decimal string, since many JSON
// consumers cannot hold 64-bit integers exactly.
type Uint64 uint64

func (u Uint64) String() string {
	return strconv.FormatUint(uint64(u), 10)
}

func (u Uint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *Uint64) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("protocol: u64 must be a decimal string: %w", err)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("protocol: invalid u64 %q: %w", s, err)
	}
	*u = Uint64(n)
	return nil
}
