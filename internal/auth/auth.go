// Package auth verifies who is calling the dealer. Operators are checked
// against a shared secret; viewers prove ownership of a public key with a
// signed query permit that an external service verifies.
package auth

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"time"
)

var (
	// ErrInvalidPermit indicates the permit is definitively invalid.
	ErrInvalidPermit = errors.New("auth: invalid permit")

	// ErrUnavailable indicates the permit service is unreachable or unavailable.
	// Callers may choose to fail open (allow) or fail closed (reject).
	ErrUnavailable = errors.New("auth: unavailable")
)

// PubKey is the signer's public key as carried in a permit signature.
type PubKey struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Signature is the permit signature.
type Signature struct {
	PubKey    PubKey `json:"pub_key"`
	Signature string `json:"signature"`
}

// PermitParams are the signed fields of a permit.
type PermitParams struct {
	PermitName    string   `json:"permit_name"`
	AllowedTokens []string `json:"allowed_tokens"`
	ChainID       string   `json:"chain_id"`
	Permissions   []string `json:"permissions"`
}

// Permit is an offline-signed statement that lets the holder of a key read
// private data from the listed audiences.
type Permit struct {
	Params    PermitParams `json:"params"`
	Signature Signature    `json:"signature"`
}

// Allows reports whether the permit names audience among its allowed tokens.
func (p Permit) Allows(audience string) bool {
	return slices.Contains(p.Params.AllowedTokens, audience)
}

// Identity is a verified viewer.
type Identity struct {
	PublicKey string `json:"public_key"`
}

// Validator verifies viewer permits.
type Validator interface {
	// Validate checks a permit for the given audience and returns the
	// verified identity.
	// Returns:
	//   - (*Identity, nil) if the permit is valid
	//   - (nil, ErrInvalidPermit) if the permit is definitively invalid
	//   - (nil, ErrUnavailable) if the permit service is unavailable
	Validate(ctx context.Context, permit Permit, audience string) (*Identity, error)
}

// HTTPValidator verifies permits via HTTP callback to an external service.
type HTTPValidator struct {
	url         string
	client      *http.Client
	adminSecret string
}

// NewHTTPValidator creates a validator that calls an external HTTP endpoint.
func NewHTTPValidator(url string, adminSecret string) *HTTPValidator {
	return &HTTPValidator{
		url:         url,
		adminSecret: adminSecret,
		client: &http.Client{
			Timeout: 500 * time.Millisecond,
		},
	}
}

type validateRequest struct {
	Permit   Permit `json:"permit"`
	Audience string `json:"audience"`
}

type validateResponse struct {
	Valid     bool   `json:"valid"`
	PublicKey string `json:"public_key,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (v *HTTPValidator) Validate(ctx context.Context, permit Permit, audience string) (*Identity, error) {
	if permit.Signature.Signature == "" || !permit.Allows(audience) {
		return nil, ErrInvalidPermit
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	reqBody, err := json.Marshal(validateRequest{Permit: permit, Audience: audience})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if v.adminSecret != "" {
		req.Header.Set("X-Admin-Secret", v.adminSecret)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrInvalidPermit
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	// Limit response body to 1MB to avoid pathological responses
	limitedReader := io.LimitReader(resp.Body, 1<<20)

	var authResp validateResponse
	if err := json.NewDecoder(limitedReader).Decode(&authResp); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrUnavailable, err)
	}

	if !authResp.Valid || authResp.PublicKey == "" {
		return nil, ErrInvalidPermit
	}

	return &Identity{PublicKey: authResp.PublicKey}, nil
}

// StaticValidator accepts permits whose signature is one of a fixed set of
// tokens, each bound to a public key. Intended for development and tests.
type StaticValidator struct {
	keys map[string]string
}

// NewStaticValidator creates a validator from a signature to public key map.
func NewStaticValidator(keys map[string]string) *StaticValidator {
	return &StaticValidator{keys: maps.Clone(keys)}
}

func (v *StaticValidator) Validate(_ context.Context, permit Permit, audience string) (*Identity, error) {
	if !permit.Allows(audience) {
		return nil, ErrInvalidPermit
	}
	key, ok := v.keys[permit.Signature.Signature]
	if !ok || key != permit.Signature.PubKey.Value {
		return nil, ErrInvalidPermit
	}
	return &Identity{PublicKey: key}, nil
}

// NoopValidator trusts the public key claimed by the permit (dev mode).
type NoopValidator struct{}

// NewNoopValidator creates a validator that performs no verification.
func NewNoopValidator() *NoopValidator {
	return &NoopValidator{}
}

func (v *NoopValidator) Validate(_ context.Context, permit Permit, _ string) (*Identity, error) {
	if permit.Signature.PubKey.Value == "" {
		return nil, ErrInvalidPermit
	}
	return &Identity{PublicKey: permit.Signature.PubKey.Value}, nil
}

// SecretsEqual compares an expected operator secret against a presented one
// in constant time. An empty expected secret never matches.
func SecretsEqual(want, got string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
