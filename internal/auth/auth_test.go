package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const audience = "pokerdealer"

func testPermit(signature, pubKey string) Permit {
	return Permit{
		Params: PermitParams{
			PermitName:    "dealer",
			AllowedTokens: []string{audience},
			ChainID:       "local-1",
			Permissions:   []string{"owner"},
		},
		Signature: Signature{
			PubKey:    PubKey{Type: "tendermint/PubKeySecp256k1", Value: pubKey},
			Signature: signature,
		},
	}
}

func TestHTTPValidator_ValidPermit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Permit.Signature.Signature == "good-sig" && req.Audience == audience {
			json.NewEncoder(w).Encode(validateResponse{Valid: true, PublicKey: "pk-alice"})
		} else {
			json.NewEncoder(w).Encode(validateResponse{Valid: false})
		}
	}))
	defer server.Close()

	validator := NewHTTPValidator(server.URL, "")

	identity, err := validator.Validate(context.Background(), testPermit("good-sig", "pk-alice"), audience)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if identity.PublicKey != "pk-alice" {
		t.Errorf("expected pk-alice, got %s", identity.PublicKey)
	}
}

func TestHTTPValidator_InvalidPermit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(validateResponse{Valid: false})
	}))
	defer server.Close()

	validator := NewHTTPValidator(server.URL, "")
	_, err := validator.Validate(context.Background(), testPermit("bad-sig", "pk"), audience)

	if !errors.Is(err, ErrInvalidPermit) {
		t.Errorf("expected ErrInvalidPermit, got %v", err)
	}
}

func TestHTTPValidator_ValidWithoutKeyIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(validateResponse{Valid: true})
	}))
	defer server.Close()

	_, err := NewHTTPValidator(server.URL, "").Validate(context.Background(), testPermit("sig", "pk"), audience)
	assert.ErrorIs(t, err, ErrInvalidPermit)
}

func TestHTTPValidator_RejectsLocallyWithoutCallingService(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	validator := NewHTTPValidator(server.URL, "")

	_, err := validator.Validate(context.Background(), testPermit("", "pk"), audience)
	assert.ErrorIs(t, err, ErrInvalidPermit, "empty signature")

	_, err = validator.Validate(context.Background(), testPermit("sig", "pk"), "some-other-dealer")
	assert.ErrorIs(t, err, ErrInvalidPermit, "wrong audience")

	assert.False(t, called)
}

func TestHTTPValidator_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrInvalidPermit},
		{"forbidden", http.StatusForbidden, ErrInvalidPermit},
		{"rate limited", http.StatusTooManyRequests, ErrUnavailable},
		{"server error", http.StatusInternalServerError, ErrUnavailable},
		{"bad gateway", http.StatusBadGateway, ErrUnavailable},
		{"service unavailable", http.StatusServiceUnavailable, ErrUnavailable},
		{"unexpected", http.StatusTeapot, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			validator := NewHTTPValidator(server.URL, "")
			_, err := validator.Validate(context.Background(), testPermit("sig", "pk"), audience)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestHTTPValidator_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		json.NewEncoder(w).Encode(validateResponse{Valid: true, PublicKey: "pk"})
	}))
	defer server.Close()

	validator := NewHTTPValidator(server.URL, "")
	_, err := validator.Validate(context.Background(), testPermit("sig", "pk"), audience)

	// Should timeout (500ms) and return ErrUnavailable
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on timeout, got %v", err)
	}
}

func TestHTTPValidator_AdminSecret(t *testing.T) {
	var receivedSecret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedSecret = r.Header.Get("X-Admin-Secret")
		json.NewEncoder(w).Encode(validateResponse{Valid: true, PublicKey: "pk"})
	}))
	defer server.Close()

	validator := NewHTTPValidator(server.URL, "my-secret")
	validator.Validate(context.Background(), testPermit("sig", "pk"), audience)

	if receivedSecret != "my-secret" {
		t.Errorf("expected admin secret 'my-secret', got '%s'", receivedSecret)
	}
}

func TestHTTPValidator_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	validator := NewHTTPValidator(server.URL, "")
	_, err := validator.Validate(context.Background(), testPermit("sig", "pk"), audience)

	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for malformed JSON, got %v", err)
	}
}

func TestHTTPValidator_NetworkError(t *testing.T) {
	validator := NewHTTPValidator("http://localhost:1", "")
	_, err := validator.Validate(context.Background(), testPermit("sig", "pk"), audience)

	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for network error, got %v", err)
	}
}

func TestStaticValidator(t *testing.T) {
	t.Parallel()

	validator := NewStaticValidator(map[string]string{"tok-alice": "pk-alice"})

	identity, err := validator.Validate(context.Background(), testPermit("tok-alice", "pk-alice"), audience)
	require.NoError(t, err)
	assert.Equal(t, "pk-alice", identity.PublicKey)

	_, err = validator.Validate(context.Background(), testPermit("tok-alice", "pk-bob"), audience)
	assert.ErrorIs(t, err, ErrInvalidPermit, "token bound to a different key")

	_, err = validator.Validate(context.Background(), testPermit("tok-unknown", "pk-alice"), audience)
	assert.ErrorIs(t, err, ErrInvalidPermit)

	_, err = validator.Validate(context.Background(), testPermit("tok-alice", "pk-alice"), "elsewhere")
	assert.ErrorIs(t, err, ErrInvalidPermit)
}

func TestNoopValidator(t *testing.T) {
	validator := NewNoopValidator()
	identity, err := validator.Validate(context.Background(), testPermit("", "pk-claimed"), "anything")
	if err != nil {
		t.Fatalf("noop validator should accept any claimed key: %v", err)
	}
	if identity.PublicKey != "pk-claimed" {
		t.Errorf("expected claimed key, got %s", identity.PublicKey)
	}

	_, err = validator.Validate(context.Background(), Permit{}, "anything")
	assert.ErrorIs(t, err, ErrInvalidPermit)
}

func TestSecretsEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, SecretsEqual("s3cret", "s3cret"))
	assert.False(t, SecretsEqual("s3cret", "s3cre"))
	assert.False(t, SecretsEqual("", ""), "empty secret never matches")
}
