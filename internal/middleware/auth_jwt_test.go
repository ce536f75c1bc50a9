package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"server/internal/domain"
)

func TestOptionalAuthPassesGuestsThrough(t *testing.T) {
	var userID string
	h := OptionalAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = UserIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for guest", rec.Code)
	}
	if userID != "" {
		t.Fatalf("guest request carried user id %q", userID)
	}
}

func TestOptionalAuthAttachesIdentity(t *testing.T) {
	token, err := SignJWT("secret", TokenClaims{Sub: "user_1", Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	var userID string
	h := OptionalAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = UserIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if userID != "user_1" {
		t.Fatalf("user id = %q, want user_1", userID)
	}
}

func TestOptionalAuthRejectsBadToken(t *testing.T) {
	h := OptionalAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run for a bad token")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestVerifyJWTExpired(t *testing.T) {
	token, _ := SignJWT("secret", TokenClaims{Sub: "user_1", Exp: time.Now().Add(-time.Minute).Unix()})
	if _, err := VerifyJWT("secret", token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expired token error = %v, want ErrUnauthorized", err)
	}
}

func TestVerifyJWTWrongSecret(t *testing.T) {
	token, _ := SignJWT("secret", TokenClaims{Sub: "user_1", Exp: time.Now().Add(time.Hour).Unix()})
	if _, err := VerifyJWT("other", token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("forged token error = %v, want ErrUnauthorized", err)
	}
}
