package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/middleware"
)

type signupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type loginRequest struct {
	Email string `json:"email"`
}

const tokenTTL = 7 * 24 * time.Hour

func (a *App) mintToken(acct domain.Account) (string, error) {
	return middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:    acct.ID,
		Email:  acct.Email,
		Plan:   string(acct.Plan),
		Exp:    time.Now().Add(tokenTTL).Unix(),
		Issuer: "transcribe-gateway",
	})
}

func (a *App) authResponse(w http.ResponseWriter, acct domain.Account) {
	token, err := a.mintToken(acct)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to issue token")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"account": acct,
		"token":   token,
		"quota":   a.ledgerView(),
	})
}

// Signup mints a free-tier account. There is no credential store; any email
// is accepted and becomes the active session identity.
func (a *App) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "email required")
		return
	}
	if req.Name == "" {
		req.Name = domain.DisplayNameFromEmail(req.Email)
	}
	acct, err := a.Session.Signup(r.Context(), req.Name, req.Email)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to create account")
		return
	}
	a.authResponse(w, acct)
}

// Login accepts any email and mints a fresh free-tier account, replacing
// whatever account was active before.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "email required")
		return
	}
	acct, err := a.Session.Login(r.Context(), req.Email)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to log in")
		return
	}
	a.authResponse(w, acct)
}

// Logout clears the account; the guest usage counter becomes the active
// ledger again.
func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.Session.Logout(r.Context()); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to log out")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"quota": a.ledgerView()})
}

// Me returns the active identity and its quota. Guests get a null account.
// A bearer token whose subject no longer matches the stored account (logout,
// or a different login since the token was minted) is flagged so clients can
// drop it.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"account":  a.Session.Account(),
		"quota":    a.ledgerView(),
		"language": middleware.LanguageFromContext(r.Context()),
	}
	if sub := a.currentUserID(r); sub != "" {
		acct := a.Session.Account()
		if acct == nil || acct.ID != sub {
			payload["stale_token"] = true
		}
	}
	a.json(w, http.StatusOK, payload)
}
