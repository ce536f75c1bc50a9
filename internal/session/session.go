// Package session owns the active identity and its quota ledger. It replaces
// the ambient storage access the old front ends scattered through handlers
// with one context object: state is loaded once at startup and written back
// on every change.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/quota"
	"server/internal/store"

	"github.com/google/uuid"
)

// Storage keys, kept byte-compatible with the records existing front ends
// persisted.
const (
	accountKey   = "transcription_user"
	guestTimeKey = "guest_time_used"
)

// Manager holds the active identity: either a signed-in account or the
// anonymous guest counter, never both. Safe for concurrent use.
type Manager struct {
	mu           sync.Mutex
	kv           store.KV
	logger       infra.Logger
	account      *domain.Account
	guestMinutes float64
}

// NewManager wires the manager to its backing store. Call Load before use.
func NewManager(kv store.KV, logger infra.Logger) *Manager {
	return &Manager{kv: kv, logger: logger}
}

// Load reads persisted state. A malformed stored account is dropped with a
// warning and the session falls back to guest accounting; a malformed guest
// counter resets to zero.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.kv.Get(ctx, accountKey)
	if err != nil {
		return fmt.Errorf("session: load account: %w", err)
	}
	if ok {
		var acct domain.Account
		if err := json.Unmarshal([]byte(raw), &acct); err != nil || acct.ID == "" {
			m.logger.Warn().Err(err).Msg("session: discarding malformed stored account")
		} else {
			m.account = &acct
		}
	}

	raw, ok, err = m.kv.Get(ctx, guestTimeKey)
	if err != nil {
		return fmt.Errorf("session: load guest usage: %w", err)
	}
	if ok {
		minutes, err := strconv.ParseFloat(raw, 64)
		if err != nil || minutes < 0 {
			m.logger.Warn().Str("value", raw).Msg("session: resetting malformed guest usage")
			minutes = 0
		}
		m.guestMinutes = minutes
	}
	return nil
}

// Account returns a copy of the signed-in account, or nil for guests.
func (m *Manager) Account() *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		return nil
	}
	acct := *m.account
	return &acct
}

// Ledger snapshots the quota state for whichever identity is active.
func (m *Manager) Ledger() quota.Ledger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgerLocked()
}

func (m *Manager) ledgerLocked() quota.Ledger {
	if m.account != nil {
		return quota.Ledger{Used: m.account.TimeUsed, Ceiling: m.account.TimeLimit}
	}
	return quota.Ledger{Used: m.guestMinutes, Ceiling: domain.GuestMinuteLimit}
}

// Login mints a free-tier account for the email. No credential verification
// happens; this mirrors the mocked auth flow.
func (m *Manager) Login(ctx context.Context, email string) (domain.Account, error) {
	return m.createAccount(ctx, domain.DisplayNameFromEmail(email), email)
}

// Signup mints a free-tier account with an explicit display name.
func (m *Manager) Signup(ctx context.Context, name, email string) (domain.Account, error) {
	return m.createAccount(ctx, name, email)
}

func (m *Manager) createAccount(ctx context.Context, name, email string) (domain.Account, error) {
	acct := domain.Account{
		ID:        "user_" + uuid.NewString(),
		Email:     email,
		Name:      name,
		Plan:      domain.PlanTierFree,
		TimeUsed:  0,
		TimeLimit: domain.SignupMinuteLimit,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveAccountLocked(ctx, &acct); err != nil {
		return domain.Account{}, err
	}
	m.account = &acct
	return acct, nil
}

// Logout clears the stored account. The guest counter is untouched and
// becomes the active ledger again.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.kv.Delete(ctx, accountKey); err != nil {
		return fmt.Errorf("session: clear account: %w", err)
	}
	m.account = nil
	return nil
}

// Charge records consumed minutes against the active identity and persists
// the new total. Called only after a job completes; failed jobs are never
// charged.
func (m *Manager) Charge(ctx context.Context, minutes float64) error {
	if minutes < 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.account != nil {
		acct := *m.account
		acct.TimeUsed = quota.Ledger{Used: acct.TimeUsed, Ceiling: acct.TimeLimit}.Charged(minutes).Used
		if err := m.saveAccountLocked(ctx, &acct); err != nil {
			return err
		}
		m.account = &acct
		return nil
	}

	m.guestMinutes += minutes
	value := strconv.FormatFloat(m.guestMinutes, 'f', -1, 64)
	if err := m.kv.Set(ctx, guestTimeKey, value); err != nil {
		m.guestMinutes -= minutes
		return fmt.Errorf("session: save guest usage: %w", err)
	}
	return nil
}

// ResetGuestUsage zeroes the guest counter. Maintenance only; the gateway
// itself never forgets consumed guest minutes.
func (m *Manager) ResetGuestUsage(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.kv.Delete(ctx, guestTimeKey); err != nil {
		return fmt.Errorf("session: reset guest usage: %w", err)
	}
	m.guestMinutes = 0
	return nil
}

func (m *Manager) saveAccountLocked(ctx context.Context, acct *domain.Account) error {
	raw, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("session: encode account: %w", err)
	}
	if err := m.kv.Set(ctx, accountKey, string(raw)); err != nil {
		return fmt.Errorf("session: save account: %w", err)
	}
	return nil
}
