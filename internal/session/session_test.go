package session

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"server/internal/domain"
	"server/internal/store"

	"github.com/rs/zerolog"
)

func newTestManager(t *testing.T) (*Manager, *store.Memory) {
	t.Helper()
	kv := store.NewMemory()
	m := NewManager(kv, zerolog.New(io.Discard))
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return m, kv
}

func TestGuestLedgerDefaults(t *testing.T) {
	m, _ := newTestManager(t)
	l := m.Ledger()
	if l.Used != 0 || l.Ceiling != domain.GuestMinuteLimit {
		t.Fatalf("guest ledger = %+v, want used=0 ceiling=%d", l, domain.GuestMinuteLimit)
	}
	if m.Account() != nil {
		t.Fatalf("Account() should be nil for guests")
	}
}

func TestGuestChargePersists(t *testing.T) {
	m, kv := newTestManager(t)
	if err := m.Charge(context.Background(), 10); err != nil {
		t.Fatalf("Charge() error: %v", err)
	}
	l := m.Ledger()
	if l.Used != 10 {
		t.Fatalf("guest used = %v, want 10", l.Used)
	}
	if got := l.Remaining(); got != 20 {
		t.Fatalf("Remaining() = %v, want 20", got)
	}
	raw, ok, err := kv.Get(context.Background(), "guest_time_used")
	if err != nil || !ok {
		t.Fatalf("guest usage not persisted: ok=%v err=%v", ok, err)
	}
	if raw != "10" {
		t.Fatalf("persisted guest usage = %q, want \"10\"", raw)
	}
}

func TestLoginCreatesFreeAccount(t *testing.T) {
	m, kv := newTestManager(t)
	acct, err := m.Login(context.Background(), "sam@example.com")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if acct.Name != "sam" {
		t.Fatalf("Name = %q, want derived \"sam\"", acct.Name)
	}
	if acct.Plan != domain.PlanTierFree || acct.TimeLimit != domain.SignupMinuteLimit {
		t.Fatalf("account = %+v, want free plan with %d minute limit", acct, domain.SignupMinuteLimit)
	}
	raw, ok, _ := kv.Get(context.Background(), "transcription_user")
	if !ok {
		t.Fatalf("account not persisted")
	}
	var stored domain.Account
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("persisted account not valid JSON: %v", err)
	}
	if stored.ID != acct.ID {
		t.Fatalf("stored ID = %q, want %q", stored.ID, acct.ID)
	}
}

func TestAccountChargeDoesNotTouchGuestCounter(t *testing.T) {
	m, kv := newTestManager(t)
	if err := m.Charge(context.Background(), 5); err != nil {
		t.Fatalf("Charge() error: %v", err)
	}
	if _, err := m.Signup(context.Background(), "Pat", "pat@example.com"); err != nil {
		t.Fatalf("Signup() error: %v", err)
	}
	if err := m.Charge(context.Background(), 30); err != nil {
		t.Fatalf("Charge() error: %v", err)
	}
	l := m.Ledger()
	if l.Used != 30 || l.Ceiling != domain.SignupMinuteLimit {
		t.Fatalf("account ledger = %+v, want used=30 ceiling=%d", l, domain.SignupMinuteLimit)
	}
	raw, _, _ := kv.Get(context.Background(), "guest_time_used")
	if raw != "5" {
		t.Fatalf("guest counter = %q after account charge, want untouched \"5\"", raw)
	}
}

func TestLogoutFallsBackToGuest(t *testing.T) {
	m, kv := newTestManager(t)
	if err := m.Charge(context.Background(), 12); err != nil {
		t.Fatalf("Charge() error: %v", err)
	}
	if _, err := m.Login(context.Background(), "x@example.com"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if m.Account() != nil {
		t.Fatalf("Account() should be nil after logout")
	}
	l := m.Ledger()
	if l.Used != 12 || l.Ceiling != domain.GuestMinuteLimit {
		t.Fatalf("post-logout ledger = %+v, want guest counter restored", l)
	}
	if _, ok, _ := kv.Get(context.Background(), "transcription_user"); ok {
		t.Fatalf("account key should be deleted on logout")
	}
}

func TestLoadDiscardsMalformedAccount(t *testing.T) {
	kv := store.NewMemory()
	_ = kv.Set(context.Background(), "transcription_user", "{not json")
	_ = kv.Set(context.Background(), "guest_time_used", "nope")
	m := NewManager(kv, zerolog.New(io.Discard))
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if m.Account() != nil {
		t.Fatalf("malformed account should be discarded")
	}
	if l := m.Ledger(); l.Used != 0 {
		t.Fatalf("malformed guest usage should reset to 0, got %v", l.Used)
	}
}

func TestResetGuestUsage(t *testing.T) {
	m, kv := newTestManager(t)
	if err := m.Charge(context.Background(), 12); err != nil {
		t.Fatalf("Charge() error: %v", err)
	}
	if err := m.ResetGuestUsage(context.Background()); err != nil {
		t.Fatalf("ResetGuestUsage() error: %v", err)
	}
	if used := m.Ledger().Used; used != 0 {
		t.Fatalf("guest used = %v after reset, want 0", used)
	}
	if _, ok, _ := kv.Get(context.Background(), "guest_time_used"); ok {
		t.Fatalf("guest usage key should be deleted")
	}
}
