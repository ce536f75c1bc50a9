package quota

import "testing"

func TestCanAcceptBoundary(t *testing.T) {
	l := Ledger{Used: 20, Ceiling: 30}
	if !l.CanAccept(10) {
		t.Fatalf("CanAccept(10) with used=20 ceiling=30 should accept the exact boundary")
	}
	if l.CanAccept(10.1) {
		t.Fatalf("CanAccept(10.1) should reject past the ceiling")
	}
}

func TestCanAcceptGuestScenario(t *testing.T) {
	l := Ledger{Used: 25, Ceiling: 30}
	if l.CanAccept(10) {
		t.Fatalf("guest at 25/30 must not accept a 10 minute file")
	}
	if got := l.Remaining(); got != 5 {
		t.Fatalf("Remaining() = %v, want 5", got)
	}
}

func TestChargedAccumulates(t *testing.T) {
	l := Ledger{Used: 0, Ceiling: 30}
	l = l.Charged(10)
	if l.Used != 10 {
		t.Fatalf("Used = %v after charging 10, want 10", l.Used)
	}
	if got := l.Remaining(); got != 20 {
		t.Fatalf("Remaining() = %v, want 20", got)
	}
}

func TestChargedNeverDecreases(t *testing.T) {
	l := Ledger{Used: 12, Ceiling: 30}
	if got := l.Charged(-5).Used; got != 12 {
		t.Fatalf("Charged(-5) changed usage to %v, want unchanged 12", got)
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	l := Ledger{Used: 45, Ceiling: 30}
	if got := l.Remaining(); got != 0 {
		t.Fatalf("Remaining() = %v, want 0 when over ceiling", got)
	}
}

func TestUsageFraction(t *testing.T) {
	tests := []struct {
		name string
		l    Ledger
		want float64
	}{
		{"half", Ledger{Used: 15, Ceiling: 30}, 0.5},
		{"over", Ledger{Used: 60, Ceiling: 30}, 1},
		{"zero ceiling", Ledger{Used: 0, Ceiling: 0}, 1},
	}
	for _, tt := range tests {
		if got := tt.l.UsageFraction(); got != tt.want {
			t.Fatalf("%s: UsageFraction() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{0, "0h 0m"},
		{5, "0h 5m"},
		{60, "1h 0m"},
		{185, "3h 5m"},
		{29.6, "0h 30m"},
		{-4, "0h 0m"},
	}
	for _, tt := range tests {
		if got := FormatMinutes(tt.minutes); got != tt.want {
			t.Fatalf("FormatMinutes(%v) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}
