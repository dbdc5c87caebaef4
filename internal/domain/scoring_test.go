package domain

import (
	"testing"
	"time"
)

func TestFlatScoring(t *testing.T) {
	if got := FlatScoring(true, 14*time.Second, 15*time.Second); got != 1 {
		t.Fatalf("expected 1 point for correct answer, got %d", got)
	}
	if got := FlatScoring(false, time.Second, 15*time.Second); got != 0 {
		t.Fatalf("expected 0 points for wrong answer, got %d", got)
	}
}

func TestTimeBonusScoring(t *testing.T) {
	if got := TimeBonusScoring(false, time.Second, 15*time.Second); got != 0 {
		t.Fatalf("expected 0 for wrong answer, got %d", got)
	}

	instant := TimeBonusScoring(true, 0, 15*time.Second)
	if instant != 100 {
		t.Fatalf("expected full bonus for instant answer, got %d", instant)
	}

	slow := TimeBonusScoring(true, 20*time.Second, 15*time.Second)
	if slow != 10 {
		t.Fatalf("expected floor of 10 past the limit, got %d", slow)
	}

	mid := TimeBonusScoring(true, 7500*time.Millisecond, 15*time.Second)
	if mid <= slow || mid >= instant {
		t.Fatalf("expected mid-round answer between floor and max, got %d", mid)
	}
}

func TestScoringByName(t *testing.T) {
	if got := ScoringByName("time-bonus")(true, 0, 15*time.Second); got != 100 {
		t.Fatalf("expected time-bonus policy, got %d points", got)
	}
	if got := ScoringByName("")(true, 0, 15*time.Second); got != 1 {
		t.Fatalf("expected flat default, got %d points", got)
	}
}
