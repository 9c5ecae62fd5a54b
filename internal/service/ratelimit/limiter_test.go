package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesCapacity(t *testing.T) {
	l := New()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	if !l.Allow("k", 2, 0) {
		t.Fatal("first call should pass")
	}
	if !l.Allow("k", 2, 0) {
		t.Fatal("second call should pass")
	}
	if l.Allow("k", 2, 0) {
		t.Fatal("third call should be rejected")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("k", 1, 2) {
		t.Fatal("first call should pass")
	}
	if l.Allow("k", 1, 2) {
		t.Fatal("bucket should be empty")
	}

	// 2 tokens/s: one token is back after half a second.
	now = now.Add(500 * time.Millisecond)
	if !l.Allow("k", 1, 2) {
		t.Fatal("refilled token should pass")
	}
}

func TestAllowCapsAtCapacity(t *testing.T) {
	l := New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	if !l.Allow("k", 2, 1) {
		t.Fatal("first call should pass")
	}

	// A long idle period must not bank more than capacity.
	now = now.Add(time.Hour)
	for i := 0; i < 2; i++ {
		if !l.Allow("k", 2, 1) {
			t.Fatalf("call %d should pass after refill", i)
		}
	}
	if l.Allow("k", 2, 1) {
		t.Fatal("tokens above capacity should not accumulate")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	l := New()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	if !l.Allow("a", 1, 0) {
		t.Fatal("key a should pass")
	}
	if l.Allow("a", 1, 0) {
		t.Fatal("key a should be exhausted")
	}
	if !l.Allow("b", 1, 0) {
		t.Fatal("key b has its own bucket")
	}
}
