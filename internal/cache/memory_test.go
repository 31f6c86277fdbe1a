package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func newTestMemory(maxSize int, ttl time.Duration) (*Memory, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(maxSize, ttl)
	m.clock = func() time.Time { return now }
	return m, &now
}

func TestStoreThenLookup(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMemory(10, time.Hour)

	m.Store(ctx, "hello there", []byte("mp3-bytes"))
	got, ok := m.Lookup(ctx, "hello there")
	if !ok {
		t.Fatalf("expected hit immediately after store")
	}
	if !bytes.Equal(got, []byte("mp3-bytes")) {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestLookupMiss(t *testing.T) {
	m, _ := newTestMemory(10, time.Hour)
	if _, ok := m.Lookup(context.Background(), "never stored"); ok {
		t.Fatalf("expected miss for absent key")
	}
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	m, now := newTestMemory(10, time.Hour)

	m.Store(ctx, "greeting", []byte("audio"))

	*now = now.Add(59 * time.Minute)
	if _, ok := m.Lookup(ctx, "greeting"); !ok {
		t.Fatalf("entry expired early")
	}

	*now = now.Add(time.Minute)
	if _, ok := m.Lookup(ctx, "greeting"); ok {
		t.Fatalf("entry should be absent after TTL")
	}
	if m.Len() != 0 {
		t.Fatalf("expired entry should be purged on access, have %d", m.Len())
	}
}

func TestEvictsOldestAtCapacity(t *testing.T) {
	ctx := context.Background()
	m, now := newTestMemory(3, time.Hour)

	m.Store(ctx, "first", []byte("1"))
	*now = now.Add(time.Second)
	m.Store(ctx, "second", []byte("2"))
	*now = now.Add(time.Second)
	m.Store(ctx, "third", []byte("3"))
	*now = now.Add(time.Second)
	m.Store(ctx, "fourth", []byte("4"))

	if _, ok := m.Lookup(ctx, "first"); ok {
		t.Fatalf("oldest entry should have been evicted")
	}
	for _, text := range []string{"second", "third", "fourth"} {
		if _, ok := m.Lookup(ctx, text); !ok {
			t.Fatalf("entry %q should have survived eviction", text)
		}
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 live entries, have %d", m.Len())
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("some reply text")
	b := Fingerprint("some reply text")
	if a != b {
		t.Fatalf("fingerprint not deterministic: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("expected fixed-length hex fingerprint, got %d chars", len(a))
	}
	if Fingerprint("other text") == a {
		t.Fatalf("distinct texts must not collide on trivial input")
	}
}
