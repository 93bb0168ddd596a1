package session

import (
	"testing"
	"time"

	"google.golang.org/genai"
)

func testClock() (func() time.Time, func(time.Duration)) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	return func() time.Time { return now },
		func(d time.Duration) { now = now.Add(d) }
}

func TestStoreCreateAndGet(t *testing.T) {
	clock, _ := testClock()
	store := NewWithClock(30*time.Minute, clock)

	id := store.Create(KindSimple, []*genai.Content{
		genai.NewContentFromText("olá", genai.RoleUser),
	})

	if id == "" {
		t.Fatal("expected a session id")
	}

	sess, ok := store.Get(id)
	if !ok {
		t.Fatal("expected session to exist")
	}

	if sess.Kind != KindSimple {
		t.Errorf("kind = %q, want %q", sess.Kind, KindSimple)
	}

	if len(sess.History) != 1 {
		t.Errorf("history length = %d, want 1", len(sess.History))
	}

	if sess.MessageCount != 0 {
		t.Errorf("message count = %d, want 0", sess.MessageCount)
	}
}

func TestStoreGetMissing(t *testing.T) {
	clock, _ := testClock()
	store := NewWithClock(30*time.Minute, clock)

	if _, ok := store.Get("no-such-session"); ok {
		t.Error("expected missing session to report absent")
	}
}

func TestStoreExpiry(t *testing.T) {
	clock, advance := testClock()
	store := NewWithClock(30*time.Minute, clock)

	id := store.Create(KindEmbedding, nil)

	advance(30 * time.Minute)

	if _, ok := store.Get(id); ok {
		t.Error("expected session to expire exactly at the TTL")
	}

	if store.Count() != 0 {
		t.Errorf("count = %d, want 0", store.Count())
	}
}

func TestStoreGetRefreshesExpiry(t *testing.T) {
	clock, advance := testClock()
	store := NewWithClock(30*time.Minute, clock)

	id := store.Create(KindSimple, nil)

	// Access just before the TTL, then wait almost another full TTL.
	advance(29 * time.Minute)

	if _, ok := store.Get(id); !ok {
		t.Fatal("expected session to still be alive")
	}

	advance(29 * time.Minute)

	if _, ok := store.Get(id); !ok {
		t.Error("expected access to have refreshed the TTL")
	}
}

func TestStoreAppendGrowsHistory(t *testing.T) {
	clock, _ := testClock()
	store := NewWithClock(30*time.Minute, clock)

	id := store.Create(KindSimple, []*genai.Content{
		genai.NewContentFromText("primeira", genai.RoleUser),
	})

	store.Append(id,
		genai.NewContentFromText("resposta", genai.RoleModel),
		genai.NewContentFromText("segunda", genai.RoleUser),
	)

	sess, ok := store.Get(id)
	if !ok {
		t.Fatal("expected session to exist")
	}

	if len(sess.History) != 3 {
		t.Errorf("history length = %d, want 3", len(sess.History))
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	clock, _ := testClock()
	store := NewWithClock(30*time.Minute, clock)

	id := store.Create(KindSimple, []*genai.Content{
		genai.NewContentFromText("original", genai.RoleUser),
	})

	sess, _ := store.Get(id)
	_ = append(sess.History, genai.NewContentFromText("intruso", genai.RoleUser))

	stored, _ := store.Get(id)
	if len(stored.History) != 1 {
		t.Errorf("stored history length = %d, want 1", len(stored.History))
	}
}

func TestStoreTouchIncrement(t *testing.T) {
	clock, _ := testClock()
	store := NewWithClock(30*time.Minute, clock)

	id := store.Create(KindSimple, nil)

	store.TouchIncrement(id)
	store.TouchIncrement(id)
	store.TouchIncrement("missing")

	sess, _ := store.Get(id)
	if sess.MessageCount != 2 {
		t.Errorf("message count = %d, want 2", sess.MessageCount)
	}
}

func TestStoreDelete(t *testing.T) {
	clock, _ := testClock()
	store := NewWithClock(30*time.Minute, clock)

	id := store.Create(KindSimple, nil)

	if !store.Delete(id) {
		t.Error("expected delete of existing session to report true")
	}

	if store.Delete(id) {
		t.Error("expected second delete to report false")
	}

	if _, ok := store.Get(id); ok {
		t.Error("expected deleted session to be gone")
	}
}

func TestStoreCountSweeps(t *testing.T) {
	clock, advance := testClock()
	store := NewWithClock(30*time.Minute, clock)

	store.Create(KindSimple, nil)
	advance(10 * time.Minute)
	fresh := store.Create(KindEmbedding, nil)

	advance(25 * time.Minute)

	// The first session is 35 minutes stale, the second 25.
	if got := store.Count(); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}

	if _, ok := store.Get(fresh); !ok {
		t.Error("expected the fresh session to survive the sweep")
	}
}

func TestStoreAcquire(t *testing.T) {
	clock, _ := testClock()
	store := NewWithClock(30*time.Minute, clock)

	id := store.Create(KindSimple, nil)

	release, ok := store.Acquire(id)
	if !ok {
		t.Fatal("expected acquire of existing session to succeed")
	}

	done := make(chan struct{})

	go func() {
		second, ok := store.Acquire(id)
		if !ok {
			t.Error("expected second acquire to succeed once released")
		} else {
			second()
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second acquire should block until release")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed")
	}
}

func TestStoreAcquireMissing(t *testing.T) {
	clock, _ := testClock()
	store := NewWithClock(30*time.Minute, clock)

	if _, ok := store.Acquire("missing"); ok {
		t.Error("expected acquire of missing session to report false")
	}
}

func TestStoreInfoFor(t *testing.T) {
	clock, _ := testClock()
	store := NewWithClock(30*time.Minute, clock)

	id := store.Create(KindEmbedding, nil)
	store.TouchIncrement(id)

	info, ok := store.InfoFor(id)
	if !ok {
		t.Fatal("expected info for existing session")
	}

	if info.SessionID != id {
		t.Errorf("session id = %q, want %q", info.SessionID, id)
	}

	if info.AgentType != "embedding" {
		t.Errorf("agent type = %q, want %q", info.AgentType, "embedding")
	}

	if info.MessageCount != 1 {
		t.Errorf("message count = %d, want 1", info.MessageCount)
	}

	if info.CreatedAt != "2025-06-01T12:00:00Z" {
		t.Errorf("created at = %q", info.CreatedAt)
	}
}
