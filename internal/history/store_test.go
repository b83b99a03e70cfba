package history

import (
	"context"
	"testing"

	"github.com/askdocs/askdocs/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestAppendAndRecent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	msgs := []struct {
		role    Role
		content string
	}{
		{RoleUser, "What is the Q1 budget?"},
		{RoleAssistant, "The Q1 budget is $500."},
		{RoleUser, "And Q2?"},
	}
	for _, m := range msgs {
		if _, err := store.Append(ctx, "sess-1", m.role, m.content); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := store.Recent(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	// Oldest first.
	if got[0].Content != "What is the Q1 budget?" || got[2].Content != "And Q2?" {
		t.Errorf("wrong order: %q ... %q", got[0].Content, got[2].Content)
	}
	if got[1].Role != RoleAssistant {
		t.Errorf("expected assistant role, got %q", got[1].Role)
	}
}

func TestRecentBoundedWindow(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if _, err := store.Append(ctx, "sess-1", RoleUser, string(rune('a'+i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := store.Recent(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("expected 10 messages, got %d", len(got))
	}
	// The window keeps the newest 10, ordered oldest-first.
	if got[0].Content != "f" || got[9].Content != "o" {
		t.Errorf("unexpected window: first=%q last=%q", got[0].Content, got[9].Content)
	}
}

func TestRecentIdempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Append(ctx, "sess-1", RoleUser, "hello")
	store.Append(ctx, "sess-1", RoleAssistant, "hi")

	first, err := store.Recent(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	second, err := store.Recent(ctx, "sess-1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("order changed between identical reads at %d", i)
		}
	}
}

func TestSessionsIsolated(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Append(ctx, "sess-a", RoleUser, "a question")
	store.Append(ctx, "sess-b", RoleUser, "b question")

	got, err := store.Recent(ctx, "sess-a", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Content != "a question" {
		t.Errorf("session isolation broken: %+v", got)
	}
}
