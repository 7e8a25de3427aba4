package inmemory

import (
	"context"
	"testing"

	"github.com/lectern-ai/lectern/models"
)

func TestCreateMintsUniqueIDs(t *testing.T) {
	s := NewStore(4)
	ctx := context.Background()
	a, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestHistoryUnknownSessionIsEmpty(t *testing.T) {
	s := NewStore(4)
	turns, err := s.History(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty history, got %v", turns)
	}
}

func TestAppendEvictsOldestFirst(t *testing.T) {
	s := NewStore(4) // two exchanges
	ctx := context.Background()
	id, _ := s.Create(ctx)

	for i, q := range []string{"q1", "q2", "q3"} {
		err := s.Append(ctx, id,
			models.Turn{Role: models.RoleUser, Text: q},
			models.Turn{Role: models.RoleAssistant, Text: "a" + q[1:]},
		)
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	turns, err := s.History(ctx, id)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("expected 4 retained turns, got %d", len(turns))
	}
	if turns[0].Text != "q2" || turns[3].Text != "a3" {
		t.Fatalf("expected oldest exchange evicted, got %v", turns)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore(10)
	ctx := context.Background()
	id, _ := s.Create(ctx)
	_ = s.Append(ctx, id, models.Turn{Role: models.RoleUser, Text: "original"})

	turns, _ := s.History(ctx, id)
	turns[0].Text = "mutated"

	again, _ := s.History(ctx, id)
	if again[0].Text != "original" {
		t.Fatalf("History must return a copy, store was mutated to %q", again[0].Text)
	}
}
