package memory

import (
	"context"
	"testing"

	"exam-session-service/internal/domain"
)

func TestGoalStoreFindMatchingGoals(t *testing.T) {
	ctx := context.Background()
	store := NewGoalStore(
		domain.Goal{ID: "g-exam", ExamID: "ex1", Active: true},
		domain.Goal{ID: "g-other-exam", ExamID: "ex2", Active: true},
		domain.Goal{ID: "g-topic", TopicID: "t1", Active: true},
		domain.Goal{ID: "g-provider", ProviderID: "p1", Active: true},
		domain.Goal{ID: "g-inactive", ExamID: "ex1", Active: false},
		domain.Goal{ID: "g-any", Active: true},
	)

	goals, err := store.FindMatchingGoals(ctx, domain.GoalFilter{
		ExamID:     "ex1",
		ProviderID: "p1",
		TopicIDs:   []string{"t1", "t2"},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	found := make(map[string]bool, len(goals))
	for _, g := range goals {
		found[g.ID] = true
	}
	for _, want := range []string{"g-exam", "g-topic", "g-provider", "g-any"} {
		if !found[want] {
			t.Fatalf("expected %s in matches, got %v", want, found)
		}
	}
	if found["g-other-exam"] || found["g-inactive"] {
		t.Fatalf("matched goals that should be excluded: %v", found)
	}
}

func TestGoalStoreApplyProgress(t *testing.T) {
	ctx := context.Background()
	store := NewGoalStore(domain.Goal{ID: "g1", Target: 10, Current: 3, Active: true})

	if err := store.ApplyProgress(ctx, "g1", 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if g, _ := store.Goal("g1"); g.Current != 5 {
		t.Fatalf("expected current 5, got %d", g.Current)
	}

	if err := store.ApplyProgress(ctx, "missing", 1); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
