package redis

import (
	"context"
	"testing"

	"exam-session-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestGoalStoreFindMatchingGoals(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGoalStore(newClient(mr))

	seed := []domain.Goal{
		{ID: "g-exam", UserID: "u1", ExamID: "ex1", Target: 50, Current: 10, Active: true},
		{ID: "g-other-exam", UserID: "u1", ExamID: "ex2", Active: true},
		{ID: "g-topic", UserID: "u1", TopicID: "t1", Active: true},
		{ID: "g-inactive", UserID: "u1", ExamID: "ex1", Active: false},
	}
	for _, g := range seed {
		if err := store.AddGoal(ctx, g); err != nil {
			t.Fatalf("add %s: %v", g.ID, err)
		}
	}

	goals, err := store.FindMatchingGoals(ctx, domain.GoalFilter{
		ExamID:   "ex1",
		TopicIDs: []string{"t1"},
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	found := make(map[string]domain.Goal, len(goals))
	for _, g := range goals {
		found[g.ID] = g
	}
	if _, ok := found["g-exam"]; !ok {
		t.Fatalf("expected g-exam in matches, got %v", found)
	}
	if _, ok := found["g-topic"]; !ok {
		t.Fatalf("expected g-topic in matches, got %v", found)
	}
	if _, ok := found["g-other-exam"]; ok {
		t.Fatalf("g-other-exam must not match an ex1 filter")
	}
	if _, ok := found["g-inactive"]; ok {
		t.Fatalf("inactive goals must not match")
	}
	if g := found["g-exam"]; g.Target != 50 || g.Current != 10 || g.UserID != "u1" {
		t.Fatalf("goal fields did not survive the round trip: %+v", g)
	}
}

func TestGoalStoreApplyProgress(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewGoalStore(newClient(mr))

	if err := store.AddGoal(ctx, domain.Goal{ID: "g1", Target: 10, Current: 3, Active: true}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := store.ApplyProgress(ctx, "g1", 2); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := mr.HGet("exam:goal:g1", "current"); got != "5" {
		t.Fatalf("expected current 5, got %q", got)
	}

	if err := store.ApplyProgress(ctx, "missing", 1); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
