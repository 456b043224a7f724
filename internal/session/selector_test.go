package session

import (
	"fmt"
	"math/rand"
	"testing"

	"exam-session-service/internal/domain"
)

func TestSelectStandardExactCount(t *testing.T) {
	selector := NewSelector(rand.New(rand.NewSource(1)))
	pool := makePool(20, 0, 0)

	for _, count := range []int{1, 5, 19, 20} {
		picked := selector.SelectStandard(pool, count)
		if len(picked) != count {
			t.Fatalf("count=%d: expected %d questions, got %d", count, count, len(picked))
		}
		assertUniqueFromPool(t, picked, pool)
	}
}

func TestSelectStandardFullPoolPreservesOrder(t *testing.T) {
	selector := NewSelector(rand.New(rand.NewSource(1)))
	pool := makePool(5, 0, 0)

	picked := selector.SelectStandard(pool, 10)
	if len(picked) != len(pool) {
		t.Fatalf("expected full pool, got %d", len(picked))
	}
	for i := range pool {
		if picked[i].ID != pool[i].ID {
			t.Fatalf("expected order preserved at %d, got %s", i, picked[i].ID)
		}
	}
}

func TestSelectStandardDoesNotMutatePool(t *testing.T) {
	selector := NewSelector(rand.New(rand.NewSource(7)))
	pool := makePool(10, 0, 0)
	before := make([]string, len(pool))
	for i, q := range pool {
		before[i] = q.ID
	}

	selector.SelectStandard(pool, 3)

	for i, q := range pool {
		if q.ID != before[i] {
			t.Fatalf("pool mutated at index %d: %s != %s", i, q.ID, before[i])
		}
	}
}

func TestSelectStandardEmptyPool(t *testing.T) {
	selector := NewSelector(rand.New(rand.NewSource(1)))
	if got := selector.SelectStandard(nil, 5); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if got := selector.SelectAdaptive(nil, 5); len(got) != 0 {
		t.Fatalf("expected empty adaptive result, got %d", len(got))
	}
}

func TestSelectAdaptiveQuotas(t *testing.T) {
	selector := NewSelector(rand.New(rand.NewSource(42)))
	pool := makePool(6, 8, 4)

	picked := selector.SelectAdaptive(pool, 10)
	if len(picked) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(picked))
	}
	counts := countByDifficulty(picked)
	if counts[domain.DifficultyEasy] != 3 || counts[domain.DifficultyMedium] != 5 || counts[domain.DifficultyHard] != 2 {
		t.Fatalf("expected 3/5/2 split, got %v", counts)
	}
}

func TestSelectAdaptiveTopsUpUnderpopulatedBucket(t *testing.T) {
	selector := NewSelector(rand.New(rand.NewSource(3)))
	pool := makePool(6, 6, 0) // no hard questions at all

	picked := selector.SelectAdaptive(pool, 10)
	if len(picked) != 10 {
		t.Fatalf("expected top-up to reach 10, got %d", len(picked))
	}
	assertUniqueFromPool(t, picked, pool)
}

func TestSelectAdaptiveShortPool(t *testing.T) {
	selector := NewSelector(rand.New(rand.NewSource(3)))
	pool := makePool(2, 1, 0)

	picked := selector.SelectAdaptive(pool, 10)
	if len(picked) != 3 {
		t.Fatalf("expected best-effort 3 questions, got %d", len(picked))
	}
	assertUniqueFromPool(t, picked, pool)
}

func makePool(easy, medium, hard int) []domain.QuestionCandidate {
	var pool []domain.QuestionCandidate
	add := func(n int, d domain.Difficulty) {
		for i := 0; i < n; i++ {
			pool = append(pool, domain.QuestionCandidate{
				ID:         fmt.Sprintf("%s-%d", d, i),
				ExamID:     "ex1",
				Difficulty: d,
			})
		}
	}
	add(easy, domain.DifficultyEasy)
	add(medium, domain.DifficultyMedium)
	add(hard, domain.DifficultyHard)
	return pool
}

func countByDifficulty(questions []domain.QuestionCandidate) map[domain.Difficulty]int {
	counts := make(map[domain.Difficulty]int)
	for _, q := range questions {
		counts[q.Difficulty]++
	}
	return counts
}

func assertUniqueFromPool(t *testing.T, picked, pool []domain.QuestionCandidate) {
	t.Helper()
	inPool := make(map[string]struct{}, len(pool))
	for _, q := range pool {
		inPool[q.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(picked))
	for _, q := range picked {
		if _, ok := inPool[q.ID]; !ok {
			t.Fatalf("question %s not drawn from pool", q.ID)
		}
		if _, ok := seen[q.ID]; ok {
			t.Fatalf("question %s selected twice", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
}
