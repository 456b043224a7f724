package session

import (
	"math"
	"math/rand"
	"time"

	"exam-session-service/internal/domain"
)

// adaptive quota shares; hard takes whatever remains after easy and medium.
const (
	easyShare   = 0.3
	mediumShare = 0.5
)

// Selector picks question subsets from a candidate pool. The random source
// is injected so selection tests are deterministic.
type Selector struct {
	rnd *rand.Rand
}

// NewSelector builds a selector; a nil source falls back to a time-seeded one.
func NewSelector(rnd *rand.Rand) *Selector {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rnd: rnd}
}

// SelectStandard returns an unbiased sample of count questions without
// replacement. If count covers the whole pool the result is an
// order-preserving copy. The caller's pool is never mutated.
func (s *Selector) SelectStandard(pool []domain.QuestionCandidate, count int) []domain.QuestionCandidate {
	if count <= 0 || len(pool) == 0 {
		return []domain.QuestionCandidate{}
	}
	cp := make([]domain.QuestionCandidate, len(pool))
	copy(cp, pool)
	if count >= len(cp) {
		return cp
	}
	// Partial Fisher-Yates: only the first count positions need shuffling.
	for i := 0; i < count; i++ {
		j := i + s.rnd.Intn(len(cp)-i)
		cp[i], cp[j] = cp[j], cp[i]
	}
	return cp[:count:count]
}

// SelectAdaptive samples toward a fixed difficulty distribution
// (30% easy, 50% medium, remainder hard). Underpopulated buckets are
// topped up from the rest of the pool, deduplicated by question ID.
func (s *Selector) SelectAdaptive(pool []domain.QuestionCandidate, count int) []domain.QuestionCandidate {
	if count <= 0 || len(pool) == 0 {
		return []domain.QuestionCandidate{}
	}

	buckets := make(map[domain.Difficulty][]domain.QuestionCandidate, 3)
	for _, q := range pool {
		buckets[q.Difficulty] = append(buckets[q.Difficulty], q)
	}

	easy := int(math.Ceil(easyShare * float64(count)))
	medium := int(math.Ceil(mediumShare * float64(count)))
	hard := count - easy - medium
	if hard < 0 {
		hard = 0
	}

	selected := make([]domain.QuestionCandidate, 0, count)
	selected = append(selected, s.SelectStandard(buckets[domain.DifficultyEasy], easy)...)
	selected = append(selected, s.SelectStandard(buckets[domain.DifficultyMedium], medium)...)
	selected = append(selected, s.SelectStandard(buckets[domain.DifficultyHard], hard)...)

	if len(selected) < count {
		chosen := make(map[string]struct{}, len(selected))
		for _, q := range selected {
			chosen[q.ID] = struct{}{}
		}
		remaining := make([]domain.QuestionCandidate, 0, len(pool)-len(selected))
		for _, q := range pool {
			if _, ok := chosen[q.ID]; !ok {
				remaining = append(remaining, q)
			}
		}
		selected = append(selected, s.SelectStandard(remaining, count-len(selected))...)
	}

	if len(selected) > count {
		selected = selected[:count:count]
	}
	return selected
}
