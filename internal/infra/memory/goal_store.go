package memory

import (
	"context"
	"sync"

	"exam-session-service/internal/domain"
)

// GoalStore tracks goals in memory (tests and demo runs).
type GoalStore struct {
	mu    sync.RWMutex
	goals map[string]domain.Goal
}

func NewGoalStore(goals ...domain.Goal) *GoalStore {
	byID := make(map[string]domain.Goal, len(goals))
	for _, g := range goals {
		byID[g.ID] = g
	}
	return &GoalStore{goals: byID}
}

func (s *GoalStore) FindMatchingGoals(_ context.Context, filter domain.GoalFilter) ([]domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topicSet := make(map[string]struct{}, len(filter.TopicIDs))
	for _, t := range filter.TopicIDs {
		topicSet[t] = struct{}{}
	}

	var out []domain.Goal
	for _, g := range s.goals {
		if !g.Active {
			continue
		}
		if g.ExamID != "" && filter.ExamID != "" && g.ExamID != filter.ExamID {
			continue
		}
		if g.ProviderID != "" && filter.ProviderID != "" && g.ProviderID != filter.ProviderID {
			continue
		}
		if g.TopicID != "" && len(topicSet) > 0 {
			if _, ok := topicSet[g.TopicID]; !ok {
				continue
			}
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *GoalStore) ApplyProgress(_ context.Context, goalID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalID]
	if !ok {
		return domain.E(domain.KindNotFound, "goal %s not found", goalID)
	}
	g.Current += delta
	s.goals[goalID] = g
	return nil
}

// Goal returns a goal snapshot for assertions in tests.
func (s *GoalStore) Goal(goalID string) (domain.Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[goalID]
	return g, ok
}
