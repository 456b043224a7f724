package redis

import (
	"context"
	"fmt"
	"strconv"

	"exam-session-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// GoalStore keeps goals as one hash per goal plus a set of active goal IDs.
// Progress increments use HINCRBY so concurrent session events never lose
// updates.
type GoalStore struct {
	client *redis.Client
}

func NewGoalStore(client *redis.Client) *GoalStore {
	return &GoalStore{client: client}
}

const activeGoalsKey = "exam:goals:active"

// AddGoal registers a goal (seeding and tests; goal authoring itself lives
// outside this service).
func (s *GoalStore) AddGoal(ctx context.Context, g domain.Goal) error {
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, s.key(g.ID), map[string]any{
		"user_id":     g.UserID,
		"exam_id":     g.ExamID,
		"topic_id":    g.TopicID,
		"provider_id": g.ProviderID,
		"target":      g.Target,
		"current":     g.Current,
		"active":      boolField(g.Active),
	})
	if g.Active {
		pipe.SAdd(ctx, activeGoalsKey, g.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add goal: %w", err)
	}
	return nil
}

func (s *GoalStore) FindMatchingGoals(ctx context.Context, filter domain.GoalFilter) ([]domain.Goal, error) {
	ids, err := s.client.SMembers(ctx, activeGoalsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	topicSet := make(map[string]struct{}, len(filter.TopicIDs))
	for _, t := range filter.TopicIDs {
		topicSet[t] = struct{}{}
	}

	var out []domain.Goal
	for _, id := range ids {
		fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("load goal %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		g := goalFromFields(id, fields)
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

func (s *GoalStore) ApplyProgress(ctx context.Context, goalID string, delta int) error {
	exists, err := s.client.Exists(ctx, s.key(goalID)).Result()
	if err != nil {
		return fmt.Errorf("check goal %s: %w", goalID, err)
	}
	if exists == 0 {
		return domain.E(domain.KindNotFound, "goal %s not found", goalID)
	}
	if err := s.client.HIncrBy(ctx, s.key(goalID), "current", int64(delta)).Err(); err != nil {
		return fmt.Errorf("apply goal progress: %w", err)
	}
	return nil
}

func (s *GoalStore) key(goalID string) string {
	return "exam:goal:" + goalID
}

func goalFromFields(id string, fields map[string]string) domain.Goal {
	g := domain.Goal{
		ID:         id,
		UserID:     fields["user_id"],
		ExamID:     fields["exam_id"],
		TopicID:    fields["topic_id"],
		ProviderID: fields["provider_id"],
		Active:     fields["active"] == "1",
	}
	if v, err := strconv.Atoi(fields["target"]); err == nil {
		g.Target = v
	}
	if v, err := strconv.Atoi(fields["current"]); err == nil {
		g.Current = v
	}
	return g
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
