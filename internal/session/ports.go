package session

import (
	"context"
	"time"

	"exam-session-service/internal/domain"
)

// QuestionCatalog supplies candidate questions (backed by Postgres or an
// in-memory seed).
type QuestionCatalog interface {
	// GetQuestions returns every candidate for an exam, optionally narrowed
	// by provider. An empty providerID matches all providers.
	GetQuestions(ctx context.Context, examID, providerID string) ([]domain.QuestionCandidate, error)
	GetQuestion(ctx context.Context, questionID string) (domain.QuestionCandidate, error)
}

// TopicLookup resolves topic IDs to display names.
type TopicLookup interface {
	GetTopic(ctx context.Context, topicID string) (domain.Topic, error)
}

// SessionStore persists sessions. Update is conditional on the caller's
// expected version; a mismatch must surface as a conflict error so the
// engine never silently retries over a concurrent mutation.
type SessionStore interface {
	Create(ctx context.Context, sess *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Update(ctx context.Context, sess *domain.Session, expectedVersion int64) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
}

// GoalStore exposes the external goal-tracking collaborator.
type GoalStore interface {
	FindMatchingGoals(ctx context.Context, filter domain.GoalFilter) ([]domain.Goal, error)
	ApplyProgress(ctx context.Context, goalID string, delta int) error
}

// EventPublisher forwards goal events to a side channel (AMQP in
// production). Publishing is best-effort.
type EventPublisher interface {
	Publish(eventType string, payload any) error
}

// Clock returns the current time; injected for deterministic tests.
type Clock func() time.Time
