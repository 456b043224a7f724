package postgres

import (
	"context"
	"errors"
	"fmt"

	"exam-session-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// TopicLookup resolves topic names from the topics table.
type TopicLookup struct {
	pool *pgxpool.Pool
}

func NewTopicLookup(pool *pgxpool.Pool) *TopicLookup {
	return &TopicLookup{pool: pool}
}

func (l *TopicLookup) GetTopic(ctx context.Context, topicID string) (domain.Topic, error) {
	var name string
	err := l.pool.QueryRow(ctx, `SELECT name FROM topics WHERE id=$1`, topicID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Topic{}, domain.E(domain.KindNotFound, "topic %s not found", topicID)
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("load topic: %w", err)
	}
	return domain.Topic{ID: topicID, Name: name}, nil
}
