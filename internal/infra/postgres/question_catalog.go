package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"exam-session-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionCatalog loads question JSONB from Postgres. The exam, provider
// and topic columns exist for filtering; the full candidate lives in the
// data column.
type QuestionCatalog struct {
	pool *pgxpool.Pool
}

func NewQuestionCatalog(pool *pgxpool.Pool) *QuestionCatalog {
	return &QuestionCatalog{pool: pool}
}

func (c *QuestionCatalog) GetQuestions(ctx context.Context, examID, providerID string) ([]domain.QuestionCandidate, error) {
	query := `SELECT data FROM questions WHERE exam_id=$1`
	args := []any{examID}
	if providerID != "" {
		query += ` AND provider_id=$2`
		args = append(args, providerID)
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionCandidate
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var cand domain.QuestionCandidate
		if err := json.Unmarshal(raw, &cand); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (c *QuestionCatalog) GetQuestion(ctx context.Context, questionID string) (domain.QuestionCandidate, error) {
	var raw []byte
	err := c.pool.QueryRow(ctx, `SELECT data FROM questions WHERE id=$1`, questionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionCandidate{}, domain.E(domain.KindNotFound, "question %s not found in catalog", questionID).WithQuestion(questionID)
	}
	if err != nil {
		return domain.QuestionCandidate{}, fmt.Errorf("load question: %w", err)
	}
	var cand domain.QuestionCandidate
	if err := json.Unmarshal(raw, &cand); err != nil {
		return domain.QuestionCandidate{}, fmt.Errorf("unmarshal question: %w", err)
	}
	return cand, nil
}
