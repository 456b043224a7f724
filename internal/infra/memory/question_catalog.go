package memory

import (
	"context"

	"exam-session-service/internal/domain"
)

// StaticQuestionCatalog serves candidates from an in-memory slice (useful
// for tests and demo runs without Postgres).
type StaticQuestionCatalog struct {
	questions []domain.QuestionCandidate
	byID      map[string]domain.QuestionCandidate
}

func NewStaticQuestionCatalog(questions []domain.QuestionCandidate) *StaticQuestionCatalog {
	byID := make(map[string]domain.QuestionCandidate, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return &StaticQuestionCatalog{questions: questions, byID: byID}
}

func (c *StaticQuestionCatalog) GetQuestions(_ context.Context, examID, providerID string) ([]domain.QuestionCandidate, error) {
	out := make([]domain.QuestionCandidate, 0, len(c.questions))
	for _, q := range c.questions {
		if q.ExamID != examID {
			continue
		}
		if providerID != "" && q.ProviderID != providerID {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (c *StaticQuestionCatalog) GetQuestion(_ context.Context, questionID string) (domain.QuestionCandidate, error) {
	q, ok := c.byID[questionID]
	if !ok {
		return domain.QuestionCandidate{}, domain.E(domain.KindNotFound, "question %s not found in catalog", questionID).WithQuestion(questionID)
	}
	return q, nil
}
