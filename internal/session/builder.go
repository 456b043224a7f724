package session

import (
	"context"
	"log"
	"time"

	"exam-session-service/internal/domain"
	"github.com/google/uuid"
)

// Per-question time allowances by difficulty.
const (
	timeAllowedEasy    = 60 * time.Second
	timeAllowedMedium  = 90 * time.Second
	timeAllowedHard    = 120 * time.Second
	timeAllowedDefault = 90 * time.Second

	defaultQuestionCount = 20
	unknownTopicName     = "Unknown Topic"
)

// Builder assembles new sessions from the question catalog and enriches
// session questions for display.
type Builder struct {
	catalog  QuestionCatalog
	topics   TopicLookup
	selector *Selector
	clock    Clock
	newID    func() string
}

func NewBuilder(catalog QuestionCatalog, topics TopicLookup, selector *Selector, clock Clock) *Builder {
	if clock == nil {
		clock = time.Now
	}
	return &Builder{
		catalog:  catalog,
		topics:   topics,
		selector: selector,
		clock:    clock,
		newID:    uuid.NewString,
	}
}

// BuildSession fetches the candidate pool, narrows it by the request
// filters, selects questions and materializes an active session.
//
// An exam with zero catalog candidates is a misconfiguration and fails with
// an empty-pool error; an empty pool after provider/topic/difficulty
// narrowing simply yields a shorter (possibly empty) question list.
func (b *Builder) BuildSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.Session, error) {
	if req.ExamID == "" {
		return nil, domain.E(domain.KindValidation, "examId is required")
	}

	pool, err := b.catalog.GetQuestions(ctx, req.ExamID, "")
	if err != nil {
		return nil, domain.Internal("fetch question pool", err)
	}
	if len(pool) == 0 {
		return nil, domain.E(domain.KindEmptyPool, "exam %s has no questions in the catalog", req.ExamID)
	}

	pool = narrowPool(pool, req)

	count := defaultQuestionCount
	if req.QuestionCount != nil && *req.QuestionCount > 0 {
		count = *req.QuestionCount
	}
	adaptive := req.IsAdaptive != nil && *req.IsAdaptive

	var picked []domain.QuestionCandidate
	if adaptive {
		picked = b.selector.SelectAdaptive(pool, count)
	} else {
		picked = b.selector.SelectStandard(pool, count)
	}

	questions := make([]domain.SessionQuestionState, len(picked))
	for i, q := range picked {
		questions[i] = domain.SessionQuestionState{
			QuestionID: q.ID,
			TopicID:    q.TopicID,
			Difficulty: q.Difficulty,
		}
	}

	sess := &domain.Session{
		ID:                   b.newID(),
		UserID:               req.UserID,
		ExamID:               req.ExamID,
		ProviderID:           req.ProviderID,
		SessionType:          req.SessionType,
		Status:               domain.StatusActive,
		Questions:            questions,
		CurrentQuestionIndex: 0,
		StartTime:            b.clock(),
		IsAdaptive:           adaptive,
	}
	if req.TimeLimit != nil && *req.TimeLimit > 0 {
		sess.TimeLimitSeconds = *req.TimeLimit
	}
	return sess, nil
}

// narrowPool applies the provider, topic and difficulty filters in order.
func narrowPool(pool []domain.QuestionCandidate, req domain.CreateSessionRequest) []domain.QuestionCandidate {
	if req.ProviderID != "" {
		pool = filterCandidates(pool, func(q domain.QuestionCandidate) bool {
			return q.ProviderID == req.ProviderID
		})
	}
	if len(req.Topics) > 0 {
		wanted := make(map[string]struct{}, len(req.Topics))
		for _, t := range req.Topics {
			wanted[t] = struct{}{}
		}
		pool = filterCandidates(pool, func(q domain.QuestionCandidate) bool {
			_, ok := wanted[q.TopicID]
			return ok
		})
	}
	if req.Difficulty != nil {
		pool = filterCandidates(pool, func(q domain.QuestionCandidate) bool {
			return q.Difficulty == *req.Difficulty
		})
	}
	return pool
}

func filterCandidates(pool []domain.QuestionCandidate, keep func(domain.QuestionCandidate) bool) []domain.QuestionCandidate {
	out := make([]domain.QuestionCandidate, 0, len(pool))
	for _, q := range pool {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}

// EnrichForDisplay resolves prompts, options and topic names for the
// session's questions. Topic lookup failures are non-fatal and fall back to
// a placeholder name.
func (b *Builder) EnrichForDisplay(ctx context.Context, sess *domain.Session) ([]domain.QuestionDisplay, error) {
	displays := make([]domain.QuestionDisplay, 0, len(sess.Questions))
	for _, q := range sess.Questions {
		cand, err := b.catalog.GetQuestion(ctx, q.QuestionID)
		if err != nil {
			return nil, domain.Internal("load question "+q.QuestionID, err)
		}

		name := unknownTopicName
		if q.TopicID != "" {
			if topic, err := b.topics.GetTopic(ctx, q.TopicID); err == nil {
				name = topic.Name
			} else {
				log.Printf("topic lookup failed for %s: %v", q.TopicID, err)
			}
		}

		displays = append(displays, domain.QuestionDisplay{
			QuestionID:         q.QuestionID,
			Prompt:             cand.Prompt,
			Options:            cand.Options,
			TopicID:            q.TopicID,
			TopicName:          name,
			Difficulty:         q.Difficulty,
			TimeAllowedSeconds: int(timeAllowed(q.Difficulty).Seconds()),
		})
	}
	return displays, nil
}

func timeAllowed(d domain.Difficulty) time.Duration {
	switch d {
	case domain.DifficultyEasy:
		return timeAllowedEasy
	case domain.DifficultyMedium:
		return timeAllowedMedium
	case domain.DifficultyHard:
		return timeAllowedHard
	default:
		return timeAllowedDefault
	}
}
