package session

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"exam-session-service/internal/domain"
)

// Service is the session engine facade consumed by the transport layer. It
// holds no per-session state; every call loads a session copy from the
// store, mutates it and persists it with a conditional write.
type Service struct {
	store    SessionStore
	catalog  QuestionCatalog
	builder  *Builder
	machine  *StateMachine
	eval     *Evaluator
	notifier *Notifier
	clock    Clock
}

// Option customizes a Service. The engine graph is constructed once at
// process start; there are no hidden singletons.
type Option func(*serviceOptions)

type serviceOptions struct {
	clock    Clock
	rnd      *rand.Rand
	policy   ReadinessPolicy
	notifier *Notifier
}

// WithClock injects a deterministic time source for tests.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) { o.clock = clock }
}

// WithRand injects a seeded random source so selection is reproducible.
func WithRand(rnd *rand.Rand) Option {
	return func(o *serviceOptions) { o.rnd = rnd }
}

// WithReadinessPolicy overrides the default readiness cut points.
func WithReadinessPolicy(policy ReadinessPolicy) Option {
	return func(o *serviceOptions) { o.policy = policy }
}

// WithNotifier attaches the goal-progress side channel.
func WithNotifier(n *Notifier) Option {
	return func(o *serviceOptions) { o.notifier = n }
}

func NewService(store SessionStore, catalog QuestionCatalog, topics TopicLookup, opts ...Option) *Service {
	o := serviceOptions{
		clock:  time.Now,
		policy: DefaultReadinessPolicy(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	selector := NewSelector(o.rnd)
	return &Service{
		store:    store,
		catalog:  catalog,
		builder:  NewBuilder(catalog, topics, selector, o.clock),
		machine:  NewStateMachine(o.clock),
		eval:     NewEvaluator(o.policy),
		notifier: o.notifier,
		clock:    o.clock,
	}
}

// CreateSession assembles and persists a new active session.
func (s *Service) CreateSession(ctx context.Context, req domain.CreateSessionRequest) (*domain.Session, error) {
	sess, err := s.builder.BuildSession(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, asEngineError(err, "create session")
	}
	return sess, nil
}

// GetSession returns the session and its freshly computed progress.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, domain.Progress, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, domain.Progress{}, asEngineError(err, "load session")
	}
	return sess, ComputeProgress(sess, s.clock), nil
}

// GetSessionQuestions returns the enriched display view of the session's
// questions.
func (s *Service) GetSessionQuestions(ctx context.Context, sessionID string) ([]domain.QuestionDisplay, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, asEngineError(err, "load session")
	}
	return s.builder.EnrichForDisplay(ctx, sess)
}

// UpdateSession applies a lifecycle action and persists the result. The
// complete action is forwarded to CompleteSession semantics without force.
func (s *Service) UpdateSession(ctx context.Context, sessionID string, action Action, payload ActionPayload) (*domain.Session, domain.Progress, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, domain.Progress{}, asEngineError(err, "load session")
	}

	if action == ActionComplete {
		sess, _, err = s.complete(ctx, sess, false)
		if err != nil {
			return nil, domain.Progress{}, err
		}
		return sess, ComputeProgress(sess, s.clock), nil
	}

	if err := s.machine.Apply(sess, action, payload); err != nil {
		return nil, domain.Progress{}, err
	}
	updated, err := s.store.Update(ctx, sess, sess.Version)
	if err != nil {
		return nil, domain.Progress{}, asEngineError(err, "persist session")
	}
	return updated, ComputeProgress(updated, s.clock), nil
}

// SubmitAnswer scores one answer, persists the session and fires the
// best-effort goal notification.
func (s *Service) SubmitAnswer(ctx context.Context, sessionID string, sub AnswerSubmission) (domain.AnswerFeedback, *domain.Session, domain.Progress, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return domain.AnswerFeedback{}, nil, domain.Progress{}, asEngineError(err, "load session")
	}
	if sess.Status != domain.StatusActive {
		return domain.AnswerFeedback{}, nil, domain.Progress{}, domain.E(domain.KindConflict, "cannot answer a %s session", sess.Status).
			WithSession(sess.ID).WithQuestion(sub.QuestionID).WithAction("answer")
	}
	if sess.QuestionState(sub.QuestionID) == nil {
		return domain.AnswerFeedback{}, nil, domain.Progress{}, domain.E(domain.KindNotFound, "question %s is not part of the session", sub.QuestionID).
			WithSession(sess.ID).WithQuestion(sub.QuestionID)
	}

	cand, err := s.catalog.GetQuestion(ctx, sub.QuestionID)
	if err != nil {
		return domain.AnswerFeedback{}, nil, domain.Progress{}, asEngineError(err, "load question "+sub.QuestionID)
	}

	feedback, err := s.machine.SubmitAnswer(sess, cand, sub)
	if err != nil {
		return domain.AnswerFeedback{}, nil, domain.Progress{}, err
	}

	updated, err := s.store.Update(ctx, sess, sess.Version)
	if err != nil {
		return domain.AnswerFeedback{}, nil, domain.Progress{}, asEngineError(err, "persist session")
	}

	s.notifier.Notify(ctx, updated, EventAnswerSubmitted, &feedback)
	return feedback, updated, ComputeProgress(updated, s.clock), nil
}

// CompleteSession finishes the session and returns the final results and
// recommendation.
func (s *Service) CompleteSession(ctx context.Context, sessionID string, force bool) (*domain.Session, *domain.CompletionResult, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, asEngineError(err, "load session")
	}
	return s.complete(ctx, sess, force)
}

func (s *Service) complete(ctx context.Context, sess *domain.Session, force bool) (*domain.Session, *domain.CompletionResult, error) {
	if err := s.machine.Complete(sess, force); err != nil {
		return nil, nil, err
	}
	result := s.eval.Evaluate(sess, s.clock)
	sess.Result = &result

	updated, err := s.store.Update(ctx, sess, sess.Version)
	if err != nil {
		return nil, nil, asEngineError(err, "persist session")
	}

	s.notifier.Notify(ctx, updated, EventSessionCompleted, nil)
	return updated, updated.Result, nil
}

// DeleteSession removes the session; it reports false when nothing existed.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	ok, err := s.store.Delete(ctx, sessionID)
	if err != nil {
		return false, asEngineError(err, "delete session")
	}
	return ok, nil
}

// asEngineError passes typed engine errors through and wraps anything else
// as an internal collaborator failure.
func asEngineError(err error, context string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Internal(context, err)
}
