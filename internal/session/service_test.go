package session_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"exam-session-service/internal/domain"
	"exam-session-service/internal/infra/memory"
	"exam-session-service/internal/session"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	events []string
	fail   bool
}

func (p *recordingPublisher) Publish(eventType string, _ any) error {
	if p.fail {
		return fmt.Errorf("broker down")
	}
	p.events = append(p.events, eventType)
	return nil
}

func testPool() []domain.QuestionCandidate {
	var pool []domain.QuestionCandidate
	add := func(n int, d domain.Difficulty, topic string) {
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("%s-%d", d, i)
			pool = append(pool, domain.QuestionCandidate{
				ID: id, ExamID: "ex1", ProviderID: "p1", TopicID: topic,
				Difficulty:    d,
				Prompt:        "Question " + id,
				Options:       []domain.Option{{ID: "a", Text: "Right"}, {ID: "b", Text: "Wrong"}},
				CorrectAnswer: []string{"a"},
			})
		}
	}
	add(4, domain.DifficultyEasy, "t1")
	add(4, domain.DifficultyMedium, "t2")
	add(2, domain.DifficultyHard, "t3")
	return pool
}

func newTestService(goals *memory.GoalStore, events session.EventPublisher) *session.Service {
	catalog := memory.NewStaticQuestionCatalog(testPool())
	topics := memory.NewStaticTopicLookup(map[string]string{"t1": "Alpha", "t2": "Beta", "t3": "Gamma"})
	return session.NewService(
		memory.NewSessionStore(),
		catalog,
		topics,
		session.WithClock(func() time.Time { return fixedNow }),
		session.WithRand(rand.New(rand.NewSource(1))),
		session.WithNotifier(session.NewNotifier(goals, events)),
	)
}

func TestSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	goals := memory.NewGoalStore(domain.Goal{ID: "g1", ExamID: "ex1", Target: 100, Active: true})
	publisher := &recordingPublisher{}
	svc := newTestService(goals, publisher)

	count := 5
	sess, err := svc.CreateSession(ctx, domain.CreateSessionRequest{
		UserID:        "u1",
		ExamID:        "ex1",
		QuestionCount: &count,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(sess.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(sess.Questions))
	}
	if sess.Status != domain.StatusActive || sess.CurrentQuestionIndex != 0 {
		t.Fatalf("unexpected initial state: %s index=%d", sess.Status, sess.CurrentQuestionIndex)
	}

	for _, q := range sess.Questions {
		feedback, _, _, err := svc.SubmitAnswer(ctx, sess.ID, session.AnswerSubmission{
			QuestionID:       q.QuestionID,
			Answer:           []string{"a"},
			TimeSpentSeconds: 45,
		})
		if err != nil {
			t.Fatalf("submit %s: %v", q.QuestionID, err)
		}
		if !feedback.IsCorrect {
			t.Fatalf("expected correct answer for %s", q.QuestionID)
		}
	}

	completed, result, err := svc.CompleteSession(ctx, sess.ID, false)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != domain.StatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected completed session, got %s", completed.Status)
	}
	if result.FinalScore != 100 || result.AccuracyPercentage != 100 {
		t.Fatalf("expected perfect score, got %+v", result)
	}
	if result.ReadinessForExam != session.ReadinessReady {
		t.Fatalf("expected ready, got %q", result.ReadinessForExam)
	}

	// 5 correct answers plus the completion event.
	if g, _ := goals.Goal("g1"); g.Current != 6 {
		t.Fatalf("expected goal progress 6, got %d", g.Current)
	}
	if len(publisher.events) != 6 {
		t.Fatalf("expected 6 published events, got %v", publisher.events)
	}
}

func TestSubmitAnswerOnCompletedSessionLeavesItUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewGoalStore(), nil)

	count := 2
	sess, err := svc.CreateSession(ctx, domain.CreateSessionRequest{UserID: "u1", ExamID: "ex1", QuestionCount: &count})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.CompleteSession(ctx, sess.ID, true); err != nil {
		t.Fatalf("force complete: %v", err)
	}

	before, _, err := svc.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	_, _, _, err = svc.SubmitAnswer(ctx, sess.ID, session.AnswerSubmission{
		QuestionID: sess.Questions[0].QuestionID,
		Answer:     []string{"a"},
	})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	after, _, err := svc.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.Version != before.Version {
		t.Fatalf("rejected submission must not persist changes (version %d -> %d)", before.Version, after.Version)
	}
	if after.Questions[0].Answered() {
		t.Fatalf("rejected submission must not record an answer")
	}
}

func TestCompleteRejectsUnansweredUnlessForced(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewGoalStore(), nil)

	count := 3
	sess, err := svc.CreateSession(ctx, domain.CreateSessionRequest{UserID: "u1", ExamID: "ex1", QuestionCount: &count})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, _, err = svc.CompleteSession(ctx, sess.ID, false)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, _, err := svc.CompleteSession(ctx, sess.ID, true); err != nil {
		t.Fatalf("force complete: %v", err)
	}
	if _, _, err := svc.CompleteSession(ctx, sess.ID, true); !domain.IsConflict(err) {
		t.Fatalf("expected conflict on double completion, got %v", err)
	}
}

func TestUpdateSessionLifecycleActions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewGoalStore(), nil)

	count := 3
	sess, err := svc.CreateSession(ctx, domain.CreateSessionRequest{UserID: "u1", ExamID: "ex1", QuestionCount: &count})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	paused, _, err := svc.UpdateSession(ctx, sess.ID, session.ActionPause, session.ActionPayload{})
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Status != domain.StatusPaused {
		t.Fatalf("expected paused, got %s", paused.Status)
	}

	// Answers are rejected while paused.
	_, _, _, err = svc.SubmitAnswer(ctx, sess.ID, session.AnswerSubmission{
		QuestionID: sess.Questions[0].QuestionID,
		Answer:     []string{"a"},
	})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict while paused, got %v", err)
	}

	resumed, _, err := svc.UpdateSession(ctx, sess.ID, session.ActionResume, session.ActionPayload{})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != domain.StatusActive {
		t.Fatalf("expected active after resume, got %s", resumed.Status)
	}

	moved, progress, err := svc.UpdateSession(ctx, sess.ID, session.ActionNext, session.ActionPayload{})
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if moved.CurrentQuestionIndex != 1 || progress.CurrentQuestion != 2 {
		t.Fatalf("expected index advanced, got %d (display %d)", moved.CurrentQuestionIndex, progress.CurrentQuestion)
	}

	if _, _, err := svc.UpdateSession(ctx, sess.ID, session.Action("bogus"), session.ActionPayload{}); !domain.IsValidation(err) {
		t.Fatalf("expected validation for unknown action, got %v", err)
	}

	abandoned, _, err := svc.UpdateSession(ctx, sess.ID, session.ActionAbandon, session.ActionPayload{})
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if abandoned.Status != domain.StatusAbandoned {
		t.Fatalf("expected abandoned, got %s", abandoned.Status)
	}
	if _, _, err := svc.CompleteSession(ctx, sess.ID, true); !domain.IsConflict(err) {
		t.Fatalf("expected conflict completing abandoned session, got %v", err)
	}
}

func TestGetSessionQuestionsEnriched(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewGoalStore(), nil)

	count := 10
	sess, err := svc.CreateSession(ctx, domain.CreateSessionRequest{UserID: "u1", ExamID: "ex1", QuestionCount: &count})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	displays, err := svc.GetSessionQuestions(ctx, sess.ID)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(displays) != 10 {
		t.Fatalf("expected 10 displays, got %d", len(displays))
	}
	for _, d := range displays {
		if d.TopicName == "" || d.Prompt == "" || d.TimeAllowedSeconds == 0 {
			t.Fatalf("expected enriched display, got %+v", d)
		}
	}
}

func TestNotifierFailureDoesNotFailSubmission(t *testing.T) {
	ctx := context.Background()
	goals := memory.NewGoalStore(domain.Goal{ID: "g1", ExamID: "ex1", Active: true})
	svc := newTestService(goals, &recordingPublisher{fail: true})

	count := 1
	sess, err := svc.CreateSession(ctx, domain.CreateSessionRequest{UserID: "u1", ExamID: "ex1", QuestionCount: &count})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	feedback, _, _, err := svc.SubmitAnswer(ctx, sess.ID, session.AnswerSubmission{
		QuestionID: sess.Questions[0].QuestionID,
		Answer:     []string{"a"},
	})
	if err != nil {
		t.Fatalf("submission must survive a failing publisher: %v", err)
	}
	if !feedback.IsCorrect {
		t.Fatalf("expected correct answer")
	}
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewGoalStore(), nil)

	count := 1
	sess, err := svc.CreateSession(ctx, domain.CreateSessionRequest{UserID: "u1", ExamID: "ex1", QuestionCount: &count})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := svc.DeleteSession(ctx, sess.ID)
	if err != nil || !deleted {
		t.Fatalf("expected deletion, got %v %v", deleted, err)
	}
	deleted, err = svc.DeleteSession(ctx, sess.ID)
	if err != nil || deleted {
		t.Fatalf("expected no-op second deletion, got %v %v", deleted, err)
	}
	if _, _, err := svc.GetSession(ctx, sess.ID); !domain.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCreateSessionUnknownExam(t *testing.T) {
	svc := newTestService(memory.NewGoalStore(), nil)
	_, err := svc.CreateSession(context.Background(), domain.CreateSessionRequest{UserID: "u1", ExamID: "nope"})
	if !domain.IsEmptyPool(err) {
		t.Fatalf("expected empty pool error, got %v", err)
	}
}
