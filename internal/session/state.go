package session

import (
	"time"

	"exam-session-service/internal/domain"
)

// Action is a caller-requested session mutation.
type Action string

const (
	ActionPause         Action = "pause"
	ActionResume        Action = "resume"
	ActionNext          Action = "next"
	ActionPrevious      Action = "previous"
	ActionMarkForReview Action = "mark_for_review"
	ActionAbandon       Action = "abandon"
	ActionComplete      Action = "complete"
)

// ActionPayload carries optional parameters for an action.
type ActionPayload struct {
	QuestionID string `json:"questionId,omitempty"`
	Marked     *bool  `json:"marked,omitempty"`
}

// AnswerSubmission is one answer to a session question.
type AnswerSubmission struct {
	QuestionID       string
	Answer           []string
	TimeSpentSeconds int
	Skipped          bool
	MarkedForReview  bool
}

// StateMachine enforces legal session transitions and scores answers. All
// validation runs before any mutation, so a rejected action leaves the
// session untouched.
type StateMachine struct {
	clock Clock
}

func NewStateMachine(clock Clock) *StateMachine {
	if clock == nil {
		clock = time.Now
	}
	return &StateMachine{clock: clock}
}

// Apply executes pause/resume/next/previous/mark_for_review/abandon against
// the session. Completion goes through Complete, answers through SubmitAnswer.
func (m *StateMachine) Apply(sess *domain.Session, action Action, payload ActionPayload) error {
	if sess.Status.Terminal() {
		return domain.E(domain.KindConflict, "session is %s", sess.Status).
			WithSession(sess.ID).WithAction(string(action))
	}

	switch action {
	case ActionPause:
		if sess.Status != domain.StatusActive {
			return domain.E(domain.KindConflict, "cannot pause a %s session", sess.Status).
				WithSession(sess.ID).WithAction(string(action))
		}
		sess.Status = domain.StatusPaused

	case ActionResume:
		if sess.Status != domain.StatusPaused {
			return domain.E(domain.KindConflict, "cannot resume a %s session", sess.Status).
				WithSession(sess.ID).WithAction(string(action))
		}
		sess.Status = domain.StatusActive

	case ActionNext:
		if sess.CurrentQuestionIndex < len(sess.Questions)-1 {
			sess.CurrentQuestionIndex++
		}

	case ActionPrevious:
		if sess.CurrentQuestionIndex > 0 {
			sess.CurrentQuestionIndex--
		}

	case ActionMarkForReview:
		q := sess.QuestionState(payload.QuestionID)
		if q == nil {
			return domain.E(domain.KindNotFound, "question %s is not part of the session", payload.QuestionID).
				WithSession(sess.ID).WithQuestion(payload.QuestionID).WithAction(string(action))
		}
		marked := true
		if payload.Marked != nil {
			marked = *payload.Marked
		}
		q.MarkedForReview = marked

	case ActionAbandon:
		sess.Status = domain.StatusAbandoned

	default:
		return domain.E(domain.KindValidation, "unknown action %q", action).
			WithSession(sess.ID).WithAction(string(action))
	}
	return nil
}

// SubmitAnswer scores a submission against the candidate's correct answer
// set and records the outcome. Scoring is exact set equality; partial credit
// is not supported.
func (m *StateMachine) SubmitAnswer(sess *domain.Session, cand domain.QuestionCandidate, sub AnswerSubmission) (domain.AnswerFeedback, error) {
	if sess.Status != domain.StatusActive {
		return domain.AnswerFeedback{}, domain.E(domain.KindConflict, "cannot answer a %s session", sess.Status).
			WithSession(sess.ID).WithQuestion(sub.QuestionID).WithAction("answer")
	}
	q := sess.QuestionState(sub.QuestionID)
	if q == nil {
		return domain.AnswerFeedback{}, domain.E(domain.KindNotFound, "question %s is not part of the session", sub.QuestionID).
			WithSession(sess.ID).WithQuestion(sub.QuestionID)
	}
	if len(sub.Answer) == 0 && !sub.Skipped {
		return domain.AnswerFeedback{}, domain.E(domain.KindValidation, "answer is empty and question is not skipped").
			WithSession(sess.ID).WithQuestion(sub.QuestionID)
	}

	q.TimeSpentSeconds = sub.TimeSpentSeconds
	q.MarkedForReview = sub.MarkedForReview

	if len(sub.Answer) == 0 {
		// Explicit skip: no answer is recorded and the question stays unscored.
		q.Skipped = true
		return domain.AnswerFeedback{QuestionID: sub.QuestionID}, nil
	}

	correct := setsEqual(sub.Answer, cand.CorrectAnswer)
	q.UserAnswer = append([]string(nil), sub.Answer...)
	q.IsCorrect = &correct
	q.Skipped = false

	feedback := domain.AnswerFeedback{QuestionID: sub.QuestionID, IsCorrect: correct}
	if correct && len(sess.Questions) > 0 {
		feedback.Score = 100.0 / float64(len(sess.Questions))
	}
	return feedback, nil
}

// Complete transitions the session to its completed terminal state. Unless
// forced, every question must be answered or explicitly skipped.
func (m *StateMachine) Complete(sess *domain.Session, force bool) error {
	if sess.Status == domain.StatusCompleted {
		return domain.E(domain.KindConflict, "session is already completed").
			WithSession(sess.ID).WithAction("complete")
	}
	if sess.Status == domain.StatusAbandoned {
		return domain.E(domain.KindConflict, "session was abandoned").
			WithSession(sess.ID).WithAction("complete")
	}
	if !force {
		unanswered := 0
		for _, q := range sess.Questions {
			if !q.Answered() && !q.Skipped {
				unanswered++
			}
		}
		if unanswered > 0 {
			return domain.E(domain.KindValidation, "%d questions are unanswered; skip them or complete with force", unanswered).
				WithSession(sess.ID).WithAction("complete")
		}
	}
	now := m.clock()
	sess.Status = domain.StatusCompleted
	sess.CompletedAt = &now
	return nil
}

// setsEqual compares two answer sets ignoring order and duplicates.
func setsEqual(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}
