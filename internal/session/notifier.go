package session

import (
	"context"
	"log"

	"exam-session-service/internal/domain"
)

// GoalEvent identifies the session event that triggers goal updates.
type GoalEvent string

const (
	EventAnswerSubmitted  GoalEvent = "answer_submitted"
	EventSessionCompleted GoalEvent = "session_completed"
)

// GoalIntents computes the progress deltas for the goals matching a session
// event. It is a pure function so the decision logic stays testable apart
// from the dispatch transport.
//
// answer_submitted contributes +1 per correct answer; session_completed
// contributes +1 per completed session. Inactive goals never accrue.
func GoalIntents(sess *domain.Session, event GoalEvent, goals []domain.Goal, feedback *domain.AnswerFeedback) []domain.GoalProgressIntent {
	var intents []domain.GoalProgressIntent
	for _, g := range goals {
		if !g.Active || !goalMatches(g, sess) {
			continue
		}
		switch event {
		case EventAnswerSubmitted:
			if feedback != nil && feedback.IsCorrect {
				intents = append(intents, domain.GoalProgressIntent{
					GoalID: g.ID,
					Delta:  1,
					Reason: "correct answer",
				})
			}
		case EventSessionCompleted:
			intents = append(intents, domain.GoalProgressIntent{
				GoalID: g.ID,
				Delta:  1,
				Reason: "session completed",
			})
		}
	}
	return intents
}

func goalMatches(g domain.Goal, sess *domain.Session) bool {
	if g.ExamID != "" && g.ExamID != sess.ExamID {
		return false
	}
	if g.ProviderID != "" && g.ProviderID != sess.ProviderID {
		return false
	}
	if g.TopicID != "" {
		found := false
		for _, t := range sess.TopicIDs() {
			if t == g.TopicID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Notifier dispatches goal progress updates as a best-effort side channel.
// Every failure is logged and swallowed; session operations never fail
// because of goal tracking.
type Notifier struct {
	goals  GoalStore
	events EventPublisher
}

// NewNotifier builds a notifier; either collaborator may be nil, disabling
// that leg of the dispatch.
func NewNotifier(goals GoalStore, events EventPublisher) *Notifier {
	return &Notifier{goals: goals, events: events}
}

// Notify finds matching goals, applies the computed intents and publishes
// the event.
func (n *Notifier) Notify(ctx context.Context, sess *domain.Session, event GoalEvent, feedback *domain.AnswerFeedback) {
	if n == nil || n.goals == nil {
		return
	}

	goals, err := n.goals.FindMatchingGoals(ctx, domain.GoalFilter{
		ExamID:     sess.ExamID,
		TopicIDs:   sess.TopicIDs(),
		ProviderID: sess.ProviderID,
	})
	if err != nil {
		log.Printf("goal lookup failed for session %s: %v", sess.ID, err)
		return
	}

	for _, intent := range GoalIntents(sess, event, goals, feedback) {
		if err := n.goals.ApplyProgress(ctx, intent.GoalID, intent.Delta); err != nil {
			log.Printf("goal update failed for goal %s (session %s): %v", intent.GoalID, sess.ID, err)
		}
	}

	if n.events != nil {
		payload := map[string]any{
			"sessionId": sess.ID,
			"userId":    sess.UserID,
			"examId":    sess.ExamID,
		}
		if feedback != nil {
			payload["questionId"] = feedback.QuestionID
			payload["isCorrect"] = feedback.IsCorrect
		}
		if err := n.events.Publish(string(event), payload); err != nil {
			log.Printf("event publish failed for session %s: %v", sess.ID, err)
		}
	}
}
