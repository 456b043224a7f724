package session

import (
	"fmt"
	"sort"
	"strings"

	"exam-session-service/internal/domain"
)

// Readiness buckets derived from completion accuracy.
const (
	ReadinessReady       = "ready"
	ReadinessNeedsReview = "needs review"
	ReadinessNotReady    = "not ready"
)

// ReadinessPolicy holds the accuracy cut points for the readiness buckets.
// The exact thresholds are operator policy, not business law.
type ReadinessPolicy struct {
	ReadyAccuracy     float64 `yaml:"ready"`
	ReviewAccuracy    float64 `yaml:"review"`
	WeakTopicAccuracy float64 `yaml:"weakTopic"`
}

// DefaultReadinessPolicy mirrors the conventional 80/60 split.
func DefaultReadinessPolicy() ReadinessPolicy {
	return ReadinessPolicy{
		ReadyAccuracy:     80,
		ReviewAccuracy:    60,
		WeakTopicAccuracy: 60,
	}
}

// ComputeProgress derives the live progress view of a session. Accuracy on a
// session with no answers is zero, never a division by zero.
func ComputeProgress(sess *domain.Session, clock Clock) domain.Progress {
	answered, correct := 0, 0
	for _, q := range sess.Questions {
		if q.Answered() {
			answered++
		}
		if q.IsCorrect != nil && *q.IsCorrect {
			correct++
		}
	}

	accuracy := 0.0
	if answered > 0 {
		accuracy = 100 * float64(correct) / float64(answered)
	}

	return domain.Progress{
		AnsweredCount:      answered,
		CorrectCount:       correct,
		Accuracy:           accuracy,
		TimeElapsedSeconds: int64(clock().Sub(sess.StartTime).Seconds()),
		CurrentQuestion:    sess.CurrentQuestionIndex + 1,
		TotalQuestions:     len(sess.Questions),
	}
}

// Evaluator turns a completed session into its final result and readiness
// recommendation.
type Evaluator struct {
	policy ReadinessPolicy
}

func NewEvaluator(policy ReadinessPolicy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Evaluate computes the final score against all questions, the accuracy
// against answered questions, and a categorical readiness with a templated
// recommendation.
func (e *Evaluator) Evaluate(sess *domain.Session, clock Clock) domain.CompletionResult {
	progress := ComputeProgress(sess, clock)

	finalScore := 0.0
	if progress.TotalQuestions > 0 {
		finalScore = 100 * float64(progress.CorrectCount) / float64(progress.TotalQuestions)
	}

	readiness := ReadinessNotReady
	switch {
	case progress.Accuracy >= e.policy.ReadyAccuracy:
		readiness = ReadinessReady
	case progress.Accuracy >= e.policy.ReviewAccuracy:
		readiness = ReadinessNeedsReview
	}

	weak := e.weakTopics(sess)

	return domain.CompletionResult{
		FinalScore:            finalScore,
		AccuracyPercentage:    progress.Accuracy,
		ReadinessForExam:      readiness,
		OverallRecommendation: recommendation(readiness, progress.Accuracy, weak),
		WeakTopics:            weak,
	}
}

// weakTopics lists topic IDs whose per-topic accuracy falls below the policy
// threshold. Topics with no answered questions are skipped.
func (e *Evaluator) weakTopics(sess *domain.Session) []string {
	type tally struct{ answered, correct int }
	byTopic := make(map[string]*tally)
	for _, q := range sess.Questions {
		if q.TopicID == "" || !q.Answered() {
			continue
		}
		t, ok := byTopic[q.TopicID]
		if !ok {
			t = &tally{}
			byTopic[q.TopicID] = t
		}
		t.answered++
		if q.IsCorrect != nil && *q.IsCorrect {
			t.correct++
		}
	}

	var weak []string
	for topicID, t := range byTopic {
		accuracy := 100 * float64(t.correct) / float64(t.answered)
		if accuracy < e.policy.WeakTopicAccuracy {
			weak = append(weak, topicID)
		}
	}
	sort.Strings(weak)
	return weak
}

func recommendation(readiness string, accuracy float64, weakTopics []string) string {
	var b strings.Builder
	switch readiness {
	case ReadinessReady:
		fmt.Fprintf(&b, "You answered %.0f%% correctly. You look ready for the exam.", accuracy)
	case ReadinessNeedsReview:
		fmt.Fprintf(&b, "You answered %.0f%% correctly. Review your weaker areas before booking the exam.", accuracy)
	default:
		fmt.Fprintf(&b, "You answered %.0f%% correctly. More practice is needed before attempting the exam.", accuracy)
	}
	if len(weakTopics) > 0 {
		fmt.Fprintf(&b, " Focus on: %s.", strings.Join(weakTopics, ", "))
	}
	return b.String()
}
