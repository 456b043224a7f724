package domain

import "time"

// SessionStatus is the lifecycle state of a study session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusAbandoned SessionStatus = "abandoned"
)

// Terminal reports whether no further actions may be applied to the session.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Difficulty classifies questions for adaptive selection.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Option is a selectable answer choice.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionCandidate is a catalog question eligible for selection. It is
// read-only from the engine's point of view; the catalog owns it.
type QuestionCandidate struct {
	ID            string     `json:"id"`
	ExamID        string     `json:"examId"`
	ProviderID    string     `json:"providerId"`
	TopicID       string     `json:"topicId"`
	Difficulty    Difficulty `json:"difficulty"`
	Prompt        string     `json:"prompt"`
	Options       []Option   `json:"options"`
	CorrectAnswer []string   `json:"correctAnswer"`
}

// SessionQuestionState tracks a single question within a session.
// UserAnswer nil means no answer has been submitted; IsCorrect nil means the
// question has not been scored.
type SessionQuestionState struct {
	QuestionID       string     `json:"questionId"`
	TopicID          string     `json:"topicId"`
	Difficulty       Difficulty `json:"difficulty"`
	UserAnswer       []string   `json:"userAnswer,omitempty"`
	IsCorrect        *bool      `json:"isCorrect,omitempty"`
	TimeSpentSeconds int        `json:"timeSpentSeconds"`
	Skipped          bool       `json:"skipped"`
	MarkedForReview  bool       `json:"markedForReview"`
}

// Answered reports whether an answer has been recorded.
func (q *SessionQuestionState) Answered() bool {
	return q.UserAnswer != nil
}

// Session is one timed attempt at a set of questions by a user. The engine
// operates on an in-memory copy; the session store owns the canonical record
// and guards it with the Version counter.
type Session struct {
	ID                   string                 `json:"id"`
	UserID               string                 `json:"userId"`
	ExamID               string                 `json:"examId"`
	ProviderID           string                 `json:"providerId,omitempty"`
	SessionType          string                 `json:"sessionType,omitempty"`
	Status               SessionStatus          `json:"status"`
	Questions            []SessionQuestionState `json:"questions"`
	CurrentQuestionIndex int                    `json:"currentQuestionIndex"`
	StartTime            time.Time              `json:"startTime"`
	CompletedAt          *time.Time             `json:"completedAt,omitempty"`
	IsAdaptive           bool                   `json:"isAdaptive"`
	TimeLimitSeconds     int                    `json:"timeLimitSeconds,omitempty"`
	Result               *CompletionResult      `json:"result,omitempty"`
	Version              int64                  `json:"version"`
}

// Clone returns a deep copy so stores can hand out sessions without sharing
// mutable state with the caller.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Questions = make([]SessionQuestionState, len(s.Questions))
	for i, q := range s.Questions {
		qc := q
		if q.UserAnswer != nil {
			qc.UserAnswer = append([]string(nil), q.UserAnswer...)
		}
		if q.IsCorrect != nil {
			v := *q.IsCorrect
			qc.IsCorrect = &v
		}
		cp.Questions[i] = qc
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	if s.Result != nil {
		r := *s.Result
		r.WeakTopics = append([]string(nil), s.Result.WeakTopics...)
		cp.Result = &r
	}
	return &cp
}

// QuestionState finds the state entry for a question ID, or nil.
func (s *Session) QuestionState(questionID string) *SessionQuestionState {
	for i := range s.Questions {
		if s.Questions[i].QuestionID == questionID {
			return &s.Questions[i]
		}
	}
	return nil
}

// TopicIDs returns the distinct topic IDs covered by the session's questions.
func (s *Session) TopicIDs() []string {
	seen := make(map[string]struct{}, len(s.Questions))
	topics := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		if q.TopicID == "" {
			continue
		}
		if _, ok := seen[q.TopicID]; ok {
			continue
		}
		seen[q.TopicID] = struct{}{}
		topics = append(topics, q.TopicID)
	}
	return topics
}

// Progress is the live view of a session recomputed after every mutation.
type Progress struct {
	AnsweredCount      int     `json:"answeredCount"`
	CorrectCount       int     `json:"correctCount"`
	Accuracy           float64 `json:"accuracy"`
	TimeElapsedSeconds int64   `json:"timeElapsedSeconds"`
	CurrentQuestion    int     `json:"currentQuestion"` // 1-based for display
	TotalQuestions     int     `json:"totalQuestions"`
}

// AnswerFeedback is returned to the caller after each submission.
type AnswerFeedback struct {
	QuestionID string  `json:"questionId"`
	IsCorrect  bool    `json:"isCorrect"`
	Score      float64 `json:"score"` // contribution toward the final score
}

// CompletionResult is computed once when a session completes and is
// immutable afterwards.
type CompletionResult struct {
	FinalScore            float64  `json:"finalScore"`
	AccuracyPercentage    float64  `json:"accuracyPercentage"`
	ReadinessForExam      string   `json:"readinessForExam"`
	OverallRecommendation string   `json:"overallRecommendation"`
	WeakTopics            []string `json:"weakTopics,omitempty"`
}

// Topic is the lookup result for a topic ID.
type Topic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuestionDisplay is the enriched, answer-free view of a session question.
type QuestionDisplay struct {
	QuestionID         string     `json:"questionId"`
	Prompt             string     `json:"prompt"`
	Options            []Option   `json:"options"`
	TopicID            string     `json:"topicId"`
	TopicName          string     `json:"topicName"`
	Difficulty         Difficulty `json:"difficulty"`
	TimeAllowedSeconds int        `json:"timeAllowedSeconds"`
}

// Goal is an externally tracked objective incremented by session events.
type Goal struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	ExamID     string `json:"examId,omitempty"`
	TopicID    string `json:"topicId,omitempty"`
	ProviderID string `json:"providerId,omitempty"`
	Target     int    `json:"target"`
	Current    int    `json:"current"`
	Active     bool   `json:"active"`
}

// GoalFilter narrows the goal search; empty fields match everything.
type GoalFilter struct {
	ExamID     string
	TopicIDs   []string
	ProviderID string
}

// GoalProgressIntent is a side-effect the engine wants applied to a goal.
// Intents are computed purely; dispatching them is a separate best-effort
// step that must never fail the primary operation.
type GoalProgressIntent struct {
	GoalID string `json:"goalId"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

// CreateSessionRequest carries the caller's session parameters. Optional
// fields are pointers so absence is distinguishable from the zero value.
type CreateSessionRequest struct {
	UserID        string      `json:"userId"`
	ExamID        string      `json:"examId"`
	ProviderID    string      `json:"providerId,omitempty"`
	SessionType   string      `json:"sessionType,omitempty"`
	QuestionCount *int        `json:"questionCount,omitempty"`
	Topics        []string    `json:"topics,omitempty"`
	Difficulty    *Difficulty `json:"difficulty,omitempty"`
	TimeLimit     *int        `json:"timeLimit,omitempty"`
	IsAdaptive    *bool       `json:"isAdaptive,omitempty"`
}
