package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"exam-session-service/internal/domain"
	"exam-session-service/internal/session"
)

// Handler exposes the session engine over JSON HTTP.
type Handler struct {
	service *session.Service
	hub     *ProgressHub
}

func NewHandler(service *session.Service, hub *ProgressHub) *Handler {
	return &Handler{service: service, hub: hub}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("GET /sessions/{id}", h.getSession)
	mux.HandleFunc("GET /sessions/{id}/questions", h.getQuestions)
	mux.HandleFunc("POST /sessions/{id}/actions", h.updateSession)
	mux.HandleFunc("POST /sessions/{id}/answers", h.submitAnswer)
	mux.HandleFunc("POST /sessions/{id}/complete", h.completeSession)
	mux.HandleFunc("DELETE /sessions/{id}", h.deleteSession)
	mux.HandleFunc("GET /ws/progress", h.serveProgressWS)
}

type sessionResponse struct {
	Session  *domain.Session  `json:"session"`
	Progress *domain.Progress `json:"progress,omitempty"`
}

type actionRequest struct {
	Action  string                `json:"action"`
	Payload session.ActionPayload `json:"payload"`
}

type answerRequest struct {
	QuestionID       string   `json:"questionId"`
	Answer           []string `json:"answer"`
	TimeSpentSeconds int      `json:"timeSpent"`
	Skipped          bool     `json:"skipped"`
	MarkedForReview  bool     `json:"markedForReview"`
}

type answerResponse struct {
	Feedback domain.AnswerFeedback `json:"feedback"`
	Session  *domain.Session       `json:"session"`
	Progress domain.Progress       `json:"progress"`
}

type completeRequest struct {
	Force bool `json:"force"`
}

type completeResponse struct {
	Session         *domain.Session          `json:"session"`
	DetailedResults *domain.CompletionResult `json:"detailedResults"`
	Recommendations string                   `json:"recommendations"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}
	sess, err := h.service.CreateSession(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Session: sess})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	sess, progress, err := h.service.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Progress: &progress})
}

func (h *Handler) getQuestions(w http.ResponseWriter, r *http.Request) {
	displays, err := h.service.GetSessionQuestions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": displays})
}

func (h *Handler) updateSession(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}
	sess, progress, err := h.service.UpdateSession(r.Context(), r.PathValue("id"), session.Action(req.Action), req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(sess.ID, ProgressUpdate{Status: sess.Status, Progress: progress})
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Progress: &progress})
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.E(domain.KindValidation, "invalid request body"))
		return
	}
	feedback, sess, progress, err := h.service.SubmitAnswer(r.Context(), r.PathValue("id"), session.AnswerSubmission{
		QuestionID:       req.QuestionID,
		Answer:           req.Answer,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Skipped:          req.Skipped,
		MarkedForReview:  req.MarkedForReview,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(sess.ID, ProgressUpdate{Status: sess.Status, Progress: progress})
	writeJSON(w, http.StatusOK, answerResponse{Feedback: feedback, Session: sess, Progress: progress})
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.E(domain.KindValidation, "invalid request body"))
			return
		}
	}
	sess, result, err := h.service.CompleteSession(r.Context(), r.PathValue("id"), req.Force)
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(sess.ID, ProgressUpdate{Status: sess.Status, Progress: domain.Progress{
		AnsweredCount:   len(sess.Questions),
		TotalQuestions:  len(sess.Questions),
		CurrentQuestion: sess.CurrentQuestionIndex + 1,
	}})
	writeJSON(w, http.StatusOK, completeResponse{
		Session:         sess,
		DetailedResults: result,
		Recommendations: result.OverallRecommendation,
	})
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

type errorBody struct {
	Error      string `json:"error"`
	Kind       string `json:"kind"`
	SessionID  string `json:"sessionId,omitempty"`
	QuestionID string `json:"questionId,omitempty"`
	Action     string `json:"action,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error(), Kind: string(domain.KindInternal)}
	status := http.StatusInternalServerError

	var de *domain.Error
	if errors.As(err, &de) {
		body.Kind = string(de.Kind)
		body.Error = de.Message
		body.SessionID = de.SessionID
		body.QuestionID = de.QuestionID
		body.Action = de.Action
		switch de.Kind {
		case domain.KindValidation:
			status = http.StatusBadRequest
		case domain.KindNotFound:
			status = http.StatusNotFound
		case domain.KindConflict:
			status = http.StatusConflict
		case domain.KindEmptyPool:
			status = http.StatusUnprocessableEntity
		}
	}
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, status, body)
}
