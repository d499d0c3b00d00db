// Package api exposes consultations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/mediz/internal/learner"
	"github.com/abhisek/mediz/internal/session"
	"github.com/abhisek/mediz/internal/stars"
	"github.com/abhisek/mediz/internal/store"
	"github.com/abhisek/mediz/internal/transcript"
)

// Consultations is the session orchestrator as seen by the HTTP layer.
type Consultations interface {
	HandleTurn(ctx context.Context, req session.TurnRequest) (*session.TurnResult, error)
	Terminate(ctx context.Context, learnerID, sessionID string, diagnosis *string) (bool, error)
	Get(ctx context.Context, learnerID, sessionID string) (*session.Session, error)
	Progression(ctx context.Context, learnerID string) (*session.Progression, error)
}

// Profiles resolves and updates learners.
type Profiles interface {
	GetOrCreate(ctx context.Context, id string) (*learner.Learner, error)
	UpdateProfile(ctx context.Context, id string, upd learner.ProfileUpdate) (*learner.Learner, error)
}

// ErrorMarker flags pedagogical errors as corrected.
type ErrorMarker interface {
	MarkErrorCorrected(ctx context.Context, errorID string) error
}

// Handler serves the consultation endpoints.
type Handler struct {
	log      *zap.Logger
	sessions Consultations
	learners Profiles
	errors   ErrorMarker
	locks    *keyedMutex
}

// NewHandler creates a Handler.
func NewHandler(log *zap.Logger, sessions Consultations, learners Profiles, errs ErrorMarker) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		log:      log.With(zap.String("handler", "consultation")),
		sessions: sessions,
		learners: learners,
		errors:   errs,
		locks:    newKeyedMutex(),
	}
}

type turnRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// POST /api/turns
func (h *Handler) SubmitTurn(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	id := learnerID(c)

	key := "learner:" + id
	if req.SessionID != "" {
		key = "session:" + req.SessionID
	}
	unlock := h.locks.Lock(key)
	defer unlock()

	res, err := h.sessions.HandleTurn(c.Request.Context(), session.TurnRequest{
		LearnerID: id,
		Message:   req.Message,
		SessionID: req.SessionID,
	})
	switch {
	case errors.Is(err, session.ErrEmptyMessage), errors.Is(err, session.ErrMissingLearner):
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	case err != nil:
		h.log.Error("turn failed", zap.String("learner_id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", errors.New("turn could not be processed"))
		return
	}
	respondOK(c, res)
}

type terminateRequest struct {
	Diagnosis *string `json:"diagnosis"`
}

// POST /api/sessions/:id/terminate
func (h *Handler) TerminateSession(c *gin.Context) {
	var req terminateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	sessionID := c.Param("id")

	unlock := h.locks.Lock("session:" + sessionID)
	defer unlock()

	ok, err := h.sessions.Terminate(c.Request.Context(), learnerID(c), sessionID, req.Diagnosis)
	if err != nil {
		h.log.Error("terminate failed", zap.String("session_id", sessionID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", errors.New("session could not be terminated"))
		return
	}
	if !ok {
		respondError(c, http.StatusNotFound, "not_found", errors.New("session not found"))
		return
	}
	respondOK(c, gin.H{"session_id": sessionID, "terminated": true})
}

type sessionView struct {
	ID                string            `json:"id"`
	LevelID           string            `json:"level_id"`
	Objective         string            `json:"objective"`
	CaseTitle         string            `json:"case_title"`
	State             string            `json:"state"`
	StarScore         int               `json:"star_score"`
	Badge             string            `json:"badge"`
	StartedAt         time.Time         `json:"started_at"`
	EndedAt           *time.Time        `json:"ended_at,omitempty"`
	ProposedDiagnosis *string           `json:"proposed_diagnosis,omitempty"`
	DiagnosisCorrect  bool              `json:"diagnosis_correct"`
	Feedback          string            `json:"feedback,omitempty"`
	Turns             []transcript.Turn `json:"turns"`
}

// GET /api/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), learnerID(c), c.Param("id"))
	if err != nil {
		h.log.Error("load session failed", zap.String("session_id", c.Param("id")), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", errors.New("session could not be loaded"))
		return
	}
	if sess == nil {
		respondError(c, http.StatusNotFound, "not_found", errors.New("session not found"))
		return
	}

	turns := sess.History.Turns()
	respondOK(c, sessionView{
		ID:                sess.ID,
		LevelID:           sess.LevelID,
		Objective:         sess.Objective,
		CaseTitle:         sess.CaseTitle(),
		State:             string(sess.State),
		StarScore:         sess.StarScore,
		Badge:             string(stars.SessionBadge(sess.StarScore, sess.History.Count(transcript.AuthorLearner))),
		StartedAt:         sess.StartedAt,
		EndedAt:           sess.EndedAt,
		ProposedDiagnosis: sess.ProposedDiagnosis,
		DiagnosisCorrect:  sess.DiagnosisCorrect,
		Feedback:          sess.Feedback,
		Turns:             turns,
	})
}

// GET /api/progression
func (h *Handler) GetProgression(c *gin.Context) {
	p, err := h.sessions.Progression(c.Request.Context(), learnerID(c))
	if err != nil {
		h.log.Error("progression failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", errors.New("progression unavailable"))
		return
	}
	respondOK(c, p)
}

type profileRequest struct {
	ExpertiseTier *string `json:"expertise_tier"`
	Specialty     *string `json:"specialty"`
	Domain        *string `json:"domain"`
	AppLevel      *string `json:"app_level"`
}

type learnerView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	FirstName     string    `json:"first_name"`
	Email         string    `json:"email,omitempty"`
	RegisteredAt  time.Time `json:"registered_at"`
	ExpertiseTier string    `json:"expertise_tier"`
	Specialty     string    `json:"specialty"`
	Domain        string    `json:"domain"`
	AppLevel      string    `json:"app_level"`
}

// PATCH /api/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	upd := learner.ProfileUpdate{Specialty: req.Specialty, Domain: req.Domain, AppLevel: req.AppLevel}
	if req.ExpertiseTier != nil {
		tier, err := learner.ParseTier(*req.ExpertiseTier)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		upd.Tier = &tier
	}

	ctx := c.Request.Context()
	id := learnerID(c)
	if _, err := h.learners.GetOrCreate(ctx, id); err != nil {
		h.log.Error("resolve learner failed", zap.String("learner_id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", errors.New("learner unavailable"))
		return
	}
	l, err := h.learners.UpdateProfile(ctx, id, upd)
	if err != nil {
		h.log.Error("profile update failed", zap.String("learner_id", id), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", errors.New("profile could not be updated"))
		return
	}
	respondOK(c, learnerView{
		ID:            l.ID,
		Name:          l.Name,
		FirstName:     l.FirstName,
		Email:         l.Email,
		RegisteredAt:  l.RegisteredAt,
		ExpertiseTier: string(l.Profile.Tier),
		Specialty:     l.Profile.Specialty,
		Domain:        l.Profile.Domain,
		AppLevel:      l.Profile.AppLevel,
	})
}

// POST /api/errors/:id/corrected
func (h *Handler) MarkErrorCorrected(c *gin.Context) {
	err := h.errors.MarkErrorCorrected(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", errors.New("error not found"))
		return
	case err != nil:
		h.log.Error("mark corrected failed", zap.String("error_id", c.Param("id")), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal", errors.New("error could not be updated"))
		return
	}
	respondOK(c, gin.H{"id": c.Param("id"), "corrected": true})
}

// GET /healthz
func Health(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}
