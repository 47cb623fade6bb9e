package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/justinnewbold/TAG-sub002/internal/model"
	"github.com/justinnewbold/TAG-sub002/internal/service"
	"github.com/justinnewbold/TAG-sub002/internal/transport/rest/middleware"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	tagSvc     *service.TagService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, tagSvc *service.TagService) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
		tagSvc:     tagSvc,
	}
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	PlayerID string              `json:"playerId"`
	Name     string              `json:"name"`
	Config   model.SessionConfig `json:"config"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "playerId and name are required")
		return
	}

	res, err := h.sessionSvc.Create(r.Context(), service.PlayerInfo{ID: req.PlayerID, Name: req.Name}, req.Config)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !res.OK {
		writeFailure(w, res.Reason)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": res.Session,
		"token":   res.Token,
	})
}

// JoinRequest is the request body for joining a session
type JoinRequest struct {
	JoinCode string `json:"joinCode"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

// Join handles POST /v1/sessions/join
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.JoinCode == "" || req.PlayerID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "joinCode, playerId and name are required")
		return
	}

	res, err := h.sessionSvc.Join(r.Context(), req.JoinCode, service.PlayerInfo{ID: req.PlayerID, Name: req.Name})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !res.OK {
		writeFailure(w, res.Reason)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": res.Session,
		"token":   res.Token,
	})
}

// Leave handles POST /v1/sessions/leave
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	playerID := middleware.GetPlayerID(r.Context())

	res, err := h.sessionSvc.Leave(r.Context(), playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !res.OK {
		writeFailure(w, res.Reason)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// Start handles POST /v1/sessions/{id}/start
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	playerID := middleware.GetPlayerID(r.Context())

	res, err := h.sessionSvc.Start(r.Context(), sessionID, playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !res.OK {
		writeFailure(w, res.Reason)
		return
	}

	writeJSON(w, http.StatusOK, res.Session)
}

// End handles POST /v1/sessions/{id}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	playerID := middleware.GetPlayerID(r.Context())

	res, err := h.sessionSvc.End(r.Context(), sessionID, playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !res.OK {
		writeFailure(w, res.Reason)
		return
	}

	writeJSON(w, http.StatusOK, res.Summary)
}

// TagRequest is the request body for a tag attempt
type TagRequest struct {
	TargetID string `json:"targetId"`
}

// Tag handles POST /v1/sessions/{id}/tag
func (h *SessionHandler) Tag(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	playerID := middleware.GetPlayerID(r.Context())

	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "targetId is required")
		return
	}

	res, err := h.tagSvc.AttemptTag(r.Context(), sessionID, playerID, req.TargetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !res.OK {
		body := map[string]interface{}{
			"error":  res.Reason.Message(),
			"reason": string(res.Reason),
		}
		if res.Reason == service.FailOutOfRange {
			body["distanceM"] = res.DistanceM
		}
		writeJSON(w, statusFor(res.Reason), body)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event":     res.Event,
		"distanceM": res.DistanceM,
		"ended":     res.Ended,
	})
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	sess, err := h.sessionSvc.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Summary handles GET /v1/sessions/{id}/summary
func (h *SessionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	summary, reason, err := h.sessionSvc.Summary(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if reason != service.FailNone {
		writeFailure(w, reason)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeFailure(w http.ResponseWriter, reason service.FailReason) {
	writeJSON(w, statusFor(reason), map[string]string{
		"error":  reason.Message(),
		"reason": string(reason),
	})
}

// statusFor maps a validation failure to an HTTP status.
func statusFor(reason service.FailReason) int {
	switch reason {
	case service.FailSessionNotFound, service.FailTargetNotFound:
		return http.StatusNotFound
	case service.FailNotMember, service.FailNotHost, service.FailNotIt:
		return http.StatusForbidden
	case service.FailSelfTag:
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
