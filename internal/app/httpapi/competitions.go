package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/ArenaX-Network/arena_layer/internal/app/domain/competition"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/internal/middleware"
)

func (h *Handler) handleCompetitionList(w http.ResponseWriter, r *http.Request) {
	status := competition.Status(r.URL.Query().Get("status"))
	list, err := h.app.Competitions.List(r.Context(), status)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	total := len(list)
	offset, err := queryInt(r, "offset")
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	if offset > len(list) {
		offset = len(list)
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"competitions": list, "total": total})
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Validation(name + " must be a non-negative integer")
	}
	return n, nil
}

type competitionCreateRequest struct {
	Name            string             `json:"name"`
	Description     string             `json:"description,omitempty"`
	Type            competition.Type   `json:"type,omitempty"`
	SandboxMode     bool               `json:"sandbox_mode,omitempty"`
	Rules           *competition.Rules `json:"rules,omitempty"`
	MaxParticipants int                `json:"max_participants,omitempty"`
	StartAt         time.Time          `json:"start_at,omitempty"`
	EndAt           time.Time          `json:"end_at,omitempty"`
}

func (h *Handler) handleCompetitionCreate(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == "" {
		h.jsonError(w, r, errors.Unauthorized("user authentication required"))
		return
	}
	var req competitionCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}
	c := competition.Competition{
		Name:            req.Name,
		Description:     req.Description,
		Type:            req.Type,
		SandboxMode:     req.SandboxMode,
		MaxParticipants: req.MaxParticipants,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
	}
	if req.Rules != nil {
		c.Rules = *req.Rules
	}
	created, err := h.app.Competitions.Create(r.Context(), c)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"competition": created})
}

func (h *Handler) handleCompetitionGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Competitions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"competition": c})
}

func (h *Handler) handleCompetitionRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.app.Competitions.Rules(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

func (h *Handler) handleCompetitionLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.app.Competitions.Leaderboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func (h *Handler) handleCompetitionStart(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == "" {
		h.jsonError(w, r, errors.Unauthorized("user authentication required"))
		return
	}
	c, err := h.app.Competitions.Start(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.stream.Publish("competition:"+c.ID, "competition", c)
	h.writeJSON(w, http.StatusOK, map[string]any{"competition": c})
}

func (h *Handler) handleCompetitionEnd(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == "" {
		h.jsonError(w, r, errors.Unauthorized("user authentication required"))
		return
	}
	c, err := h.app.Competitions.End(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.stream.Publish("competition:"+c.ID, "competition", c)
	h.writeJSON(w, http.StatusOK, map[string]any{"competition": c})
}

type participantRequest struct {
	AgentID string `json:"agent_id,omitempty"`
}

// resolveAgentID prefers the agent bound to the API key and falls back to
// the agent_id in the request body.
func (h *Handler) resolveAgentID(r *http.Request) (string, error) {
	if agentID := middleware.GetAgentID(r.Context()); agentID != "" {
		return agentID, nil
	}
	var req participantRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	if req.AgentID == "" {
		return "", errors.Validation("agent_id is required")
	}
	if err := h.authorizeAgent(r, req.AgentID); err != nil {
		return "", err
	}
	return req.AgentID, nil
}

func (h *Handler) handleCompetitionJoin(w http.ResponseWriter, r *http.Request) {
	agentID, err := h.resolveAgentID(r)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	p, err := h.app.Competitions.Join(r.Context(), mux.Vars(r)["id"], agentID)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"participant": p})
}

func (h *Handler) handleCompetitionLeave(w http.ResponseWriter, r *http.Request) {
	agentID, err := h.resolveAgentID(r)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	if err := h.app.Competitions.Leave(r.Context(), mux.Vars(r)["id"], agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) handleCompetitionDisqualify(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUserID(r.Context()) == "" {
		h.jsonError(w, r, errors.Unauthorized("user authentication required"))
		return
	}
	var req participantRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}
	if req.AgentID == "" {
		h.jsonError(w, r, errors.Validation("agent_id is required"))
		return
	}
	if err := h.app.Competitions.Disqualify(r.Context(), mux.Vars(r)["id"], req.AgentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nil)
}
