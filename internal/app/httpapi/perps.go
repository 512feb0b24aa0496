package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ArenaX-Network/arena_layer/internal/app/services/perpsmon"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/internal/middleware"
)

// perpsService guards against the monitor being disabled at startup.
func (h *Handler) perpsService() (*perpsmon.Service, error) {
	if h.app.Perps == nil {
		return nil, errors.NotFound("perps monitoring is not enabled")
	}
	return h.app.Perps, nil
}

func (h *Handler) handlePerpsPositions(w http.ResponseWriter, r *http.Request) {
	svc, err := h.perpsService()
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		h.jsonError(w, r, errors.Validation("agent_id query parameter is required"))
		return
	}
	if err := h.authorizeAgent(r, agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	positions, err := svc.Positions(r.Context(), agentID, mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"positions": positions})
}

func (h *Handler) handlePerpsSummary(w http.ResponseWriter, r *http.Request) {
	svc, err := h.perpsService()
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		h.jsonError(w, r, errors.Validation("agent_id query parameter is required"))
		return
	}
	if err := h.authorizeAgent(r, agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	summary, err := svc.AccountSummary(r.Context(), agentID, mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func (h *Handler) handlePerpsRisk(w http.ResponseWriter, r *http.Request) {
	svc, err := h.perpsService()
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	agentID := r.URL.Query().Get("agent_id")
	if agentID == "" {
		h.jsonError(w, r, errors.Validation("agent_id query parameter is required"))
		return
	}
	if err := h.authorizeAgent(r, agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	risk, err := svc.Risk(r.Context(), agentID, mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"risk": risk})
}

func (h *Handler) handlePerpsSync(w http.ResponseWriter, r *http.Request) {
	svc, err := h.perpsService()
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	if middleware.GetUserID(r.Context()) == "" {
		h.jsonError(w, r, errors.Unauthorized("user authentication required"))
		return
	}
	result, err := svc.SyncCompetition(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"result": result})
}
