package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/internal/middleware"
)

type agentCreateRequest struct {
	Name          string `json:"name"`
	WalletAddress string `json:"wallet_address,omitempty"`
	Description   string `json:"description,omitempty"`
}

func (h *Handler) handleAgentCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		h.jsonError(w, r, errors.Unauthorized("user authentication required"))
		return
	}
	var req agentCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}
	a, apiKey, err := h.app.Auth.RegisterAgent(r.Context(), userID, req.Name, req.WalletAddress, req.Description)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	// The API key is returned exactly once; only its hash is stored.
	h.writeJSON(w, http.StatusCreated, map[string]any{"agent": a, "api_key": apiKey})
}

func (h *Handler) handleAgentList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		h.jsonError(w, r, errors.Unauthorized("user authentication required"))
		return
	}
	agents, err := h.app.Auth.Agents(r.Context(), userID)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

func (h *Handler) handleAgentGet(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	if err := h.authorizeAgent(r, agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	a, err := h.app.Auth.Agent(r.Context(), agentID)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"agent": a})
}

type agentUpdateRequest struct {
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (h *Handler) handleAgentUpdate(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	if err := h.authorizeAgent(r, agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	var req agentUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}
	a, err := h.app.Auth.UpdateAgent(r.Context(), agentID, req.Name, req.Description, req.Metadata)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"agent": a})
}

func (h *Handler) handleAgentResetKey(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	if err := h.authorizeAgent(r, agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	apiKey, err := h.app.Auth.ResetAPIKey(r.Context(), agentID)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"api_key": apiKey})
}

func (h *Handler) handleAgentBalances(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	competitionID := r.URL.Query().Get("competition_id")
	if competitionID == "" {
		h.jsonError(w, r, errors.Validation("competition_id query parameter is required"))
		return
	}
	if err := h.authorizeAgent(r, agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	balances, err := h.app.Trading.Balances(r.Context(), agentID, competitionID)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"balances": balances})
}

func (h *Handler) handleAgentTrades(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	competitionID := r.URL.Query().Get("competition_id")
	if competitionID == "" {
		h.jsonError(w, r, errors.Validation("competition_id query parameter is required"))
		return
	}
	if err := h.authorizeAgent(r, agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.jsonError(w, r, errors.Validation("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	trades, err := h.app.Trading.Trades(r.Context(), agentID, competitionID, limit)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"trades": trades})
}

func (h *Handler) handleAgentPortfolio(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]
	competitionID := r.URL.Query().Get("competition_id")
	if competitionID == "" {
		h.jsonError(w, r, errors.Validation("competition_id query parameter is required"))
		return
	}
	if err := h.authorizeAgent(r, agentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	portfolio, err := h.app.Trading.Portfolio(r.Context(), agentID, competitionID)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"portfolio": portfolio})
}

// authorizeAgent permits the agent itself (API-key auth) or the agent's
// owning user.
func (h *Handler) authorizeAgent(r *http.Request, agentID string) error {
	if middleware.GetAgentID(r.Context()) == agentID {
		return nil
	}
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		return errors.Forbidden("not authorized for this agent")
	}
	a, err := h.app.Auth.Agent(r.Context(), agentID)
	if err != nil {
		return err
	}
	if a.OwnerID != userID {
		return errors.Forbidden("not authorized for this agent")
	}
	return nil
}
