package httpapi

import (
	"net/http"
	"strconv"

	"github.com/ArenaX-Network/arena_layer/internal/app/services/trading"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/internal/middleware"
)

func (h *Handler) handleTradeExecute(w http.ResponseWriter, r *http.Request) {
	var req trading.Request
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}
	if agentID := middleware.GetAgentID(r.Context()); agentID != "" {
		req.AgentID = agentID
	} else if req.AgentID == "" {
		h.jsonError(w, r, errors.Validation("agent_id is required"))
		return
	} else if err := h.authorizeAgent(r, req.AgentID); err != nil {
		h.jsonError(w, r, err)
		return
	}
	t, err := h.app.Trading.ExecuteTrade(r.Context(), req)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.stream.Publish("competition:"+t.CompetitionID, "trade", t)
	h.writeJSON(w, http.StatusOK, map[string]any{"trade": t})
}

func (h *Handler) handleTradeQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil || amount <= 0 {
		h.jsonError(w, r, errors.Validation("amount must be a positive number"))
		return
	}
	fromToken, toToken := q.Get("from_token"), q.Get("to_token")
	if fromToken == "" || toToken == "" {
		h.jsonError(w, r, errors.Validation("from_token and to_token are required"))
		return
	}
	fromChain, toChain := q.Get("from_chain"), q.Get("to_chain")
	toAmount, rate, err := h.app.Pricing.Quote(r.Context(), fromToken, fromChain, toToken, toChain, amount)
	if err != nil {
		h.jsonError(w, r, errors.Validation("quote unavailable").WithDetail(err.Error()))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"from_token":  fromToken,
		"from_chain":  fromChain,
		"to_token":    toToken,
		"to_chain":    toChain,
		"from_amount": amount,
		"to_amount":   toAmount,
		"rate":        rate,
	})
}

func (h *Handler) handlePrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")
	if token == "" {
		h.jsonError(w, r, errors.Validation("token query parameter is required"))
		return
	}
	chain := q.Get("chain")
	price, err := h.app.Pricing.Price(r.Context(), token, chain)
	if err != nil {
		h.jsonError(w, r, errors.NotFound("price unavailable").WithDetail(err.Error()))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"chain": chain,
		"price": price,
	})
}
