package httpapi

import (
	"net/http"
	"strings"

	"github.com/ArenaX-Network/arena_layer/internal/errors"
)

type nonceRequest struct {
	WalletAddress string `json:"wallet_address"`
}

func (h *Handler) handleAuthNonce(w http.ResponseWriter, r *http.Request) {
	var req nonceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}
	nonce, err := h.app.Auth.IssueNonce(r.Context(), req.WalletAddress)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"nonce": nonce})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}
	u, err := h.app.Auth.RegisterUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handler) handleAuthVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}
	u, err := h.app.Auth.VerifyEmail(r.Context(), req.Email, req.Code)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

type loginRequest struct {
	WalletAddress string `json:"wallet_address,omitempty"`
	PublicKey     string `json:"public_key,omitempty"`
	Signature     string `json:"signature,omitempty"`
	Email         string `json:"email,omitempty"`
	Password      string `json:"password,omitempty"`
}

// handleAuthLogin accepts either a wallet-signature login or an
// email/password login, keyed on which fields are present.
func (h *Handler) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.jsonError(w, r, err)
		return
	}
	switch {
	case req.WalletAddress != "":
		token, u, err := h.app.Auth.Login(r.Context(), req.WalletAddress, req.PublicKey, req.Signature)
		if err != nil {
			h.jsonError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": u})
	case req.Email != "":
		token, u, err := h.app.Auth.LoginWithPassword(r.Context(), req.Email, req.Password)
		if err != nil {
			h.jsonError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": u})
	default:
		h.jsonError(w, r, errors.Validation("wallet_address or email is required"))
	}
}

func (h *Handler) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.jsonError(w, r, errors.Unauthorized("missing bearer token"))
		return
	}
	if err := h.app.Auth.Logout(r.Context(), token); err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.jsonError(w, r, errors.Unauthorized("missing bearer token"))
		return
	}
	u, err := h.app.Auth.Me(r.Context(), token)
	if err != nil {
		h.jsonError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
