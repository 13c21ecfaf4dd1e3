package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/services"
)

// AccountHandler serves owner registration and per-account endpoints.
type AccountHandler struct {
	Service *services.TokenService
}

// NewAccountHandler creates the handler.
func NewAccountHandler(s *services.TokenService) *AccountHandler {
	return &AccountHandler{Service: s}
}

// RegisterOwner records an owner identity so transfers and stakes can target it.
// POST /owners
func (h *AccountHandler) RegisterOwner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.RegisterOwner(r.Context(), req.Name, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Open idempotently creates a zero-balance record, storage attributed to payer.
// POST /accounts/open
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner  string        `json:"owner"`
		Symbol models.Symbol `json:"symbol"`
		Payer  string        `json:"payer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Open(r.Context(), req.Owner, req.Symbol, req.Payer); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Close deletes a zero-balance record.
// POST /accounts/close
func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner  string `json:"owner"`
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Close(r.Context(), req.Owner, req.Symbol); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBalance returns the owner's full balance.
// GET /accounts/{owner}/{symbol}/balance
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	symbol := chi.URLParam(r, "symbol")

	balance, err := h.Service.GetBalance(r.Context(), owner, symbol)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"balance": balance})
}

// GetUnstakedBalance returns balance minus live stake.
// GET /accounts/{owner}/{symbol}/unstaked
func (h *AccountHandler) GetUnstakedBalance(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	symbol := chi.URLParam(r, "symbol")

	unstaked, err := h.Service.UnstakedBalance(r.Context(), owner, symbol)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"unstaked_balance": unstaked})
}
