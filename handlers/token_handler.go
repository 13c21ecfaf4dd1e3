package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/services"
)

// TokenHandler serves the issuer-facing and transfer endpoints.
type TokenHandler struct {
	Service *services.TokenService
}

// NewTokenHandler creates the handler.
func NewTokenHandler(s *services.TokenService) *TokenHandler {
	return &TokenHandler{Service: s}
}

// CreateToken registers a new symbol with its supply cap.
// POST /tokens
func (h *TokenHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol    models.Symbol `json:"symbol"`
		MaxSupply int64         `json:"max_supply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	maxSupply := models.NewAmount(req.MaxSupply, req.Symbol)
	if err := h.Service.Create(r.Context(), maxSupply, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"max_supply": maxSupply})
}

// Issue mints quantity to the reserve account.
// POST /tokens/issue
func (h *TokenHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity models.Amount `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.Issue(r.Context(), req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Transfer moves funds between owners; a stake_duration_index turns it into
// transfer-then-stake on the recipient.
// POST /tokens/transfer
func (h *TokenHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From               string        `json:"from"`
		To                 string        `json:"to"`
		Quantity           models.Amount `json:"quantity"`
		Memo               string        `json:"memo"`
		StakeDurationIndex *int          `json:"stake_duration_index,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	var err error
	if req.StakeDurationIndex != nil {
		err = h.Service.TransferStaked(r.Context(), req.From, req.To, req.Quantity, req.Memo, *req.StakeDurationIndex, now)
	} else {
		err = h.Service.Transfer(r.Context(), req.From, req.To, req.Quantity, req.Memo, now)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSupply returns the circulating supply for a symbol code.
// GET /tokens/{symbol}/supply
func (h *TokenHandler) GetSupply(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	supply, err := h.Service.GetSupply(r.Context(), symbol)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"supply": supply})
}
