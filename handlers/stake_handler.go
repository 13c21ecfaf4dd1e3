package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inspace/protocoin/models"
	"github.com/inspace/protocoin/services"
)

// StakeHandler serves the staking endpoints.
type StakeHandler struct {
	Service *services.TokenService
}

// NewStakeHandler creates the handler.
func NewStakeHandler(s *services.TokenService) *StakeHandler {
	return &StakeHandler{Service: s}
}

// AddStake locks part of the staker's unstaked balance for a duration tier.
// POST /stakes
func (h *StakeHandler) AddStake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Staker        string        `json:"staker"`
		Quantity      models.Amount `json:"quantity"`
		DurationIndex int           `json:"duration_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.AddStake(r.Context(), req.Staker, req.Quantity, req.DurationIndex, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// GetStake returns the owner's total live stake.
// GET /stakes/{owner}/{symbol}
func (h *StakeHandler) GetStake(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	symbol := chi.URLParam(r, "symbol")

	stake, err := h.Service.StakeOf(r.Context(), owner, symbol)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"total_stake": stake})
}

// GetStakeWeight returns the owner's aggregate stake weight.
// GET /stakes/{owner}/{symbol}/weight
func (h *StakeHandler) GetStakeWeight(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	symbol := chi.URLParam(r, "symbol")

	weight, err := h.Service.StakeWeightOf(r.Context(), owner, symbol)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"stake_weight": weight})
}
