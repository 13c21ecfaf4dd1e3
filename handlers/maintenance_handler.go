package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inspace/protocoin/scheduler"
	"github.com/inspace/protocoin/services"
)

// MaintenanceHandler triggers a maintenance cycle for a symbol and keeps the
// recurring chain alive. One loop per symbol; re-triggering a live chain only
// runs the immediate cycle.
type MaintenanceHandler struct {
	Service  *services.TokenService
	Sched    *scheduler.Scheduler
	Interval time.Duration
	Log      *slog.Logger

	mu    sync.Mutex
	loops map[string]*scheduler.MaintenanceLoop
}

// NewMaintenanceHandler creates the handler.
func NewMaintenanceHandler(s *services.TokenService, sched *scheduler.Scheduler, interval time.Duration, log *slog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		Service:  s,
		Sched:    sched,
		Interval: interval,
		Log:      log,
		loops:    make(map[string]*scheduler.MaintenanceLoop),
	}
}

// Run executes one maintenance cycle now and ensures the self-rescheduling
// chain for the symbol is running.
// POST /maintenance/{symbol}
func (h *MaintenanceHandler) Run(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	if err := h.Service.RunMaintenance(r.Context(), symbol, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}
	if err := h.loopFor(symbol).Start(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *MaintenanceHandler) loopFor(symbol string) *scheduler.MaintenanceLoop {
	h.mu.Lock()
	defer h.mu.Unlock()
	loop, ok := h.loops[symbol]
	if !ok {
		loop = scheduler.NewMaintenanceLoop(h.Service, h.Sched, symbol, h.Interval, h.Log)
		h.loops[symbol] = loop
	}
	return loop
}
