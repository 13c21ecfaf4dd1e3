package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/inspace/protocoin/config"
	"github.com/inspace/protocoin/handlers"
	"github.com/inspace/protocoin/scheduler"
	"github.com/inspace/protocoin/services"
	"github.com/inspace/protocoin/storage"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("loading config failed", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewDB(cfg.Database.DSN, cfg.Database.MigrationsDir)
	if err != nil {
		log.Error("connecting to database failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	tokenService := services.NewTokenService(db, db, cfg.Ledger, log)

	sched := scheduler.New(log)
	defer sched.Stop()

	tokenHandler := handlers.NewTokenHandler(tokenService)
	accountHandler := handlers.NewAccountHandler(tokenService)
	stakeHandler := handlers.NewStakeHandler(tokenService)
	maintenanceHandler := handlers.NewMaintenanceHandler(
		tokenService, sched, cfg.Ledger.MaintenanceInterval.Std(), log)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.URLFormat)

	r.Route("/tokens", func(r chi.Router) {
		r.Post("/", tokenHandler.CreateToken)
		r.Post("/issue", tokenHandler.Issue)
		r.Post("/transfer", tokenHandler.Transfer)
		r.Get("/{symbol}/supply", tokenHandler.GetSupply)
	})

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/open", accountHandler.Open)
		r.Post("/close", accountHandler.Close)
		r.Get("/{owner}/{symbol}/balance", accountHandler.GetBalance)
		r.Get("/{owner}/{symbol}/unstaked", accountHandler.GetUnstakedBalance)
	})

	r.Post("/owners", accountHandler.RegisterOwner)

	r.Route("/stakes", func(r chi.Router) {
		r.Post("/", stakeHandler.AddStake)
		r.Get("/{owner}/{symbol}", stakeHandler.GetStake)
		r.Get("/{owner}/{symbol}/weight", stakeHandler.GetStakeWeight)
	})

	r.Post("/maintenance/{symbol}", maintenanceHandler.Run)

	log.Info("server listening", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
