package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"capitation-engine/internal/config"
	"capitation-engine/internal/handler"
	"capitation-engine/internal/logger"
	"capitation-engine/internal/rules"
	"capitation-engine/internal/scheduler"
	"capitation-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(logger.Config{Level: "info"})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	reg, err := rules.NewRegistry(cfg.RulesRegistryURL, cfg.RulesProfile, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load rule profiles")
	}

	st, err := store.Open(cfg.DatabasePath(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open submission store")
	}
	defer st.Close()

	sched := scheduler.New(log)
	if cfg.SummarySchedule != "" {
		if err := sched.AddJob(cfg.SummarySchedule, scheduler.NewSummaryJob(st, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register summary job")
		}
	}
	sched.Start()
	defer sched.Stop()

	h := handler.New(reg, st, cfg.AdminPasswordHash, cfg.LeaderboardSize, log)
	srv := &fasthttp.Server{
		Handler:      h.Handle,
		Name:         "capitation-engine",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		addr := ":" + strconv.Itoa(cfg.Port)
		if err := srv.ListenAndServe(addr); err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Str("profile", reg.DefaultName()).
		Str("database", cfg.DatabasePath()).
		Msg("Capitation engine started")

	waitForShutdown(log, srv)
}

func waitForShutdown(log zerolog.Logger, srv *fasthttp.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.ShutdownWithContext(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
