package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bridge-lite/apps/server/internal/config"
	"bridge-lite/apps/server/internal/gateway"
	"bridge-lite/apps/server/internal/ledger"
	"bridge-lite/apps/server/internal/lobby"
	"bridge-lite/apps/server/internal/logger"
	"bridge-lite/apps/server/internal/table"
)

const idleTableTTL = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logger.Component("server")

	ledgerService, ledgerMode, err := ledger.NewService(cfg)
	if err != nil {
		log.Error("init ledger service failed", "err", err)
		os.Exit(1)
	}
	defer ledgerService.Close()

	lby := lobby.New(table.Config{
		CallTimeout:    cfg.CallTimeout,
		NextBoardDelay: cfg.NextBoardDelay,
	}, ledgerService)
	defer lby.Close()
	gw := gateway.New(lby)
	resultsHTTP := ledger.NewHTTPHandler(ledgerService, cfg.ResultsLimit, logger.Component("ledger"))

	mux := http.NewServeMux()
	gw.RegisterRoutes(mux)
	resultsHTTP.RegisterRoutes(mux)
	lby.RegisterRoutes(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "ok",
			"tables":        len(lby.ListTables()),
			"connections":   gw.ConnectionCount(),
			"boards_played": lby.BoardsPlayed(),
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				lby.ReapIdle(idleTableTTL)
			}
		}
	}()

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("starting server", "addr", cfg.Addr, "ledger", ledgerMode,
		"call_timeout", cfg.CallTimeout, "next_board_delay", cfg.NextBoardDelay)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
