// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) LoadConfig()        – .env (godotenv) + envconfig mapping
//   2) cfg.Validate()      – the only fatal error class; bad config aborts here
//   3) wire broker/notifier/executor/scheduler
//   4) start the status server on cfg.Port (liveness, /status, /metrics)
//   5) run the scheduler loop until SIGINT/SIGTERM
//
// Flags:
//   -paper   Force the in-memory paper broker regardless of BROKER/DRY_RUN
//
// Notes:
//   - No environment exports are needed; keep editing .env and restart.
//   - With DRY_RUN=true the paper broker is selected even when OANDA
//     credentials are present.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	var forcePaper bool
	flag.BoolVar(&forcePaper, "paper", false, "Force the in-memory paper broker")
	flag.Parse()

	// ---- Environment & Config ----
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if forcePaper || cfg.DryRun {
		cfg.Broker = "paper"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	// ---- Broker wiring ----
	var broker Broker
	switch strings.ToLower(cfg.Broker) {
	case "paper":
		broker = NewPaperBroker()
	default:
		broker = NewOandaBroker(cfg.OandaAPIKey, cfg.OandaAccountID, cfg.OandaEnv)
	}

	notifier := buildNotifier(cfg)
	executor := NewOrderExecutor(cfg, broker, notifier)
	scheduler := NewDailyScheduler(cfg, broker, executor, notifier)

	// ---- HTTP status/metrics ----
	statusSrv := NewStatusServer(scheduler)
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: statusSrv.Handler()}
	go func() {
		log.Printf("serving status on :%d (/, /status, /metrics)", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	notifier.Send(fmt.Sprintf("Bot deployed: %s via %s, window %s-%s, exit %s",
		cfg.Symbol, broker.Name(), cfg.EntryStart, cfg.EntryEnd, cfg.ExitTime))

	scheduler.Run(ctx)

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}
