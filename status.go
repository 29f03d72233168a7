// FILE: status.go
// Package main – Liveness and status HTTP server.
//
// A small read-only surface for operators and deployment probes:
//   • GET /         – liveness text (the platform health check hits this)
//   • GET /healthz  – "ok"
//   • GET /status   – JSON snapshot of the scheduler's daily state
//   • GET /metrics  – Prometheus text exposition
//
// Handlers only ever read value snapshots; they cannot mutate scheduler
// state or block the trading loop.

package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusServer serves the operator-facing read-only endpoints.
type StatusServer struct {
	scheduler *DailyScheduler
	router    *mux.Router
}

func NewStatusServer(scheduler *DailyScheduler) *StatusServer {
	s := &StatusServer{
		scheduler: scheduler,
		router:    mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *StatusServer) setupRoutes() {
	s.router.HandleFunc("/", s.handleHome).Methods("GET")
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods("GET")
	s.router.HandleFunc("/status", s.handleStatus).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// Handler returns the root handler for http.Server wiring in main.go.
func (s *StatusServer) Handler() http.Handler { return s.router }

func (s *StatusServer) handleHome(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintln(w, "gap bot is alive!")
}

func (s *StatusServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok\n"))
}

func (s *StatusServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.scheduler.Snapshot())
}
