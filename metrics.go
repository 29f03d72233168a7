// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the metrics the bot updates during operation:
//   • bot_passes_total                     – scheduler evaluation passes
//   • bot_gap_signals_total{direction}     – gaps classified (long|short)
//   • bot_entry_outcomes_total{outcome}    – per-pass entry outcomes
//   • bot_orders_total{kind,result}        – orders (bracket|flatten, accepted|rejected)
//   • bot_closes_total{result}             – close checks (flat|closed|error)
//   • bot_traded_today                     – 1 after today's entry attempt, else 0
//   • bot_net_position_units               – last net position read
//   • bot_notify_failures_total            – dropped operator notifications
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format).

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxPasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_passes_total",
			Help: "Scheduler evaluation passes",
		},
	)

	mtxGapSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_gap_signals_total",
			Help: "Gap patterns classified by direction",
		},
		[]string{"direction"}, // long|short
	)

	mtxEntryOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_entry_outcomes_total",
			Help: "Entry-window pass outcomes",
		},
		[]string{"outcome"}, // retest_confirmed|not_yet_retested|no_signal|no_price|fetch_failed
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Orders submitted",
		},
		[]string{"kind", "result"}, // kind: bracket|flatten; result: accepted|rejected
	)

	mtxCloses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_closes_total",
			Help: "Daily close checks by result",
		},
		[]string{"result"}, // flat|closed|error
	)

	mtxTradedToday = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_traded_today",
			Help: "1 once today's single entry attempt has happened, 0 after reset",
		},
	)

	mtxNetPosition = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_net_position_units",
			Help: "Most recently observed net position in units",
		},
	)

	mtxNotifyFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_notify_failures_total",
			Help: "Operator notifications that could not be delivered",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxPasses, mtxGapSignals, mtxEntryOutcomes)
	prometheus.MustRegister(mtxOrders, mtxCloses)
	prometheus.MustRegister(mtxTradedToday, mtxNetPosition, mtxNotifyFailures)
}

// Helper setters used across files.
func IncPass()                           { mtxPasses.Inc() }
func IncGapSignal(direction string)      { mtxGapSignals.WithLabelValues(direction).Inc() }
func IncEntryOutcome(outcome string)     { mtxEntryOutcomes.WithLabelValues(outcome).Inc() }
func IncOrder(kind, result string)       { mtxOrders.WithLabelValues(kind, result).Inc() }
func IncClose(result string)             { mtxCloses.WithLabelValues(result).Inc() }
func SetNetPositionMetric(units float64) { mtxNetPosition.Set(units) }
func IncNotifyFailure()                  { mtxNotifyFailures.Inc() }

func SetTradedToday(traded bool) {
	if traded {
		mtxTradedToday.Set(1)
	} else {
		mtxTradedToday.Set(0)
	}
}
