// FILE: executor.go
// Package main – Order execution: bracket entries and position flattening.
//
// OrderExecutor owns the two broker-facing actions the scheduler can take:
//   • OpenBracket – fetch a fresh price, derive protective levels, submit a
//     single market order with stop-loss and take-profit attached
//   • Flatten – read the net position and submit the offsetting order that
//     nets it to zero, skipping when already flat to the noise threshold
//
// Protective levels follow the fixed-offset rule:
//   LONG:  SL = price − buffer, TP = price + 2·buffer, units = +size
//   SHORT: SL = price + buffer, TP = price − 2·buffer, units = −size
// Levels are rounded to one decimal place before submission.
//
// Every outcome – fill, refusal, fetch failure, nothing-to-close – is
// reported to the operator channel so the day can be audited afterwards.

package main

import (
	"context"
	"fmt"
	"log"
	"math"
)

// OrderExecutor submits entries and closes through the configured broker.
type OrderExecutor struct {
	broker     Broker
	notifier   Notifier
	instrument string
	size       int     // units per entry, always positive
	buffer     float64 // protective-level offset in price units
	noiseUnits float64 // |net| at or below this counts as flat
}

func NewOrderExecutor(cfg *Config, broker Broker, notifier Notifier) *OrderExecutor {
	return &OrderExecutor{
		broker:     broker,
		notifier:   notifier,
		instrument: cfg.Symbol,
		size:       cfg.PositionSize,
		buffer:     cfg.GapBuffer,
		noiseUnits: cfg.CloseNoiseUnits,
	}
}

// OpenBracket submits today's single bracketed entry in the given
// direction. A refusal is notified and returned, never retried here; a
// price-fetch failure is returned as a *FetchError so the caller can tell
// an aborted attempt from a refused one.
func (e *OrderExecutor) OpenBracket(ctx context.Context, dir Direction) error {
	price, err := e.broker.GetNowPrice(ctx, e.instrument)
	if err != nil {
		log.Printf("[EXEC] entry price fetch failed: %v", err)
		e.notifier.Send(fmt.Sprintf("Entry %s aborted: price unavailable (%v)", dir, err))
		return err
	}

	var stopLoss, takeProfit float64
	units := e.size
	if dir == Long {
		stopLoss = roundPrice(price - e.buffer)
		takeProfit = roundPrice(price + 2*e.buffer)
	} else {
		stopLoss = roundPrice(price + e.buffer)
		takeProfit = roundPrice(price - 2*e.buffer)
		units = -e.size
	}

	placed, err := e.broker.PlaceBracketMarket(ctx, e.instrument, units, stopLoss, takeProfit)
	if err != nil {
		IncOrder("bracket", "rejected")
		reason, ok := IsRejected(err)
		if !ok {
			reason = err.Error()
		}
		log.Printf("[EXEC] bracket order rejected: %s", reason)
		e.notifier.Send(fmt.Sprintf("TRADE %s %s REJECTED: %s", dir, e.instrument, reason))
		return err
	}

	IncOrder("bracket", "accepted")
	log.Printf("[EXEC] %s %s filled: entry=%.2f sl=%.1f tp=%.1f units=%d id=%s",
		dir, e.instrument, price, stopLoss, takeProfit, units, placed.ID)
	e.notifier.Send(fmt.Sprintf("TRADE %s %s\nEntry ≈ %.2f\nSL %.1f | TP %.1f", dir, e.instrument, price, stopLoss, takeProfit))
	return nil
}

// Flatten nets the broker-reported position to zero. A position inside the
// noise threshold counts as flat and submits nothing, so repeated exit
// evaluations are idempotent. Failures are reported and swallowed: the
// daily close must never take the scheduler loop down with it.
func (e *OrderExecutor) Flatten(ctx context.Context) {
	net, err := e.broker.GetNetPosition(ctx, e.instrument)
	if err != nil {
		IncClose("error")
		log.Printf("[EXEC] position fetch failed: %v", err)
		e.notifier.Send(fmt.Sprintf("Close check failed: %v", err))
		return
	}
	SetNetPositionMetric(net)

	if math.Abs(net) <= e.noiseUnits {
		IncClose("flat")
		log.Printf("[EXEC] close check: flat (net=%.1f, noise=%.1f)", net, e.noiseUnits)
		return
	}

	closeUnits := -int(net) // sign-inverted, integer-truncated
	placed, err := e.broker.PlaceMarket(ctx, e.instrument, closeUnits)
	if err != nil {
		IncClose("error")
		reason, ok := IsRejected(err)
		if !ok {
			reason = err.Error()
		}
		log.Printf("[EXEC] close order failed: %s", reason)
		e.notifier.Send(fmt.Sprintf("Close %s FAILED: %s", e.instrument, reason))
		return
	}

	IncClose("closed")
	SetNetPositionMetric(0)
	log.Printf("[EXEC] position closed: units=%d id=%s", closeUnits, placed.ID)
	e.notifier.Send(fmt.Sprintf("Position closed (%+d units)", closeUnits))
}

// roundPrice rounds a protective level to one decimal place, matching the
// venue's accepted precision for the index CFDs this bot trades.
func roundPrice(p float64) float64 {
	return math.Round(p*10) / 10
}
