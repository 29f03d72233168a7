// FILE: broker.go
// Package main – Broker abstractions shared by all execution backends.
//
// This file defines the minimal interface the scheduler loop needs to talk
// to a market backend (paper or real):
//   • Broker interface: recent candles, current price, bracketed market
//     order, plain market order, net position
//   • Common types: PlacedOrder
//   • Error taxonomy: FetchError (transient reads) and RejectedError
//     (broker refused an order)
//
// Two concrete implementations live in separate files:
//   • broker_paper.go – in-memory paper broker (no external calls)
//   • broker_oanda.go – HTTP client for the OANDA v20 REST API

package main

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PlacedOrder is a normalized view of an accepted market order.
type PlacedOrder struct {
	ID         string
	Instrument string
	Units      int // signed: >0 long, <0 short
	Price      float64
	StopLoss   float64 // 0 when no bracket attached
	TakeProfit float64 // 0 when no bracket attached
	CreateTime time.Time
}

// Broker is the minimal surface the bot needs to operate.
type Broker interface {
	Name() string

	// GetRecentCandles returns up to count candles at the given granularity,
	// ordered oldest first (newest last). Failures wrap *FetchError.
	GetRecentCandles(ctx context.Context, instrument, granularity string, count int) ([]Candle, error)

	// GetNowPrice returns the current tradeable price. Failures wrap *FetchError.
	GetNowPrice(ctx context.Context, instrument string) (float64, error)

	// PlaceBracketMarket submits one market order with stop-loss and
	// take-profit attached atomically: the venue accepts or refuses the whole
	// bracket, never a partial attachment. Refusals wrap *RejectedError.
	PlaceBracketMarket(ctx context.Context, instrument string, units int, stopLoss, takeProfit float64) (*PlacedOrder, error)

	// PlaceMarket submits a plain market order (used to flatten).
	// Refusals wrap *RejectedError.
	PlaceMarket(ctx context.Context, instrument string, units int) (*PlacedOrder, error)

	// GetNetPosition returns signed net units for the instrument
	// (long units + short units). Failures wrap *FetchError.
	GetNetPosition(ctx context.Context, instrument string) (float64, error)
}

// FetchError marks a transient read failure (candles, price, position).
// The loop treats it as "no data this pass" and moves on; it is never fatal
// and never retried within the same pass.
type FetchError struct {
	Op  string // e.g. "candles", "pricing", "position"
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Op, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// RejectedError marks an order the broker refused. It reaches the operator
// channel but never crashes the loop.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "order rejected: " + e.Reason }

// IsFetchError reports whether err is (or wraps) a transient read failure.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsRejected reports whether err is (or wraps) a broker refusal, returning
// the refusal reason when it is.
func IsRejected(err error) (string, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}
