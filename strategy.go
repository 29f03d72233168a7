// FILE: strategy.go
// Package main – Core detection and decision logic.
//
// This file declares the market data types used across the bot (Candle),
// the trade direction enum, the gap zone produced by the detector, and the
// two pure decision functions:
//   • DetectGap(candles)                  – classify a three-candle price gap
//   • EvaluateEntry(zone, price, tol)     – approve entry on a zone retest
//
// Both functions are deterministic in their inputs and hold no state, so
// the scheduler can call them every pass without bookkeeping and the tests
// can exercise them directly.

package main

import (
	"fmt"
	"time"
)

// Candle is the normalized OHLCV row the bot uses everywhere. Complete is
// false for the currently-forming bucket; the detector never reads an
// incomplete candle.
type Candle struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Complete bool
}

// Direction is the side of a prospective trade.
type Direction int

const (
	Long Direction = iota
	Short
)

// String implements fmt.Stringer for pretty logging.
func (d Direction) String() string {
	if d == Short {
		return "SHORT"
	}
	return "LONG"
}

// GapZone is the price band left unfilled by a detected gap. Low < High
// always; Direction is the side the gap implies. It is a transient result,
// recomputed every pass and never stored.
type GapZone struct {
	Direction Direction
	Low       float64
	High      float64
}

func (z GapZone) String() string {
	return fmt.Sprintf("%s zone [%.2f, %.2f]", z.Direction, z.Low, z.High)
}

// DetectGap inspects the three most recent completed candles and classifies
// a price gap, if any. Incomplete candles are dropped first; fewer than
// three completed candles is an expected low-data condition, not an error.
//
// With c0 = oldest, c1 = middle, c2 = newest of the three:
//   • bullish gap iff c2.Low > c0.High  → zone [c0.High, c2.Low], Long
//   • bearish gap iff c2.High < c0.Low  → zone [c2.High, c0.Low], Short
//
// c1 is deliberately unused: the middle candle's displacement is what
// creates the gap between its neighbors. Bullish is checked first so
// malformed input (degenerate candles satisfying both) resolves to Long.
func DetectGap(candles []Candle) (GapZone, bool) {
	completed := candles[:0:0]
	for _, c := range candles {
		if c.Complete {
			completed = append(completed, c)
		}
	}
	if len(completed) < 3 {
		return GapZone{}, false
	}

	n := len(completed)
	c0 := completed[n-3]
	c2 := completed[n-1]

	if c2.Low > c0.High {
		return GapZone{Direction: Long, Low: c0.High, High: c2.Low}, true
	}
	if c2.High < c0.Low {
		return GapZone{Direction: Short, Low: c2.High, High: c0.Low}, true
	}
	return GapZone{}, false
}

// Entry verdict reasons. Each maps to a distinguishable operator
// notification; only retest_confirmed triggers an order.
const (
	ReasonRetestConfirmed = "retest_confirmed"
	ReasonNotYetRetested  = "not_yet_retested"
	ReasonNoSignal        = "no_signal"
	ReasonNoPrice         = "no_price"
)

// EntryVerdict captures whether to enter and why.
type EntryVerdict struct {
	Approved  bool
	Direction Direction
	Reason    string
}

// EvaluateEntry decides whether the current price has retested the zone
// closely enough to justify entry: approved iff
// zone.Low - tol <= price <= zone.High + tol, inclusive at both ends.
// A nil zone means the detector found nothing this pass; a non-positive
// price means the price fetch failed upstream. Both reject normally.
func EvaluateEntry(zone *GapZone, price float64, tol float64) EntryVerdict {
	if zone == nil {
		return EntryVerdict{Reason: ReasonNoSignal}
	}
	if price <= 0 {
		return EntryVerdict{Direction: zone.Direction, Reason: ReasonNoPrice}
	}
	if price >= zone.Low-tol && price <= zone.High+tol {
		return EntryVerdict{Approved: true, Direction: zone.Direction, Reason: ReasonRetestConfirmed}
	}
	return EntryVerdict{Direction: zone.Direction, Reason: ReasonNotYetRetested}
}
