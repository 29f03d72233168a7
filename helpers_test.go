// FILE: helpers_test.go
// Package main – shared fakes for the executor and scheduler tests.

package main

import (
	"context"
	"sync"
	"time"
)

// fakeBroker is a scriptable Broker that records every order it receives.
type fakeBroker struct {
	mu sync.Mutex

	candles   []Candle
	candleErr error
	price     float64
	priceErr  error
	net       float64
	netErr    error

	rejectReason string // non-empty: every order bounces with this reason

	bracketOrders []PlacedOrder
	marketOrders  []int
	netCalls      int
}

func (f *fakeBroker) Name() string { return "fake" }

func (f *fakeBroker) GetRecentCandles(_ context.Context, _, _ string, count int) ([]Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.candleErr != nil {
		return nil, f.candleErr
	}
	cs := f.candles
	if count > 0 && len(cs) > count {
		cs = cs[len(cs)-count:]
	}
	out := make([]Candle, len(cs))
	copy(out, cs)
	return out, nil
}

func (f *fakeBroker) GetNowPrice(_ context.Context, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.priceErr != nil {
		return 0, f.priceErr
	}
	return f.price, nil
}

func (f *fakeBroker) PlaceBracketMarket(_ context.Context, instrument string, units int, stopLoss, takeProfit float64) (*PlacedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectReason != "" {
		return nil, &RejectedError{Reason: f.rejectReason}
	}
	po := PlacedOrder{
		ID:         "bracket-1",
		Instrument: instrument,
		Units:      units,
		Price:      f.price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		CreateTime: time.Now(),
	}
	f.bracketOrders = append(f.bracketOrders, po)
	f.net += float64(units)
	return &po, nil
}

func (f *fakeBroker) PlaceMarket(_ context.Context, instrument string, units int) (*PlacedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectReason != "" {
		return nil, &RejectedError{Reason: f.rejectReason}
	}
	f.marketOrders = append(f.marketOrders, units)
	f.net += float64(units)
	return &PlacedOrder{ID: "market-1", Instrument: instrument, Units: units, Price: f.price}, nil
}

func (f *fakeBroker) GetNetPosition(_ context.Context, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.netCalls++
	if f.netErr != nil {
		return 0, f.netErr
	}
	return f.net, nil
}

// fakeNotifier records every message it is asked to send.
type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Send(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}

// testConfig returns a validated config with production defaults, pointed
// at the fake backends.
func testConfig() *Config {
	return &Config{
		Broker:          "paper",
		Symbol:          "NAS100_USD",
		Granularity:     "M5",
		CandleCount:     3,
		PositionSize:    1000,
		GapBuffer:       0.5,
		RetestTol:       10,
		EntryStart:      "14:30",
		EntryEnd:        "15:00",
		ExitTime:        "15:10",
		PollIntervalSec: 15,
		CloseNoiseUnits: 50,
		Port:            5000,
	}
}

// bullishGapCandles builds a canonical bullish gap: c0 {h:100,l:95},
// c2 {h:110,l:102} → bullish zone (100, 102).
func bullishGapCandles() []Candle {
	return []Candle{
		{High: 100, Low: 95, Open: 96, Close: 99, Complete: true},
		{High: 103, Low: 99, Open: 99, Close: 102, Complete: true},
		{High: 110, Low: 102, Open: 102, Close: 108, Complete: true},
	}
}

// at builds a wall-clock instant on a fixed date.
func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.Local)
}
