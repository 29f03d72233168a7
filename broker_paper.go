// FILE: broker_paper.go
// Package main – In-memory paper broker (no external dependencies).
//
// This broker simulates execution against a seedable price and candle
// series. It is used for dry runs (BROKER=paper) and by the tests. Orders
// accumulate into a signed net position so the daily flatten path behaves
// the same way it does against the real venue.
//
// Methods:
//   • Name() string
//   • GetRecentCandles(ctx, instrument, granularity, count)
//   • GetNowPrice(ctx, instrument)
//   • PlaceBracketMarket(ctx, instrument, units, stopLoss, takeProfit)
//   • PlaceMarket(ctx, instrument, units)
//   • GetNetPosition(ctx, instrument)
//   • SeedPrice / SeedCandles – test and dry-run setup hooks

package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PaperBroker keeps a mutable price, candle series, and net position.
type PaperBroker struct {
	mu       sync.Mutex
	price    float64
	candles  []Candle
	position float64
}

func NewPaperBroker() *PaperBroker { return &PaperBroker{} }

func (p *PaperBroker) Name() string { return "paper" }

// SeedPrice sets the price the next market order fills at.
func (p *PaperBroker) SeedPrice(px float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.price = px
}

// SeedCandles replaces the candle series returned by GetRecentCandles.
func (p *PaperBroker) SeedCandles(cs []Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candles = append(p.candles[:0], cs...)
}

func (p *PaperBroker) GetRecentCandles(ctx context.Context, instrument, granularity string, count int) ([]Candle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cs := p.candles
	if count > 0 && len(cs) > count {
		cs = cs[len(cs)-count:]
	}
	out := make([]Candle, len(cs))
	copy(out, cs)
	return out, nil
}

func (p *PaperBroker) GetNowPrice(ctx context.Context, instrument string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.price <= 0 {
		p.price = 15000 // bootstrap price if none seeded yet
	}
	return p.price, nil
}

func (p *PaperBroker) PlaceBracketMarket(ctx context.Context, instrument string, units int, stopLoss, takeProfit float64) (*PlacedOrder, error) {
	if units == 0 {
		return nil, &RejectedError{Reason: "units must be non-zero"}
	}
	px, _ := p.GetNowPrice(ctx, instrument)
	p.mu.Lock()
	p.position += float64(units)
	p.mu.Unlock()
	return &PlacedOrder{
		ID:         uuid.New().String(),
		Instrument: instrument,
		Units:      units,
		Price:      px,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		CreateTime: time.Now().UTC(),
	}, nil
}

func (p *PaperBroker) PlaceMarket(ctx context.Context, instrument string, units int) (*PlacedOrder, error) {
	if units == 0 {
		return nil, &RejectedError{Reason: "units must be non-zero"}
	}
	px, _ := p.GetNowPrice(ctx, instrument)
	p.mu.Lock()
	p.position += float64(units)
	p.mu.Unlock()
	return &PlacedOrder{
		ID:         uuid.New().String(),
		Instrument: instrument,
		Units:      units,
		Price:      px,
		CreateTime: time.Now().UTC(),
	}, nil
}

func (p *PaperBroker) GetNetPosition(ctx context.Context, instrument string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position, nil
}
