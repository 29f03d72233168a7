// FILE: scheduler.go
// Package main – The daily state machine and polling loop.
//
// DailyScheduler is the single long-lived control loop. Driven by wall-clock
// time it:
//   • resets its once-per-day flag on the first wake-up after local midnight
//   • runs detect → decide → execute inside the entry window, at most once
//     per calendar day
//   • latches the daily close once the exit time is reached
//
// Concurrency design:
//   - One goroutine owns all state transitions; passes never overlap.
//   - The status server reads a value snapshot via Snapshot(); it can never
//     mutate live state or block the loop.
//   - All broker/notifier calls happen outside the state mutex, and every
//     call carries a timeout well under the polling interval so a hung
//     request cannot starve wake-ups.
//
// Time handling: HH:MM knobs are parsed once into minute-of-day integers.
// The exit trigger is `now >= exitTime`, latched once per day, instead of an
// exact-minute match – loop jitter across the exact exit minute therefore
// cannot skip the daily close.

package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Scheduler states, exposed through the status endpoint.
const (
	StateIdle        = "idle"
	StateEntryWindow = "entry_window"
	StateTraded      = "traded"
)

// resetGraceMinutes is the post-midnight band in which the daily reset may
// fire; the date guard keeps it to exactly once per day.
const resetGraceMinutes = 5

// DailyScheduler gates trade execution to once per day and owns the
// entry/exit timing.
type DailyScheduler struct {
	cfg      *Config
	broker   Broker
	executor *OrderExecutor
	notifier Notifier

	// now is an indirection over time.Now so tests can drive the clock.
	now func() time.Time

	entryStartMin int
	entryEndMin   int
	exitMin       int

	mu            sync.Mutex
	tradedToday   bool
	lastResetDate string
	lastExitDate  string
	lastOutcome   string
	lastPass      time.Time
	// notedToday throttles per-outcome notifications to once per day so a
	// 15s poll does not repeat "not yet retested" for half an hour.
	notedToday map[string]bool
}

// SchedulerStatus is the read-only snapshot served by the status endpoint.
type SchedulerStatus struct {
	Broker      string    `json:"broker"`
	Instrument  string    `json:"instrument"`
	State       string    `json:"state"`
	TradedToday bool      `json:"traded_today"`
	EntryWindow string    `json:"entry_window"`
	ExitTime    string    `json:"exit_time"`
	LastOutcome string    `json:"last_outcome,omitempty"`
	LastPass    time.Time `json:"last_pass"`
}

// NewDailyScheduler wires the loop. Config must already be validated: the
// HH:MM knobs are parsed here without error paths.
func NewDailyScheduler(cfg *Config, broker Broker, executor *OrderExecutor, notifier Notifier) *DailyScheduler {
	startMin, _ := parseClock(cfg.EntryStart)
	endMin, _ := parseClock(cfg.EntryEnd)
	exitMin, _ := parseClock(cfg.ExitTime)
	return &DailyScheduler{
		cfg:           cfg,
		broker:        broker,
		executor:      executor,
		notifier:      notifier,
		now:           time.Now,
		entryStartMin: startMin,
		entryEndMin:   endMin,
		exitMin:       exitMin,
		notedToday:    make(map[string]bool),
	}
}

// Run executes the polling loop until ctx is cancelled. One pass per tick,
// never overlapping.
func (s *DailyScheduler) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.PollIntervalSec) * time.Second
	log.Printf("[SCHED] loop started: instrument=%s window=%s-%s exit=%s poll=%s broker=%s",
		s.cfg.Symbol, s.cfg.EntryStart, s.cfg.EntryEnd, s.cfg.ExitTime, interval, s.broker.Name())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[SCHED] loop stopped")
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

// pass performs one full evaluation: daily reset, at most one
// detect+decide+execute sequence, and at most one close check.
func (s *DailyScheduler) pass(ctx context.Context) {
	IncPass()
	now := s.now()
	today := dateOf(now)

	s.mu.Lock()
	s.lastPass = now
	s.mu.Unlock()

	s.maybeReset(now, today)

	nowMin := minuteOfDay(now)
	if nowMin >= s.entryStartMin && nowMin <= s.entryEndMin && !s.traded() {
		s.tryEntry(ctx, now)
	}

	if nowMin >= s.exitMin && s.latchExit(today) {
		s.executor.Flatten(ctx)
	}
}

// maybeReset clears the daily flag on the first wake-up inside the
// post-midnight grace band. The stored reset date guarantees exactly one
// reset and one "new day" notification per calendar day, no matter how many
// wake-ups land inside the band.
func (s *DailyScheduler) maybeReset(now time.Time, today string) {
	if now.Hour() != 0 || now.Minute() >= resetGraceMinutes {
		return
	}
	s.mu.Lock()
	if s.lastResetDate == today {
		s.mu.Unlock()
		return
	}
	s.lastResetDate = today
	s.tradedToday = false
	s.lastOutcome = ""
	s.notedToday = make(map[string]bool)
	s.mu.Unlock()

	SetTradedToday(false)
	log.Printf("[SCHED] new day %s – daily flag cleared", today)
	s.notifier.Send("New day – bot ready")
}

// tryEntry runs one detect → decide → execute sequence. Whatever the
// outcome, it runs at most once per pass; only an executed entry attempt
// (accepted or rejected by the broker) consumes the day.
func (s *DailyScheduler) tryEntry(ctx context.Context, now time.Time) {
	candles, err := s.broker.GetRecentCandles(ctx, s.cfg.Symbol, s.cfg.Granularity, s.cfg.CandleCount)
	if err != nil {
		// Transient by contract: skip this pass, the next poll retries.
		IncEntryOutcome("fetch_failed")
		s.setOutcome("fetch_failed")
		log.Printf("[SCHED] candle fetch failed, skipping pass: %v", err)
		s.notifyOnce("fetch_failed", fmt.Sprintf("Candle fetch failed, waiting for next poll (%v)", err))
		return
	}

	var zone *GapZone
	if z, ok := DetectGap(candles); ok {
		zone = &z
		IncGapSignal(strings.ToLower(z.Direction.String()))
		log.Printf("[SCHED] gap detected: %s", z)
	}

	price := 0.0
	if zone != nil {
		px, err := s.broker.GetNowPrice(ctx, s.cfg.Symbol)
		if err != nil {
			log.Printf("[SCHED] price fetch failed: %v", err)
		} else {
			price = px
		}
	}

	verdict := EvaluateEntry(zone, price, s.cfg.RetestTol)
	IncEntryOutcome(verdict.Reason)
	s.setOutcome(verdict.Reason)

	if !verdict.Approved {
		switch verdict.Reason {
		case ReasonNoSignal:
			s.notifyOnce(ReasonNoSignal, "Entry window open – no gap pattern yet")
		case ReasonNoPrice:
			s.notifyOnce(ReasonNoPrice, "Gap found but price unavailable, waiting for next poll")
		case ReasonNotYetRetested:
			s.notifyOnce(ReasonNotYetRetested,
				fmt.Sprintf("Gap %s not yet retested (price %.2f)", zone, price))
		}
		return
	}

	s.notifier.Send(fmt.Sprintf("Entry window %s – executing %s trade", now.Format("15:04"), verdict.Direction))
	err = s.executor.OpenBracket(ctx, verdict.Direction)
	if err != nil && IsFetchError(err) {
		// Price vanished between decision and execution: nothing was
		// submitted, so the day stays open for the next poll.
		s.setOutcome("fetch_failed")
		return
	}

	// A submitted attempt consumes the day whether or not the broker
	// accepted it: one bracket submission per calendar day, no same-window
	// retries after a refusal.
	s.markTraded()
	if err != nil {
		s.setOutcome("order_rejected")
		return
	}
	s.setOutcome("order_filled")
}

// latchExit reports whether the daily close should fire now, flipping the
// per-day latch when it does. The close itself stays idempotent; the latch
// only stops the loop from re-polling the broker every pass all afternoon.
func (s *DailyScheduler) latchExit(today string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastExitDate == today {
		return false
	}
	s.lastExitDate = today
	return true
}

func (s *DailyScheduler) traded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tradedToday
}

func (s *DailyScheduler) markTraded() {
	s.mu.Lock()
	s.tradedToday = true
	s.mu.Unlock()
	SetTradedToday(true)
}

func (s *DailyScheduler) setOutcome(outcome string) {
	s.mu.Lock()
	s.lastOutcome = outcome
	s.mu.Unlock()
}

// notifyOnce sends at most one notification per outcome key per day.
func (s *DailyScheduler) notifyOnce(key, text string) {
	s.mu.Lock()
	if s.notedToday[key] {
		s.mu.Unlock()
		return
	}
	s.notedToday[key] = true
	s.mu.Unlock()
	s.notifier.Send(text)
}

// Snapshot returns a copy of the scheduler's state for display. Callers
// never see live references.
func (s *DailyScheduler) Snapshot() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := StateIdle
	nowMin := minuteOfDay(s.now())
	switch {
	case s.tradedToday:
		state = StateTraded
	case nowMin >= s.entryStartMin && nowMin <= s.entryEndMin:
		state = StateEntryWindow
	}

	return SchedulerStatus{
		Broker:      s.broker.Name(),
		Instrument:  s.cfg.Symbol,
		State:       state,
		TradedToday: s.tradedToday,
		EntryWindow: s.cfg.EntryStart + "-" + s.cfg.EntryEnd,
		ExitTime:    s.cfg.ExitTime,
		LastOutcome: s.lastOutcome,
		LastPass:    s.lastPass,
	}
}

// --- wall-clock helpers ---

// parseClock parses a zero-padded "HH:MM" into minutes after midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("bad HH:MM value %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minuteOfDay(t time.Time) int { return t.Hour()*60 + t.Minute() }

func dateOf(t time.Time) string { return t.Format("2006-01-02") }
