// FILE: config.go
// Package main – Runtime configuration model, env mapping, and validation.
//
// Config carries every knob the bot uses. Values come from the process
// environment, hydrated from an optional .env file first (godotenv), and
// are mapped onto the struct by envconfig tags, so deployments tune
// behavior without recompiling or exporting anything by hand.
//
// Typical flow (see main.go):
//   cfg, err := LoadConfig()   // godotenv + envconfig + defaults
//   err  = cfg.Validate()      // the one fatal error class (startup only)

package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime knobs for trading and operations.
type Config struct {
	// Backend selection
	Broker string `envconfig:"BROKER" default:"oanda"` // oanda | paper
	DryRun bool   `envconfig:"DRY_RUN" default:"false"`

	// OANDA credentials (required for the oanda backend)
	OandaAPIKey    string `envconfig:"OANDA_API_KEY"`
	OandaAccountID string `envconfig:"OANDA_ACCOUNT_ID"`
	OandaEnv       string `envconfig:"OANDA_ENV" default:"practice"` // practice | live

	// Operator channel
	TelegramToken string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChat  string `envconfig:"CHAT_ID"`
	SlackWebhook  string `envconfig:"SLACK_WEBHOOK"`

	// Trading target
	Symbol      string `envconfig:"SYMBOL" default:"NAS100_USD"`
	Granularity string `envconfig:"GRANULARITY" default:"M5"`
	CandleCount int    `envconfig:"CANDLE_COUNT" default:"3"`

	// Sizing & protective levels
	PositionSize int     `envconfig:"POSITION_SIZE" default:"1000"`
	GapBuffer    float64 `envconfig:"FVG_BUFFER" default:"0.5"` // SL = px∓buffer, TP = px±2·buffer
	RetestTol    float64 `envconfig:"RETEST_TOLERANCE" default:"10"`

	// Daily window (local wall clock, zero-padded HH:MM)
	EntryStart string `envconfig:"ENTRY_START" default:"14:30"`
	EntryEnd   string `envconfig:"ENTRY_END" default:"15:00"`
	ExitTime   string `envconfig:"EXIT_TIME" default:"15:10"`

	// Loop control
	PollIntervalSec int     `envconfig:"POLL_INTERVAL_SEC" default:"15"`
	CloseNoiseUnits float64 `envconfig:"CLOSE_NOISE_UNITS" default:"50"`

	// Ops
	Port int `envconfig:"PORT" default:"5000"`
}

// LoadConfig hydrates the environment from .env (missing file is fine) and
// maps it onto a Config with defaults for absent keys.
func LoadConfig() (*Config, error) {
	// .env may not exist in production; the error is deliberately ignored.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks everything the loop depends on. A failure here aborts
// startup before the loop begins; nothing else in the process is allowed
// to be fatal.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Broker) {
	case "oanda":
		if c.OandaAPIKey == "" || c.OandaAccountID == "" {
			return fmt.Errorf("config: OANDA_API_KEY and OANDA_ACCOUNT_ID must be set for the oanda broker")
		}
		if c.OandaEnv != "practice" && c.OandaEnv != "live" {
			return fmt.Errorf("config: OANDA_ENV must be practice or live, got %q", c.OandaEnv)
		}
	case "paper":
		// no credentials needed
	default:
		return fmt.Errorf("config: unsupported BROKER %q", c.Broker)
	}

	start, err := parseClock(c.EntryStart)
	if err != nil {
		return fmt.Errorf("config: ENTRY_START: %w", err)
	}
	end, err := parseClock(c.EntryEnd)
	if err != nil {
		return fmt.Errorf("config: ENTRY_END: %w", err)
	}
	if _, err := parseClock(c.ExitTime); err != nil {
		return fmt.Errorf("config: EXIT_TIME: %w", err)
	}
	if start > end {
		return fmt.Errorf("config: entry window start %s is after end %s", c.EntryStart, c.EntryEnd)
	}

	if c.PositionSize <= 0 {
		return fmt.Errorf("config: POSITION_SIZE must be positive, got %d", c.PositionSize)
	}
	if c.PollIntervalSec <= 0 {
		return fmt.Errorf("config: POLL_INTERVAL_SEC must be positive, got %d", c.PollIntervalSec)
	}
	if c.CandleCount < 3 {
		return fmt.Errorf("config: CANDLE_COUNT must be at least 3, got %d", c.CandleCount)
	}
	if c.GapBuffer <= 0 {
		return fmt.Errorf("config: FVG_BUFFER must be positive, got %g", c.GapBuffer)
	}
	if c.RetestTol < 0 {
		return fmt.Errorf("config: RETEST_TOLERANCE must not be negative, got %g", c.RetestTol)
	}
	if c.CloseNoiseUnits < 0 {
		return fmt.Errorf("config: CLOSE_NOISE_UNITS must not be negative, got %g", c.CloseNoiseUnits)
	}
	return nil
}
