// FILE: notifier.go
// Package main – Best-effort operator notifications.
//
// Every decision point in the bot reports a human-readable line to the
// operator channel so the day's outcomes can be audited after the fact.
// Delivery is strictly best-effort: a Send never blocks beyond a short
// timeout, never returns an error to the caller, and failures only bump a
// counter and a log line.
//
// Backends:
//   • TelegramNotifier – Telegram bot sendMessage (token + chat id)
//   • SlackNotifier    – Slack incoming webhook
//   • LogNotifier      – stdout fallback when no channel is configured
//   • MultiNotifier    – fan-out to all configured backends

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Notifier sends a text message to the operator, best-effort.
type Notifier interface {
	Send(text string)
}

// buildNotifier assembles the fan-out from whatever channels are configured.
// With nothing configured, messages still land in the process log.
func buildNotifier(cfg *Config) Notifier {
	var targets []Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChat != "" {
		targets = append(targets, NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChat))
	}
	if cfg.SlackWebhook != "" {
		targets = append(targets, NewSlackNotifier(cfg.SlackWebhook))
	}
	if len(targets) == 0 {
		log.Printf("[NOTIFY] no channel configured; messages go to the log only")
		return LogNotifier{}
	}
	return MultiNotifier(targets)
}

// TelegramNotifier posts to the Telegram Bot API sendMessage endpoint.
type TelegramNotifier struct {
	token  string
	chatID string
	hc     *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
		hc:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramNotifier) Send(text string) {
	api := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	resp, err := t.hc.PostForm(api, url.Values{
		"chat_id": {t.chatID},
		"text":    {text},
	})
	if err != nil {
		IncNotifyFailure()
		log.Printf("[NOTIFY] telegram send failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		IncNotifyFailure()
		log.Printf("[NOTIFY] telegram send failed: status %d", resp.StatusCode)
	}
}

// SlackNotifier posts to a Slack incoming webhook.
type SlackNotifier struct {
	hook string
	hc   *http.Client
}

func NewSlackNotifier(hook string) *SlackNotifier {
	return &SlackNotifier{hook: hook, hc: &http.Client{Timeout: 3 * time.Second}}
}

func (s *SlackNotifier) Send(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	body, _ := json.Marshal(map[string]string{"text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.hook, bytes.NewReader(body))
	if err != nil {
		IncNotifyFailure()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.hc.Do(req)
	if err != nil {
		IncNotifyFailure()
		log.Printf("[NOTIFY] slack send failed: %v", err)
		return
	}
	_ = resp.Body.Close()
}

// LogNotifier writes messages to the process log.
type LogNotifier struct{}

func (LogNotifier) Send(text string) { log.Printf("[NOTIFY] %s", text) }

// MultiNotifier fans a message out to every configured backend.
type MultiNotifier []Notifier

func (m MultiNotifier) Send(text string) {
	for _, n := range m {
		n.Send(text)
	}
}
