// FILE: notifier_test.go
// Package main – notifier fan-out and backend selection tests.

package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNotifierSelection(t *testing.T) {
	cfg := testConfig()
	_, ok := buildNotifier(cfg).(LogNotifier)
	assert.True(t, ok, "nothing configured falls back to the log")

	cfg.TelegramToken = "tok"
	cfg.TelegramChat = "chat"
	multi, ok := buildNotifier(cfg).(MultiNotifier)
	require.True(t, ok)
	assert.Len(t, multi, 1)

	cfg.SlackWebhook = "https://hooks.slack.invalid/T000/B000"
	multi, ok = buildNotifier(cfg).(MultiNotifier)
	require.True(t, ok)
	assert.Len(t, multi, 2)
}

func TestMultiNotifierFansOut(t *testing.T) {
	a, b := &fakeNotifier{}, &fakeNotifier{}
	MultiNotifier{a, b}.Send("hello")
	assert.Equal(t, []string{"hello"}, a.all())
	assert.Equal(t, []string{"hello"}, b.all())
}

func TestSlackNotifierPostsJSON(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		received <- string(body)
	}))
	defer srv.Close()

	NewSlackNotifier(srv.URL).Send("position closed")
	assert.Contains(t, <-received, "position closed")
}

func TestSlackNotifierSwallowsFailures(t *testing.T) {
	// An unreachable webhook must not panic or propagate anything.
	NewSlackNotifier("http://127.0.0.1:1/hook").Send("dropped")
}
