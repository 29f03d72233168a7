// FILE: status_test.go
// Package main – status server endpoint tests.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusEndpoints(t *testing.T) {
	fb := &fakeBroker{candles: bullishGapCandles(), price: 101}
	fn := &fakeNotifier{}
	s, clock := newTestScheduler(fb, fn)
	*clock = at(3, 12, 0)

	srv := httptest.NewServer(NewStatusServer(s).Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer res.Body.Close()
	var st SchedulerStatus
	require.NoError(t, json.NewDecoder(res.Body).Decode(&st))
	assert.Equal(t, "fake", st.Broker)
	assert.Equal(t, "NAS100_USD", st.Instrument)
	assert.Equal(t, StateIdle, st.State)
	assert.False(t, st.TradedToday)

	res, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestStatusReadsDoNotMutateScheduler(t *testing.T) {
	fb := &fakeBroker{}
	s, clock := newTestScheduler(fb, &fakeNotifier{})
	*clock = at(3, 14, 45)

	before := s.Snapshot()
	for i := 0; i < 10; i++ {
		_ = s.Snapshot()
	}
	after := s.Snapshot()
	assert.Equal(t, before.TradedToday, after.TradedToday)
	assert.Equal(t, before.State, after.State)
	assert.Empty(t, fb.bracketOrders, "snapshots never reach the broker")

	// Mutating a returned snapshot must not leak back.
	snap := s.Snapshot()
	snap.TradedToday = true
	assert.False(t, s.Snapshot().TradedToday)
}
