// FILE: broker_oanda_test.go
// Package main – OANDA client tests against a stubbed v20 endpoint.

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubOanda(t *testing.T, handler http.HandlerFunc) *OandaBroker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &OandaBroker{
		host:      srv.URL,
		apiKey:    "test-key",
		accountID: "001-001-1234567-001",
		hc:        &http.Client{Timeout: 2 * time.Second},
	}
}

func TestOandaGetRecentCandles(t *testing.T) {
	ob := newStubOanda(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/v3/instruments/NAS100_USD/candles", r.URL.Path)
		assert.Equal(t, "M5", r.URL.Query().Get("granularity"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{"candles":[
			{"time":"2025-03-03T14:30:00.000000000Z","complete":true,"volume":120,
			 "mid":{"o":"14990.0","h":"15000.0","l":"14985.0","c":"14998.0"}},
			{"time":"2025-03-03T14:35:00.000000000Z","complete":true,"volume":95,
			 "mid":{"o":"15001.0","h":"15003.0","l":"14999.0","c":"15002.0"}},
			{"time":"2025-03-03T14:40:00.000000000Z","complete":false,"volume":12,
			 "mid":{"o":"15004.0","h":"15010.0","l":"15002.0","c":"15008.0"}}
		]}`))
	})

	candles, err := ob.GetRecentCandles(context.Background(), "NAS100_USD", "M5", 3)
	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.Equal(t, 15000.0, candles[0].High)
	assert.Equal(t, 14985.0, candles[0].Low)
	assert.True(t, candles[0].Complete)
	assert.False(t, candles[2].Complete, "forming candle keeps its incomplete flag")
	assert.Equal(t, 120.0, candles[0].Volume)
}

func TestOandaCandleFailureIsFetchError(t *testing.T) {
	ob := newStubOanda(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"errorMessage":"Insufficient authorization"}`, http.StatusUnauthorized)
	})
	_, err := ob.GetRecentCandles(context.Background(), "NAS100_USD", "M5", 3)
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
}

func TestOandaGetNowPrice(t *testing.T) {
	ob := newStubOanda(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NAS100_USD", r.URL.Query().Get("instruments"))
		_, _ = w.Write([]byte(`{"prices":[{"closeoutAsk":"15001.4"}]}`))
	})
	px, err := ob.GetNowPrice(context.Background(), "NAS100_USD")
	require.NoError(t, err)
	assert.Equal(t, 15001.4, px)
}

func TestOandaGetNowPriceFallsBackToAsks(t *testing.T) {
	ob := newStubOanda(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[{"asks":[{"price":"15002.8"}]}]}`))
	})
	px, err := ob.GetNowPrice(context.Background(), "NAS100_USD")
	require.NoError(t, err)
	assert.Equal(t, 15002.8, px)
}

func TestOandaPlaceBracketMarket(t *testing.T) {
	var got oandaOrderBody
	ob := newStubOanda(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"orderFillTransaction":{"id":"42","price":"15000.2"}}`))
	})

	placed, err := ob.PlaceBracketMarket(context.Background(), "NAS100_USD", 1000, 14999.5, 15001.0)
	require.NoError(t, err)
	assert.Equal(t, "42", placed.ID)
	assert.Equal(t, 1000, placed.Units)
	assert.Equal(t, 15000.2, placed.Price)

	// The bracket travels inside the single order envelope.
	assert.Equal(t, "MARKET", got.Order.Type)
	assert.Equal(t, "FOK", got.Order.TimeInForce)
	assert.Equal(t, "1000", got.Order.Units)
	require.NotNil(t, got.Order.StopLossOnFill)
	assert.Equal(t, "14999.5", got.Order.StopLossOnFill.Price)
	require.NotNil(t, got.Order.TakeProfitOnFill)
	assert.Equal(t, "15001.0", got.Order.TakeProfitOnFill.Price)
	require.NotNil(t, got.Order.ClientExtensions)
	assert.NotEmpty(t, got.Order.ClientExtensions.ID)
}

func TestOandaOrderRejection(t *testing.T) {
	ob := newStubOanda(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessage":"UNITS_LIMIT_EXCEEDED"}`))
	})
	_, err := ob.PlaceBracketMarket(context.Background(), "NAS100_USD", 1000, 1, 2)
	require.Error(t, err)
	reason, rejected := IsRejected(err)
	require.True(t, rejected)
	assert.Contains(t, reason, "UNITS_LIMIT_EXCEEDED")
}

func TestOandaFOKCancelIsRejection(t *testing.T) {
	ob := newStubOanda(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"orderCreateTransaction":{"id":"7"},
			"orderCancelTransaction":{"reason":"INSUFFICIENT_LIQUIDITY"}}`))
	})
	_, err := ob.PlaceMarket(context.Background(), "NAS100_USD", -1000)
	require.Error(t, err)
	reason, rejected := IsRejected(err)
	require.True(t, rejected)
	assert.Equal(t, "INSUFFICIENT_LIQUIDITY", reason)
}

func TestOandaGetNetPosition(t *testing.T) {
	ob := newStubOanda(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/accounts/001-001-1234567-001/positions/NAS100_USD", r.URL.Path)
		_, _ = w.Write([]byte(`{"position":{"long":{"units":"1000"},"short":{"units":"-250"}}}`))
	})
	net, err := ob.GetNetPosition(context.Background(), "NAS100_USD")
	require.NoError(t, err)
	assert.Equal(t, 750.0, net)
}

func TestOandaNetPositionNotFoundIsFlat(t *testing.T) {
	ob := newStubOanda(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	net, err := ob.GetNetPosition(context.Background(), "NAS100_USD")
	require.NoError(t, err)
	assert.Equal(t, 0.0, net)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "14999.5", formatPrice(14999.5))
	assert.Equal(t, "15001.0", formatPrice(15001))
}
