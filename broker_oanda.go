// FILE: broker_oanda.go
// Package main – HTTP broker for the OANDA v20 REST API.
//
// Implements the Broker interface against OANDA's practice or live host:
//   • GetRecentCandles:    GET  /v3/instruments/{instrument}/candles
//   • GetNowPrice:         GET  /v3/accounts/{id}/pricing (closeoutAsk)
//   • PlaceBracketMarket:  POST /v3/accounts/{id}/orders (MARKET FOK with
//                          stopLossOnFill + takeProfitOnFill)
//   • PlaceMarket:         POST /v3/accounts/{id}/orders (MARKET FOK, bare)
//   • GetNetPosition:      GET  /v3/accounts/{id}/positions/{instrument}
//
// OANDA returns numeric fields as strings; everything is parsed here so the
// rest of the bot only ever sees float64. Read failures come back as
// *FetchError, order refusals as *RejectedError with the errorMessage from
// the response body.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	oandaPracticeHost = "https://api-fxpractice.oanda.com"
	oandaLiveHost     = "https://api-fxtrade.oanda.com"
)

// OandaBroker talks to the OANDA v20 REST API.
type OandaBroker struct {
	host      string
	apiKey    string
	accountID string
	hc        *http.Client
}

// NewOandaBroker builds a client for the practice or live environment.
// The 10s timeout keeps any single call well under the polling interval so
// a hung request cannot swallow a wake-up.
func NewOandaBroker(apiKey, accountID, env string) *OandaBroker {
	host := oandaPracticeHost
	if strings.EqualFold(env, "live") {
		host = oandaLiveHost
	}
	return &OandaBroker{
		host:      host,
		apiKey:    apiKey,
		accountID: accountID,
		hc:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (ob *OandaBroker) Name() string { return "oanda" }

func (ob *OandaBroker) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, ob.host+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+ob.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "gapbot/oanda")
	return req, nil
}

// --- Candles ---

func (ob *OandaBroker) GetRecentCandles(ctx context.Context, instrument, granularity string, count int) ([]Candle, error) {
	q := url.Values{}
	q.Set("granularity", granularity)
	q.Set("count", strconv.Itoa(count))
	q.Set("price", "M")
	path := fmt.Sprintf("/v3/instruments/%s/candles?%s", url.PathEscape(instrument), q.Encode())

	req, err := ob.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, &FetchError{Op: "candles", Err: err}
	}
	res, err := ob.hc.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "candles", Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, &FetchError{Op: "candles", Err: fmt.Errorf("status %d: %s", res.StatusCode, string(b))}
	}

	var out struct {
		Candles []struct {
			Time     string `json:"time"`
			Complete bool   `json:"complete"`
			Volume   int    `json:"volume"`
			Mid      struct {
				O string `json:"o"`
				H string `json:"h"`
				L string `json:"l"`
				C string `json:"c"`
			} `json:"mid"`
		} `json:"candles"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &FetchError{Op: "candles", Err: err}
	}

	candles := make([]Candle, 0, len(out.Candles))
	for _, rc := range out.Candles {
		ts, _ := time.Parse(time.RFC3339, rc.Time)
		o, _ := strconv.ParseFloat(rc.Mid.O, 64)
		h, _ := strconv.ParseFloat(rc.Mid.H, 64)
		l, _ := strconv.ParseFloat(rc.Mid.L, 64)
		c, _ := strconv.ParseFloat(rc.Mid.C, 64)
		candles = append(candles, Candle{
			Time:     ts,
			Open:     o,
			High:     h,
			Low:      l,
			Close:    c,
			Volume:   float64(rc.Volume),
			Complete: rc.Complete,
		})
	}
	return candles, nil
}

// --- Price ---

func (ob *OandaBroker) GetNowPrice(ctx context.Context, instrument string) (float64, error) {
	q := url.Values{}
	q.Set("instruments", instrument)
	path := fmt.Sprintf("/v3/accounts/%s/pricing?%s", url.PathEscape(ob.accountID), q.Encode())

	req, err := ob.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, &FetchError{Op: "pricing", Err: err}
	}
	res, err := ob.hc.Do(req)
	if err != nil {
		return 0, &FetchError{Op: "pricing", Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return 0, &FetchError{Op: "pricing", Err: fmt.Errorf("status %d: %s", res.StatusCode, string(b))}
	}

	var out struct {
		Prices []struct {
			CloseoutAsk string `json:"closeoutAsk"`
			Asks        []struct {
				Price string `json:"price"`
			} `json:"asks"`
		} `json:"prices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, &FetchError{Op: "pricing", Err: err}
	}
	if len(out.Prices) == 0 {
		return 0, &FetchError{Op: "pricing", Err: fmt.Errorf("no prices for %s", instrument)}
	}
	p := out.Prices[0]
	raw := p.CloseoutAsk
	if raw == "" && len(p.Asks) > 0 {
		raw = p.Asks[0].Price
	}
	px, err := strconv.ParseFloat(raw, 64)
	if err != nil || px <= 0 {
		return 0, &FetchError{Op: "pricing", Err: fmt.Errorf("bad price %q for %s", raw, instrument)}
	}
	return px, nil
}

// --- Orders ---

// oandaOrderBody mirrors the v20 order envelope. Price-like fields are
// strings on the wire.
type oandaOrderBody struct {
	Order struct {
		Type             string `json:"type"`
		Instrument       string `json:"instrument"`
		Units            string `json:"units"`
		TimeInForce      string `json:"timeInForce"`
		StopLossOnFill   *struct {
			Price string `json:"price"`
		} `json:"stopLossOnFill,omitempty"`
		TakeProfitOnFill *struct {
			Price string `json:"price"`
		} `json:"takeProfitOnFill,omitempty"`
		ClientExtensions *struct {
			ID string `json:"id"`
		} `json:"clientExtensions,omitempty"`
	} `json:"order"`
}

func (ob *OandaBroker) PlaceBracketMarket(ctx context.Context, instrument string, units int, stopLoss, takeProfit float64) (*PlacedOrder, error) {
	var body oandaOrderBody
	body.Order.Type = "MARKET"
	body.Order.Instrument = instrument
	body.Order.Units = strconv.Itoa(units)
	body.Order.TimeInForce = "FOK"
	body.Order.StopLossOnFill = &struct {
		Price string `json:"price"`
	}{Price: formatPrice(stopLoss)}
	body.Order.TakeProfitOnFill = &struct {
		Price string `json:"price"`
	}{Price: formatPrice(takeProfit)}
	body.Order.ClientExtensions = &struct {
		ID string `json:"id"`
	}{ID: uuid.New().String()}

	placed, err := ob.submitOrder(ctx, &body)
	if err != nil {
		return nil, err
	}
	placed.StopLoss = stopLoss
	placed.TakeProfit = takeProfit
	return placed, nil
}

func (ob *OandaBroker) PlaceMarket(ctx context.Context, instrument string, units int) (*PlacedOrder, error) {
	var body oandaOrderBody
	body.Order.Type = "MARKET"
	body.Order.Instrument = instrument
	body.Order.Units = strconv.Itoa(units)
	body.Order.TimeInForce = "FOK"
	body.Order.ClientExtensions = &struct {
		ID string `json:"id"`
	}{ID: uuid.New().String()}

	return ob.submitOrder(ctx, &body)
}

// submitOrder posts the envelope and normalizes the response. Any non-2xx
// status is a refusal: the bracket either fully attaches or the whole order
// bounces, so no partial-attachment case exists.
func (ob *OandaBroker) submitOrder(ctx context.Context, body *oandaOrderBody) (*PlacedOrder, error) {
	bs, err := json.Marshal(body)
	if err != nil {
		return nil, &RejectedError{Reason: err.Error()}
	}
	path := fmt.Sprintf("/v3/accounts/%s/orders", url.PathEscape(ob.accountID))
	req, err := ob.newRequest(ctx, http.MethodPost, path, bytes.NewReader(bs))
	if err != nil {
		return nil, &RejectedError{Reason: err.Error()}
	}
	res, err := ob.hc.Do(req)
	if err != nil {
		return nil, &RejectedError{Reason: err.Error()}
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		return nil, &RejectedError{Reason: oandaRejectReason(res.StatusCode, raw)}
	}

	var out struct {
		OrderFillTransaction struct {
			ID    string `json:"id"`
			Price string `json:"price"`
		} `json:"orderFillTransaction"`
		OrderCreateTransaction struct {
			ID string `json:"id"`
		} `json:"orderCreateTransaction"`
		OrderCancelTransaction struct {
			Reason string `json:"reason"`
		} `json:"orderCancelTransaction"`
	}
	_ = json.Unmarshal(raw, &out)

	// FOK orders that cannot fill come back 2xx with a cancel transaction.
	if out.OrderCancelTransaction.Reason != "" {
		return nil, &RejectedError{Reason: out.OrderCancelTransaction.Reason}
	}

	units, _ := strconv.Atoi(body.Order.Units)
	px, _ := strconv.ParseFloat(out.OrderFillTransaction.Price, 64)
	id := out.OrderFillTransaction.ID
	if id == "" {
		id = out.OrderCreateTransaction.ID
	}
	return &PlacedOrder{
		ID:         id,
		Instrument: body.Order.Instrument,
		Units:      units,
		Price:      px,
		CreateTime: time.Now().UTC(),
	}, nil
}

// --- Position ---

func (ob *OandaBroker) GetNetPosition(ctx context.Context, instrument string) (float64, error) {
	path := fmt.Sprintf("/v3/accounts/%s/positions/%s",
		url.PathEscape(ob.accountID), url.PathEscape(instrument))

	req, err := ob.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, &FetchError{Op: "position", Err: err}
	}
	res, err := ob.hc.Do(req)
	if err != nil {
		return 0, &FetchError{Op: "position", Err: err}
	}
	defer res.Body.Close()

	// OANDA answers 404 for an instrument the account never traded; that is
	// simply a flat position.
	if res.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return 0, &FetchError{Op: "position", Err: fmt.Errorf("status %d: %s", res.StatusCode, string(b))}
	}

	var out struct {
		Position struct {
			Long struct {
				Units string `json:"units"`
			} `json:"long"`
			Short struct {
				Units string `json:"units"`
			} `json:"short"`
		} `json:"position"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, &FetchError{Op: "position", Err: err}
	}
	longUnits, _ := strconv.ParseFloat(out.Position.Long.Units, 64)
	shortUnits, _ := strconv.ParseFloat(out.Position.Short.Units, 64)
	return longUnits + shortUnits, nil
}

// oandaRejectReason pulls errorMessage out of an error body, falling back
// to the raw body when it does not parse.
func oandaRejectReason(status int, raw []byte) string {
	var e struct {
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.ErrorMessage != "" {
		return fmt.Sprintf("%d: %s", status, e.ErrorMessage)
	}
	return fmt.Sprintf("%d: %s", status, strings.TrimSpace(string(raw)))
}

// formatPrice renders a protective level rounded to one decimal place,
// the resolution index CFD instruments quote at.
func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}
