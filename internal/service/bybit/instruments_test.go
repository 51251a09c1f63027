package bybit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const instrumentsBody = `{
	"retCode": 0,
	"retMsg": "OK",
	"result": {
		"list": [
			{"symbol": "BTCUSDT", "quoteCoin": "USDT", "status": "Trading"},
			{"symbol": "ETHUSDT", "quoteCoin": "USDT", "status": "Trading"},
			{"symbol": "BTCUSDC", "quoteCoin": "USDC", "status": "Trading"},
			{"symbol": "OLDUSDT", "quoteCoin": "USDT", "status": "Closed"}
		]
	}
}`

func TestListTradableSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v5/market/instruments-info" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("category"); got != "linear" {
			t.Errorf("expected category=linear, got %q", got)
		}
		fmt.Fprint(w, instrumentsBody)
	}))
	defer srv.Close()

	c := New("wss://example.invalid", srv.URL)
	symbols, err := c.ListTradableSymbols(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("expected 2 tradable USDT symbols, got %v", symbols)
	}
	for i, want := range []string{"BTCUSDT", "ETHUSDT"} {
		if symbols[i] != want {
			t.Fatalf("symbol %d: expected %s, got %s", i, want, symbols[i])
		}
	}
}

func TestListTradableSymbolsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, instrumentsBody)
	}))
	defer srv.Close()

	c := New("wss://example.invalid", srv.URL)
	symbols, err := c.ListTradableSymbols(context.Background())
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if len(symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %v", symbols)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}

func TestListTradableSymbolsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"retCode": 10001, "retMsg": "param error", "result": {"list": []}}`)
	}))
	defer srv.Close()

	c := New("wss://example.invalid", srv.URL)
	if _, err := c.ListTradableSymbols(context.Background()); err == nil {
		t.Fatalf("expected an error on non-zero retCode")
	}
}
