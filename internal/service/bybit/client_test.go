package bybit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	applogger "OppRadar/pkg/logger"

	"github.com/gorilla/websocket"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// The keepalive loop must survive write failures: when the socket drops and a
// ping tick lands inside the backoff window, the loop skips the tick and keeps
// running, so the reconnected session still receives keepalives.
func TestKeepalivePersistsAcrossReconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var conns int32
	pings := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if atomic.AddInt32(&conns, 1) == 1 {
			// First session dies immediately to force a reconnect.
			_ = ws.Close()
			return
		}
		defer ws.Close()
		for {
			_, b, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if strings.Contains(string(b), "ping") {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	// Ping cadence shorter than the backoff delay guarantees at least one
	// failed keepalive write while the socket is down.
	c := New(wsURL, srv.URL,
		WithPingInterval(50*time.Millisecond),
		WithReconnect(200*time.Millisecond, 5),
	)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	select {
	case <-pings:
	case <-time.After(3 * time.Second):
		t.Fatalf("no keepalive reached the reconnected session")
	}
	if got := atomic.LoadInt32(&conns); got < 2 {
		t.Fatalf("expected a reconnect, saw %d connections", got)
	}
}

// Exhausting every reconnect attempt leaves the stream disconnected but lets
// the process keep serving; the call must return instead of exiting.
func TestReconnectExhaustionReturns(t *testing.T) {
	c := New("ws://127.0.0.1:1", "",
		WithReconnect(10*time.Millisecond, 2),
		WithLogger(testLogger(t)),
	)

	done := make(chan struct{})
	go func() {
		c.reconnect(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("reconnect did not give up after exhausting attempts")
	}
	if c.IsConnected() {
		t.Fatalf("stream should be disconnected after exhausted retries")
	}
}
