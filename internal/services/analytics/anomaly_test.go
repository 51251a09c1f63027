package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	domsvc "OppRadar/internal/domain/service"
)

func TestGetAnomaliesCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/api/ml/anomaly/detect/BTCUSDT" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"success":true,"data":[{"type":"price_spike","confidence":85,"severity":"HIGH"}]}`)
	}))
	defer srv.Close()

	c := NewMLAnomalyClient(srv.URL, time.Second, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		anoms, err := c.GetAnomalies(ctx, "BTCUSDT")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(anoms) != 1 || anoms[0].Type != "price_spike" || anoms[0].Confidence != 85 {
			t.Fatalf("unexpected anomalies: %+v", anoms)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", got)
	}

	c.ClearCache("BTCUSDT")
	if _, err := c.GetAnomalies(ctx, "BTCUSDT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected refetch after cache clear, got %d hits", got)
	}
}

func TestGetAnomaliesNotFoundIsEmpty(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewMLAnomalyClient(srv.URL, time.Second, time.Minute, nil)
	anoms, err := c.GetAnomalies(context.Background(), "NEWUSDT")
	if err != nil {
		t.Fatalf("404 should not be an error, got %v", err)
	}
	if len(anoms) != 0 {
		t.Fatalf("expected no anomalies, got %+v", anoms)
	}

	// the empty result is cached too
	if _, err := c.GetAnomalies(context.Background(), "NEWUSDT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected cached empty result, got %d hits", got)
	}
}

func TestGetAnomaliesServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewMLAnomalyClient(srv.URL, time.Second, time.Minute, nil)
	_, err := c.GetAnomalies(context.Background(), "BTCUSDT")
	if !errors.Is(err, domsvc.ErrMLUnavailable) {
		t.Fatalf("expected ErrMLUnavailable, got %v", err)
	}
}

func TestGetAnomaliesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewMLAnomalyClient(srv.URL, time.Second, time.Minute, nil)
	if _, err := c.GetAnomalies(context.Background(), "BTCUSDT"); !errors.Is(err, domsvc.ErrMLUnavailable) {
		t.Fatalf("expected ErrMLUnavailable, got %v", err)
	}
}

func TestGetAnomaliesUnsuccessfulEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false}`)
	}))
	defer srv.Close()

	c := NewMLAnomalyClient(srv.URL, time.Second, time.Minute, nil)
	if _, err := c.GetAnomalies(context.Background(), "BTCUSDT"); !errors.Is(err, domsvc.ErrMLUnavailable) {
		t.Fatalf("expected ErrMLUnavailable, got %v", err)
	}
}

func TestClearAll(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"success":true,"data":[]}`)
	}))
	defer srv.Close()

	c := NewMLAnomalyClient(srv.URL, time.Second, time.Minute, nil)
	ctx := context.Background()
	_, _ = c.GetAnomalies(ctx, "A")
	_, _ = c.GetAnomalies(ctx, "B")
	c.ClearAll()
	_, _ = c.GetAnomalies(ctx, "A")
	_, _ = c.GetAnomalies(ctx, "B")
	if got := atomic.LoadInt32(&hits); got != 4 {
		t.Fatalf("expected 4 upstream hits after flush, got %d", got)
	}
}
