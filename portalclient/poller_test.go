package portalclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoller_FetchesImmediatelyAndOnTicks(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_ = json.NewEncoder(w).Encode([]Notification{
			{ID: 1, UserID: 3, Title: "Appointment booked"},
		})
	}))
	defer srv.Close()

	var updates atomic.Int64
	var lastCount atomic.Int64
	p := NewPoller(New(srv.URL), 3, 20*time.Millisecond, slog.Default(), func(ns []Notification) {
		updates.Add(1)
		lastCount.Store(int64(len(ns)))
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for updates.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d updates before deadline", updates.Load())
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	cancel()
	<-done

	if lastCount.Load() != 1 {
		t.Fatalf("callback saw %d notifications, want 1", lastCount.Load())
	}
	if requests.Load() < 3 {
		t.Fatalf("server saw %d requests, want at least 3", requests.Load())
	}
}

func TestPoller_SurvivesServerErrors(t *testing.T) {
	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
			return
		}
		_ = json.NewEncoder(w).Encode([]Notification{})
	}))
	defer srv.Close()

	var updates atomic.Int64
	p := NewPoller(New(srv.URL), 3, 10*time.Millisecond, slog.Default(), func([]Notification) {
		updates.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for updates.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("poller never recovered after an error")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	cancel()
	<-done
}

func TestPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(New("http://example.com"), 1, 0, slog.Default(), nil)
	if p.interval != 30*time.Second {
		t.Fatalf("default interval = %v, want 30s", p.interval)
	}
}
