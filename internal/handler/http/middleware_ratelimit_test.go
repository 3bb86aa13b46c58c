package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moonsync/moonsync-server/internal/config"
	"github.com/moonsync/moonsync-server/internal/service"
)

func TestWithRateLimit_BurstExceeded(t *testing.T) {
	h := newTestHandler(&service.Services{})
	h.cfg = config.Server{RateLimitRPS: 1, RateLimitBurst: 2}

	var hits int
	wrapped := h.withRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/account/sign-in", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)
		statuses = append(statuses, rr.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("requests within the burst must pass, got %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the burst, got %d", statuses[2])
	}
	if hits != 2 {
		t.Fatalf("expected 2 handled requests, got %d", hits)
	}
}

func TestWithRateLimit_SeparateClientsSeparateLimiters(t *testing.T) {
	h := newTestHandler(&service.Services{})
	h.cfg = config.Server{RateLimitRPS: 1, RateLimitBurst: 1}

	wrapped := h.withRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		req := httptest.NewRequest(http.MethodPost, "/api/account/sign-in", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("client %s: expected 200, got %d", addr, rr.Code)
		}
	}
}

func TestClientRateLimiter_IdleEntriesArePruned(t *testing.T) {
	rl := newClientRateLimiter(1, 1)

	rl.allow("10.0.0.1")
	if len(rl.visitors) != 1 {
		t.Fatalf("expected 1 visitor, got %d", len(rl.visitors))
	}

	// backdate the entry and the last prune pass past the TTL
	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastSeen = time.Now().Add(-2 * visitorTTL)
	rl.lastPrune = time.Now().Add(-2 * visitorTTL)
	rl.mu.Unlock()

	rl.allow("10.0.0.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, stale := rl.visitors["10.0.0.1"]; stale {
		t.Fatal("expected idle visitor to be pruned")
	}
	if _, fresh := rl.visitors["10.0.0.2"]; !fresh {
		t.Fatal("expected active visitor to survive the prune")
	}
}

func TestWithRateLimit_DisabledWhenRateIsZero(t *testing.T) {
	h := newTestHandler(&service.Services{})
	h.cfg = config.Server{}

	wrapped := h.withRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/account/sign-in", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rr := httptest.NewRecorder()
		wrapped.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected limiting to be disabled, got %d on request %d", rr.Code, i)
		}
	}
}
