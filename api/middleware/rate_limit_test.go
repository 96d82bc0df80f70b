package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Prem931993/buytown-sub000/pkg/enums"
)

type countingLimiter struct {
	counts map[string]int64
	err    error
}

func (c *countingLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if c.err != nil {
		return false, 0, c.err
	}
	c.counts[scope]++
	return c.counts[scope] <= limit, c.counts[scope], nil
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int64{}}
	handler := RateLimit("checkout", limiter, 2, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	user := uuid.New()
	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req = req.WithContext(WithActor(req.Context(), user, enums.RoleCustomer))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusCreated || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
	if _, ok := limiter.counts["checkout:"+user.String()]; !ok {
		t.Fatalf("expected actor scoped key, got %v", limiter.counts)
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limiter := &countingLimiter{counts: map[string]int64{}}
	handler := RateLimit("webhook", limiter, 5, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/phonepe", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if limiter.counts["webhook:ip:203.0.113.7"] != 1 {
		t.Fatalf("expected ip scoped key, got %v", limiter.counts)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("redis down")}
	called := false
	handler := RateLimit("checkout", limiter, 1, time.Minute, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	if !called {
		t.Fatal("limiter failure must not block requests")
	}
}
