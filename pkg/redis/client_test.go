package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Prem931993/buytown-sub000/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	at := time.Date(2025, 11, 20, 10, 0, 5, 0, time.UTC)
	client := &Client{store: mock, now: func() time.Time { return at }}

	for i := int64(1); i <= 2; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "checkout:user-1", 2, time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed || count != i {
			t.Fatalf("call %d: allowed=%v count=%d", i, allowed, count)
		}
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected one expire for the window, got %d", len(mock.expireCalls))
	}
	if mock.expireCalls[0].ttl != 2*time.Minute {
		t.Fatalf("unexpected window ttl %s", mock.expireCalls[0].ttl)
	}

	allowed, _, err := client.FixedWindowAllow(ctx, "checkout:user-1", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("expected limit reached")
	}

	at = at.Add(time.Minute)
	allowed, count, err := client.FixedWindowAllow(ctx, "checkout:user-1", 2, time.Minute)
	if err != nil || !allowed || count != 1 {
		t.Fatalf("next window should start fresh, allowed=%v count=%d err=%v", allowed, count, err)
	}
}

func TestFixedWindowAllowRejectsZeroWindow(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	if _, _, err := client.FixedWindowAllow(context.Background(), "checkout", 1, 0); err == nil {
		t.Fatal("expected zero window to fail")
	}
}

func TestFixedWindowAllowReportsIncrFailure(t *testing.T) {
	mock := newMockCmdable()
	mock.incrErr = errors.New("connection reset")
	client := &Client{store: mock}
	if _, _, err := client.FixedWindowAllow(context.Background(), "checkout", 1, time.Second); err == nil {
		t.Fatal("expected incr error to surface")
	}
}

func TestSetNXAndDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.IdempotencyKey("webhook:phonepe", "txn:PAYMENT_SUCCESS:T1")

	ok, err := client.SetNX(ctx, key, "1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first setnx should win, ok=%v err=%v", ok, err)
	}
	if ok, _ := client.SetNX(ctx, key, "1", time.Minute); ok {
		t.Fatal("second setnx must lose")
	}
	if err := client.Set(ctx, key, "2", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got, _ := client.Get(ctx, key); got != "2" {
		t.Fatalf("set should overwrite, got %q", got)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected redis.Nil after del, got %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected ping on empty client to fail")
	}
	if _, err := client.SetNX(context.Background(), "k", "v", 0); err == nil {
		t.Fatal("expected setnx on empty client to fail")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := []struct{ got, want string }{
		{client.IdempotencyKey("checkout:user-1", "abc"), "bt:idempotency:checkout:user-1:abc"},
		{client.IdempotencyKey("webhook:stripe", "evt_1"), "bt:webhook:stripe:evt_1"},
		{client.IdempotencyKey("checkout", ""), "bt:idempotency:checkout"},
		{client.LockKey("cron-worker", "prod"), "bt:lock:cron-worker:prod"},
		{client.LockKey("cron-worker", ""), "bt:lock:cron-worker:local"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("unexpected key %s, want %s", tc.got, tc.want)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected missing address to fail")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 || opts.DialTimeout != 3*time.Second {
		t.Fatalf("unexpected options db=%d pool=%d dial=%s", opts.DB, opts.PoolSize, opts.DialTimeout)
	}

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 4})
	if err != nil {
		t.Fatalf("address config: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 4 {
		t.Fatalf("unexpected address options %+v", opts)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	incrErr     error
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	if m.incrErr != nil {
		return redis.NewIntResult(0, m.incrErr)
	}
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
