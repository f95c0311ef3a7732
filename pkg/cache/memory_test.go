package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Close  float64 `json:"close"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(10))
	defer mc.Close()
	ctx := context.Background()

	in := payload{Symbol: "AAPL", Close: 187.5}
	if err := mc.Set(ctx, "history:AAPL", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out payload
	if err := mc.Get(ctx, "history:AAPL", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var out string
	if err := mc.Get(ctx, "k", &out); err != ErrCacheMiss {
		t.Fatalf("expected cache miss, got %v", err)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var out payload
	if err := mc.Get(context.Background(), "absent", &out); err != ErrCacheMiss {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	_ = mc.Set(ctx, "a", 1, time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "b", 2, time.Minute)
	time.Sleep(time.Millisecond)
	_ = mc.Set(ctx, "c", 3, time.Minute) // evicts "a"

	if ok, _ := mc.Exists(ctx, "a"); ok {
		t.Fatalf("expected oldest key evicted")
	}
	if ok, _ := mc.Exists(ctx, "c"); !ok {
		t.Fatalf("expected newest key present")
	}
}
