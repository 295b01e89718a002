package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

type table struct {
	Period string             `json:"period"`
	Means  map[string]float64 `json:"means"`
}

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping Redis integration test")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()
	c.prefix = "kingpilot-test:"

	var got table
	hit, err := c.GetJSON(ctx, "table:missing", &got)
	if err != nil || hit {
		t.Fatalf("expected clean miss, got hit=%v err=%v", hit, err)
	}

	want := table{Period: "AMPK", Means: map[string]float64{"Queen": 12.5}}
	if err := c.SetJSON(ctx, "table:AMPK:Weekday", want, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	hit, err = c.GetJSON(ctx, "table:AMPK:Weekday", &got)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if got.Period != "AMPK" || got.Means["Queen"] != 12.5 {
		t.Errorf("unexpected value %+v", got)
	}

	n, err := c.DeletePattern(ctx, "table:*")
	if err != nil {
		t.Fatalf("DeletePattern: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted key, got %d", n)
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := NewRedisCache(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Error("expected connection error")
	}
}
