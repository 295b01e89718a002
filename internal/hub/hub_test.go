package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/smartcity/kingpilot/internal/domain"
)

func receive(t *testing.T, c *Client) domain.DashboardView {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var view domain.DashboardView
		if err := json.Unmarshal(data, &view); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return view
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for view")
	}
	return domain.DashboardView{}
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	a, b := NewClient(4), NewClient(4)
	h.Register(a)
	h.Register(b)
	waitForClients(t, h, 2)

	if err := h.Render(ctx, domain.DashboardView{Generation: 2, Selected: "Queen"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, c := range []*Client{a, b} {
		if v := receive(t, c); v.Generation != 2 || v.Selected != "Queen" {
			t.Errorf("client %s got %+v", c.ID, v)
		}
	}
}

func TestHubLateClientGetsLatest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	h.Render(ctx, domain.DashboardView{Generation: 5, Selected: "Front"})

	c := NewClient(4)
	h.Register(c)
	if v := receive(t, c); v.Generation != 5 {
		t.Errorf("expected generation 5, got %d", v.Generation)
	}
}

func TestHubUnregisterClosesClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	c := NewClient(1)
	h.Register(c)
	waitForClients(t, h, 1)
	h.Unregister(c)
	waitForClients(t, h, 0)

	if _, ok := <-c.Send; ok {
		t.Error("expected closed send channel")
	}
}

func TestHubSlowClientDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	c := NewClient(1)
	h.Register(c)
	waitForClients(t, h, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.Render(ctx, domain.DashboardView{Generation: uint64(i + 1)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Render blocked on a slow client")
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)

	c := NewClient(1)
	h.Register(c)
	waitForClients(t, h, 1)
	cancel()

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client not closed on shutdown")
	}

	// Unregister after shutdown must not block
	h.Unregister(c)
}

func TestHubRegisterAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	// Repeat so both select branches would have had a chance to win
	for i := 0; i < 50; i++ {
		c := NewClient(1)
		h.Register(c)
		select {
		case _, ok := <-c.Send:
			if ok {
				t.Fatal("expected closed send channel")
			}
		case <-time.After(time.Second):
			t.Fatalf("client %d left open after shutdown", i)
		}
	}
}
