package http

import (
	"bufio"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/smartcity/kingpilot/internal/hub"
)

const (
	streamBuffer    = 8
	streamKeepalive = 15 * time.Second
)

// Stream pushes every recomputed dashboard view as a server-sent event
func (h *Handler) Stream(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	client := hub.NewClient(streamBuffer)
	h.streams.Register(client)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer h.streams.Unregister(client)

		keepalive := time.NewTicker(streamKeepalive)
		defer keepalive.Stop()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: view\ndata: %s\n\n", msg)
			case <-keepalive.C:
				fmt.Fprint(w, ": keepalive\n\n")
			}
			if err := w.Flush(); err != nil {
				log.Printf("Stream: client %s disconnected: %v", client.ID, err)
				return
			}
		}
	})
	return nil
}
