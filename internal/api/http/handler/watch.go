package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/caretap/caretap_backend/internal/service/appointment"
	pasetotoken "github.com/caretap/caretap_backend/pkg/paseto"
)

type WatchHandler struct {
	svc appointment.Service
}

func NewWatchHandler(svc appointment.Service) *WatchHandler {
	return &WatchHandler{svc: svc}
}

// GET /appointments/watch
//
// Streams lifecycle events for the caller's own appointments as
// server-sent events. The stream stays open until the client
// disconnects or the subscription is closed.
func (h *WatchHandler) Watch(c fiber.Ctx) error {
	claims, okClaims := pasetotoken.ClaimsFromFiber(c)
	if !okClaims {
		return unauthorized(c)
	}

	sub, err := h.svc.Watch(c.Context(), claims.UserID)
	if err != nil {
		return internalError(c)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	ctx := c.Context()

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer func() {
			if err := sub.Close(); err != nil {
				slog.Warn("closing event subscription", "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, open := <-sub.C():
				if !open {
					return
				}
				payload, err := json.Marshal(e)
				if err != nil {
					slog.Warn("encoding event", "error", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, payload); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					// Client went away.
					return
				}
			}
		}
	})
}
