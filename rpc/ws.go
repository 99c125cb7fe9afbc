package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"graphhub/core/events"
	"graphhub/core/types"
)

const (
	wsWriteTimeout = 10 * time.Second
)

// handleEventsWS streams committed hub events as JSON text frames. The
// optional "types" query parameter restricts the stream to a comma-separated
// list of event types.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.hub == nil {
		http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
		return
	}
	filter := parseTypeFilter(r.URL.Query().Get("types"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	// Client frames are ignored; CloseRead cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, filter); err != nil {
		if status := websocket.CloseStatus(err); status == -1 && ctx.Err() == nil {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func parseTypeFilter(raw string) map[string]struct{} {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	filter := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			filter[trimmed] = struct{}{}
		}
	}
	return filter
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, filter map[string]struct{}) error {
	updates, cancel := s.hub.Feed().Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if filter != nil {
				if _, want := filter[evt.EventType()]; !want {
					continue
				}
			}
			if err := writeEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt events.Event) error {
	payload := events.ToTyped(evt)
	if payload == nil {
		payload = &types.Event{Type: evt.EventType()}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
