package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"cmsadmin/internal/events"
)

// Watch subscribes to the server's change feed and invalidates the cache for
// every event, calling onEvent afterwards when it is non-nil. It blocks until
// ctx ends (returning nil) or the connection fails.
func (c *Client) Watch(ctx context.Context, onEvent func(events.Event)) error {
	wsURL := c.baseURL + apiPrefix + "/ws"
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, http.Header{})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial change feed: status=%d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("dial change feed: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "auth", "token": c.token()}); err != nil {
		return fmt.Errorf("send auth message: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return fmt.Errorf("read change feed: %w", err)
		}
		ev, err := events.Decode(string(payload))
		if err != nil {
			continue
		}
		c.invalidate(ev.Resource)
		if onEvent != nil {
			onEvent(ev)
		}
	}
}
