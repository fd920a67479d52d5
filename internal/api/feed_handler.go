package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"cmsadmin/internal/api/middleware"
	"cmsadmin/internal/auth"
	"cmsadmin/internal/errcode"
	"cmsadmin/internal/events"
)

const (
	feedAuthTimeout  = 10 * time.Second
	feedPingInterval = 30 * time.Second
	feedWriteTimeout = 5 * time.Second
)

// ChangeFeedHandler streams change events to websocket clients. The first
// client message must be {"type":"auth","token":"<access token>"}.
type ChangeFeedHandler struct {
	feed      events.Subscriber
	verifier  middleware.TokenVerifier
	logger    *slog.Logger
	upgrader  websocket.Upgrader
	authWait  time.Duration
	pingEvery time.Duration
}

// NewChangeFeedHandler builds the handler. Without allowedOrigins only same-host origins pass.
func NewChangeFeedHandler(feed events.Subscriber, verifier middleware.TokenVerifier, logger *slog.Logger, allowedOrigins []string) *ChangeFeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeFeedHandler{
		feed:      feed,
		verifier:  verifier,
		logger:    logger,
		upgrader:  websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		authWait:  feedAuthTimeout,
		pingEvery: feedPingInterval,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		}
		return slices.Contains(allowed, origin)
	}
}

type feedAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

func (h *ChangeFeedHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	who, err := h.authenticate(conn)
	if err != nil {
		log.Warn("change feed authentication failed", slog.Any("error", err))
		closeFeed(conn, websocket.ClosePolicyViolation, errcode.PublicMessage(err))
		return
	}
	log = log.With(slog.Uint64("user_id", uint64(who.UserID)))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	payloads, unsubscribe, err := h.feed.Subscribe(ctx)
	if err != nil {
		log.Error("change feed subscribe failed", slog.Any("error", err))
		closeFeed(conn, websocket.CloseInternalServerErr, "change feed unavailable")
		return
	}
	defer unsubscribe()

	// client messages after auth are discarded; reading notices the disconnect
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	log.Info("change feed connected")
	err = h.forward(ctx, conn, payloads, log)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("change feed closed", slog.Any("reason", err))
}

func (h *ChangeFeedHandler) authenticate(conn *websocket.Conn) (auth.Identity, error) {
	_ = conn.SetReadDeadline(time.Now().Add(h.authWait))
	var msg feedAuthMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return auth.Identity{}, errcode.Wrap(errcode.KindUnauthorized, "auth message required", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	if msg.Type != "auth" {
		return auth.Identity{}, errcode.New(errcode.KindUnauthorized, "auth message required")
	}
	claims, err := h.verifier.ValidateToken(msg.Token, auth.TokenTypeAccess)
	if err != nil {
		return auth.Identity{}, err
	}
	if claims.MustChangePassword {
		return auth.Identity{}, errcode.Forbidden("password change required")
	}
	return claims.Identity(), nil
}

func (h *ChangeFeedHandler) forward(ctx context.Context, conn *websocket.Conn, payloads <-chan string, log *slog.Logger) error {
	ticker := time.NewTicker(h.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-payloads:
			if !ok {
				return errors.New("change feed ended")
			}
			if _, err := events.Decode(payload); err != nil {
				log.Warn("dropping malformed change event", slog.Any("error", err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				return fmt.Errorf("write event: %w", err)
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteTimeout)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

func closeFeed(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(feedWriteTimeout))
}
