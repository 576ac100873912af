package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/nfrund/kpiboard/internal/hub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Outbound messages buffered per client before it is dropped as slow.
	sendBuffer = 64
)

// Handler upgrades /ws requests and streams hub broadcasts to the browser.
// Clients only listen; anything they send is discarded.
type Handler struct {
	hub            *hub.Hub
	logger         *slog.Logger
	originPatterns []string
}

// NewHandler creates a websocket handler fed by h. Origins other than the request
// host are rejected unless they match originPatterns.
func NewHandler(h *hub.Hub, logger *slog.Logger, originPatterns ...string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: h, logger: logger, originPatterns: originPatterns}
}

// ServeHTTP implements http.Handler.
func (wh *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: wh.originPatterns})
	if err != nil {
		wh.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	sub := hub.NewSubscriber(sendBuffer)
	wh.hub.Register <- sub
	wh.logger.Debug("WebSocket client connected", "remote", r.RemoteAddr)

	// CloseRead discards incoming frames and cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())
	wh.writePump(ctx, conn, sub)
}

func (wh *Handler) writePump(ctx context.Context, conn *websocket.Conn, sub *hub.Subscriber) {
	defer func() {
		// Unregister may race with hub shutdown; never block on it.
		select {
		case wh.hub.Unregister <- sub:
		case <-time.After(writeWait):
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-sub.Send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server closing")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					wh.logger.Warn("WebSocket write error", "error", err)
				}
				return
			}
		}
	}
}
