package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxMsgSize      = 1 << 12 // 4 KB
	defaultInterval = 1 * time.Second
	minInterval     = 100 * time.Millisecond
	maxInterval     = 10 * time.Second
)

// wsEnvelope wraps every message pushed to a WebSocket client.
type wsEnvelope struct {
	Type string            `json:"type"`
	Data heartRateResponse `json:"data"`
}

var upgrader = websocket.Upgrader{
	// The overlay is a local browser source; any origin may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsStream pushes the current snapshot on a client-tunable interval
// (?interval=500ms, bounded). The first snapshot goes out immediately.
func (h *Handler) wsStream(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Drain reads to service control frames and notice closure.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.sendSnapshot(conn); err != nil {
		h.log.Infow("ws initial write failed", "err", err)
		return
	}

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
			if err := h.sendSnapshot(conn); err != nil {
				h.log.Infow("ws write failed", "err", err)
				return
			}
		}
	}
}

// parseInterval reads ?interval=500ms, clamped to [minInterval, maxInterval].
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	s := c.Query("interval")
	if s == "" {
		return defaultInterval
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultInterval
	}
	if d < minInterval {
		return minInterval
	}
	if d > maxInterval {
		return maxInterval
	}
	return d
}

func (h *Handler) sendSnapshot(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{
		Type: "heart-rate",
		Data: snapshotResponse(h.store.Snapshot()),
	})
}
