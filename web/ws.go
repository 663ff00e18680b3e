package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Producers and viewers connect from browser origins we don't
	// control; access control lives with the record share tokens.
	CheckOrigin: func(*http.Request) bool { return true },
}

const subscriberWriteTimeout = 10 * time.Second

// subscriberConn adapts a websocket connection to the hub. The mutex
// serializes writes from concurrent publishes.
type subscriberConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *subscriberConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(subscriberWriteTimeout))
	return c.conn.WriteJSON(v)
}

func (c *subscriberConn) Close() error {
	return c.conn.Close()
}

// handleRecordTunnel binds one audio producer to one recognition
// session. The handler blocks for the session's lifetime.
func (h *Handler) handleRecordTunnel(w http.ResponseWriter, r *http.Request) {
	recordID := r.URL.Query().Get("id")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade producer tunnel", "error", err)
		return
	}
	if recordID == "" {
		conn.Close()
		return
	}

	if err := h.relay.Run(r.Context(), recordID, conn); err != nil {
		h.logger.Error("relay session", "record", recordID, "error", err)
	}
}

// handleListenTunnel registers a caption subscriber. The server only
// writes on this tunnel; the read loop exists to notice the close.
func (h *Handler) handleListenTunnel(w http.ResponseWriter, r *http.Request) {
	recordID := r.URL.Query().Get("id")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade listen tunnel", "error", err)
		return
	}

	sub := &subscriberConn{conn: conn}
	if err := h.hub.Subscribe(recordID, sub); err != nil {
		conn.Close()
		return
	}
	h.logger.Info("listener joined", "record", recordID)

	defer func() {
		h.hub.Unsubscribe(recordID, sub)
		conn.Close()
		h.logger.Info("listener left", "record", recordID)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
