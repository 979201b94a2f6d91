package host

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 54 * time.Second

	// Maximum inbound message size. Requests are small; results only flow out.
	maxMessageSize = 1 << 20
)

// WebSocket is a Conn over a gorilla WebSocket connection. Each protocol
// message is one text frame.
type WebSocket struct {
	conn   *websocket.Conn
	logger *zap.Logger

	mu        sync.Mutex // serializes writers
	closeOnce sync.Once
	done      chan struct{}
}

// NewWebSocket wraps an established connection, client or server side, and
// starts keeping it alive with pings.
func NewWebSocket(conn *websocket.Conn, logger *zap.Logger) *WebSocket {
	if logger == nil {
		logger = zap.NewNop()
	}

	ws := &WebSocket{conn: conn, logger: logger, done: make(chan struct{})}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go ws.keepAlive()
	return ws
}

func (ws *WebSocket) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ws.done:
			return
		case <-ticker.C:
			ws.mu.Lock()
			err := ws.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			ws.mu.Unlock()
			if err != nil {
				ws.logger.Debug("websocket ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (ws *WebSocket) Send(ctx context.Context, m Outbound) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Marshal(m)
	if err != nil {
		return err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = ws.conn.SetWriteDeadline(deadline)
	return errors.Wrapf(ws.conn.WriteMessage(websocket.TextMessage, data), "write %s", m.Type())
}

// Receive reads the next text frame. A normal close by the peer is io.EOF.
func (ws *WebSocket) Receive(ctx context.Context) (Inbound, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		typ, data, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil, io.EOF
			}
			return nil, errors.Wrap(err, "read websocket message")
		}
		if typ != websocket.TextMessage {
			continue
		}
		return DecodeInbound(data)
	}
}

// Close sends a close frame and releases the connection.
func (ws *WebSocket) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		close(ws.done)
		ws.mu.Lock()
		_ = ws.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		ws.mu.Unlock()
		err = ws.conn.Close()
	})
	return err
}

// HandlerOptions configures Handler.
type HandlerOptions struct {
	// AllowedOrigins are matched as prefixes of the Origin header. Requests
	// without an Origin are always accepted; an empty list accepts localhost only.
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Handler upgrades requests to WebSocket and runs serve for each connection
// until it returns or the peer goes away.
func Handler(serve func(ctx context.Context, conn Conn) error, opts HandlerOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("remote", r.RemoteAddr))
			return
		}

		ws := NewWebSocket(conn, logger)
		defer ws.Close()

		logger.Info("host connected", zap.String("remote", r.RemoteAddr))
		if err := serve(r.Context(), ws); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
			logger.Warn("host session ended with error", zap.Error(err), zap.String("remote", r.RemoteAddr))
			return
		}
		logger.Info("host disconnected", zap.String("remote", r.RemoteAddr))
	})
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		allowed = []string{"http://localhost", "https://localhost", "http://127.0.0.1"}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, a := range allowed {
			if a == "*" || sameOrigin(u, a) {
				return true
			}
		}
		return false
	}
}

// sameOrigin reports whether origin matches the allowed entry. An entry
// without a port matches any port on its host.
func sameOrigin(origin *url.URL, allowed string) bool {
	a, err := url.Parse(allowed)
	if err != nil || a.Host == "" {
		return false
	}
	if !strings.EqualFold(origin.Scheme, a.Scheme) {
		return false
	}
	if a.Port() == "" {
		return strings.EqualFold(origin.Hostname(), a.Hostname())
	}
	return strings.EqualFold(origin.Host, a.Host)
}
