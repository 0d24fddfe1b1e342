package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/service/commerce"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// eventsHandler pushes commerce store events to websocket clients.
type eventsHandler struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]context.CancelFunc
}

func newEventsHandler(logger *zap.Logger, allowedOrigins []string) *eventsHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &eventsHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin] || origins["*"]
			},
		},
		logger:  logger.Named("events"),
		clients: make(map[*websocket.Conn]context.CancelFunc),
	}
}

func (h *eventsHandler) serve(c *gin.Context, st *commerce.Store) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	events, unsubscribe := st.Subscribe()
	// The connection outlives the upgrade request.
	ctx, cancel := context.WithCancel(context.Background())

	h.mu.Lock()
	h.clients[conn] = cancel
	h.mu.Unlock()
	h.logger.Debug("subscriber connected", zap.String("session_id", st.SessionID()))

	cart := st.Cart()
	initial := []commerce.Event{
		{Kind: commerce.EventCart, Cart: &cart},
		{Kind: commerce.EventFavorites, Favorites: nonNilFavorites(st.Favorites())},
	}

	go h.writePump(ctx, conn, initial, events, func() {
		unsubscribe()
		cancel()
	})
	go h.readPump(ctx, conn, cancel)
}

func nonNilFavorites(f []domain.FavoriteEntry) []domain.FavoriteEntry {
	if f == nil {
		return []domain.FavoriteEntry{}
	}
	return f
}

// readPump drains client frames so pongs and close frames are processed.
func (h *eventsHandler) readPump(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if ctx.Err() != nil {
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *eventsHandler) writePump(ctx context.Context, conn *websocket.Conn, initial []commerce.Event, events <-chan commerce.Event, done func()) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		done()
		h.remove(conn)
	}()

	for _, evt := range initial {
		if err := h.send(conn, evt); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			h.sendClose(conn)
			return
		case evt, ok := <-events:
			if !ok {
				h.sendClose(conn)
				return
			}
			if err := h.send(conn, evt); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *eventsHandler) send(conn *websocket.Conn, evt commerce.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(evt)
}

func (h *eventsHandler) sendClose(conn *websocket.Conn) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
}

func (h *eventsHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

// closeAll cancels every subscriber; each write pump sends a close frame and
// releases its connection.
func (h *eventsHandler) closeAll() {
	h.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(h.clients))
	for _, cancel := range h.clients {
		cancels = append(cancels, cancel)
	}
	h.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}
