package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"bridge-lite/apps/server/internal/codec"
	"bridge-lite/apps/server/internal/lobby"
	"bridge-lite/apps/server/internal/logger"
	"bridge-lite/apps/server/internal/table"
	"bridge-lite/wire"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 65536
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	writeWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing time.Time

	// Current table association, touched only by readPump.
	TableID string
	Table   *table.Table
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	userConns   map[string]*Connection // userID -> connection
	errSeq      atomic.Uint64
	lobby       *lobby.Lobby
	log         *slog.Logger
}

// New creates a new Gateway instance
func New(lby *lobby.Lobby) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		userConns:   make(map[string]*Connection),
		lobby:       lby,
		log:         logger.Component("gateway"),
	}
}

// HandleWebSocket handles WebSocket upgrade and connection. Every connection
// gets a fresh user id; there is no login.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("upgrade failed", "err", err)
		return
	}

	c := &Connection{
		ID:       "conn_" + uuid.NewString(),
		UserID:   "user_" + uuid.NewString(),
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Gateway:  g,
		LastPing: time.Now(),
	}

	g.mu.Lock()
	g.connections[c.ID] = c
	g.userConns[c.UserID] = c
	total := len(g.connections)
	g.mu.Unlock()

	g.log.Info("client connected", "conn_id", c.ID, "user_id", c.UserID, "total", total)

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Gateway.log.Warn("read error", "conn_id", c.ID, "err", err)
			}
			break
		}

		if messageType == websocket.BinaryMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	env, err := wire.UnmarshalClient(data)
	if err != nil {
		c.Gateway.log.Warn("unmarshal failed", "user_id", c.UserID, "err", err)
		c.sendError(fmt.Errorf("%w: invalid message format", codec.ErrBadRequest))
		return
	}
	if env.Payload == nil {
		c.sendError(fmt.Errorf("%w: empty payload", codec.ErrBadRequest))
		return
	}

	c.Gateway.log.Debug("received", "user_id", c.UserID, "table_id", env.TableID, "kind", env.Payload.Kind())

	switch payload := env.Payload.(type) {
	case *wire.JoinTable:
		c.handleJoinTable(env)
	case *wire.TakeSeat:
		c.handleTakeSeat(payload)
	case *wire.LeaveSeat:
		c.handleLeaveSeat()
	case *wire.MakeCall:
		c.handleMakeCall(payload)
	default:
		c.sendError(fmt.Errorf("%w: unsupported payload %s", codec.ErrBadRequest, env.Payload.Kind()))
	}
}

func (c *Connection) handleJoinTable(env *wire.ClientEnvelope) {
	var t *table.Table
	if env.TableID != "" {
		found, err := c.Gateway.lobby.GetTable(env.TableID)
		if err != nil {
			c.sendError(fmt.Errorf("%w: %v", codec.ErrBadRequest, err))
			return
		}
		t = found
	} else {
		// Quick start: find or create a table
		t = c.Gateway.lobby.QuickStart(c.UserID, c.Gateway.broadcastToUser)
	}

	if c.Table == t {
		// Re-joining the same table only resyncs the view.
		if err := t.SubmitEvent(table.Event{Type: table.EventConnResume, UserID: c.UserID}); err != nil {
			c.sendError(err)
		}
		return
	}
	if c.Table != nil {
		c.leaveCurrentTable()
	}
	c.TableID = t.ID
	c.Table = t

	if err := t.SubmitEvent(table.Event{Type: table.EventJoinTable, UserID: c.UserID}); err != nil {
		c.sendError(err)
		return
	}
	c.Gateway.log.Info("user joined table", "user_id", c.UserID, "table_id", t.ID)
}

func (c *Connection) handleTakeSeat(req *wire.TakeSeat) {
	if c.Table == nil {
		c.sendError(fmt.Errorf("%w: not in a table", codec.ErrBadRequest))
		return
	}
	seat, err := wire.SeatFromCode(req.Seat)
	if err != nil {
		c.sendError(fmt.Errorf("%w: %v", codec.ErrBadRequest, err))
		return
	}
	if err := c.Table.SubmitEvent(table.Event{Type: table.EventTakeSeat, UserID: c.UserID, Seat: seat}); err != nil {
		c.sendError(err)
	}
}

func (c *Connection) handleLeaveSeat() {
	if c.Table == nil {
		return
	}
	if err := c.Table.SubmitEvent(table.Event{Type: table.EventLeaveSeat, UserID: c.UserID}); err != nil {
		c.sendError(err)
	}
}

func (c *Connection) handleMakeCall(req *wire.MakeCall) {
	if c.Table == nil {
		c.sendError(fmt.Errorf("%w: not in a table", codec.ErrBadRequest))
		return
	}
	call, err := wire.CallFromCode(req.Call)
	if err != nil {
		c.sendError(fmt.Errorf("%w: %v", codec.ErrBadRequest, err))
		return
	}
	if err := c.Table.SubmitEvent(table.Event{Type: table.EventCall, UserID: c.UserID, Call: call}); err != nil {
		c.sendError(err)
	}
}

// leaveCurrentTable removes the user from the previous table before
// switching, seat included.
func (c *Connection) leaveCurrentTable() {
	if err := c.Table.SubmitEvent(table.Event{Type: table.EventLeaveTable, UserID: c.UserID}); err != nil && !errors.Is(err, table.ErrTableClosed) {
		c.Gateway.log.Warn("leave previous table failed", "user_id", c.UserID, "table_id", c.TableID, "err", err)
	}
}

func (c *Connection) sendError(err error) {
	env := &wire.ServerEnvelope{
		TableID:    c.TableID,
		ServerSeq:  c.Gateway.errSeq.Add(1),
		ServerTsMs: time.Now().UnixMilli(),
		Payload:    codec.ErrorToWire(err),
	}
	data, mErr := wire.MarshalServer(env)
	if mErr != nil {
		c.Gateway.log.Error("marshal error response failed", "err", mErr)
		return
	}
	c.enqueue(data)
}

func (c *Connection) enqueue(data []byte) {
	select {
	case c.Send <- data:
	default:
		// Drop if buffer full
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	delete(g.userConns, c.UserID)
	total := len(g.connections)
	g.mu.Unlock()

	if c.Table != nil {
		if err := c.Table.SubmitEvent(table.Event{Type: table.EventConnLost, UserID: c.UserID}); err != nil && !errors.Is(err, table.ErrTableClosed) {
			g.log.Warn("conn lost event failed", "user_id", c.UserID, "err", err)
		}
	}
	g.log.Info("client disconnected", "conn_id", c.ID, "total", total)
}

// broadcastToUser sends a message to a specific user
func (g *Gateway) broadcastToUser(userID string, data []byte) {
	g.mu.RLock()
	c := g.userConns[userID]
	g.mu.RUnlock()

	if c != nil {
		c.enqueue(data)
	}
}

// ConnectionCount is reported by the health endpoint.
func (g *Gateway) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", g.HandleWebSocket)
}
