package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	notifyChannel = "authweb:notify"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

type hubMessage struct {
	SessionID        string       `json:"session_id"`
	Notification     Notification `json:"notification"`
	SenderInstanceID string       `json:"sender_instance_id"`
}

// Event is the websocket frame sent to browsers.
type Event struct {
	Type string       `json:"type"`
	Data Notification `json:"data"`
}

// Connection is one websocket client of a browser session.
type Connection struct {
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
}

// Hub pushes notifications to the live websocket connections of a session.
// With redis configured, publishes are fanned out to every instance through pub/sub.
type Hub struct {
	connections map[string]map[*Connection]bool
	mu          sync.RWMutex

	redis  *redis.Client
	pubsub *redis.PubSub

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID string
	upgrader   websocket.Upgrader
}

// NewHub creates a hub. redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client, allowedOrigins []string) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[string]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  uuid.NewString(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, notifyChannel)
	}

	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.SessionID] == nil {
				h.connections[conn.SessionID] = make(map[*Connection]bool)
			}
			h.connections[conn.SessionID][conn] = true
			h.mu.Unlock()
			log.Debug().Str("session_id", conn.SessionID).Msg("Notification socket connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.connections[conn.SessionID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.SessionID)
				}
			}
			h.mu.Unlock()
			log.Debug().Str("session_id", conn.SessionID).Msg("Notification socket disconnected")
		}
	}
}

// Stop shuts the hub down.
func (h *Hub) Stop() {
	h.cancel()
	if h.pubsub != nil {
		_ = h.pubsub.Close()
	}
}

func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			var m hubMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				log.Warn().Err(err).Msg("Dropping malformed notification message")
				continue
			}
			if m.SenderInstanceID == h.instanceID {
				continue
			}
			h.deliverLocal(m.SessionID, m.Notification)
		}
	}
}

// Publish delivers n to every live connection of sessionID, on this and other instances.
func (h *Hub) Publish(ctx context.Context, sessionID string, n Notification) error {
	h.deliverLocal(sessionID, n)

	if h.redis == nil {
		return nil
	}
	payload, err := json.Marshal(hubMessage{
		SessionID:        sessionID,
		Notification:     n,
		SenderInstanceID: h.instanceID,
	})
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, notifyChannel, payload).Err()
}

// ConnectionCount returns the number of local connections of sessionID.
func (h *Hub) ConnectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[sessionID])
}

func (h *Hub) deliverLocal(sessionID string, n Notification) {
	frame, err := json.Marshal(Event{Type: "notification", Data: n})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.connections[sessionID] {
		select {
		case conn.Send <- frame:
		default:
			log.Warn().Str("session_id", sessionID).Msg("Notification dropped, client too slow")
		}
	}
}

// ServeWS upgrades the request and attaches the socket to sessionID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Notification socket upgrade failed")
		return
	}

	conn := &Connection{
		SessionID: sessionID,
		Conn:      ws,
		Send:      make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- conn:
	case <-h.ctx.Done():
		ws.Close()
		return
	}

	go h.writePump(conn)
	h.readPump(conn)
}

// readPump only watches for close and pong frames; browsers never send notifications.
func (h *Hub) readPump(conn *Connection) {
	defer func() {
		select {
		case h.unregister <- conn:
		case <-h.ctx.Done():
		}
		conn.Conn.Close()
	}()

	conn.Conn.SetReadLimit(512)
	_ = conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-conn.Send:
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
