//go:build !js

package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/lucent/lucent/core-go/internal/canvas"
)

// Room is the set of clients attached to one session. While it has
// clients it forwards every model event to them as doc.event.
type Room struct {
	mu      sync.RWMutex
	session *Session
	clients map[string]*Client
	seq     int64
	detach  func()
}

func newRoom(s *Session) *Room {
	return &Room{session: s, clients: make(map[string]*Client)}
}

// forward runs under the session lock, in mutation order.
func (r *Room) forward(e canvas.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		slog.Error("marshal event", "error", err)
		return
	}
	r.mu.Lock()
	r.seq++
	msg := &Message{Type: TypeDocEvent, SessionID: r.session.ID, Seq: r.seq, Payload: payload}
	for _, c := range r.clients {
		c.Send(msg)
	}
	r.mu.Unlock()
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // session id -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes joins and leaves until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Serve attaches an accepted connection to sess and blocks until the
// connection closes.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, sess *Session) {
	client := NewClient(h, conn, sess, uuid.New().String())
	h.Register(client)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// Clients returns how many clients are attached to the session.
func (h *Hub) Clients(sessionID string) int {
	h.mu.RLock()
	room, ok := h.rooms[sessionID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	room.mu.RLock()
	defer room.mu.RUnlock()
	return len(room.clients)
}

// Evict disconnects every client attached to the session and reports how
// many there were. Each read pump then unregisters its client.
func (h *Hub) Evict(sessionID string) int {
	h.mu.RLock()
	room, ok := h.rooms[sessionID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	room.mu.RLock()
	defer room.mu.RUnlock()
	for _, c := range room.clients {
		go c.conn.Close(websocket.StatusGoingAway, "session closed")
	}
	h.logger.Info("session evicted", "session", sessionID, "clients", len(room.clients))
	return len(room.clients)
}

func (h *Hub) addClient(client *Client) {
	if client.session.Closed() {
		go client.conn.Close(websocket.StatusGoingAway, "session closed")
		return
	}
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		room = newRoom(client.session)
		h.rooms[client.SessionID] = room
	}
	room.mu.Lock()
	room.clients[client.ClientID] = client
	room.mu.Unlock()
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{SessionID: client.SessionID, ClientID: client.ClientID})
	client.Send(&Message{Type: TypeWelcome, SessionID: client.SessionID, ClientID: client.ClientID, Payload: welcome})

	// The subscription takes the session lock, so no hub or room lock is
	// held here.
	if !ok {
		detach := client.session.Subscribe(room.forward)
		room.mu.Lock()
		room.detach = detach
		room.mu.Unlock()
	}

	snapshot, _ := json.Marshal(client.session.Snapshot())
	client.Send(&Message{Type: TypeDocSync, SessionID: client.SessionID, Payload: snapshot})

	h.logger.Info("client joined", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}

	room.mu.Lock()
	if _, ok := room.clients[client.ClientID]; !ok {
		room.mu.Unlock()
		h.mu.Unlock()
		return
	}
	delete(room.clients, client.ClientID)
	close(client.send)
	empty := len(room.clients) == 0
	detach := room.detach
	if empty {
		room.detach = nil
		delete(h.rooms, client.SessionID)
	}
	room.mu.Unlock()
	h.mu.Unlock()

	if empty && detach != nil {
		detach()
	}

	h.logger.Info("client left", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		h.logger.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		sender.sendError("unknown message type: " + msg.Type)
	}
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var op Operation
	if err := json.Unmarshal(msg.Payload, &op); err != nil {
		h.logger.Warn("invalid operation payload", "error", err, "client", sender.ClientID)
		sender.sendError("invalid operation payload")
		return
	}

	res := sender.session.Apply(op)
	payload, err := json.Marshal(res)
	if err != nil {
		slog.Error("marshal result", "error", err)
		return
	}
	reply := &Message{Type: TypeOpAck, SessionID: sender.SessionID, Seq: msg.Seq, Payload: payload}
	if !res.OK {
		reply.Type = TypeOpNack
	}
	sender.Send(reply)
}
