package server

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"go-fretboard/debug"
	"go-fretboard/playback"
)

const (
	pingInterval = 30 * time.Second
	sendBuffer   = 256
)

// conn is the part of a websocket connection the hub uses
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
}

// Client is one websocket peer in a sync group
type Client struct {
	ID     string
	SyncID string
	Send   chan []byte
}

type outbound struct {
	syncID string
	// to limits delivery to one client; nil means the whole group
	to   *Client
	data []byte
}

// Hub bridges websocket peers onto a playback.Bus. Frames from a peer are
// published on the bus; everything the bus carries for a group with peers
// is written back to all of them, the sender included.
type Hub struct {
	bus *playback.Bus

	// Clients grouped by sync ID
	clients map[string]map[*Client]bool
	// bus subscriptions, one per group with peers
	subs map[string]func()

	register   chan *Client
	unregister chan *Client
	outbound   chan outbound
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub(bus *playback.Bus) *Hub {
	if bus == nil {
		bus = playback.NewBus()
	}
	return &Hub{
		bus:        bus,
		clients:    make(map[string]map[*Client]bool),
		subs:       make(map[string]func()),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan outbound, sendBuffer),
		done:       make(chan struct{}),
	}
}

// Bus is the bus the hub relays through
func (h *Hub) Bus() *playback.Bus { return h.bus }

// Run is the hub's main loop; it returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.SyncID] == nil {
				h.clients[client.SyncID] = make(map[*Client]bool)
				id := client.SyncID
				h.subs[id] = h.bus.Subscribe(id, h.relay)
			}
			h.clients[client.SyncID][client] = true
			h.mu.Unlock()
			debug.Log("server", "client %s joined %q", client.ID, client.SyncID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
			debug.Log("server", "client %s left %q", client.ID, client.SyncID)

		case msg := <-h.outbound:
			h.mu.Lock()
			for client := range h.clients[msg.syncID] {
				if msg.to != nil && msg.to != client {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					debug.Log("server", "client %s too slow, dropping", client.ID)
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.SyncID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.SyncID)
		if cancel := h.subs[client.SyncID]; cancel != nil {
			cancel()
			delete(h.subs, client.SyncID)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// Register adds a client; false once the hub has stopped
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Clients counts websocket peers in a group
func (h *Hub) Clients(syncID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[syncID])
}

// relay is the bus subscriber for groups with peers
func (h *Hub) relay(msg playback.Message) {
	data, err := EncodeMessage(msg)
	if err != nil {
		debug.Log("server", "encode %T: %v", msg.Command, err)
		return
	}
	h.send(outbound{syncID: msg.SyncID, data: data})
}

func (h *Hub) send(o outbound) {
	select {
	case h.outbound <- o:
	case <-h.done:
	}
}

// HandleConnection serves one websocket peer until it disconnects
func (h *Hub) HandleConnection(c *websocket.Conn, syncID string) {
	h.serve(c, syncID)
}

func (h *Hub) serve(c conn, syncID string) {
	client := &Client{
		ID:     uuid.NewString(),
		SyncID: syncID,
		Send:   make(chan []byte, sendBuffer),
	}

	if !h.Register(client) {
		return
	}
	defer h.Unregister(client)

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				debug.Log("server", "websocket error: %v", err)
			}
			return
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			h.send(outbound{syncID: syncID, to: client, data: errorFrame(err)})
			continue
		}
		if frame.Type == TypePing {
			h.send(outbound{syncID: syncID, to: client, data: pongFrame()})
			continue
		}
		cmd, ok := frame.Command()
		if !ok {
			continue
		}
		h.bus.Publish(playback.Message{SyncID: syncID, Origin: client.ID, Command: cmd})
	}
}
