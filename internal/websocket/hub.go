package eventws

import (
	"encoding/json"
	"log"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
)

// Hub fans booking and scan events out to the connected clients of the
// accounts involved. The feed is one-way: clients never send, they only
// listen for changes to re-query.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Event
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	accountID string
	send      chan []byte
}

type Event struct {
	Type       string   `json:"type"`
	EntityID   string   `json:"entity_id"`
	Status     string   `json:"status,omitempty"`
	AccountIDs []string `json:"-"`
	Timestamp  string   `json:"timestamp"`
}

const (
	EventTypeBooking = "booking"
	EventTypeScan    = "scan"
)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Event, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, accountID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		accountID: accountID,
		send:      make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.accountID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.accountID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.accountID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.accountID)
			}
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish is safe to call from any goroutine; events for accounts with no
// connected clients are dropped.
func (h *Hub) Publish(eventType, entityID, status string, accountIDs ...string) {
	h.broadcast <- &Event{
		Type:       eventType,
		EntityID:   entityID,
		Status:     status,
		AccountIDs: accountIDs,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

func (h *Hub) deliver(event *Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("event hub encode: %v", err)
		return
	}

	seen := make(map[string]struct{}, len(event.AccountIDs))
	for _, accountID := range event.AccountIDs {
		if _, dup := seen[accountID]; dup {
			continue
		}
		seen[accountID] = struct{}{}
		h.sendToAccount(accountID, encoded)
	}
}

func (h *Hub) sendToAccount(accountID string, payload []byte) {
	set, ok := h.clients[accountID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, accountID)
	}
}

// ReadPump drains the connection so close frames are processed; inbound
// payloads are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
