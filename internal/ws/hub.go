package ws

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one connected socket of an authenticated user.
type Client struct {
	Conn   Conn
	UserID string
}

// Message is delivered only to clients of the listed users.
type Message struct {
	UserIDs []string
	Data    []byte
}

type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Message
	done       chan struct{}
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Message),
		done:       make(chan struct{}),
	}
}

// Send queues data for every connected client of userIDs.
func (h *Hub) Send(userIDs []string, data []byte) {
	select {
	case h.Broadcast <- Message{UserIDs: userIDs, Data: data}:
	case <-h.done:
	}
}

// Stop ends Run and closes every remaining connection.
func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client] = true
			h.mutex.Unlock()
			log.Printf("WS client connected (user %s)", client.UserID)

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			recipients := make(map[string]bool, len(message.UserIDs))
			for _, id := range message.UserIDs {
				recipients[id] = true
			}

			h.mutex.Lock()
			for client := range h.Clients {
				if !recipients[client.UserID] {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, message.Data); err != nil {
					client.Conn.Close()
					delete(h.Clients, client)
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			h.mutex.Lock()
			for client := range h.Clients {
				client.Conn.Close()
				delete(h.Clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}
