package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"garment-tracker/internal/events"
	"garment-tracker/pkg/logger"

	"github.com/gofiber/contrib/websocket"
)

var (
	ErrStopped     = errors.New("dashboard hub stopped")
	ErrBacklogFull = errors.New("dashboard broadcast backlog full")
)

// client is the subset of *websocket.Conn the hub writes to.
type client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub pushes events to every connected dashboard.
type Hub struct {
	clients    map[client]bool
	Register   chan client
	Unregister chan client
	broadcast  chan []byte
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.Mutex
	log        logger.Logger
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[client]bool),
		Register:   make(chan client),
		Unregister: make(chan client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run delivers broadcasts in publish order until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.clients[conn] = true
			n := len(h.clients)
			h.mutex.Unlock()
			h.log.Debug("dashboard connected", logger.Int("clients", n))

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()

		case <-ctx.Done():
			h.mutex.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Publish queues ev for broadcast without blocking. Events are dropped once
// the hub has stopped or when the backlog is full.
func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case <-h.done:
		return ErrStopped
	default:
	}
	select {
	case h.broadcast <- msg:
		return nil
	default:
		h.log.Warn("dashboard event dropped", logger.String("type", string(ev.Type)))
		return ErrBacklogFull
	}
}

// Serve keeps a dashboard connection registered until it disconnects.
func (h *Hub) Serve(c *websocket.Conn) {
	select {
	case h.Register <- c:
	case <-h.done:
		c.Close()
		return
	}
	defer func() {
		select {
		case h.Unregister <- c:
		case <-h.done:
		}
	}()

	for {
		// Keep alive loop
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}
