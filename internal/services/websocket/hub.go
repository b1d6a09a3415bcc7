package websocket

import (
	"encoding/json"
	"sync"

	"personcam/internal/logger"

	"github.com/gorilla/websocket"
)

// Envelope is the wire format for every pushed message.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// HubService fans detection and stats events out to all connected viewers.
// Delivery is best-effort: there is no replay buffer, and when the broadcast
// queue is full the message is dropped rather than blocking a publisher.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(queueSize int, log *logger.Logger) *HubService {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, queueSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     log,
	}
}

func (h *HubService) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Infow("viewer connected", "total", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Infow("viewer disconnected", "total", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Warnw("dropping viewer after write error", "error", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish sends an event to all currently connected viewers. It never blocks:
// when the queue is full the message is dropped and logged.
func (h *HubService) Publish(event string, data interface{}) {
	message, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Errorw("failed to encode broadcast message", "event", event, "error", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warnw("broadcast queue full, dropping message", "event", event)
	}
}

func (h *HubService) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *HubService) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

func (h *HubService) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
