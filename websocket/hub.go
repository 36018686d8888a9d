package websocket

import (
	"log"
	"sync"

	"radisnap/types"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	Notify(event types.Event)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

// hub maintains the set of active clients and fans job events out to them
type hub struct {
	// Registered clients mapped by job ID ("all" subscribes to every job)
	clients map[string]map[*Client]bool

	// Broadcast channel carrying job events
	broadcast chan types.Event

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.jobID] == nil {
				h.clients[client.jobID] = make(map[*Client]bool)
			}
			h.clients[client.jobID][client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client connected for job %s", client.jobID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.jobID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.jobID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected for job %s", client.jobID)

		case event := <-h.broadcast:
			h.mu.RLock()
			// Send to the clients following this specific job
			if clients, ok := h.clients[event.JobID]; ok {
				for client := range clients {
					select {
					case client.send <- event:
					default:
						close(client.send)
						delete(clients, client)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, event.JobID)
				}
			}

			// Also send to "all" clients for any job update
			if allClients, ok := h.clients["all"]; ok {
				for client := range allClients {
					select {
					case client.send <- event:
					default:
						close(client.send)
						delete(allClients, client)
					}
				}
				if len(allClients) == 0 {
					delete(h.clients, "all")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Notify enqueues a job event for delivery to every subscribed client.
// The buffered channel keeps event delivery off the download path; an
// overflowing bus drops the event rather than stalling a worker.
func (h *hub) Notify(event types.Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("WebSocket broadcast channel full, dropping event for job %s", event.JobID)
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
