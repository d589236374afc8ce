// Package hub provides connection management for WebSocket clients
// watching pipeline runs.
package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection represents a single WebSocket connection. A connection with an
// empty RunID receives events for every run.
type Connection struct {
	ID    string
	RunID string
	Conn  *websocket.Conn
	Send  chan []byte
	hub   *Hub
}

// Hub manages all WebSocket connections.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Runs maps run_id to set of connection IDs
	runs map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *RunMessage

	mu sync.RWMutex
}

// RunMessage is used to broadcast an event for a run.
type RunMessage struct {
	RunID string
	Data  []byte
}

// New creates a new Hub.
func New() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		runs:        make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *RunMessage, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if conn.RunID != "" {
				if h.runs[conn.RunID] == nil {
					h.runs[conn.RunID] = make(map[string]bool)
				}
				h.runs[conn.RunID][conn.ID] = true
			}
			h.mu.Unlock()
			log.Printf("Connection registered: %s (run: %s)", conn.ID, conn.RunID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				if conn.RunID != "" && h.runs[conn.RunID] != nil {
					delete(h.runs[conn.RunID], conn.ID)
					if len(h.runs[conn.RunID]) == 0 {
						delete(h.runs, conn.RunID)
					}
				}
				close(conn.Send)
			}
			h.mu.Unlock()
			log.Printf("Connection unregistered: %s", conn.ID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for connID, conn := range h.connections {
				if conn.RunID != "" && conn.RunID != msg.RunID {
					continue
				}
				select {
				case conn.Send <- msg.Data:
				default:
					// Buffer full, close the connection
					log.Printf("Connection %s buffer full, closing", connID)
					go h.Unregister(conn)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewConnection creates a new connection bound to a run id. Empty runID
// subscribes to all runs.
func (h *Hub) NewConnection(ws *websocket.Conn, runID string) *Connection {
	return &Connection{
		ID:    uuid.New().String(),
		RunID: runID,
		Conn:  ws,
		Send:  make(chan []byte, 256),
		hub:   h,
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Broadcast sends an event to every connection watching runID. The payload
// is JSON-encoded; encode failures are logged and dropped.
func (h *Hub) Broadcast(runID string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: failed to encode hub event: %v", err)
		return
	}
	select {
	case h.broadcast <- &RunMessage{RunID: runID, Data: data}:
	default:
		log.Printf("WARN: hub broadcast buffer full, dropping event for run %s", runID)
	}
}
