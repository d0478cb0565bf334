package hmr

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/modkit-dev/modkit/internal/metrics"
)

// WebSocketServer manages HMR websocket connections and implements
// Transport by broadcasting every message to all connected clients.
type WebSocketServer struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
}

// NewWebSocketServer creates a new HMR websocket server. m may be nil.
func NewWebSocketServer(m *metrics.Metrics) *WebSocketServer {
	return &WebSocketServer{
		clients: make(map[*websocket.Conn]bool),
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	s.setClientGauge()

	// Greet the client so its runtime knows the channel is live.
	if data, err := json.Marshal(Message{Type: MessageConnected}); err == nil {
		s.writeTo(conn, data)
	}

	// Keep connection alive until client disconnects
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	s.setClientGauge()
	conn.Close()
}

// Send broadcasts a message to all connected clients.
func (s *WebSocketServer) Send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		err := s.writeTo(client, data)
		if err != nil {
			s.mu.Lock()
			delete(s.clients, client)
			s.mu.Unlock()
			client.Close()
		}
	}
	s.setClientGauge()
}

// ClientCount returns the number of connected clients.
func (s *WebSocketServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close closes all client connections.
func (s *WebSocketServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
	if s.metrics != nil {
		s.metrics.ConnectedClients.Set(0)
	}
}

// writeTo sends one text frame. gorilla connections support at most one
// concurrent writer, and the greeting races broadcasts from the change
// loop, so every write funnels through writeMu.
func (s *WebSocketServer) writeTo(conn *websocket.Conn, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *WebSocketServer) setClientGauge() {
	if s.metrics != nil {
		s.metrics.ConnectedClients.Set(float64(s.ClientCount()))
	}
}
