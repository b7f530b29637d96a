// Package diagnostics exposes a narrow, read-only websocket feed of live
// evaluator telemetry for bench tooling. It carries no authentication, no
// settings mutation and no static file serving — those belong to whatever
// external transport layer owns the operator-facing surface.
package diagnostics

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"barkback/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Stream fans out MicState samples to every connected client. Zero clients
// is the common case; Publish is non-blocking so a quiet evaluator loop
// never stalls waiting on diagnostic consumers.
type Stream struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	broadcast  chan models.MicState
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
}

// NewStream constructs a stream with no attached clients. Run must be
// started separately to actually process registrations and broadcasts.
func NewStream() *Stream {
	return &Stream{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan models.MicState),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run processes registrations, unregistrations and broadcasts until
// stopped by the caller (typically for the process lifetime).
func (s *Stream) Run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.clients[conn] = true
			s.mu.Unlock()

		case conn := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				conn.Close()
			}
			s.mu.Unlock()

		case state := <-s.broadcast:
			s.mu.Lock()
			for conn := range s.clients {
				if err := conn.WriteJSON(state); err != nil {
					conn.Close()
					delete(s.clients, conn)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Publish fans state out to connected clients, if any. It never blocks the
// caller: with no clients, or a saturated Run loop, it drops the sample.
func (s *Stream) Publish(state models.MicState) {
	s.mu.Lock()
	empty := len(s.clients) == 0
	s.mu.Unlock()
	if empty {
		return
	}
	select {
	case s.broadcast <- state:
	default:
	}
}

// HandleWebSocket upgrades an HTTP request to a websocket connection and
// registers it for broadcasts. Inbound messages are read only to detect
// disconnection; nothing a client sends is acted on.
func (s *Stream) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("diagnostics: upgrade failed: %v", err)
		return
	}
	s.register <- conn

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.unregister <- conn
				return
			}
		}
	}()
}

// ListenAndServe starts a dedicated HTTP server exposing the stream at
// /diagnostics on addr.
func (s *Stream) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/diagnostics", s.HandleWebSocket)
	return http.ListenAndServe(addr, mux)
}
