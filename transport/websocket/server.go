package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
)

type snapshotSource interface {
	Snapshot() entity.Snapshot
}

// Server pushes match snapshots to every connected spectator.
type Server struct {
	logger   *slog.Logger
	source   snapshotSource
	upgrader websocket.Upgrader

	handlers map[string]func(ctx context.Context, client *client, message *Message) error

	clientsMutex sync.Mutex
	clients      map[*client]struct{}
	closed       bool
}

func New(logger *slog.Logger, source snapshotSource) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		source: source,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// spectators may be served from any origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handlers: make(map[string]func(context.Context, *client, *Message) error),
		clients:  make(map[*client]struct{}),
	}

	server.handlers[actionGameState] = server.handleGameState
	server.handlers[actionPing] = server.handlePing

	return server
}

// ServeHTTP upgrades the request and streams snapshots until the client leaves.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn)
	if !that.register(client) {
		_ = conn.Close()
		return
	}

	log.Info("WebSocket connection established", "remote", req.RemoteAddr)

	go that.writePump(client)

	// the current state goes out first so late joiners see the board
	if err = client.enqueue(newMessage(actionGameState, that.source.Snapshot())); err != nil {
		log.Error("failed to queue initial state", "error", err)
	}

	that.readPump(req.Context(), client)

	that.unregister(client)
	log.Info("WebSocket connection closed", "remote", req.RemoteAddr)
}

// Publish broadcasts a snapshot. Clients that cannot keep up are disconnected.
func (that *Server) Publish(snapshot entity.Snapshot) {
	message := newMessage(actionGameState, snapshot)

	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	for client := range that.clients {
		if err := client.enqueue(message); err != nil {
			that.logger.Warn("dropping slow client", "error", err)
			delete(that.clients, client)
			client.close()
		}
	}
}

// Close disconnects every client and refuses new ones.
func (that *Server) Close() {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	that.closed = true
	for client := range that.clients {
		delete(that.clients, client)
		client.close()
	}
}

func (that *Server) ClientCount() int {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	return len(that.clients)
}

func (that *Server) register(client *client) bool {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	if that.closed {
		return false
	}

	that.clients[client] = struct{}{}
	return true
}

func (that *Server) unregister(client *client) {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	if _, ok := that.clients[client]; ok {
		delete(that.clients, client)
		client.close()
	}
}
