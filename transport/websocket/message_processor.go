package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 10
	sendBuffer     = 32
)

var errClientGone = errors.New("client send buffer is full or closed")

// Message is the envelope for everything sent over the socket.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func newMessage(action string, payload any) []byte {
	encoded, err := json.Marshal(payload)
	if err != nil {
		encoded, _ = json.Marshal(ErrorPayload{Error: "failed to encode payload"})
	}

	message, _ := json.Marshal(Message{Action: action, Payload: encoded})
	return message
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	mu        sync.Mutex
	done      bool
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// enqueue never blocks; a full buffer means the client is too slow.
func (that *client) enqueue(message []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.done {
		return errClientGone
	}

	select {
	case that.send <- message:
		return nil
	default:
		return errClientGone
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		that.mu.Lock()
		that.done = true
		close(that.send)
		that.mu.Unlock()
	})
}

// writePump is the only goroutine writing to the connection.
func (that *Server) writePump(client *client) {
	log := that.logger.With("method", "writePump")

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles client requests until the connection fails.
func (that *Server) readPump(ctx context.Context, client *client) {
	log := that.logger.With("method", "readPump")

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var message Message
		if err := client.conn.ReadJSON(&message); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				_ = client.enqueue(newMessage(actionError, ErrorPayload{Error: "malformed message"}))
				continue
			}

			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			_ = client.enqueue(newMessage(actionError, ErrorPayload{Error: fmt.Sprintf("unknown action %q", message.Action)}))
			continue
		}

		if err := handler(ctx, client, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}
