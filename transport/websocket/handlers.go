package websocket

import (
	"context"
	"fmt"
)

const (
	actionGameState = "game:state"
	actionPing      = "ping"
	actionPong      = "pong"
	actionError     = "error"
)

func (that *Server) handleGameState(_ context.Context, client *client, _ *Message) error {
	if err := client.enqueue(newMessage(actionGameState, that.source.Snapshot())); err != nil {
		return fmt.Errorf("failed to send game state: %w", err)
	}
	return nil
}

func (that *Server) handlePing(_ context.Context, client *client, _ *Message) error {
	if err := client.enqueue(newMessage(actionPong, struct{}{})); err != nil {
		return fmt.Errorf("failed to send pong: %w", err)
	}
	return nil
}
