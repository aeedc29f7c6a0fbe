package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
	"github.com/rocketscienceinc/gomoku-arena/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	state *entity.MatchState
}

func (that *staticSource) Snapshot() entity.Snapshot {
	return that.state.Snapshot()
}

func dial(t *testing.T, server *Server) *websocket.Conn {
	t.Helper()

	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))
	return message
}

func decodeSnapshot(t *testing.T, message Message) entity.Snapshot {
	t.Helper()

	require.Equal(t, actionGameState, message.Action)

	var snapshot entity.Snapshot
	require.NoError(t, json.Unmarshal(message.Payload, &snapshot))
	return snapshot
}

func TestServer_Feed(t *testing.T) {
	t.Run("Sends the current state on connect and every published snapshot", func(t *testing.T) {
		// Given: a feed over a match with one move
		state := entity.NewMatchState("live", entity.DefaultBoardSize)
		require.NoError(t, state.ApplyMove(7, 7, entity.PlayerX))
		server := New(suite.Logger(), &staticSource{state: state})

		// When: a spectator connects
		conn := dial(t, server)

		// Then: it receives the current board first
		initial := decodeSnapshot(t, readMessage(t, conn))
		assert.Equal(t, "live", initial.MatchID)
		assert.Len(t, initial.MoveHistory, 1)

		// When: another move is published
		require.NoError(t, state.ApplyMove(0, 0, entity.PlayerO))
		require.Eventually(t, func() bool { return server.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
		server.Publish(state.Snapshot())

		// Then: the spectator receives it
		update := decodeSnapshot(t, readMessage(t, conn))
		assert.Len(t, update.MoveHistory, 2)
		assert.Equal(t, entity.PlayerX, update.CurrentPlayer)
	})

	t.Run("Answers requests by action", func(t *testing.T) {
		server := New(suite.Logger(), &staticSource{state: entity.NewMatchState("live", 5)})
		conn := dial(t, server)
		_ = readMessage(t, conn)

		require.NoError(t, conn.WriteJSON(Message{Action: actionPing}))
		assert.Equal(t, actionPong, readMessage(t, conn).Action)

		require.NoError(t, conn.WriteJSON(Message{Action: actionGameState}))
		assert.Equal(t, 5, decodeSnapshot(t, readMessage(t, conn)).BoardSize)

		require.NoError(t, conn.WriteJSON(Message{Action: "game:turn"}))
		reply := readMessage(t, conn)
		assert.Equal(t, actionError, reply.Action)
		assert.Contains(t, string(reply.Payload), "unknown action")
	})

	t.Run("Close disconnects spectators", func(t *testing.T) {
		server := New(suite.Logger(), &staticSource{state: entity.NewMatchState("live", 5)})
		conn := dial(t, server)
		_ = readMessage(t, conn)
		require.Eventually(t, func() bool { return server.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

		server.Close()

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, _, err := conn.ReadMessage()
		require.Error(t, err)
		assert.Zero(t, server.ClientCount())
	})
}
