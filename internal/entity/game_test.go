package entity

import (
	"encoding/json"
	"testing"

	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatchState(t *testing.T) {
	// Given: a fresh match
	state := NewMatchState("match-1", DefaultBoardSize)

	// When: taking a snapshot
	snapshot := state.Snapshot()

	// Then: the board is empty, X moves first and nothing is decided
	assert.Equal(t, "match-1", snapshot.MatchID)
	assert.Equal(t, DefaultBoardSize, snapshot.BoardSize)
	assert.Equal(t, PlayerX, snapshot.CurrentPlayer)
	assert.False(t, snapshot.GameOver)
	assert.Equal(t, OutcomeNone, snapshot.Winner)
	assert.Empty(t, snapshot.MoveHistory)
	assert.Len(t, state.EmptyCells(), DefaultBoardSize*DefaultBoardSize)
	assert.Nil(t, snapshot.FinishedAt)
}

func TestMatchState_ApplyMove(t *testing.T) {
	t.Run("Accepted move toggles the active player and records history", func(t *testing.T) {
		// Given: a fresh match
		state := NewMatchState("m", DefaultBoardSize)

		// When: X plays the center
		err := state.ApplyMove(7, 7, PlayerX)

		// Then: the move is recorded and O is to move
		require.NoError(t, err)
		snapshot := state.Snapshot()
		assert.Equal(t, PlayerX, snapshot.Board[7][7])
		assert.Equal(t, PlayerO, snapshot.CurrentPlayer)
		assert.Equal(t, []Move{{Row: 7, Col: 7, Player: PlayerX}}, snapshot.MoveHistory)
	})

	t.Run("Rejections leave the state unchanged", func(t *testing.T) {
		// Given: a match where X has played the center
		state := NewMatchState("m", DefaultBoardSize)
		require.NoError(t, state.ApplyMove(7, 7, PlayerX))
		before := state.Snapshot()

		// When: applying a series of illegal moves
		errWrongTurn := state.ApplyMove(0, 0, PlayerX)
		errOccupied := state.ApplyMove(7, 7, PlayerO)
		errNegative := state.ApplyMove(-1, 0, PlayerO)
		errTooFar := state.ApplyMove(0, DefaultBoardSize, PlayerO)

		// Then: each is rejected with its reason and nothing changed
		require.ErrorIs(t, errWrongTurn, apperror.ErrNotYourTurn)
		require.ErrorIs(t, errOccupied, apperror.ErrCellOccupied)
		require.ErrorIs(t, errNegative, apperror.ErrCellOutOfRange)
		require.ErrorIs(t, errTooFar, apperror.ErrCellOutOfRange)
		require.ErrorIs(t, errOccupied, apperror.ErrInvalidMove)
		assert.Equal(t, before, state.Snapshot())
	})

	t.Run("Five in a row wins and freezes the match", func(t *testing.T) {
		// Given: X builds a row on line 7 while O plays on line 0
		state := NewMatchState("m", DefaultBoardSize)
		for i := range 4 {
			require.NoError(t, state.ApplyMove(7, 7+i, PlayerX))
			require.NoError(t, state.ApplyMove(0, i, PlayerO))
		}

		// When: X places the fifth stone
		err := state.ApplyMove(7, 11, PlayerX)

		// Then: X wins and further moves are refused
		require.NoError(t, err)
		assert.True(t, state.IsTerminal())
		winner, ok := state.Outcome().Winner()
		assert.True(t, ok)
		assert.Equal(t, PlayerX, winner)
		assert.Equal(t, PlayerX, state.ActivePlayer())
		assert.Len(t, state.Snapshot().MoveHistory, 9)
		assert.NotNil(t, state.Snapshot().FinishedAt)

		require.ErrorIs(t, state.ApplyMove(14, 14, PlayerO), apperror.ErrGameFinished)
		assert.Equal(t, 9, state.MoveCount())
	})

	t.Run("Full board without a line is a tie", func(t *testing.T) {
		// Given: a pattern that fills the board with no five-stone line
		state := NewMatchState("m", DefaultBoardSize)
		var xCells, oCells []Position
		for row := range DefaultBoardSize {
			for col := range DefaultBoardSize {
				if (col/2+row)%2 == 0 {
					xCells = append(xCells, Position{Row: row, Col: col})
				} else {
					oCells = append(oCells, Position{Row: row, Col: col})
				}
			}
		}
		require.Len(t, xCells, len(oCells)+1)

		// When: the players alternate through the pattern
		for i, cell := range xCells {
			require.NoError(t, state.ApplyMove(cell.Row, cell.Col, PlayerX))
			if i < len(oCells) {
				require.NoError(t, state.ApplyMove(oCells[i].Row, oCells[i].Col, PlayerO))
			}
		}

		// Then: the match ends in a tie
		assert.True(t, state.IsTerminal())
		assert.Equal(t, OutcomeTie, state.Outcome())
		assert.Empty(t, state.EmptyCells())
		_, ok := state.Outcome().Winner()
		assert.False(t, ok)
	})
}

func TestMatchState_Snapshot(t *testing.T) {
	t.Run("Snapshot is detached from the live state", func(t *testing.T) {
		// Given: a snapshot taken after one move
		state := NewMatchState("m", DefaultBoardSize)
		require.NoError(t, state.ApplyMove(1, 1, PlayerX))
		snapshot := state.Snapshot()

		// When: mutating the snapshot
		snapshot.Board[2][2] = PlayerO
		snapshot.MoveHistory[0].Row = 9

		// Then: the live state is unaffected
		fresh := state.Snapshot()
		assert.Equal(t, EmptyCell, fresh.Board[2][2])
		assert.Equal(t, 1, fresh.MoveHistory[0].Row)
	})

	t.Run("Snapshot encodes moves as tuples and a missing winner as null", func(t *testing.T) {
		// Given: a match with one move
		state := NewMatchState("m", 3)
		require.NoError(t, state.ApplyMove(0, 2, PlayerX))

		// When: encoding the snapshot
		data, err := json.Marshal(state.Snapshot())
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))

		// Then: the wire format matches what agents expect
		assert.Nil(t, decoded["winner"])
		assert.Equal(t, "O", decoded["currentPlayer"])
		assert.Equal(t, false, decoded["gameOver"])
		assert.Equal(t, []any{[]any{float64(0), float64(2), "X"}}, decoded["moveHistory"])
		assert.Equal(t, []any{" ", " ", "X"}, decoded["board"].([]any)[0])
	})
}

func TestMove_JSON(t *testing.T) {
	// Given: an encoded move
	data := []byte(`[3, 4, "O"]`)

	// When: decoding it
	var move Move
	err := json.Unmarshal(data, &move)

	// Then: the tuple fields land in order
	require.NoError(t, err)
	assert.Equal(t, Move{Row: 3, Col: 4, Player: PlayerO}, move)

	require.Error(t, json.Unmarshal([]byte(`{"row":1}`), &move))
}

func TestOutcome_JSON(t *testing.T) {
	for _, outcome := range []Outcome{OutcomeNone, OutcomeTie, WinnerOutcome(PlayerX), WinnerOutcome(PlayerO)} {
		data, err := json.Marshal(outcome)
		require.NoError(t, err)

		var decoded Outcome
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, outcome, decoded)
	}
}
