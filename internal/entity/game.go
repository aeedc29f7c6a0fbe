package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
)

// Outcome is the result of a match: none yet, a winning player, or a tie.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeTie  Outcome = "Tie"
)

func WinnerOutcome(player Mark) Outcome {
	return Outcome(player)
}

// Winner returns the winning player, if any.
func (that Outcome) Winner() (Mark, bool) {
	mark := Mark(that)
	return mark, mark.IsPlayer()
}

// MarshalJSON encodes OutcomeNone as null.
func (that Outcome) MarshalJSON() ([]byte, error) {
	if that == OutcomeNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(that))
}

func (that *Outcome) UnmarshalJSON(data []byte) error {
	var value *string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("failed to unmarshal outcome: %w", err)
	}

	if value == nil {
		*that = OutcomeNone
		return nil
	}

	*that = Outcome(*value)
	return nil
}

// Move is one applied placement. On the wire it is the tuple [row, col, player].
type Move struct {
	Row    int
	Col    int
	Player Mark
}

func (that Move) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{that.Row, that.Col, that.Player})
}

func (that *Move) UnmarshalJSON(data []byte) error {
	var tuple [3]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("failed to unmarshal move: %w", err)
	}

	if err := json.Unmarshal(tuple[0], &that.Row); err != nil {
		return fmt.Errorf("failed to unmarshal move row: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &that.Col); err != nil {
		return fmt.Errorf("failed to unmarshal move col: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &that.Player); err != nil {
		return fmt.Errorf("failed to unmarshal move player: %w", err)
	}

	return nil
}

// MatchState is the authoritative state of one match. It is mutated only through ApplyMove;
// a reset builds a new MatchState instead of clearing this one.
type MatchState struct {
	id           string
	board        *Board
	activePlayer Mark
	terminal     bool
	outcome      Outcome
	history      []Move
	startedAt    time.Time
	finishedAt   time.Time
}

func NewMatchState(id string, boardSize int) *MatchState {
	return &MatchState{
		id:           id,
		board:        NewBoard(boardSize),
		activePlayer: PlayerX,
		history:      []Move{},
		startedAt:    time.Now().UTC(),
	}
}

func (that *MatchState) ID() string {
	return that.id
}

func (that *MatchState) ActivePlayer() Mark {
	return that.activePlayer
}

func (that *MatchState) IsTerminal() bool {
	return that.terminal
}

func (that *MatchState) Outcome() Outcome {
	return that.outcome
}

func (that *MatchState) MoveCount() int {
	return len(that.history)
}

func (that *MatchState) EmptyCells() []Position {
	return that.board.EmptyCells()
}

// ApplyMove validates and applies a move for player. A rejected move changes nothing.
func (that *MatchState) ApplyMove(row, col int, player Mark) error {
	if that.terminal {
		return apperror.ErrGameFinished
	}

	if player != that.activePlayer {
		return apperror.ErrNotYourTurn
	}

	if !that.board.IsValid(row, col) {
		if that.board.inBounds(row, col) {
			return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOccupied, row, col)
		}
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrCellOutOfRange, row, col)
	}

	that.board.Apply(row, col, player)
	that.history = append(that.history, Move{Row: row, Col: col, Player: player})

	switch {
	case that.board.CheckWinAt(row, col, player):
		that.finish(WinnerOutcome(player))
	case that.board.IsFull():
		that.finish(OutcomeTie)
	default:
		that.activePlayer = player.Opponent()
	}

	return nil
}

func (that *MatchState) finish(outcome Outcome) {
	that.terminal = true
	that.outcome = outcome
	that.finishedAt = time.Now().UTC()
}

// Snapshot returns a deep copy that is safe to hand to other goroutines.
func (that *MatchState) Snapshot() Snapshot {
	history := make([]Move, len(that.history))
	copy(history, that.history)

	snapshot := Snapshot{
		MatchID:       that.id,
		BoardSize:     that.board.Size(),
		Board:         that.board.Rows(),
		CurrentPlayer: that.activePlayer,
		GameOver:      that.terminal,
		Winner:        that.outcome,
		MoveHistory:   history,
		StartedAt:     that.startedAt,
	}

	if that.terminal {
		finishedAt := that.finishedAt
		snapshot.FinishedAt = &finishedAt
	}

	return snapshot
}

// Snapshot is the read-only view of a match sent to HTTP clients and agents.
type Snapshot struct {
	MatchID       string     `json:"matchId"`
	BoardSize     int        `json:"boardSize"`
	Board         [][]Mark   `json:"board"`
	CurrentPlayer Mark       `json:"currentPlayer"`
	GameOver      bool       `json:"gameOver"`
	Winner        Outcome    `json:"winner"`
	MoveHistory   []Move     `json:"moveHistory"`
	StartedAt     time.Time  `json:"startedAt"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
}
