package entity

import "time"

// MatchRecord is the archived result of a finished match.
type MatchRecord struct {
	ID            string          `json:"matchId"`
	BoardSize     int             `json:"boardSize"`
	Players       map[Mark]string `json:"players"`
	Winner        Outcome         `json:"winner"`
	MoveHistory   []Move          `json:"moveHistory"`
	FallbackMoves int             `json:"fallbackMoves"`
	StartedAt     time.Time       `json:"startedAt"`
	FinishedAt    time.Time       `json:"finishedAt"`
}

// NewMatchRecord builds a record from the final snapshot of a match.
func NewMatchRecord(snapshot Snapshot, players map[Mark]string, fallbackMoves int) *MatchRecord {
	record := &MatchRecord{
		ID:            snapshot.MatchID,
		BoardSize:     snapshot.BoardSize,
		Players:       players,
		Winner:        snapshot.Winner,
		MoveHistory:   snapshot.MoveHistory,
		FallbackMoves: fallbackMoves,
		StartedAt:     snapshot.StartedAt,
	}

	if snapshot.FinishedAt != nil {
		record.FinishedAt = *snapshot.FinishedAt
	}

	return record
}
