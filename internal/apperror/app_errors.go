package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMove    = errors.New("invalid move")
	ErrCellOutOfRange = fmt.Errorf("%w: cell is out of range", ErrInvalidMove)
	ErrCellOccupied   = fmt.Errorf("%w: cell is already occupied", ErrInvalidMove)
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrGameFinished   = errors.New("game is already finished")

	ErrInvalidPlayer  = errors.New("invalid player")
	ErrInvalidBotInfo = errors.New("invalid bot info")

	ErrBotsNotBound    = errors.New("both bots must be registered before the game starts")
	ErrMatchInProgress = errors.New("match is already in progress")
	ErrMatchNotFound   = errors.New("match not found")
)
