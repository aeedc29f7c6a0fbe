package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-arena/internal/apperror"
)

// Mark is the content of a board cell. PlayerX always moves first.
type Mark string

const (
	EmptyCell Mark = " "
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

// Players lists the two player slots in turn order.
var Players = [2]Mark{PlayerX, PlayerO}

func (that Mark) IsPlayer() bool {
	return that == PlayerX || that == PlayerO
}

func (that Mark) Opponent() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (that Mark) String() string {
	return string(that)
}

// ParsePlayer converts a player tag from the wire into a Mark.
func ParsePlayer(tag string) (Mark, error) {
	mark := Mark(tag)
	if !mark.IsPlayer() {
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidPlayer, tag)
	}

	return mark, nil
}
