package service

import (
	"errors"
	"math/rand/v2"

	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
)

var ErrNoAvailableMoves = errors.New("no available moves")

// FallbackPicker chooses a move when an agent could not supply a legal one.
type FallbackPicker interface {
	Pick(cells []entity.Position) (entity.Position, error)
}

type randomPicker struct{}

// NewRandomPicker returns a picker that chooses uniformly among the given cells.
func NewRandomPicker() FallbackPicker {
	return &randomPicker{}
}

func (that *randomPicker) Pick(cells []entity.Position) (entity.Position, error) {
	if len(cells) == 0 {
		return entity.Position{}, ErrNoAvailableMoves
	}

	return cells[rand.IntN(len(cells))], nil //nolint: gosec // it's ok
}
