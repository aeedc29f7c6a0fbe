package entity

const (
	DefaultBoardSize = 15
	WinLength        = 5
)

// directions are the four line axes checked from a placed stone; each is walked in both signs.
var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal ↘
	{1, -1}, // diagonal ↗
}

// Position is a zero-based board coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is a fixed-size square grid. Its shape never changes after NewBoard.
type Board struct {
	size   int
	cells  [][]Mark
	filled int
}

func NewBoard(size int) *Board {
	if size < 1 {
		size = DefaultBoardSize
	}

	cells := make([][]Mark, size)
	for row := range cells {
		cells[row] = make([]Mark, size)
		for col := range cells[row] {
			cells[row][col] = EmptyCell
		}
	}

	return &Board{
		size:  size,
		cells: cells,
	}
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) inBounds(row, col int) bool {
	return row >= 0 && row < that.size && col >= 0 && col < that.size
}

// At returns the mark at (row, col), or EmptyCell outside the board.
func (that *Board) At(row, col int) Mark {
	if !that.inBounds(row, col) {
		return EmptyCell
	}
	return that.cells[row][col]
}

// IsValid reports whether (row, col) is on the board and still empty.
func (that *Board) IsValid(row, col int) bool {
	return that.inBounds(row, col) && that.cells[row][col] == EmptyCell
}

// Apply is the only way a cell gets written. It leaves the board untouched and returns false
// when the target is not a valid empty cell or the mark is not a player.
func (that *Board) Apply(row, col int, player Mark) bool {
	if !player.IsPlayer() || !that.IsValid(row, col) {
		return false
	}

	that.cells[row][col] = player
	that.filled++

	return true
}

func (that *Board) IsFull() bool {
	return that.filled == that.size*that.size
}

// CheckWinAt reports whether the stone just placed at (row, col) completes a line of at least
// WinLength stones of player. Longer lines count as a win.
func (that *Board) CheckWinAt(row, col int, player Mark) bool {
	if !player.IsPlayer() || that.At(row, col) != player {
		return false
	}

	for _, dir := range directions {
		count := 1 + that.countFrom(row, col, dir[0], dir[1], player) + that.countFrom(row, col, -dir[0], -dir[1], player)
		if count >= WinLength {
			return true
		}
	}

	return false
}

// countFrom counts consecutive stones of player starting next to (row, col) along (dr, dc).
// The walk stops at WinLength so the cost does not depend on board size.
func (that *Board) countFrom(row, col, dr, dc int, player Mark) int {
	count := 0
	for r, c := row+dr, col+dc; count < WinLength && that.inBounds(r, c) && that.cells[r][c] == player; r, c = r+dr, c+dc {
		count++
	}
	return count
}

func (that *Board) EmptyCells() []Position {
	free := make([]Position, 0, that.size*that.size-that.filled)
	for row := range that.cells {
		for col, cell := range that.cells[row] {
			if cell == EmptyCell {
				free = append(free, Position{Row: row, Col: col})
			}
		}
	}
	return free
}

// Rows returns a deep copy of the grid.
func (that *Board) Rows() [][]Mark {
	rows := make([][]Mark, that.size)
	for row := range that.cells {
		rows[row] = make([]Mark, that.size)
		copy(rows[row], that.cells[row])
	}
	return rows
}
