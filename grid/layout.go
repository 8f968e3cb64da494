// Package grid holds the static tile map of a room.
package grid

import (
	"errors"

	"github.com/lixenwraith/pixelden/core"
)

var ErrEmptyLayout = errors.New("grid: empty layout")

// Layout is the immutable-within-run tile map of one room.
// Cells are stored row-major; index = y*cols + x.
type Layout struct {
	cols  int
	rows  int
	cells []core.TileKind
}

// New builds a layout from a dense 2D cell matrix. Rows must be non-empty
// and rectangular; ragged rows are an error.
func New(cells [][]core.TileKind) (*Layout, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, ErrEmptyLayout
	}
	rows := len(cells)
	cols := len(cells[0])
	flat := make([]core.TileKind, 0, rows*cols)
	for _, row := range cells {
		if len(row) != cols {
			return nil, errors.New("grid: ragged layout rows")
		}
		flat = append(flat, row...)
	}
	return &Layout{cols: cols, rows: rows, cells: flat}, nil
}

// Fallback is the 1x1 wall layout used when no usable layout can be
// loaded. A room on a fallback layout is unenterable by design.
func Fallback() *Layout {
	return &Layout{cols: 1, rows: 1, cells: []core.TileKind{core.TileWall}}
}

func (l *Layout) Cols() int { return l.cols }
func (l *Layout) Rows() int { return l.rows }

// IsInBounds reports whether (x,y) lies inside the map.
func (l *Layout) IsInBounds(x, y int) bool {
	return x >= 0 && x < l.cols && y >= 0 && y < l.rows
}

// TileKind returns the cell classification, or TileOutOfBounds.
func (l *Layout) TileKind(x, y int) core.TileKind {
	if !l.IsInBounds(x, y) {
		return core.TileOutOfBounds
	}
	return l.cells[y*l.cols+x]
}

// IsValidTerrain reports whether the cell is standable ground (floor or
// alt floor), ignoring furniture.
func (l *Layout) IsValidTerrain(x, y int) bool {
	return l.TileKind(x, y).Terrain()
}
