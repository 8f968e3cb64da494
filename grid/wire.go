package grid

import (
	"fmt"

	"github.com/lixenwraith/pixelden/core"
)

// Wire cell encoding: numeric 0 (floor), 1 (wall), 2 (alt floor) and the
// string "X" (hole). The same matrix shape is used in the persistence
// store and in RoomState payloads.

// ToWire encodes the layout as a JSON-friendly cell matrix.
func (l *Layout) ToWire() [][]any {
	out := make([][]any, l.rows)
	for y := 0; y < l.rows; y++ {
		row := make([]any, l.cols)
		for x := 0; x < l.cols; x++ {
			switch l.cells[y*l.cols+x] {
			case core.TileWall:
				row[x] = 1
			case core.TileAltFloor:
				row[x] = 2
			case core.TileHole:
				row[x] = "X"
			default:
				row[x] = 0
			}
		}
		out[y] = row
	}
	return out
}

// FromWire decodes a cell matrix as found in the store or on the wire.
// Numbers may arrive as float64 (JSON) or int (YAML).
func FromWire(raw [][]any) (*Layout, error) {
	if len(raw) == 0 || len(raw[0]) == 0 {
		return nil, ErrEmptyLayout
	}
	cells := make([][]core.TileKind, len(raw))
	for y, row := range raw {
		cells[y] = make([]core.TileKind, len(row))
		for x, v := range row {
			kind, err := decodeCell(v)
			if err != nil {
				return nil, fmt.Errorf("grid: cell (%d,%d): %w", x, y, err)
			}
			cells[y][x] = kind
		}
	}
	return New(cells)
}

// FromStrings decodes the compact row-string form used by bundled room
// files: one string per row, runes '0', '1', '2' and 'X'.
func FromStrings(rows []string) (*Layout, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyLayout
	}
	cells := make([][]core.TileKind, len(rows))
	for y, row := range rows {
		cells[y] = make([]core.TileKind, len(row))
		for x, r := range row {
			switch r {
			case '0':
				cells[y][x] = core.TileFloor
			case '1':
				cells[y][x] = core.TileWall
			case '2':
				cells[y][x] = core.TileAltFloor
			case 'X', 'x':
				cells[y][x] = core.TileHole
			default:
				return nil, fmt.Errorf("grid: cell (%d,%d): unknown rune %q", x, y, r)
			}
		}
	}
	return New(cells)
}

func decodeCell(v any) (core.TileKind, error) {
	switch c := v.(type) {
	case string:
		if c == "X" || c == "x" {
			return core.TileHole, nil
		}
		return 0, fmt.Errorf("unknown string cell %q", c)
	case float64:
		return numericCell(int(c))
	case int:
		return numericCell(c)
	case int64:
		return numericCell(int(c))
	default:
		return 0, fmt.Errorf("unsupported cell type %T", v)
	}
}

func numericCell(n int) (core.TileKind, error) {
	switch n {
	case 0:
		return core.TileFloor, nil
	case 1:
		return core.TileWall, nil
	case 2:
		return core.TileAltFloor, nil
	default:
		return 0, fmt.Errorf("unknown numeric cell %d", n)
	}
}
