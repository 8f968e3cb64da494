package core

// TileKind classifies a single layout cell.
type TileKind int

const (
	TileFloor TileKind = iota
	TileWall
	TileAltFloor
	TileHole
	TileOutOfBounds
)

func (k TileKind) String() string {
	switch k {
	case TileFloor:
		return "floor"
	case TileWall:
		return "wall"
	case TileAltFloor:
		return "altfloor"
	case TileHole:
		return "hole"
	default:
		return "oob"
	}
}

// Terrain reports whether an avatar may stand on this kind of cell.
func (k TileKind) Terrain() bool {
	return k == TileFloor || k == TileAltFloor
}
