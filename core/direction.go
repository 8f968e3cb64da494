package core

import "math"

// Direction is one of the eight movement/facing octants.
// East is 0 and values increase clockwise (screen coordinates, +Y is south).
type Direction int

const (
	East Direction = iota
	SouthEast
	South
	SouthWest
	West
	NorthWest
	North
	NorthEast
)

var directionNames = [8]string{"E", "SE", "S", "SW", "W", "NW", "N", "NE"}

func (d Direction) String() string {
	if d < 0 || d > 7 {
		return "?"
	}
	return directionNames[d]
}

// Rotate returns the direction turned clockwise by steps octants.
// Negative steps turn counter-clockwise.
func (d Direction) Rotate(steps int) Direction {
	return Direction(((int(d)+steps)%8 + 8) % 8)
}

// Opposite returns the direction rotated by half a turn.
func (d Direction) Opposite() Direction {
	return d.Rotate(4)
}

// Delta returns the unit grid step for the direction.
var directionDeltas = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// Delta returns the (dx, dy) grid step for the direction.
func (d Direction) Delta() (int, int) {
	return directionDeltas[d][0], directionDeltas[d][1]
}

// DirectionFromDelta quantizes a movement vector into an octant.
// The full circle is split by pi/8 bisectors so each octant owns a
// 45 degree wedge centered on its axis.
func DirectionFromDelta(dx, dy float64) Direction {
	if dx == 0 && dy == 0 {
		return South
	}
	angle := math.Atan2(dy, dx) // -pi..pi, 0 = East, +pi/2 = South
	octant := int(math.Round(angle / (math.Pi / 4)))
	return Direction((octant%8 + 8) % 8)
}
