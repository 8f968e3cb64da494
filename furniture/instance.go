// Package furniture owns the mutable stack of placed items in one room and
// the spatial queries against it.
package furniture

import (
	"github.com/lixenwraith/pixelden/catalog"
	"github.com/lixenwraith/pixelden/core"
)

// Instance is one placed furniture item. Owned by exactly one room's
// registry; all mutation happens under the owning kernel's serialization.
type Instance struct {
	ID  string
	Def *catalog.FurnitureDefinition

	X int
	Y int
	Z float64

	Rotation      int // 0..7 octants
	OwnerUserID   string
	State         string
	ColorOverride string
}

// footprintExtent returns the tile extent after rotation. Quarter turns
// (rotation 2 and 6) swap width and height.
func (i *Instance) footprintExtent() (w, h int) {
	w, h = i.Def.FootprintSize()
	if i.Rotation%4 == 2 {
		w, h = h, w
	}
	return w, h
}

// Footprint lists the tiles the instance covers: base (X,Y) centered with
// half-extent floor offsets.
func (i *Instance) Footprint() []core.Point {
	w, h := i.footprintExtent()
	tiles := make([]core.Point, 0, w*h)
	x0 := i.X - w/2
	y0 := i.Y - h/2
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			tiles = append(tiles, core.Point{X: x0 + dx, Y: y0 + dy})
		}
	}
	return tiles
}

// Covers reports whether the footprint includes (x,y).
func (i *Instance) Covers(x, y int) bool {
	w, h := i.footprintExtent()
	x0 := i.X - w/2
	y0 := i.Y - h/2
	return x >= x0 && x < x0+w && y >= y0 && y < y0+h
}

// Facing is the seat/door facing after applying the instance rotation to
// the definition's base facing.
func (i *Instance) Facing() core.Direction {
	return i.Def.SitFacingDir.Rotate(i.Rotation)
}

// InteractionTile is the cell an avatar must stand on to sit on or operate
// this instance: one step opposite the rotated facing from the base cell.
// Doors use the same derivation.
func (i *Instance) InteractionTile() core.Point {
	return core.Point{X: i.X, Y: i.Y}.Step(i.Facing().Opposite())
}

// TopHeight is the resting surface this item offers to a stack: z plus its
// thickness. Flat items contribute nothing above their own z.
func (i *Instance) TopHeight(stackFactor float64) float64 {
	if i.Def.Flat {
		return i.Z
	}
	return i.Z + i.Def.StackHeight*stackFactor
}
