// Package avatar models one connected player's in-room actor: its state
// machine, path follower and deferred arrival action.
package avatar

import (
	"math"
	"time"

	"github.com/lixenwraith/pixelden/core"
)

// State is the avatar's activity state.
type State int

const (
	Idle State = iota
	Walking
	Sitting
	Emoting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Walking:
		return "walking"
	case Sitting:
		return "sitting"
	case Emoting:
		return "emoting"
	default:
		return "unknown"
	}
}

// ActionKind tags the deferred arrival action.
type ActionKind int

const (
	ActionSit ActionKind = iota
	ActionPortal
)

// Action is evaluated exactly once when the avatar reaches the end of its
// path. Sit re-validates the seat at arrival; Portal is handed to the
// world director.
type Action struct {
	Kind ActionKind

	// Sit
	InstanceID string

	// Portal
	TargetRoomID string
	TargetX      *int
	TargetY      *int
}

// Avatar is the per-player actor. It is loaned to exactly one room at a
// time and only mutated under that room's serialization, so it carries no
// lock of its own.
type Avatar struct {
	RuntimeID uint64
	UserID    string
	Name      string
	RoomID    string

	X float64
	Y float64
	Z float64

	Direction core.Direction
	State     State

	SittingOn string // instance id, empty when not sitting
	Path      []core.Point
	After     *Action

	Speed float64 // tiles per second

	Currency  int
	Inventory map[string]int
	BodyColor string

	EmoteID    string
	EmoteUntil time.Time
}

// Cell is the avatar's integer grid cell (nearest tile).
func (a *Avatar) Cell() core.Point {
	return core.Point{X: int(math.Round(a.X)), Y: int(math.Round(a.Y))}
}

// StartPath puts the avatar on a waypoint sequence. The caller has already
// stripped the starting cell. Walking implicitly cancels an active emote.
func (a *Avatar) StartPath(path []core.Point, after *Action) {
	a.Path = path
	a.After = after
	a.ClearEmote()
	if len(path) > 0 {
		a.State = Walking
		a.faceToward(path[0])
	}
}

// StopPath drops any pending movement and deferred action.
func (a *Avatar) StopPath() {
	a.Path = nil
	a.After = nil
	if a.State == Walking {
		a.State = Idle
	}
}

// SitOn snaps the avatar onto a seat.
func (a *Avatar) SitOn(instanceID string, x, y int, z float64, facing core.Direction) {
	a.ClearEmote()
	a.Path = nil
	a.After = nil
	a.X = float64(x)
	a.Y = float64(y)
	a.Z = z
	a.Direction = facing
	a.State = Sitting
	a.SittingOn = instanceID
}

// StandTo releases the seat and relocates to the given cell.
func (a *Avatar) StandTo(cell core.Point, defaultZ float64) {
	a.SittingOn = ""
	a.X = float64(cell.X)
	a.Y = float64(cell.Y)
	a.Z = defaultZ
	a.State = Idle
}

// StartEmote records the transient emote. Valid from Idle or Walking; a
// walking avatar pauses in place, keeps its path and resumes on expiry.
// The caller enforces the catalog and sitting checks.
func (a *Avatar) StartEmote(id string, until time.Time) {
	a.EmoteID = id
	a.EmoteUntil = until
	if a.State == Idle || a.State == Walking {
		a.State = Emoting
	}
}

// ClearEmote drops an active emote, resuming the walk when a path remains.
func (a *Avatar) ClearEmote() {
	a.EmoteID = ""
	a.EmoteUntil = time.Time{}
	if a.State == Emoting {
		if len(a.Path) > 0 {
			a.State = Walking
		} else {
			a.State = Idle
		}
	}
}

// TickEmote expires the emote when its deadline passes. Returns true when
// the expiry changed observable state this tick.
func (a *Avatar) TickEmote(now time.Time) bool {
	if a.EmoteID == "" || now.Before(a.EmoteUntil) {
		return false
	}
	a.ClearEmote()
	return true
}

// PrepareRoomChange resets transient state for migration: emote cleared,
// path emptied, seat released, position set to the arrival cell.
func (a *Avatar) PrepareRoomChange(targetRoomID string, at core.Point, defaultZ float64) {
	a.ClearEmote()
	a.Path = nil
	a.After = nil
	a.SittingOn = ""
	a.X = float64(at.X)
	a.Y = float64(at.Y)
	a.Z = defaultZ
	a.State = Idle
	a.RoomID = targetRoomID
}

// Step advances the path follower by dt seconds. Waypoints are consumed as
// the travel budget allows: snap-and-pop when the budget covers the
// remaining distance, linear interpolation otherwise. Returns whether the
// pose changed and whether the path finished this step.
func (a *Avatar) Step(dt float64) (moved, arrived bool) {
	if a.State != Walking || len(a.Path) == 0 {
		return false, false
	}
	budget := a.Speed * dt
	for budget > 0 && len(a.Path) > 0 {
		next := a.Path[0]
		dx := float64(next.X) - a.X
		dy := float64(next.Y) - a.Y
		dist := math.Hypot(dx, dy)

		if dist <= budget {
			a.X = float64(next.X)
			a.Y = float64(next.Y)
			a.Path = a.Path[1:]
			budget -= dist
			moved = true
			if len(a.Path) > 0 {
				a.faceToward(a.Path[0])
			}
			continue
		}

		a.X += dx / dist * budget
		a.Y += dy / dist * budget
		a.Direction = core.DirectionFromDelta(dx, dy)
		budget = 0
		moved = true
	}
	if len(a.Path) == 0 {
		a.State = Idle
		arrived = true
	}
	return moved, arrived
}

func (a *Avatar) faceToward(p core.Point) {
	a.Direction = core.DirectionFromDelta(float64(p.X)-a.X, float64(p.Y)-a.Y)
}
