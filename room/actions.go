package room

import (
	"time"

	"github.com/lixenwraith/pixelden/avatar"
	"github.com/lixenwraith/pixelden/core"
	"github.com/lixenwraith/pixelden/pathfind"
	"github.com/lixenwraith/pixelden/protocol"
)

// RequestMove paths the avatar to (x,y). Fails while sitting or when the
// target is not walkable.
func (k *Kernel) RequestMove(runtimeID uint64, x, y int) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("move", core.FailInternal, "avatar not in room")
	}
	if av.State == avatar.Sitting {
		return core.Failf("move", core.FailValidation, "cannot move while sitting")
	}
	if !k.IsWalkable(x, y) {
		return core.Failf("move", core.FailValidation, "target (%d,%d) is not walkable", x, y)
	}
	return k.walkToLocked("move", av, core.Point{X: x, Y: y}, nil)
}

// RequestSit walks to the instance's interaction tile and sits (or, for a
// door, traverses the portal) on arrival. Already standing on the
// interaction tile resolves the action immediately.
func (k *Kernel) RequestSit(runtimeID uint64, instanceID string) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("sit", core.FailInternal, "avatar not in room")
	}
	if av.State == avatar.Sitting {
		return core.Failf("sit", core.FailValidation, "already sitting")
	}
	inst := k.furni.Get(instanceID)
	if inst == nil {
		return core.Failf("sit", core.FailValidation, "no such furniture")
	}

	var after *avatar.Action
	switch {
	case inst.Def.Door:
		after = &avatar.Action{
			Kind:         avatar.ActionPortal,
			TargetRoomID: inst.Def.TargetRoomID,
			TargetX:      inst.Def.TargetX,
			TargetY:      inst.Def.TargetY,
		}
	case inst.Def.CanSit:
		if k.isSeatOccupiedLocked(instanceID, runtimeID) {
			return core.Failf("sit", core.FailConflict, "seat is occupied")
		}
		after = &avatar.Action{Kind: avatar.ActionSit, InstanceID: instanceID}
	default:
		return core.Failf("sit", core.FailValidation, "furniture is not sittable")
	}

	target := inst.InteractionTile()
	if av.Cell() != target && !k.IsWalkable(target.X, target.Y) {
		return core.Failf("sit", core.FailValidation, "interaction tile is not reachable")
	}
	return k.walkToLocked("sit", av, target, after)
}

// RequestStand leaves the seat, preferring a walkable cell adjacent to it.
// With no walkable neighbor the avatar remains on the seat's base cell.
func (k *Kernel) RequestStand(runtimeID uint64) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("stand", core.FailInternal, "avatar not in room")
	}
	if av.State != avatar.Sitting {
		return core.Failf("stand", core.FailValidation, "not sitting")
	}

	before := capturePose(av)
	base := av.Cell()
	dest := base
	if inst := k.furni.Get(av.SittingOn); inst != nil {
		base = core.Point{X: inst.X, Y: inst.Y}
		dest = k.standCellLocked(inst.InteractionTile(), base)
	}
	av.StandTo(dest, k.cfg.AvatarDefaultZ)
	k.broadcastLocked(diffPose(av, before))
	return nil
}

// standCellLocked picks the cell to stand up onto: the interaction tile if
// walkable, then the seat's neighbors clockwise from east, then the seat's
// own base cell even when blocked.
func (k *Kernel) standCellLocked(preferred, base core.Point) core.Point {
	if k.IsWalkable(preferred.X, preferred.Y) {
		return preferred
	}
	for d := core.Direction(0); d < 8; d++ {
		n := base.Step(d)
		if k.IsWalkable(n.X, n.Y) {
			return n
		}
	}
	return base
}

// RequestEmote starts a catalog emote. Refused while sitting or emoting.
func (k *Kernel) RequestEmote(runtimeID uint64, emoteID string) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("emote", core.FailInternal, "avatar not in room")
	}
	def := k.emotes.Get(emoteID)
	if def == nil {
		return core.Failf("emote", core.FailValidation, "unknown emote %q", emoteID)
	}
	if av.State == avatar.Sitting {
		return core.Failf("emote", core.FailValidation, "cannot emote while sitting")
	}
	if av.EmoteID != "" {
		return core.Failf("emote", core.FailValidation, "already emoting")
	}

	before := capturePose(av)
	av.StartEmote(emoteID, time.Now().Add(def.Duration(k.cfg.DefaultEmoteDuration())))
	k.broadcastLocked(diffPose(av, before))
	return nil
}

// SetBodyColor applies a whitelisted cosmetic color and announces it.
func (k *Kernel) SetBodyColor(runtimeID uint64, hex string) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("setcolor", core.FailInternal, "avatar not in room")
	}
	if !k.cfg.IsValidColor(hex) {
		return core.Failf("setcolor", core.FailValidation, "color %q is not allowed", hex)
	}
	if av.BodyColor == hex {
		return nil // unchanged
	}
	av.BodyColor = hex
	k.broadcastLocked(protocol.AvatarUpdate{
		ID:        protocol.RuntimeIDString(av.RuntimeID),
		BodyColor: &hex,
	})
	return nil
}

// walkToLocked runs the pathfinder and starts the follower. A target equal
// to the current cell skips pathing and resolves the deferred action at
// once.
func (k *Kernel) walkToLocked(action string, av *avatar.Avatar, target core.Point, after *avatar.Action) *core.Failure {
	cur := av.Cell()
	if cur == target {
		if after != nil {
			before := capturePose(av)
			k.resolveArrivalLocked(av, after)
			if ev := diffPose(av, before); !emptyUpdate(ev) {
				k.broadcastLocked(ev)
			}
		}
		return nil
	}

	search := pathfind.Search{Cols: k.layout.Cols(), Rows: k.layout.Rows(), Walk: k.IsWalkable}
	path := search.FindPath(cur, target)
	if path == nil {
		return core.Failf(action, core.FailValidation, "no path to (%d,%d)", target.X, target.Y)
	}
	if len(path) > 0 && path[0] == cur {
		path = path[1:]
	}
	if len(path) == 0 {
		if after != nil {
			before := capturePose(av)
			k.resolveArrivalLocked(av, after)
			if ev := diffPose(av, before); !emptyUpdate(ev) {
				k.broadcastLocked(ev)
			}
		}
		return nil
	}

	before := capturePose(av)
	av.StartPath(path, after)
	k.broadcastLocked(diffPose(av, before))
	return nil
}

// resolveArrivalLocked evaluates a deferred action by its typed payload.
func (k *Kernel) resolveArrivalLocked(av *avatar.Avatar, after *avatar.Action) {
	av.After = nil
	switch after.Kind {
	case avatar.ActionSit:
		k.trySitLocked(av, after.InstanceID)
	case avatar.ActionPortal:
		k.pendingPortals = append(k.pendingPortals, PortalArrival{
			Avatar:       av,
			TargetRoomID: after.TargetRoomID,
			TargetX:      after.TargetX,
			TargetY:      after.TargetY,
		})
	}
}

// trySitLocked re-validates the seat at arrival time and either sits the
// avatar or leaves it idle. Preconditions can legitimately have changed
// while pathing (seat picked up, someone sat first). The caller owns the
// pose delta broadcast.
func (k *Kernel) trySitLocked(av *avatar.Avatar, instanceID string) {
	inst := k.furni.Get(instanceID)
	switch {
	case inst == nil, !inst.Def.CanSit:
		av.StopPath()
	case k.isSeatOccupiedLocked(instanceID, av.RuntimeID):
		av.StopPath()
		k.deliverToLocked(av.RuntimeID, protocol.ActionFailed{Action: "sit", Reason: "seat is occupied"})
	default:
		av.SitOn(instanceID, inst.X, inst.Y, inst.Z+inst.Def.SitHeightOffset, inst.Facing())
	}
}

// SpawnCell resolves where a joining avatar lands: the requested cell when
// walkable, else the room center, else a spiral around the center, else
// the first walkable cell top-to-bottom, else (0,0) with a critical log.
func (k *Kernel) SpawnCell(requested *core.Point) core.Point {
	if requested != nil && k.IsWalkable(requested.X, requested.Y) {
		return *requested
	}
	center := core.Point{X: k.layout.Cols() / 2, Y: k.layout.Rows() / 2}
	if k.IsWalkable(center.X, center.Y) {
		return center
	}
	maxRadius := k.layout.Cols()
	if k.layout.Rows() > maxRadius {
		maxRadius = k.layout.Rows()
	}
	for radius := 1; radius <= maxRadius; radius++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if dx > -radius && dx < radius && dy > -radius && dy < radius {
					continue // interior already visited at a smaller radius
				}
				if k.IsWalkable(center.X+dx, center.Y+dy) {
					return core.Point{X: center.X + dx, Y: center.Y + dy}
				}
			}
		}
	}
	for y := 0; y < k.layout.Rows(); y++ {
		for x := 0; x < k.layout.Cols(); x++ {
			if k.IsWalkable(x, y) {
				return core.Point{X: x, Y: y}
			}
		}
	}
	k.log.Error("no walkable spawn cell in room, using origin")
	return core.Point{}
}

// pose captures the broadcast-relevant avatar fields for delta diffing.
type pose struct {
	x, y, z   float64
	direction core.Direction
	state     avatar.State
	sittingOn string
	emoteID   string
}

func capturePose(av *avatar.Avatar) pose {
	return pose{
		x: av.X, y: av.Y, z: av.Z,
		direction: av.Direction,
		state:     av.State,
		sittingOn: av.SittingOn,
		emoteID:   av.EmoteID,
	}
}

// diffPose builds the minimal AvatarUpdate between a prior pose and the
// avatar's current fields.
func diffPose(av *avatar.Avatar, before pose) protocol.AvatarUpdate {
	ev := protocol.AvatarUpdate{ID: protocol.RuntimeIDString(av.RuntimeID)}
	if av.X != before.x {
		v := av.X
		ev.X = &v
	}
	if av.Y != before.y {
		v := av.Y
		ev.Y = &v
	}
	if av.Z != before.z {
		v := av.Z
		ev.Z = &v
	}
	if av.Direction != before.direction {
		v := int(av.Direction)
		ev.Direction = &v
	}
	if av.State != before.state {
		v := av.State.String()
		ev.State = &v
	}
	if av.SittingOn != before.sittingOn {
		v := av.SittingOn
		ev.SittingOn = &v
	}
	if av.EmoteID != before.emoteID {
		v := av.EmoteID
		ev.EmoteID = &v
	}
	return ev
}

func emptyUpdate(ev protocol.AvatarUpdate) bool {
	return ev.X == nil && ev.Y == nil && ev.Z == nil && ev.Direction == nil &&
		ev.State == nil && ev.SittingOn == nil && ev.EmoteID == nil && ev.BodyColor == nil
}
