package world

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/core"
	"github.com/lixenwraith/pixelden/protocol"
	"github.com/lixenwraith/pixelden/room"
)

// changeRoom migrates a bound avatar to another room. Used by both portal
// arrivals and explicit ChangeRoom intents. The target must exist and
// differ from the current room; anything else is a state conflict.
func (d *Director) changeRoom(b *binding, targetRoomID string, x, y *int) *core.Failure {
	if targetRoomID == b.roomID {
		return core.Failf("change_room", core.FailConflict, "already in room %q", targetRoomID)
	}

	d.mu.Lock()
	if !d.roomExistsLocked(targetRoomID) {
		d.mu.Unlock()
		return core.Failf("change_room", core.FailConflict, "room %q does not exist", targetRoomID)
	}
	target, err := d.loadRoomLocked(targetRoomID)
	if err != nil {
		d.mu.Unlock()
		d.log.Error("migration target failed to load", zap.String("room", targetRoomID), zap.Error(err))
		return core.Failf("change_room", core.FailInternal, "room %q is unavailable", targetRoomID)
	}
	source := d.rooms[b.roomID]
	d.mu.Unlock()

	if source != nil {
		source.Leave(b.runtimeID)
	}

	var requested *core.Point
	if x != nil && y != nil {
		requested = &core.Point{X: *x, Y: *y}
	}
	spawn := target.SpawnCell(requested)
	b.avatar.PrepareRoomChange(targetRoomID, spawn, d.cfg.AvatarDefaultZ)

	d.mu.Lock()
	b.roomID = targetRoomID
	d.mu.Unlock()

	target.Join(b.avatar, b.client)
	d.sendSessionState(b, target)
	d.log.Info("avatar migrated",
		zap.String("user", b.userID),
		zap.String("to", targetRoomID),
		zap.Int("x", spawn.X), zap.Int("y", spawn.Y))
	return nil
}

// handleArrivals processes one room's portal arrivals after its tick.
// A dead target room fails the traversal without moving the avatar.
func (d *Director) handleArrivals(arrivals []room.PortalArrival) {
	for _, arr := range arrivals {
		d.mu.Lock()
		b := d.byUser[arr.Avatar.UserID]
		d.mu.Unlock()
		if b == nil || b.avatar != arr.Avatar {
			// Session vanished while the avatar was walking; migration
			// is moot, the unbind path already cleaned up.
			continue
		}
		if fail := d.changeRoom(b, arr.TargetRoomID, arr.TargetX, arr.TargetY); fail != nil {
			b.client.Deliver(protocol.ActionFailed{Action: fail.Action, Reason: fail.Reason})
		}
	}
}
