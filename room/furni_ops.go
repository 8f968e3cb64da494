package room

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/avatar"
	"github.com/lixenwraith/pixelden/core"
	"github.com/lixenwraith/pixelden/furniture"
	"github.com/lixenwraith/pixelden/protocol"
	"github.com/lixenwraith/pixelden/store"
)

// litStateZBias lifts a toggled-on item fractionally so stacked renders
// keep a stable order.
const litStateZBias = 0.01

// RequestPlace validates and places one inventory item. The store insert
// runs before the instance becomes visible so the id is authoritative and
// in-memory state never reflects an unpersisted row.
func (k *Kernel) RequestPlace(runtimeID uint64, definitionID string, x, y, rotation int) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("place", core.FailInternal, "avatar not in room")
	}
	def := k.furniDefs.Get(definitionID)
	if def == nil {
		return core.Failf("place", core.FailValidation, "unknown definition %q", definitionID)
	}
	if av.Inventory[definitionID] <= 0 {
		return core.Failf("place", core.FailValidation, "not in inventory")
	}
	if rotation < 0 || rotation > 7 {
		return core.Failf("place", core.FailValidation, "bad rotation %d", rotation)
	}

	// Probe with a transient instance so footprint math matches the real one.
	probe := &furniture.Instance{Def: def, X: x, Y: y, Rotation: rotation}
	for _, tile := range probe.Footprint() {
		if !k.layout.IsValidTerrain(tile.X, tile.Y) {
			return core.Failf("place", core.FailValidation, "tile %s is not valid terrain", tile)
		}
		if !def.Flat {
			if top := k.furni.TopAt(tile.X, tile.Y); top != nil && !top.Def.IsStackable() {
				return core.Failf("place", core.FailValidation, "cannot stack on %s", top.Def.ID)
			}
		}
	}

	z := k.furni.StackHeightAt(x, y, "") + def.ZOffset
	if z >= k.cfg.MaxStackZ {
		return core.Failf("place", core.FailValidation, "stack too high")
	}

	instanceID, err := k.st.InsertFurniture(store.FurnitureRow{
		RoomID:       k.id,
		DefinitionID: definitionID,
		X:            x,
		Y:            y,
		Z:            z,
		Rotation:     rotation,
		OwnerUserID:  av.UserID,
		State:        def.DefaultState,
	})
	if err != nil {
		k.log.Error("place: insert failed", zap.Error(err))
		return core.Failf("place", core.FailPersistence, "could not save furniture")
	}

	av.Inventory[definitionID]--
	k.persistInventoryLocked(av)

	inst := &furniture.Instance{
		ID:          instanceID,
		Def:         def,
		X:           x,
		Y:           y,
		Z:           z,
		Rotation:    rotation,
		OwnerUserID: av.UserID,
		State:       def.DefaultState,
	}
	k.furni.Add(inst)

	k.broadcastLocked(protocol.FurniAdded{Furni: protocol.NewFurniDTO(inst)})
	k.deliverToLocked(runtimeID, protocol.InventoryUpdate{Inventory: av.Inventory})
	return nil
}

// RequestPickup returns an owned instance to the owner's inventory. If the
// inventory credit cannot be persisted the instance is reinserted and
// re-announced; losing the item is not an option.
func (k *Kernel) RequestPickup(runtimeID uint64, instanceID string) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("pickup", core.FailInternal, "avatar not in room")
	}
	inst := k.furni.Get(instanceID)
	if inst == nil {
		return core.Failf("pickup", core.FailValidation, "no such furniture")
	}
	if inst.OwnerUserID != av.UserID {
		return core.Failf("pickup", core.FailValidation, "not the owner")
	}
	if k.furni.AnyAbove(inst) {
		return core.Failf("pickup", core.FailValidation, "something rests on top")
	}
	if k.isSeatOccupiedLocked(instanceID, 0) {
		return core.Failf("pickup", core.FailConflict, "someone is sitting on it")
	}

	if err := k.st.DeleteFurniture(instanceID); err != nil {
		k.log.Error("pickup: delete failed", zap.Error(err))
		return core.Failf("pickup", core.FailPersistence, "could not remove furniture")
	}
	k.furni.Remove(instanceID)
	k.broadcastLocked(protocol.FurniRemoved{ID: instanceID})

	if av.Inventory == nil {
		av.Inventory = make(map[string]int)
	}
	av.Inventory[inst.Def.ID]++
	if err := k.st.UpdateUser(av.UserID, store.UserPatch{Inventory: av.Inventory}); err != nil {
		// Inventory credit failed: roll the pickup back rather than lose
		// the item.
		av.Inventory[inst.Def.ID]--
		k.log.Error("pickup: inventory credit failed, reinserting", zap.Error(err),
			zap.String("instance", instanceID))
		if _, rerr := k.st.InsertFurniture(store.FurnitureRow{
			InstanceID:    inst.ID,
			RoomID:        k.id,
			DefinitionID:  inst.Def.ID,
			X:             inst.X,
			Y:             inst.Y,
			Z:             inst.Z,
			Rotation:      inst.Rotation,
			OwnerUserID:   inst.OwnerUserID,
			State:         inst.State,
			ColorOverride: inst.ColorOverride,
		}); rerr != nil {
			k.log.Error("pickup: reinsert failed, item kept in memory only", zap.Error(rerr))
		}
		k.furni.Add(inst)
		k.broadcastLocked(protocol.FurniAdded{Furni: protocol.NewFurniDTO(inst)})
		return core.Failf("pickup", core.FailPersistence, "could not credit inventory")
	}

	k.deliverToLocked(runtimeID, protocol.InventoryUpdate{Inventory: av.Inventory})
	return nil
}

// RequestRotate turns an owned instance a quarter turn (two octants). Any
// avatar sitting on it is re-faced and re-broadcast.
func (k *Kernel) RequestRotate(runtimeID uint64, instanceID string) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("rotate", core.FailInternal, "avatar not in room")
	}
	inst := k.furni.Get(instanceID)
	if inst == nil {
		return core.Failf("rotate", core.FailValidation, "no such furniture")
	}
	if inst.OwnerUserID != av.UserID {
		return core.Failf("rotate", core.FailValidation, "not the owner")
	}

	rotation := (inst.Rotation + 2) % 8
	if err := k.st.UpdateFurniture(instanceID, store.FurniturePatch{Rotation: &rotation}); err != nil {
		k.log.Error("rotate: update failed", zap.Error(err))
		return core.Failf("rotate", core.FailPersistence, "could not save rotation")
	}
	inst.Rotation = rotation

	k.broadcastLocked(protocol.FurniUpdated{ID: instanceID, Rotation: &rotation})

	for _, sitter := range k.avatars {
		if sitter.SittingOn != instanceID {
			continue
		}
		before := capturePose(sitter)
		sitter.Direction = inst.Facing()
		if ev := diffPose(sitter, before); !emptyUpdate(ev) {
			k.broadcastLocked(ev)
		}
	}
	return nil
}

// RequestUse toggles a usable instance. Doors are never "used"; they
// traverse via the portal path. The resting z is recomputed so a toggled
// item re-settles on whatever is now beneath it, with a small lit bias.
func (k *Kernel) RequestUse(runtimeID uint64, instanceID string) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, ok := k.avatars[runtimeID]; !ok {
		return core.Failf("use", core.FailInternal, "avatar not in room")
	}
	inst := k.furni.Get(instanceID)
	if inst == nil {
		return core.Failf("use", core.FailValidation, "no such furniture")
	}
	if !inst.Def.CanUse || inst.Def.Door {
		return core.Failf("use", core.FailValidation, "furniture is not usable")
	}

	state := inst.State
	if inst.Def.Toggle {
		if state == "on" {
			state = "off"
		} else {
			state = "on"
		}
	}
	z := k.furni.StackHeightAt(inst.X, inst.Y, instanceID) + inst.Def.ZOffset
	if state == "on" {
		z += litStateZBias
	}

	patch := store.FurniturePatch{}
	ev := protocol.FurniUpdated{ID: instanceID}
	if state != inst.State {
		patch.State = &state
		ev.State = &state
	}
	if z != inst.Z {
		patch.Z = &z
		ev.Z = &z
	}
	if patch.State == nil && patch.Z == nil {
		return nil // unchanged
	}

	if err := k.st.UpdateFurniture(instanceID, patch); err != nil {
		k.log.Error("use: update failed", zap.Error(err))
		return core.Failf("use", core.FailPersistence, "could not save state")
	}
	if patch.State != nil {
		inst.State = state
	}
	if patch.Z != nil {
		inst.Z = z
	}
	k.broadcastLocked(ev)
	return nil
}

// RequestRecolor applies a whitelisted color override; empty hex resets.
func (k *Kernel) RequestRecolor(runtimeID uint64, instanceID, hex string) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("recolor", core.FailInternal, "avatar not in room")
	}
	inst := k.furni.Get(instanceID)
	if inst == nil {
		return core.Failf("recolor", core.FailValidation, "no such furniture")
	}
	if inst.OwnerUserID != av.UserID {
		return core.Failf("recolor", core.FailValidation, "not the owner")
	}
	if !inst.Def.CanRecolor {
		return core.Failf("recolor", core.FailValidation, "furniture cannot be recolored")
	}
	if hex != "" && !k.cfg.IsValidColor(hex) {
		return core.Failf("recolor", core.FailValidation, "color %q is not allowed", hex)
	}
	if inst.ColorOverride == hex {
		return nil // unchanged
	}

	if err := k.st.UpdateFurniture(instanceID, store.FurniturePatch{ColorOverride: &hex}); err != nil {
		k.log.Error("recolor: update failed", zap.Error(err))
		return core.Failf("recolor", core.FailPersistence, "could not save color")
	}
	inst.ColorOverride = hex
	k.broadcastLocked(protocol.FurniUpdated{ID: instanceID, ColorOverride: &hex})
	return nil
}

// persistInventoryLocked writes the avatar's inventory through the facade.
// Used on the place debit path where the furniture row is already durable;
// a failed write logs and stands, reconciled at next unbind persist.
func (k *Kernel) persistInventoryLocked(av *avatar.Avatar) {
	if err := k.st.UpdateUser(av.UserID, store.UserPatch{Inventory: av.Inventory}); err != nil {
		k.log.Warn("inventory persist failed", zap.String("user", av.UserID), zap.Error(err))
	}
}
