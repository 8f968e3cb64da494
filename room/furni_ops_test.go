package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/pixelden/avatar"
	"github.com/lixenwraith/pixelden/core"
	"github.com/lixenwraith/pixelden/furniture"
	"github.com/lixenwraith/pixelden/protocol"
)

// Placing from inventory and picking back up restores the starting state:
// the row is gone from the store and the item is back in the bag.
func TestPlaceThenPickup(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	av, rec := joinAvatar(t, k, mem, 1, "alice", 1, 1, map[string]int{"box_small": 1})

	require.Nil(t, k.RequestPlace(av.RuntimeID, "box_small", 2, 2, 0))
	require.Equal(t, 0, av.Inventory["box_small"])

	added := eventsOf[protocol.FurniAdded](rec)
	require.Len(t, added, 1)
	require.Equal(t, 0.0, added[0].Furni.Z)
	instanceID := added[0].Furni.ID
	require.NotEmpty(t, instanceID)
	require.True(t, mem.HasFurniture(instanceID))
	require.NotNil(t, k.furni.Get(instanceID))

	require.Nil(t, k.RequestPickup(av.RuntimeID, instanceID))
	require.Equal(t, 1, av.Inventory["box_small"])
	require.False(t, mem.HasFurniture(instanceID))
	require.Nil(t, k.furni.Get(instanceID))

	removed := eventsOf[protocol.FurniRemoved](rec)
	require.Len(t, removed, 1)
	require.Equal(t, instanceID, removed[0].ID)
}

func TestPlaceValidation(t *testing.T) {
	k, mem := newTestKernel(t, []string{
		"000",
		"010",
		"000",
	})
	av, _ := joinAvatar(t, k, mem, 1, "alice", 0, 0, map[string]int{"box_small": 2})

	require.NotNil(t, k.RequestPlace(av.RuntimeID, "ghost_item", 0, 1, 0), "unknown definition accepted")
	require.NotNil(t, k.RequestPlace(av.RuntimeID, "chair_basic", 0, 1, 0), "item not in inventory accepted")
	require.NotNil(t, k.RequestPlace(av.RuntimeID, "box_small", 1, 1, 0), "wall tile accepted")
	require.NotNil(t, k.RequestPlace(av.RuntimeID, "box_small", 9, 9, 0), "out of bounds accepted")
	require.NotNil(t, k.RequestPlace(av.RuntimeID, "box_small", 0, 1, 8), "bad rotation accepted")
	require.Equal(t, 2, av.Inventory["box_small"], "failed placements consumed inventory")
}

func TestPlaceStacksOnExisting(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	av, rec := joinAvatar(t, k, mem, 1, "alice", 1, 1, map[string]int{"box_small": 2})

	require.Nil(t, k.RequestPlace(av.RuntimeID, "box_small", 2, 2, 0))
	require.Nil(t, k.RequestPlace(av.RuntimeID, "box_small", 2, 2, 0))

	added := eventsOf[protocol.FurniAdded](rec)
	require.Len(t, added, 2)
	require.Equal(t, 0.0, added[0].Furni.Z)
	require.Equal(t, 0.5, added[1].Furni.Z)
}

// Placing a non-flat item over a non-stackable surface is refused; a flat
// item does not care what sits beneath it.
func TestPlaceOnNonStackableFails(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	av, _ := joinAvatar(t, k, mem, 1, "alice", 1, 1,
		map[string]int{"box_small": 1, "rug_round": 1})

	k.furni.Add(&furniture.Instance{
		ID:  "pedestal-1",
		Def: k.furniDefs.Get("pedestal"),
		X:   2, Y: 2,
	})

	fail := k.RequestPlace(av.RuntimeID, "box_small", 2, 2, 0)
	require.NotNil(t, fail)
	require.Equal(t, core.FailValidation, fail.Kind)

	require.Nil(t, k.RequestPlace(av.RuntimeID, "rug_round", 2, 2, 0))
}

func TestPlaceRespectsStackCeiling(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	av, _ := joinAvatar(t, k, mem, 1, "alice", 1, 1, map[string]int{"box_small": 1})

	// A seeded tower already at the ceiling leaves no headroom.
	k.furni.Add(&furniture.Instance{
		ID:  "tower",
		Def: k.furniDefs.Get("lamp_floor"),
		X:   2, Y: 2, Z: 8.0, // top surface 10.0
	})
	fail := k.RequestPlace(av.RuntimeID, "box_small", 2, 2, 0)
	require.NotNil(t, fail)
	require.Equal(t, core.FailValidation, fail.Kind)
	require.Equal(t, 1, av.Inventory["box_small"])
}

// When the store refuses the insert nothing becomes visible and nothing is
// debited.
func TestPlacePersistenceFailure(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	av, rec := joinAvatar(t, k, mem, 1, "alice", 1, 1, map[string]int{"box_small": 1})

	mem.FailInsertFurniture = true
	fail := k.RequestPlace(av.RuntimeID, "box_small", 2, 2, 0)
	require.NotNil(t, fail)
	require.Equal(t, core.FailPersistence, fail.Kind)
	require.Equal(t, 1, av.Inventory["box_small"])
	require.Equal(t, 0, k.furni.Len())
	require.Empty(t, eventsOf[protocol.FurniAdded](rec))
}

// A failed inventory credit must not lose the item: the row is reinserted
// under its original id and the room re-announces it.
func TestPickupReinsertsOnCreditFailure(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	av, rec := joinAvatar(t, k, mem, 1, "alice", 1, 1, map[string]int{"box_small": 1})

	require.Nil(t, k.RequestPlace(av.RuntimeID, "box_small", 2, 2, 0))
	instanceID := eventsOf[protocol.FurniAdded](rec)[0].Furni.ID

	mem.FailUpdateUser = true
	fail := k.RequestPickup(av.RuntimeID, instanceID)
	require.NotNil(t, fail)
	require.Equal(t, core.FailPersistence, fail.Kind)

	require.Equal(t, 0, av.Inventory["box_small"], "inventory credited despite failure")
	require.True(t, mem.HasFurniture(instanceID), "row not reinserted")
	require.NotNil(t, k.furni.Get(instanceID), "instance not restored")

	// Remove, then re-add: the room saw both transitions.
	require.Len(t, eventsOf[protocol.FurniRemoved](rec), 1)
	require.Len(t, eventsOf[protocol.FurniAdded](rec), 2)
}

func TestPickupValidation(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	alice, _ := joinAvatar(t, k, mem, 1, "alice", 1, 1, map[string]int{"box_small": 2})
	bob, _ := joinAvatar(t, k, mem, 2, "bob", 4, 4, nil)

	require.Nil(t, k.RequestPlace(alice.RuntimeID, "box_small", 2, 2, 0))
	require.Nil(t, k.RequestPlace(alice.RuntimeID, "box_small", 2, 2, 0))
	items := k.furni.StackAt(2, 2)
	require.Len(t, items, 2)
	bottom, top := items[0], items[1]

	require.NotNil(t, k.RequestPickup(bob.RuntimeID, top.ID), "non-owner pickup accepted")
	require.NotNil(t, k.RequestPickup(alice.RuntimeID, bottom.ID), "buried item pickup accepted")
	require.NotNil(t, k.RequestPickup(alice.RuntimeID, "ghost"), "missing instance accepted")

	require.Nil(t, k.RequestPickup(alice.RuntimeID, top.ID))
	require.Nil(t, k.RequestPickup(alice.RuntimeID, bottom.ID))
}

func TestPickupOccupiedSeatFails(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	owner, _ := joinAvatar(t, k, mem, 1, "alice", 1, 1, nil)
	seedChair(t, k, mem, "chair-1", 3, 3, owner.UserID)
	sitter, _ := joinAvatar(t, k, mem, 2, "bob", 3, 2, nil)

	require.Nil(t, k.RequestSit(sitter.RuntimeID, "chair-1"))
	fail := k.RequestPickup(owner.RuntimeID, "chair-1")
	require.NotNil(t, fail)
	require.Equal(t, core.FailConflict, fail.Kind)

	require.Nil(t, k.RequestStand(sitter.RuntimeID))
	require.Nil(t, k.RequestPickup(owner.RuntimeID, "chair-1"))
}

// Four quarter turns bring the rotation, facing and interaction tile back
// to where they started.
func TestRotateFullCircleIdentity(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	owner, rec := joinAvatar(t, k, mem, 1, "alice", 1, 1, nil)
	inst := seedChair(t, k, mem, "chair-1", 3, 3, owner.UserID)

	startFacing := inst.Facing()
	startTile := inst.InteractionTile()
	seenRotations := []int{}
	for i := 0; i < 4; i++ {
		require.Nil(t, k.RequestRotate(owner.RuntimeID, "chair-1"))
		seenRotations = append(seenRotations, inst.Rotation)
	}

	require.Equal(t, []int{2, 4, 6, 0}, seenRotations)
	require.Equal(t, startFacing, inst.Facing())
	require.Equal(t, startTile, inst.InteractionTile())
	require.Len(t, eventsOf[protocol.FurniUpdated](rec), 4)

	rows, err := mem.LoadFurniture(k.id)
	require.NoError(t, err)
	require.Equal(t, 0, rows[0].Rotation)
}

func TestRotateRefacesSitter(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	owner, _ := joinAvatar(t, k, mem, 1, "alice", 1, 1, nil)
	inst := seedChair(t, k, mem, "chair-1", 3, 3, owner.UserID)
	sitter, _ := joinAvatar(t, k, mem, 2, "bob", 3, 2, nil)

	require.Nil(t, k.RequestSit(sitter.RuntimeID, "chair-1"))
	require.Equal(t, core.South, sitter.Direction)

	require.Nil(t, k.RequestRotate(owner.RuntimeID, "chair-1"))
	require.Equal(t, inst.Facing(), sitter.Direction)
	require.Equal(t, core.West, sitter.Direction)
}

func TestRotateRequiresOwner(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	_, _ = joinAvatar(t, k, mem, 1, "alice", 1, 1, nil)
	bob, _ := joinAvatar(t, k, mem, 2, "bob", 4, 4, nil)
	seedChair(t, k, mem, "chair-1", 3, 3, "user-alice")

	fail := k.RequestRotate(bob.RuntimeID, "chair-1")
	require.NotNil(t, fail)
	require.Equal(t, core.FailValidation, fail.Kind)
}

func TestUseTogglesState(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	av, rec := joinAvatar(t, k, mem, 1, "alice", 1, 1, map[string]int{"lamp_floor": 1})

	require.Nil(t, k.RequestPlace(av.RuntimeID, "lamp_floor", 2, 2, 0))
	instanceID := eventsOf[protocol.FurniAdded](rec)[0].Furni.ID
	inst := k.furni.Get(instanceID)
	require.Equal(t, "off", inst.State)

	require.Nil(t, k.RequestUse(av.RuntimeID, instanceID))
	require.Equal(t, "on", inst.State)
	require.Equal(t, litStateZBias, inst.Z)

	require.Nil(t, k.RequestUse(av.RuntimeID, instanceID))
	require.Equal(t, "off", inst.State)
	require.Equal(t, 0.0, inst.Z)

	updated := eventsOf[protocol.FurniUpdated](rec)
	require.Len(t, updated, 2)
	require.NotNil(t, updated[0].State)
	require.Equal(t, "on", *updated[0].State)

	rows, err := mem.LoadFurniture(k.id)
	require.NoError(t, err)
	require.Equal(t, "off", rows[0].State)
}

func TestUseRejections(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	av, _ := joinAvatar(t, k, mem, 1, "alice", 1, 1, nil)
	seedChair(t, k, mem, "chair-1", 3, 3, "")
	k.furni.Add(&furniture.Instance{
		ID:  "door-1",
		Def: k.furniDefs.Get("door_simple"),
		X:   4, Y: 4,
	})

	require.NotNil(t, k.RequestUse(av.RuntimeID, "chair-1"), "non-usable furniture accepted")
	require.NotNil(t, k.RequestUse(av.RuntimeID, "door-1"), "door accepted as usable")
	require.NotNil(t, k.RequestUse(av.RuntimeID, "ghost"), "missing instance accepted")
}

func TestRecolor(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	av, rec := joinAvatar(t, k, mem, 1, "alice", 1, 1, map[string]int{"box_small": 1})

	require.Nil(t, k.RequestPlace(av.RuntimeID, "box_small", 2, 2, 0))
	instanceID := eventsOf[protocol.FurniAdded](rec)[0].Furni.ID
	inst := k.furni.Get(instanceID)

	require.NotNil(t, k.RequestRecolor(av.RuntimeID, instanceID, "#bad000"), "unlisted color accepted")

	require.Nil(t, k.RequestRecolor(av.RuntimeID, instanceID, "#4372b0"))
	require.Equal(t, "#4372b0", inst.ColorOverride)

	// Same color again: no event, no store write.
	require.Nil(t, k.RequestRecolor(av.RuntimeID, instanceID, "#4372b0"))
	require.Len(t, eventsOf[protocol.FurniUpdated](rec), 1)

	// Empty hex resets the override.
	require.Nil(t, k.RequestRecolor(av.RuntimeID, instanceID, ""))
	require.Empty(t, inst.ColorOverride)
	updated := eventsOf[protocol.FurniUpdated](rec)
	require.Len(t, updated, 2)
	require.NotNil(t, updated[1].ColorOverride)
	require.Empty(t, *updated[1].ColorOverride)

	rows, err := mem.LoadFurniture(k.id)
	require.NoError(t, err)
	require.Empty(t, rows[0].ColorOverride)
}

func TestRecolorRequiresRecolorableAndOwner(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	alice, aliceRec := joinAvatar(t, k, mem, 1, "alice", 1, 1, map[string]int{"lamp_floor": 1})
	bob, _ := joinAvatar(t, k, mem, 2, "bob", 4, 4, nil)

	require.Nil(t, k.RequestPlace(alice.RuntimeID, "lamp_floor", 2, 2, 0))
	lampID := eventsOf[protocol.FurniAdded](aliceRec)[0].Furni.ID

	require.NotNil(t, k.RequestRecolor(alice.RuntimeID, lampID, "#ffffff"), "non-recolorable accepted")

	seedChair(t, k, mem, "chair-1", 3, 3, alice.UserID)
	require.NotNil(t, k.RequestRecolor(bob.RuntimeID, "chair-1", "#ffffff"), "non-owner accepted")
}

// Sitting on a door defers a portal traversal; the arrival surfaces from
// Tick for the director to act on.
func TestDoorProducesPortalArrival(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	k.furni.Add(&furniture.Instance{
		ID:  "door-1",
		Def: k.furniDefs.Get("door_simple"),
		X:   3, Y: 3,
	})
	av, _ := joinAvatar(t, k, mem, 1, "alice", 1, 1, nil)

	require.Nil(t, k.RequestSit(av.RuntimeID, "door-1"))
	require.Equal(t, avatar.Walking, av.State)

	arrivals := k.Tick(time.Now(), 5.0)
	require.Len(t, arrivals, 1)
	require.Equal(t, av, arrivals[0].Avatar)
	require.Equal(t, "lounge", arrivals[0].TargetRoomID)
	require.NotNil(t, arrivals[0].TargetX)
	require.Equal(t, 1, *arrivals[0].TargetX)
	require.Equal(t, 4, *arrivals[0].TargetY)

	// A second tick does not replay the arrival.
	require.Empty(t, k.Tick(time.Now(), 0.05))
}

// Standing on the interaction tile already, the portal resolves without a
// walk but still waits for the tick drain.
func TestDoorImmediateResolution(t *testing.T) {
	k, mem := newTestKernel(t, openFloor())
	k.furni.Add(&furniture.Instance{
		ID:  "door-1",
		Def: k.furniDefs.Get("door_simple"),
		X:   3, Y: 3,
	})
	av, _ := joinAvatar(t, k, mem, 1, "alice", 3, 2, nil)

	require.Nil(t, k.RequestSit(av.RuntimeID, "door-1"))
	arrivals := k.Tick(time.Now(), 0.05)
	require.Len(t, arrivals, 1)
	require.Equal(t, "lounge", arrivals[0].TargetRoomID)
}
