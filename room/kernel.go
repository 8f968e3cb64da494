// Package room implements the per-room authoritative state machine: grid,
// furniture stack, resident avatars, the mutation API and the tick.
package room

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/avatar"
	"github.com/lixenwraith/pixelden/catalog"
	"github.com/lixenwraith/pixelden/config"
	"github.com/lixenwraith/pixelden/core"
	"github.com/lixenwraith/pixelden/furniture"
	"github.com/lixenwraith/pixelden/grid"
	"github.com/lixenwraith/pixelden/protocol"
	"github.com/lixenwraith/pixelden/store"
)

// Observer receives the room's outbound events. Sessions implement it; the
// kernel never blocks on delivery (observers queue internally).
type Observer interface {
	SessionID() string
	Deliver(ev protocol.Event)
}

// PortalArrival is an avatar that finished a path whose deferred action is
// a portal. The kernel does not migrate avatars itself; the director drains
// these after each tick.
type PortalArrival struct {
	Avatar       *avatar.Avatar
	TargetRoomID string
	TargetX      *int
	TargetY      *int
}

// Kernel is one room's simulator. Every mutation, whether intent or tick,
// runs under mu, giving the per-room serialization the design requires.
type Kernel struct {
	id  string
	log *zap.Logger
	cfg *config.Config
	st  store.Facade

	furniDefs *catalog.Furniture
	emotes    *catalog.Emotes

	mu      sync.Mutex
	layout  *grid.Layout
	furni   *furniture.Registry
	avatars map[uint64]*avatar.Avatar
	order   []uint64 // join order, for deterministic iteration

	observers map[uint64]Observer

	pendingPortals []PortalArrival
}

// NewKernel wires a kernel over an already-resolved layout.
func NewKernel(id string, layout *grid.Layout, cfg *config.Config, st store.Facade, furniDefs *catalog.Furniture, emotes *catalog.Emotes, log *zap.Logger) *Kernel {
	return &Kernel{
		id:        id,
		log:       log.Named("room").With(zap.String("room", id)),
		cfg:       cfg,
		st:        st,
		furniDefs: furniDefs,
		emotes:    emotes,
		layout:    layout,
		furni:     furniture.NewRegistry(cfg.StackFactor),
		avatars:   make(map[uint64]*avatar.Avatar),
		observers: make(map[uint64]Observer),
	}
}

// ID returns the room's stable external id.
func (k *Kernel) ID() string { return k.id }

// Layout exposes the immutable tile map.
func (k *Kernel) Layout() *grid.Layout { return k.layout }

// SeedInstances loads already-persisted furniture into the registry,
// typically at boot. Rows with unknown definitions are dropped with a log.
func (k *Kernel) SeedInstances(rows []store.FurnitureRow) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, row := range rows {
		def := k.furniDefs.Get(row.DefinitionID)
		if def == nil {
			k.log.Warn("dropping furniture row with unknown definition",
				zap.String("instance", row.InstanceID),
				zap.String("definition", row.DefinitionID))
			continue
		}
		k.furni.Add(&furniture.Instance{
			ID:            row.InstanceID,
			Def:           def,
			X:             row.X,
			Y:             row.Y,
			Z:             row.Z,
			Rotation:      row.Rotation,
			OwnerUserID:   row.OwnerUserID,
			State:         row.State,
			ColorOverride: row.ColorOverride,
		})
	}
}

// IsWalkable combines terrain validity with furniture blocking. It takes
// no kernel lock: the layout is immutable and the registry has its own.
func (k *Kernel) IsWalkable(x, y int) bool {
	return k.layout.IsValidTerrain(x, y) && !k.furni.IsSolidBlocked(x, y, "")
}

// Join adds a prepared avatar and its observer, then announces it.
func (k *Kernel) Join(av *avatar.Avatar, obs Observer) {
	k.mu.Lock()
	defer k.mu.Unlock()

	av.RoomID = k.id
	k.avatars[av.RuntimeID] = av
	k.order = append(k.order, av.RuntimeID)
	if obs != nil {
		k.observers[av.RuntimeID] = obs
	}

	k.broadcastLocked(protocol.AvatarAdded{Avatar: protocol.NewAvatarDTO(av)})
	k.broadcastLocked(k.userListLocked())
}

// Leave removes the avatar and its observer, announces the departure, and
// returns the removed avatar (nil if absent).
func (k *Kernel) Leave(runtimeID uint64) *avatar.Avatar {
	k.mu.Lock()
	defer k.mu.Unlock()

	av, ok := k.avatars[runtimeID]
	if !ok {
		return nil
	}
	delete(k.avatars, runtimeID)
	delete(k.observers, runtimeID)
	for i, id := range k.order {
		if id == runtimeID {
			k.order = append(k.order[:i], k.order[i+1:]...)
			break
		}
	}

	k.broadcastLocked(protocol.AvatarRemoved{ID: protocol.RuntimeIDString(runtimeID)})
	k.broadcastLocked(k.userListLocked())
	return av
}

// Avatar returns the resident avatar for a runtime id, or nil. The pointer
// must only be mutated through kernel operations.
func (k *Kernel) Avatar(runtimeID uint64) *avatar.Avatar {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.avatars[runtimeID]
}

// Residents returns the resident runtime ids in join order.
func (k *Kernel) Residents() []uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]uint64, len(k.order))
	copy(out, k.order)
	return out
}

// Snapshot builds the full room DTO for a joining session.
func (k *Kernel) Snapshot() protocol.RoomState {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.furni.All()
	furni := make([]protocol.FurniDTO, 0, len(items))
	for _, it := range items {
		furni = append(furni, protocol.NewFurniDTO(it))
	}
	avatars := make([]protocol.AvatarDTO, 0, len(k.order))
	for _, id := range k.order {
		avatars = append(avatars, protocol.NewAvatarDTO(k.avatars[id]))
	}
	return protocol.RoomState{
		RoomID:    k.id,
		Layout:    k.layout.ToWire(),
		Cols:      k.layout.Cols(),
		Rows:      k.layout.Rows(),
		Furniture: furni,
		Avatars:   avatars,
	}
}

// UserList builds the current user list event.
func (k *Kernel) UserList() protocol.UserListUpdate {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.userListLocked()
}

func (k *Kernel) userListLocked() protocol.UserListUpdate {
	users := make([]protocol.UserListEntry, 0, len(k.order))
	for _, id := range k.order {
		av := k.avatars[id]
		users = append(users, protocol.UserListEntry{
			ID:   protocol.RuntimeIDString(av.RuntimeID),
			Name: av.Name,
		})
	}
	return protocol.UserListUpdate{Users: users}
}

// Chat broadcasts a resident's chat line. Text is already trimmed and
// capped by ingress.
func (k *Kernel) Chat(runtimeID uint64, text string) *core.Failure {
	k.mu.Lock()
	defer k.mu.Unlock()
	av, ok := k.avatars[runtimeID]
	if !ok {
		return core.Failf("chat", core.FailInternal, "avatar not in room")
	}
	k.broadcastLocked(protocol.Chat{
		FromID:   protocol.RuntimeIDString(av.RuntimeID),
		FromName: av.Name,
		Text:     text,
	})
	return nil
}

// ServerChat broadcasts a server-class chat line to the room.
func (k *Kernel) ServerChat(text string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.broadcastLocked(protocol.Chat{FromName: "server", Text: text, Class: "server"})
}

// broadcastLocked fans an event out to every observer. Callers hold mu.
// Delivery must not block: observers enqueue and handle their own
// overflow by disconnecting.
func (k *Kernel) broadcastLocked(ev protocol.Event) {
	for _, obs := range k.observers {
		obs.Deliver(ev)
	}
}

// deliverToLocked sends an event to one resident's observer if present.
func (k *Kernel) deliverToLocked(runtimeID uint64, ev protocol.Event) {
	if obs, ok := k.observers[runtimeID]; ok {
		obs.Deliver(ev)
	}
}

// isSeatOccupiedLocked reports whether any resident sits on the instance.
func (k *Kernel) isSeatOccupiedLocked(instanceID string, exceptRuntimeID uint64) bool {
	for id, av := range k.avatars {
		if id == exceptRuntimeID {
			continue
		}
		if av.SittingOn == instanceID {
			return true
		}
	}
	return false
}

// IsOccupied reports whether any resident sits on the instance.
func (k *Kernel) IsOccupied(instanceID string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.isSeatOccupiedLocked(instanceID, 0)
}
