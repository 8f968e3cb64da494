// Package world orchestrates the rooms: session to avatar binding,
// room loading, inter-room migration and the process-wide tick.
package world

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/avatar"
	"github.com/lixenwraith/pixelden/catalog"
	"github.com/lixenwraith/pixelden/config"
	"github.com/lixenwraith/pixelden/core"
	"github.com/lixenwraith/pixelden/grid"
	"github.com/lixenwraith/pixelden/protocol"
	"github.com/lixenwraith/pixelden/room"
	"github.com/lixenwraith/pixelden/store"
)

// Client is a connected session as the director sees it. Deliver must not
// block; Kick closes the transport after the queued events drain.
type Client interface {
	room.Observer
	UserID() string
	Kick(reason string)
}

// binding ties one live session to its avatar and current room.
type binding struct {
	client    Client
	userID    string
	runtimeID uint64
	roomID    string
	avatar    *avatar.Avatar
}

// Director owns the room registry and the session table.
type Director struct {
	log *zap.Logger
	cfg *config.Config
	st  store.Facade

	furniDefs *catalog.Furniture
	emotes    *catalog.Emotes
	shop      *catalog.Shop

	mu        sync.Mutex
	rooms     map[string]*room.Kernel
	bySession map[string]*binding
	byUser    map[string]*binding

	nextRuntimeID atomic.Uint64
}

// NewDirector builds the director and boots the configured initial rooms.
func NewDirector(cfg *config.Config, st store.Facade, furniDefs *catalog.Furniture, emotes *catalog.Emotes, shop *catalog.Shop, log *zap.Logger) (*Director, error) {
	d := &Director{
		log:       log.Named("world"),
		cfg:       cfg,
		st:        st,
		furniDefs: furniDefs,
		emotes:    emotes,
		shop:      shop,
		rooms:     make(map[string]*room.Kernel),
		bySession: make(map[string]*binding),
		byUser:    make(map[string]*binding),
	}

	booted := map[string]bool{}
	for _, seed := range cfg.Rooms {
		if _, err := d.loadRoomLocked(seed.ID); err != nil {
			return nil, err
		}
		booted[seed.ID] = true
	}
	if !booted[cfg.DefaultRoomID] {
		if _, err := d.loadRoomLocked(cfg.DefaultRoomID); err != nil {
			return nil, fmt.Errorf("world: default room: %w", err)
		}
	}
	if isFallback(d.rooms[cfg.DefaultRoomID]) {
		return nil, fmt.Errorf("world: default room %q has no usable layout", cfg.DefaultRoomID)
	}
	return d, nil
}

// Room returns a loaded kernel, or nil.
func (d *Director) Room(roomID string) *room.Kernel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rooms[roomID]
}

// kernels snapshots the room set for tick iteration.
func (d *Director) kernels() []*room.Kernel {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*room.Kernel, 0, len(d.rooms))
	for _, k := range d.rooms {
		out = append(out, k)
	}
	return out
}

// loadRoomLocked resolves a kernel for roomID, loading it on first touch.
// Layout priority: store row, then bundled seed (written back to the
// store), then the 1x1 wall fallback with a critical log.
func (d *Director) loadRoomLocked(roomID string) (*room.Kernel, error) {
	if k, ok := d.rooms[roomID]; ok {
		return k, nil
	}

	var layout *grid.Layout
	seeded := false

	wire, err := d.st.LoadRoomLayout(roomID)
	if err != nil {
		return nil, fmt.Errorf("world: load layout %s: %w", roomID, err)
	}
	if len(wire) > 0 {
		layout, err = grid.FromWire(wire)
		if err != nil {
			d.log.Error("stored layout is corrupt", zap.String("room", roomID), zap.Error(err))
		}
	}
	if layout == nil {
		if rows := d.cfg.SeedLayout(roomID); rows != nil {
			layout, err = grid.FromStrings(rows)
			if err != nil {
				d.log.Error("bundled layout is corrupt", zap.String("room", roomID), zap.Error(err))
			} else {
				seeded = true
				if serr := d.st.SaveRoomLayout(roomID, layout.ToWire()); serr != nil {
					d.log.Error("layout writeback failed", zap.String("room", roomID), zap.Error(serr))
				}
			}
		}
	}
	if layout == nil {
		d.log.Error("no usable layout, room is a 1x1 wall", zap.String("room", roomID))
		layout = grid.Fallback()
	}

	k := room.NewKernel(roomID, layout, d.cfg, d.st, d.furniDefs, d.emotes, d.log)

	rows, err := d.st.LoadFurniture(roomID)
	if err != nil {
		return nil, fmt.Errorf("world: load furniture %s: %w", roomID, err)
	}
	if len(rows) == 0 && seeded {
		rows = d.seedFurnitureRows(roomID)
	}
	k.SeedInstances(rows)

	d.rooms[roomID] = k
	d.log.Info("room loaded",
		zap.String("room", roomID),
		zap.Int("cols", layout.Cols()),
		zap.Int("rows", layout.Rows()),
		zap.Int("furniture", len(rows)))
	return k, nil
}

// seedFurnitureRows persists and returns the bundled first-boot furniture
// for a freshly seeded room.
func (d *Director) seedFurnitureRows(roomID string) []store.FurnitureRow {
	var rows []store.FurnitureRow
	for _, sf := range d.cfg.SeedFurniture {
		if sf.RoomID != roomID {
			continue
		}
		row := store.FurnitureRow{
			RoomID:       roomID,
			DefinitionID: sf.DefinitionID,
			X:            sf.X,
			Y:            sf.Y,
			Z:            sf.Z,
			Rotation:     sf.Rotation,
		}
		if def := d.furniDefs.Get(sf.DefinitionID); def != nil {
			row.State = def.DefaultState
		}
		id, err := d.st.InsertFurniture(row)
		if err != nil {
			d.log.Error("seed furniture insert failed", zap.String("room", roomID), zap.Error(err))
			continue
		}
		row.InstanceID = id
		rows = append(rows, row)
	}
	return rows
}

// roomExistsLocked reports whether roomID can be resolved at all.
func (d *Director) roomExistsLocked(roomID string) bool {
	if _, ok := d.rooms[roomID]; ok {
		return true
	}
	if d.cfg.SeedLayout(roomID) != nil {
		return true
	}
	wire, err := d.st.LoadRoomLayout(roomID)
	return err == nil && len(wire) > 0
}

// Bind attaches an authenticated session: loads the profile, enforces
// single-session-per-user, creates the avatar and joins the initial room.
func (d *Director) Bind(client Client) error {
	userID := client.UserID()
	row, err := d.st.LoadUser(userID)
	if err != nil {
		return fmt.Errorf("world: load user %s: %w", userID, err)
	}
	if row == nil {
		return fmt.Errorf("world: unknown user %s", userID)
	}

	d.mu.Lock()
	if prior, ok := d.byUser[userID]; ok {
		d.mu.Unlock()
		d.log.Info("second session for user, disconnecting prior",
			zap.String("user", userID), zap.String("session", prior.client.SessionID()))
		// Kick closes the transport, which unbinds the prior session.
		prior.client.Kick("signed in elsewhere")
		d.Unbind(prior.client.SessionID())
		d.mu.Lock()
	}

	roomID := row.LastRoomID
	if roomID == "" {
		roomID = d.cfg.DefaultRoomID
	}
	k, err := d.loadRoomLocked(roomID)
	if roomID != d.cfg.DefaultRoomID && (err != nil || isFallback(k)) {
		// Unloadable or unenterable last room: fall back to the default.
		roomID = d.cfg.DefaultRoomID
		k, err = d.loadRoomLocked(roomID)
	}
	if err != nil {
		d.mu.Unlock()
		return err
	}

	runtimeID := d.nextRuntimeID.Add(1)
	av := d.avatarFromRow(runtimeID, row)

	var requested *core.Point
	if roomID == row.LastRoomID {
		requested = &core.Point{X: row.LastX, Y: row.LastY}
	}
	spawn := k.SpawnCell(requested)
	av.X, av.Y = float64(spawn.X), float64(spawn.Y)
	av.Z = d.cfg.AvatarDefaultZ

	b := &binding{
		client:    client,
		userID:    userID,
		runtimeID: runtimeID,
		roomID:    roomID,
		avatar:    av,
	}
	d.bySession[client.SessionID()] = b
	d.byUser[userID] = b
	d.mu.Unlock()

	k.Join(av, client)
	d.sendSessionState(b, k)
	d.log.Info("session bound",
		zap.String("user", userID),
		zap.String("session", client.SessionID()),
		zap.Uint64("runtime", runtimeID),
		zap.String("room", roomID))
	return nil
}

// avatarFromRow builds the runtime avatar from the persistent profile.
func (d *Director) avatarFromRow(runtimeID uint64, row *store.UserRow) *avatar.Avatar {
	inv := row.Inventory
	if inv == nil {
		inv = make(map[string]int)
	}
	color := row.BodyColor
	if color == "" {
		color = d.cfg.NewUserBodyColor
	}
	return &avatar.Avatar{
		RuntimeID: runtimeID,
		UserID:    row.UserID,
		Name:      row.Username,
		Speed:     d.cfg.AvatarSpeed,
		Currency:  row.Currency,
		Inventory: inv,
		BodyColor: color,
	}
}

// sendSessionState pushes the per-session view after a join or migration:
// runtime id, room snapshot, inventory and currency.
func (d *Director) sendSessionState(b *binding, k *room.Kernel) {
	b.client.Deliver(protocol.YourAvatarID{ID: protocol.RuntimeIDString(b.runtimeID)})
	b.client.Deliver(k.Snapshot())
	b.client.Deliver(protocol.InventoryUpdate{Inventory: b.avatar.Inventory})
	b.client.Deliver(protocol.CurrencyUpdate{Value: b.avatar.Currency})
}

// Unbind detaches a session: leaves the room and persists the avatar.
// Idempotent; a session that never bound is a no-op.
func (d *Director) Unbind(sessionID string) {
	d.mu.Lock()
	b, ok := d.bySession[sessionID]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.bySession, sessionID)
	if cur, ok := d.byUser[b.userID]; ok && cur == b {
		delete(d.byUser, b.userID)
	}
	k := d.rooms[b.roomID]
	d.mu.Unlock()

	if k != nil {
		k.Leave(b.runtimeID)
	}
	d.persistAvatar(b.avatar)
	d.log.Info("session unbound", zap.String("user", b.userID), zap.String("session", sessionID))
}

// persistAvatar writes the avatar's durable state: rounded position, room,
// currency, inventory, cosmetic.
func (d *Director) persistAvatar(av *avatar.Avatar) {
	x := int(math.Round(av.X))
	y := int(math.Round(av.Y))
	z := av.Z
	patch := store.UserPatch{
		Currency:   &av.Currency,
		Inventory:  av.Inventory,
		BodyColor:  &av.BodyColor,
		LastRoomID: &av.RoomID,
		LastX:      &x,
		LastY:      &y,
		LastZ:      &z,
	}
	if err := d.st.UpdateUser(av.UserID, patch); err != nil {
		d.log.Error("avatar persist failed", zap.String("user", av.UserID), zap.Error(err))
	}
}

// isFallback detects the 1x1 wall layout a room gets when nothing usable
// could be loaded.
func isFallback(k *room.Kernel) bool {
	if k == nil {
		return true
	}
	l := k.Layout()
	return l.Cols() == 1 && l.Rows() == 1 && !l.IsValidTerrain(0, 0)
}

// bindingFor resolves the session's binding, or nil.
func (d *Director) bindingFor(sessionID string) *binding {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bySession[sessionID]
}
