package world

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/core"
	"github.com/lixenwraith/pixelden/protocol"
	"github.com/lixenwraith/pixelden/store"
)

// Dispatch routes one decoded intent from a bound session into the kernel
// or the director. Failures go back to the requester as ActionFailed and
// never mutate state.
func (d *Director) Dispatch(sessionID string, intent protocol.Intent) {
	b := d.bindingFor(sessionID)
	if b == nil {
		d.log.Warn("intent from unbound session", zap.String("session", sessionID))
		return
	}
	k := d.Room(b.roomID)
	if k == nil {
		d.log.Error("bound session in unloaded room",
			zap.String("session", sessionID), zap.String("room", b.roomID))
		return
	}

	var fail *core.Failure
	switch in := intent.(type) {
	case *protocol.Move:
		fail = k.RequestMove(b.runtimeID, in.X, in.Y)
	case *protocol.SendChat:
		fail = d.handleChat(b, in.Text)
	case *protocol.PlaceFurni:
		fail = k.RequestPlace(b.runtimeID, in.DefinitionID, in.X, in.Y, in.Rotation)
	case *protocol.RotateFurni:
		fail = k.RequestRotate(b.runtimeID, in.InstanceID)
	case *protocol.PickupFurni:
		fail = k.RequestPickup(b.runtimeID, in.InstanceID)
	case *protocol.Sit:
		fail = k.RequestSit(b.runtimeID, in.InstanceID)
	case *protocol.Stand:
		fail = k.RequestStand(b.runtimeID)
	case *protocol.UseFurni:
		fail = k.RequestUse(b.runtimeID, in.InstanceID)
	case *protocol.RecolorFurni:
		fail = k.RequestRecolor(b.runtimeID, in.InstanceID, in.Hex)
	case *protocol.BuyItem:
		fail = d.buy(b, in.ItemID)
	case *protocol.ChangeRoom:
		fail = d.changeRoom(b, in.TargetRoomID, in.X, in.Y)
	case *protocol.RequestProfile:
		fail = d.profile(b, in.RuntimeID)
	case *protocol.RequestUserList:
		b.client.Deliver(k.UserList())
	default:
		d.log.Warn("unhandled intent", zap.String("type", intent.IntentType()))
	}

	if fail != nil {
		b.client.Deliver(protocol.ActionFailed{Action: fail.Action, Reason: fail.Reason})
		if fail.Kind == core.FailInternal {
			d.log.Error("internal failure on intent",
				zap.String("session", sessionID),
				zap.String("action", fail.Action),
				zap.String("reason", fail.Reason))
		}
	}
}

// handleChat trims and caps the line, then either broadcasts it or routes
// a leading-slash command.
func (d *Director) handleChat(b *binding, text string) *core.Failure {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	// The cap counts runes; a byte slice could cut a multi-byte rune in
	// half.
	if runes := []rune(text); len(runes) > d.cfg.ChatMaxLen {
		text = string(runes[:d.cfg.ChatMaxLen])
	}
	if strings.HasPrefix(text, "/") {
		return d.handleCommand(b, text)
	}
	k := d.Room(b.roomID)
	if k == nil {
		return core.Failf("chat", core.FailInternal, "room unavailable")
	}
	return k.Chat(b.runtimeID, text)
}

// handleCommand parses "/cmd args". Emote aliases double as commands, so
// "/wave" is shorthand for "/emote wave".
func (d *Director) handleCommand(b *binding, text string) *core.Failure {
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	k := d.Room(b.roomID)
	if k == nil {
		return core.Failf("command", core.FailInternal, "room unavailable")
	}

	switch cmd {
	case "emote":
		if len(args) != 1 {
			return core.Failf("emote", core.FailValidation, "usage: /emote <id>")
		}
		return k.RequestEmote(b.runtimeID, args[0])
	case "setcolor":
		if len(args) != 1 {
			return core.Failf("setcolor", core.FailValidation, "usage: /setcolor <hex>")
		}
		return k.SetBodyColor(b.runtimeID, strings.ToLower(args[0]))
	case "join":
		if len(args) != 1 {
			return core.Failf("change_room", core.FailValidation, "usage: /join <room>")
		}
		return d.changeRoom(b, args[0], nil, nil)
	default:
		if em := d.emotes.GetByAlias(cmd); em != nil {
			return k.RequestEmote(b.runtimeID, em.ID)
		}
		b.client.Deliver(protocol.Chat{FromName: "server", Text: "unknown command: /" + cmd, Class: "server"})
		return nil
	}
}

// buy purchases a shop item: debit and credit commit together or not at
// all, so currency is conserved on every outcome.
func (d *Director) buy(b *binding, itemID string) *core.Failure {
	item := d.shop.Get(itemID)
	if item == nil {
		return core.Failf("buy", core.FailValidation, "unknown item %q", itemID)
	}
	av := b.avatar
	if av.Currency < item.Price {
		return core.Failf("buy", core.FailValidation, "insufficient funds")
	}

	av.Currency -= item.Price
	if av.Inventory == nil {
		av.Inventory = make(map[string]int)
	}
	av.Inventory[item.DefinitionID]++

	if err := d.st.UpdateUser(av.UserID, store.UserPatch{
		Currency:  &av.Currency,
		Inventory: av.Inventory,
	}); err != nil {
		// Roll both sides back; the client never sees a half-purchase.
		av.Currency += item.Price
		av.Inventory[item.DefinitionID]--
		if av.Inventory[item.DefinitionID] == 0 {
			delete(av.Inventory, item.DefinitionID)
		}
		d.log.Error("buy persist failed", zap.String("user", av.UserID), zap.Error(err))
		return core.Failf("buy", core.FailPersistence, "purchase could not be saved")
	}

	b.client.Deliver(protocol.CurrencyUpdate{Value: av.Currency})
	b.client.Deliver(protocol.InventoryUpdate{Inventory: av.Inventory})
	return nil
}

// profile answers a profile request for any avatar in the requester's room.
func (d *Director) profile(b *binding, runtimeIDStr string) *core.Failure {
	id, err := strconv.ParseUint(runtimeIDStr, 10, 64)
	if err != nil {
		return core.Failf("profile", core.FailValidation, "bad runtime id %q", runtimeIDStr)
	}
	k := d.Room(b.roomID)
	if k == nil {
		return core.Failf("profile", core.FailInternal, "room unavailable")
	}
	av := k.Avatar(id)
	if av == nil {
		return core.Failf("profile", core.FailConflict, "avatar not in room")
	}
	b.client.Deliver(protocol.ProfileInfo{
		ID:        protocol.RuntimeIDString(av.RuntimeID),
		Name:      av.Name,
		BodyColor: av.BodyColor,
	})
	return nil
}
