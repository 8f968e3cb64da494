package room

import (
	"time"
)

// Tick advances the room by dt seconds: emote expiries, path followers and
// deferred arrival actions. AvatarUpdate deltas go out only for avatars
// whose pose actually changed. Returns the portal arrivals for the
// director to migrate.
func (k *Kernel) Tick(now time.Time, dt float64) []PortalArrival {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, id := range k.order {
		av := k.avatars[id]
		before := capturePose(av)

		av.TickEmote(now)

		_, arrived := av.Step(dt)
		if arrived && av.After != nil {
			after := av.After
			k.resolveArrivalLocked(av, after)
		}

		if ev := diffPose(av, before); !emptyUpdate(ev) {
			k.broadcastLocked(ev)
		}
	}

	arrivals := k.pendingPortals
	k.pendingPortals = nil
	return arrivals
}
