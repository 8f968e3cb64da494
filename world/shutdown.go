package world

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/pixelden/room"
)

// Shutdown persists every bound avatar and tells every room goodbye. The
// caller has already stopped the ticker; transport close and the hard
// timeout live in main.
func (d *Director) Shutdown() {
	d.mu.Lock()
	bindings := make([]*binding, 0, len(d.bySession))
	for _, b := range d.bySession {
		bindings = append(bindings, b)
	}
	kernels := make([]*room.Kernel, 0, len(d.rooms))
	for _, k := range d.rooms {
		kernels = append(kernels, k)
	}
	d.mu.Unlock()

	for _, k := range kernels {
		k.ServerChat("server shutting down")
	}
	for _, b := range bindings {
		d.persistAvatar(b.avatar)
	}
	d.log.Info("world shut down", zap.Int("avatars_persisted", len(bindings)))
}
