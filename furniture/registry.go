package furniture

import "sync"

// Registry holds one room's furniture in insertion order with an id index.
// The owning kernel serializes mutation; the internal lock additionally
// keeps read-side queries (snapshots, walkability probes) safe.
type Registry struct {
	mu          sync.RWMutex
	items       []*Instance
	byID        map[string]*Instance
	stackFactor float64
}

// NewRegistry creates an empty registry using the given stack factor for
// height arithmetic.
func NewRegistry(stackFactor float64) *Registry {
	return &Registry{
		items:       make([]*Instance, 0, 32),
		byID:        make(map[string]*Instance),
		stackFactor: stackFactor,
	}
}

// Add inserts an instance. Re-adding an existing id is a no-op returning
// false.
func (r *Registry) Add(inst *Instance) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[inst.ID]; exists {
		return false
	}
	r.items = append(r.items, inst)
	r.byID[inst.ID] = inst
	return true
}

// Remove deletes by id, preserving insertion order of the remainder.
// Returns the removed instance or nil.
func (r *Registry) Remove(id string) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, exists := r.byID[id]
	if !exists {
		return nil
	}
	delete(r.byID, id)
	for idx, it := range r.items {
		if it == inst {
			r.items = append(r.items[:idx], r.items[idx+1:]...)
			break
		}
	}
	return inst
}

// Get returns the instance for id, or nil.
func (r *Registry) Get(id string) *Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// All returns the instances in insertion order. The slice is a copy; the
// pointed-to instances are live.
func (r *Registry) All() []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Instance, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// StackAt returns the instances whose base tile is exactly (x,y), in
// insertion order.
func (r *Registry) StackAt(x, y int) []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Instance
	for _, it := range r.items {
		if it.X == x && it.Y == y {
			out = append(out, it)
		}
	}
	return out
}

// TopAt returns the instance with the highest top surface covering (x,y),
// or nil when the tile is bare. Ties go to the later insertion.
func (r *Registry) TopAt(x, y int) *Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var top *Instance
	for _, it := range r.items {
		if !it.Covers(x, y) {
			continue
		}
		if top == nil || it.TopHeight(r.stackFactor) >= top.TopHeight(r.stackFactor) {
			top = it
		}
	}
	return top
}

// StackHeightAt is the z of the next available resting surface on (x,y):
// the max top surface over stackable items covering the tile, floored at
// zero. Non-stackable items are ignored for height but still occupy.
func (r *Registry) StackHeightAt(x, y int, excludeID string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	height := 0.0
	for _, it := range r.items {
		if it.ID == excludeID || !it.Covers(x, y) || !it.Def.IsStackable() {
			continue
		}
		if top := it.TopHeight(r.stackFactor); top > height {
			height = top
		}
	}
	return height
}

// IsSolidBlocked reports whether a non-walkable, non-flat instance's
// footprint covers (x,y).
func (r *Registry) IsSolidBlocked(x, y int, excludeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.ID == excludeID {
			continue
		}
		if !it.Def.Walkable && !it.Def.Flat && it.Covers(x, y) {
			return true
		}
	}
	return false
}

// AnyAbove reports whether another instance with a strictly greater z
// overlaps any tile of inst's footprint. Pickup is refused while true.
func (r *Registry) AnyAbove(inst *Instance) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it == inst || it.Z <= inst.Z {
			continue
		}
		for _, t := range inst.Footprint() {
			if it.Covers(t.X, t.Y) {
				return true
			}
		}
	}
	return false
}
