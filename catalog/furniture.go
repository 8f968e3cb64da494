// Package catalog holds the process-wide, read-only definition catalogs:
// furniture, emotes and the shop. All three are loaded once at startup.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/pixelden/core"
)

// FurnitureDefinition describes one furniture type. Immutable after load.
type FurnitureDefinition struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Footprint in tiles. Zero values default to 1x1.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	Walkable bool `yaml:"walkable"`
	Flat     bool `yaml:"flat"`
	// Stackable defaults to !Flat when omitted.
	Stackable *bool `yaml:"stackable"`
	// StackHeight is the logical thickness an item adds to the pile.
	StackHeight float64 `yaml:"stack_height"`
	// ZOffset biases the resting height of this item.
	ZOffset float64 `yaml:"z_offset"`

	CanSit          bool           `yaml:"can_sit"`
	SitFacingDir    core.Direction `yaml:"sit_facing_dir"`
	SitHeightOffset float64        `yaml:"sit_height_offset"`

	CanUse       bool   `yaml:"can_use"`
	Toggle       bool   `yaml:"toggle"`
	DefaultState string `yaml:"default_state"`

	CanRecolor bool `yaml:"can_recolor"`

	Door         bool   `yaml:"door"`
	TargetRoomID string `yaml:"target_room_id"`
	TargetX      *int   `yaml:"target_x"`
	TargetY      *int   `yaml:"target_y"`
}

// IsStackable resolves the stackable default (!Flat).
func (d *FurnitureDefinition) IsStackable() bool {
	if d.Stackable != nil {
		return *d.Stackable
	}
	return !d.Flat
}

// FootprintSize returns the tile extent, defaulting to 1x1.
func (d *FurnitureDefinition) FootprintSize() (w, h int) {
	w, h = d.Width, d.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return w, h
}

// Furniture is the id-keyed furniture definition catalog.
type Furniture struct {
	defs map[string]*FurnitureDefinition
}

// LoadFurniture reads the furniture catalog from a YAML file.
func LoadFurniture(path string) (*Furniture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read furniture: %w", err)
	}
	var file struct {
		Furniture []*FurnitureDefinition `yaml:"furniture"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse furniture: %w", err)
	}
	return NewFurniture(file.Furniture)
}

// NewFurniture builds a catalog from definitions, rejecting duplicates.
func NewFurniture(defs []*FurnitureDefinition) (*Furniture, error) {
	m := make(map[string]*FurnitureDefinition, len(defs))
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("catalog: furniture definition with empty id")
		}
		if _, dup := m[d.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate furniture id %q", d.ID)
		}
		if d.SitFacingDir < 0 || d.SitFacingDir > 7 {
			return nil, fmt.Errorf("catalog: furniture %q: sit_facing_dir out of range", d.ID)
		}
		m[d.ID] = d
	}
	return &Furniture{defs: m}, nil
}

// Get returns the definition for id, or nil.
func (f *Furniture) Get(id string) *FurnitureDefinition {
	return f.defs[id]
}

// Len returns the number of definitions.
func (f *Furniture) Len() int { return len(f.defs) }
