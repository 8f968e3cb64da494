// Package config loads the read-only server configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RoomSeed bundles a room id with its bundled default layout, used when the
// persistence store has no layout for the room yet.
type RoomSeed struct {
	ID string `yaml:"id"`
	// Layout rows as compact strings of '0' (floor), '1' (wall),
	// '2' (alt floor) and 'X' (hole).
	Layout []string `yaml:"layout"`
}

// SeedFurniture is furniture placed on first boot of a fresh store.
type SeedFurniture struct {
	RoomID       string  `yaml:"room_id"`
	DefinitionID string  `yaml:"definition_id"`
	X            int     `yaml:"x"`
	Y            int     `yaml:"y"`
	Z            float64 `yaml:"z"`
	Rotation     int     `yaml:"rotation"`
}

// Config is the full server configuration. Read-only after Load.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataPath   string `yaml:"data_path"`
	StaticDir  string `yaml:"static_dir"`

	TickRateHz     int `yaml:"tick_rate_hz"`
	TickDeltaCapMS int `yaml:"tick_delta_cap_ms"`

	AvatarSpeed    float64 `yaml:"avatar_speed"` // tiles per second
	AvatarDefaultZ float64 `yaml:"avatar_default_z"`

	MaxStackZ   float64 `yaml:"max_stack_z"`
	StackFactor float64 `yaml:"stack_factor"`

	DefaultEmoteMS int `yaml:"default_emote_ms"`
	ChatMaxLen     int `yaml:"chat_max_len"`
	SendQueueSize  int `yaml:"send_queue_size"`

	DefaultRoomID string     `yaml:"default_room_id"`
	Rooms         []RoomSeed `yaml:"rooms"`

	SeedFurniture []SeedFurniture `yaml:"seed_furniture"`

	// ValidColors is the recolor whitelist, lowercase "#rrggbb".
	ValidColors []string `yaml:"valid_colors"`

	FurnitureCatalogPath string `yaml:"furniture_catalog"`
	EmoteCatalogPath     string `yaml:"emote_catalog"`
	ShopCatalogPath      string `yaml:"shop_catalog"`

	NewUserCurrency  int            `yaml:"new_user_currency"`
	NewUserInventory map[string]int `yaml:"new_user_inventory"`
	NewUserBodyColor string         `yaml:"new_user_body_color"`

	ShutdownTimeoutMS int `yaml:"shutdown_timeout_ms"`

	colorSet map[string]struct{}
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{
		ListenAddr:        ":8080",
		DataPath:          "pixelden.db",
		TickRateHz:        20,
		TickDeltaCapMS:    100,
		AvatarSpeed:       4.0,
		AvatarDefaultZ:    0,
		MaxStackZ:         10.0,
		StackFactor:       1.0,
		DefaultEmoteMS:    3000,
		ChatMaxLen:        100,
		SendQueueSize:     128,
		DefaultRoomID:     "main_lobby",
		NewUserCurrency:   200,
		NewUserBodyColor:  "#e8a33d",
		ShutdownTimeoutMS: 5000,
		ValidColors: []string{
			"#ffffff", "#222222", "#e8a33d", "#b04343",
			"#4372b0", "#43b057", "#8943b0", "#b0a443",
		},
		Rooms: []RoomSeed{
			{
				ID: "main_lobby",
				Layout: []string{
					"1111111111111111",
					"1000000000000001",
					"1000000000000001",
					"1000000000000001",
					"1000022220000001",
					"1000022220000001",
					"10000000000000X1",
					"1000000000000001",
					"1000000000000001",
					"1111111111111111",
				},
			},
			{
				ID: "lounge",
				Layout: []string{
					"11111111",
					"10000001",
					"10000001",
					"10000001",
					"10000001",
					"10000001",
					"11111111",
				},
			},
		},
		SeedFurniture: []SeedFurniture{
			{RoomID: "main_lobby", DefinitionID: "door_simple", X: 13, Y: 2},
			{RoomID: "main_lobby", DefinitionID: "chair_basic", X: 4, Y: 7},
			{RoomID: "main_lobby", DefinitionID: "lamp_floor", X: 1, Y: 1},
			{RoomID: "lounge", DefinitionID: "chair_basic", X: 3, Y: 3},
		},
	}
	c.reindex()
	return c
}

// Load reads YAML from path over the defaults. A missing file is an error;
// call Default directly for a config-less run.
func Load(path string) (*Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.reindex()
	return c, nil
}

// Validate rejects configurations the simulation cannot run on.
func (c *Config) Validate() error {
	if c.TickRateHz <= 0 {
		return fmt.Errorf("config: tick_rate_hz must be positive")
	}
	if c.AvatarSpeed <= 0 {
		return fmt.Errorf("config: avatar_speed must be positive")
	}
	if c.MaxStackZ <= 0 {
		return fmt.Errorf("config: max_stack_z must be positive")
	}
	if c.DefaultRoomID == "" {
		return fmt.Errorf("config: default_room_id must be set")
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("config: send_queue_size must be positive")
	}
	return nil
}

func (c *Config) reindex() {
	c.colorSet = make(map[string]struct{}, len(c.ValidColors))
	for _, col := range c.ValidColors {
		c.colorSet[col] = struct{}{}
	}
}

// TickInterval converts the configured rate to a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRateHz)
}

// TickDeltaCap is the maximum simulated step per tick.
func (c *Config) TickDeltaCap() time.Duration {
	return time.Duration(c.TickDeltaCapMS) * time.Millisecond
}

// DefaultEmoteDuration is the emote length when the catalog omits one.
func (c *Config) DefaultEmoteDuration() time.Duration {
	return time.Duration(c.DefaultEmoteMS) * time.Millisecond
}

// IsValidColor checks a hex color against the whitelist.
func (c *Config) IsValidColor(hex string) bool {
	_, ok := c.colorSet[hex]
	return ok
}

// SeedLayout returns the bundled layout rows for a room, or nil.
func (c *Config) SeedLayout(roomID string) []string {
	for i := range c.Rooms {
		if c.Rooms[i].ID == roomID {
			return c.Rooms[i].Layout
		}
	}
	return nil
}
