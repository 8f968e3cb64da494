package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if c.TickInterval() != 50*time.Millisecond {
		t.Errorf("TickInterval = %v, want 50ms", c.TickInterval())
	}
	if c.TickDeltaCap() != 100*time.Millisecond {
		t.Errorf("TickDeltaCap = %v, want 100ms", c.TickDeltaCap())
	}
	if c.SeedLayout(c.DefaultRoomID) == nil {
		t.Error("default room has no bundled layout")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Zero tick rate", func(c *Config) { c.TickRateHz = 0 }},
		{"Zero speed", func(c *Config) { c.AvatarSpeed = 0 }},
		{"Zero stack ceiling", func(c *Config) { c.MaxStackZ = 0 }},
		{"No default room", func(c *Config) { c.DefaultRoomID = "" }},
		{"Zero send queue", func(c *Config) { c.SendQueueSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestColorWhitelist(t *testing.T) {
	c := Default()
	if !c.IsValidColor("#ffffff") {
		t.Error("whitelisted color rejected")
	}
	if c.IsValidColor("#123456") {
		t.Error("unlisted color accepted")
	}
	if c.IsValidColor("") {
		t.Error("empty color accepted")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	doc := `
listen_addr: ":9090"
tick_rate_hz: 30
avatar_speed: 2.5
rooms:
  - id: test_room
    layout:
      - "111"
      - "101"
      - "111"
default_room_id: test_room
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ListenAddr != ":9090" || c.TickRateHz != 30 || c.AvatarSpeed != 2.5 {
		t.Errorf("overrides not applied: %+v", c)
	}
	// Untouched keys keep their defaults.
	if c.MaxStackZ != 10.0 {
		t.Errorf("MaxStackZ = %v, want default 10", c.MaxStackZ)
	}
	if c.SeedLayout("test_room") == nil {
		t.Error("configured room layout missing")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected validation error")
	}
}

func TestSeedLayoutUnknownRoom(t *testing.T) {
	if Default().SeedLayout("no_such_room") != nil {
		t.Error("unknown room returned a layout")
	}
}
