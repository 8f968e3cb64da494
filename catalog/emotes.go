package catalog

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EmoteDefinition is one transient avatar emote.
type EmoteDefinition struct {
	ID    string `yaml:"id"`
	Alias string `yaml:"alias"` // chat shortcut without the slash, e.g. "wave"
	// DurationMS of 0 falls back to the configured default.
	DurationMS int `yaml:"duration_ms"`
}

// Duration resolves the emote length against the configured default.
func (e *EmoteDefinition) Duration(def time.Duration) time.Duration {
	if e.DurationMS <= 0 {
		return def
	}
	return time.Duration(e.DurationMS) * time.Millisecond
}

// Emotes is the emote catalog, addressable by id and by chat alias.
type Emotes struct {
	byID    map[string]*EmoteDefinition
	byAlias map[string]*EmoteDefinition
}

// LoadEmotes reads the emote catalog from a YAML file.
func LoadEmotes(path string) (*Emotes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read emotes: %w", err)
	}
	var file struct {
		Emotes []*EmoteDefinition `yaml:"emotes"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse emotes: %w", err)
	}
	return NewEmotes(file.Emotes)
}

// NewEmotes builds the catalog from definitions.
func NewEmotes(defs []*EmoteDefinition) (*Emotes, error) {
	e := &Emotes{
		byID:    make(map[string]*EmoteDefinition, len(defs)),
		byAlias: make(map[string]*EmoteDefinition, len(defs)),
	}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("catalog: emote with empty id")
		}
		if _, dup := e.byID[d.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate emote id %q", d.ID)
		}
		e.byID[d.ID] = d
		if d.Alias != "" {
			e.byAlias[d.Alias] = d
		}
	}
	return e, nil
}

// Get returns the emote for id, or nil.
func (e *Emotes) Get(id string) *EmoteDefinition { return e.byID[id] }

// GetByAlias returns the emote for a chat alias, or nil.
func (e *Emotes) GetByAlias(alias string) *EmoteDefinition { return e.byAlias[alias] }
