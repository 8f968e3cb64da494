package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ShopItem is one purchasable catalog entry. Buying credits the buyer's
// inventory with one unit of DefinitionID.
type ShopItem struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	DefinitionID string `yaml:"definition_id"`
	Price        int    `yaml:"price"`
}

// Shop is the purchasable item catalog.
type Shop struct {
	items map[string]*ShopItem
}

// LoadShop reads the shop catalog from a YAML file.
func LoadShop(path string, furniture *Furniture) (*Shop, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read shop: %w", err)
	}
	var file struct {
		Items []*ShopItem `yaml:"items"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse shop: %w", err)
	}
	return NewShop(file.Items, furniture)
}

// NewShop builds the catalog, validating prices and definition links.
func NewShop(items []*ShopItem, furniture *Furniture) (*Shop, error) {
	m := make(map[string]*ShopItem, len(items))
	for _, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("catalog: shop item with empty id")
		}
		if _, dup := m[it.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate shop item %q", it.ID)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("catalog: shop item %q: negative price", it.ID)
		}
		if furniture != nil && furniture.Get(it.DefinitionID) == nil {
			return nil, fmt.Errorf("catalog: shop item %q: unknown definition %q", it.ID, it.DefinitionID)
		}
		m[it.ID] = it
	}
	return &Shop{items: m}, nil
}

// Get returns the shop item for id, or nil.
func (s *Shop) Get(id string) *ShopItem { return s.items[id] }
