package main

import "github.com/lixenwraith/pixelden/catalog"

// Built-in catalogs for config-less runs and local development. A real
// deployment points the config at YAML catalog files instead.

func intRef(v int) *int { return &v }

func builtinFurniture() []*catalog.FurnitureDefinition {
	return []*catalog.FurnitureDefinition{
		{
			ID: "chair_basic", Name: "Basic Chair",
			StackHeight: 1.0,
			CanSit:      true, SitFacingDir: 2, SitHeightOffset: 0.4,
			CanRecolor: true,
		},
		{
			ID: "box_small", Name: "Small Box",
			StackHeight: 0.5,
			CanRecolor:  true,
		},
		{
			ID: "table_square", Name: "Square Table",
			StackHeight: 1.0,
		},
		{
			ID: "rug_round", Name: "Round Rug",
			Flat: true, Walkable: true,
			CanRecolor: true,
		},
		{
			ID: "lamp_floor", Name: "Floor Lamp",
			StackHeight: 2.0,
			CanUse:      true, Toggle: true, DefaultState: "off",
		},
		{
			ID: "door_simple", Name: "Simple Door",
			Door: true, TargetRoomID: "lounge",
			TargetX: intRef(1), TargetY: intRef(4),
			SitFacingDir: 2,
		},
	}
}

func builtinEmotes() []*catalog.EmoteDefinition {
	return []*catalog.EmoteDefinition{
		{ID: "wave", Alias: "wave", DurationMS: 2000},
		{ID: "dance", Alias: "dance", DurationMS: 5000},
		{ID: "laugh", Alias: "lol", DurationMS: 2500},
	}
}

func builtinShop() []*catalog.ShopItem {
	return []*catalog.ShopItem{
		{ID: "shop_chair", Name: "Basic Chair", DefinitionID: "chair_basic", Price: 25},
		{ID: "shop_box", Name: "Small Box", DefinitionID: "box_small", Price: 10},
		{ID: "shop_table", Name: "Square Table", DefinitionID: "table_square", Price: 40},
		{ID: "shop_rug", Name: "Round Rug", DefinitionID: "rug_round", Price: 15},
		{ID: "shop_lamp", Name: "Floor Lamp", DefinitionID: "lamp_floor", Price: 30},
	}
}
