package protocol

// Intent is a decoded client request. The websocket layer decodes frames
// into these and routes them; the kernel never sees raw bytes.
type Intent interface {
	IntentType() string
}

// Move requests pathing to a tile.
type Move struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (Move) IntentType() string { return "move" }

// SendChat submits a chat line (or a slash command).
type SendChat struct {
	Text string `json:"text"`
}

func (SendChat) IntentType() string { return "chat" }

// PlaceFurni places an inventory item.
type PlaceFurni struct {
	DefinitionID string `json:"definitionId"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Rotation     int    `json:"rotation"`
}

func (PlaceFurni) IntentType() string { return "place_furni" }

// RotateFurni turns an owned instance a quarter turn clockwise.
type RotateFurni struct {
	InstanceID string `json:"instanceId"`
}

func (RotateFurni) IntentType() string { return "rotate_furni" }

// PickupFurni returns an owned instance to inventory.
type PickupFurni struct {
	InstanceID string `json:"instanceId"`
}

func (PickupFurni) IntentType() string { return "pickup_furni" }

// Sit requests sitting on (or walking to, then sitting on) an instance.
// Door instances route through the portal path instead.
type Sit struct {
	InstanceID string `json:"instanceId"`
}

func (Sit) IntentType() string { return "sit" }

// Stand leaves the current seat.
type Stand struct{}

func (Stand) IntentType() string { return "stand" }

// UseFurni toggles or activates an instance.
type UseFurni struct {
	InstanceID string `json:"instanceId"`
}

func (UseFurni) IntentType() string { return "use_furni" }

// RecolorFurni applies a whitelisted color, or resets with an empty hex.
type RecolorFurni struct {
	InstanceID string `json:"instanceId"`
	Hex        string `json:"hex"`
}

func (RecolorFurni) IntentType() string { return "recolor_furni" }

// BuyItem purchases a shop item into inventory.
type BuyItem struct {
	ItemID string `json:"itemId"`
}

func (BuyItem) IntentType() string { return "buy_item" }

// ChangeRoom teleports to another room, optionally at a cell.
type ChangeRoom struct {
	TargetRoomID string `json:"targetRoomId"`
	X            *int   `json:"x,omitempty"`
	Y            *int   `json:"y,omitempty"`
}

func (ChangeRoom) IntentType() string { return "change_room" }

// RequestProfile asks for another avatar's public profile.
type RequestProfile struct {
	RuntimeID string `json:"runtimeId"`
}

func (RequestProfile) IntentType() string { return "request_profile" }

// RequestUserList asks for the current room's user list.
type RequestUserList struct{}

func (RequestUserList) IntentType() string { return "request_user_list" }
