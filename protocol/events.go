package protocol

// Event is an outbound message. EventType is the envelope discriminator.
type Event interface {
	EventType() string
}

// RoomState is the full snapshot sent on join and room change.
type RoomState struct {
	RoomID    string      `json:"roomId"`
	Layout    [][]any     `json:"layout"`
	Cols      int         `json:"cols"`
	Rows      int         `json:"rows"`
	Furniture []FurniDTO  `json:"furniture"`
	Avatars   []AvatarDTO `json:"avatars"`
}

func (RoomState) EventType() string { return "room_state" }

// YourAvatarID tells a session which avatar is theirs.
type YourAvatarID struct {
	ID string `json:"id"`
}

func (YourAvatarID) EventType() string { return "your_avatar_id" }

// InventoryUpdate replaces the session's inventory view.
type InventoryUpdate struct {
	Inventory map[string]int `json:"inventory"`
}

func (InventoryUpdate) EventType() string { return "inventory_update" }

// CurrencyUpdate replaces the session's currency view.
type CurrencyUpdate struct {
	Value int `json:"value"`
}

func (CurrencyUpdate) EventType() string { return "currency_update" }

// AvatarAdded announces a new resident to room subscribers.
type AvatarAdded struct {
	Avatar AvatarDTO `json:"avatar"`
}

func (AvatarAdded) EventType() string { return "avatar_added" }

// AvatarRemoved announces a departed resident.
type AvatarRemoved struct {
	ID string `json:"id"`
}

func (AvatarRemoved) EventType() string { return "avatar_removed" }

// AvatarUpdate carries only the fields that changed this tick. Nil fields
// did not change.
type AvatarUpdate struct {
	ID        string   `json:"id"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Z         *float64 `json:"z,omitempty"`
	Direction *int     `json:"direction,omitempty"`
	State     *string  `json:"state,omitempty"`
	SittingOn *string  `json:"sittingOnFurniId,omitempty"`
	EmoteID   *string  `json:"emoteId,omitempty"`
	BodyColor *string  `json:"bodyColor,omitempty"`
}

func (AvatarUpdate) EventType() string { return "avatar_update" }

// FurniAdded announces a newly placed instance.
type FurniAdded struct {
	Furni FurniDTO `json:"furni"`
}

func (FurniAdded) EventType() string { return "furni_added" }

// FurniRemoved announces a picked-up instance.
type FurniRemoved struct {
	ID string `json:"id"`
}

func (FurniRemoved) EventType() string { return "furni_removed" }

// FurniUpdated carries only changed instance fields. Nil fields did not
// change; ColorOverride uses a pointer so an explicit reset ("") survives.
type FurniUpdated struct {
	ID            string   `json:"id"`
	Z             *float64 `json:"z,omitempty"`
	Rotation      *int     `json:"rotation,omitempty"`
	State         *string  `json:"state,omitempty"`
	ColorOverride *string  `json:"colorOverride,omitempty"`
}

func (FurniUpdated) EventType() string { return "furni_updated" }

// Chat is a room-scoped chat line. FromID is empty for server messages.
type Chat struct {
	FromID   string `json:"fromId,omitempty"`
	FromName string `json:"fromName"`
	Text     string `json:"text"`
	Class    string `json:"class,omitempty"` // e.g. "server", "whisper"
}

func (Chat) EventType() string { return "chat" }

// UserListEntry is one row of the room user list.
type UserListEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserListUpdate replaces the room user list.
type UserListUpdate struct {
	Users []UserListEntry `json:"users"`
}

func (UserListUpdate) EventType() string { return "user_list" }

// ProfileInfo answers a RequestProfile intent.
type ProfileInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BodyColor string `json:"bodyColor"`
}

func (ProfileInfo) EventType() string { return "profile_info" }

// ActionFailed reports a rejected intent back to its requester only.
type ActionFailed struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

func (ActionFailed) EventType() string { return "action_failed" }

// ForceDisconnect is the terminal event before the server closes a session.
type ForceDisconnect struct {
	Reason string `json:"reason"`
}

func (ForceDisconnect) EventType() string { return "force_disconnect" }
