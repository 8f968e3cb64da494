// Package store is the narrow persistence facade. The simulation core only
// sees these operations; everything else about durability is private to the
// implementation.
package store

import "errors"

// ErrNotFound is returned when a keyed row does not exist.
var ErrNotFound = errors.New("store: not found")

// FurnitureRow is the persistent shape of one placed furniture instance.
type FurnitureRow struct {
	InstanceID    string  `json:"instanceId"`
	RoomID        string  `json:"roomId"`
	DefinitionID  string  `json:"definitionId"`
	X             int     `json:"x"`
	Y             int     `json:"y"`
	Z             float64 `json:"z"`
	Rotation      int     `json:"rotation"`
	OwnerUserID   string  `json:"ownerUserId,omitempty"`
	State         string  `json:"state,omitempty"`
	ColorOverride string  `json:"colorOverride,omitempty"`
}

// FurniturePatch is a partial furniture update; nil fields are untouched.
type FurniturePatch struct {
	RoomID        *string
	X             *int
	Y             *int
	Z             *float64
	Rotation      *int
	State         *string
	ColorOverride *string
}

// UserRow is the persistent shape of one user account.
type UserRow struct {
	UserID       string         `json:"userId"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"passwordHash"`
	IsAdmin      bool           `json:"isAdmin"`
	Currency     int            `json:"currency"`
	Inventory    map[string]int `json:"inventory"`
	BodyColor    string         `json:"bodyColor"`
	LastRoomID   string         `json:"lastRoomId"`
	LastX        int            `json:"lastX"`
	LastY        int            `json:"lastY"`
	LastZ        float64        `json:"lastZ"`
}

// UserPatch is a partial user update; nil fields are untouched. Inventory
// replaces the whole map when non-nil.
type UserPatch struct {
	Currency   *int
	Inventory  map[string]int
	BodyColor  *string
	LastRoomID *string
	LastX      *int
	LastY      *int
	LastZ      *float64
}

// Facade is the repository surface the kernel and director call. Layouts
// travel in wire-cell form (see package grid); absent rows come back as
// (nil, nil) rather than an error so callers can fall through to defaults.
type Facade interface {
	LoadRoomLayout(roomID string) ([][]any, error)
	SaveRoomLayout(roomID string, layout [][]any) error

	LoadFurniture(roomID string) ([]FurnitureRow, error)
	// InsertFurniture assigns and returns the instance id.
	InsertFurniture(row FurnitureRow) (string, error)
	UpdateFurniture(instanceID string, patch FurniturePatch) error
	DeleteFurniture(instanceID string) error

	LoadUser(userID string) (*UserRow, error)
	LoadUserByName(username string) (*UserRow, error)
	CreateUser(row UserRow) error
	UpdateUser(userID string, patch UserPatch) error

	InsertToken(token, userID string) error
	LookupToken(token string) (string, error)

	Close() error
}

func applyFurniturePatch(row *FurnitureRow, patch FurniturePatch) {
	if patch.RoomID != nil {
		row.RoomID = *patch.RoomID
	}
	if patch.X != nil {
		row.X = *patch.X
	}
	if patch.Y != nil {
		row.Y = *patch.Y
	}
	if patch.Z != nil {
		row.Z = *patch.Z
	}
	if patch.Rotation != nil {
		row.Rotation = *patch.Rotation
	}
	if patch.State != nil {
		row.State = *patch.State
	}
	if patch.ColorOverride != nil {
		row.ColorOverride = *patch.ColorOverride
	}
}

func applyUserPatch(row *UserRow, patch UserPatch) {
	if patch.Currency != nil {
		row.Currency = *patch.Currency
	}
	if patch.Inventory != nil {
		row.Inventory = patch.Inventory
	}
	if patch.BodyColor != nil {
		row.BodyColor = *patch.BodyColor
	}
	if patch.LastRoomID != nil {
		row.LastRoomID = *patch.LastRoomID
	}
	if patch.LastX != nil {
		row.LastX = *patch.LastX
	}
	if patch.LastY != nil {
		row.LastY = *patch.LastY
	}
	if patch.LastZ != nil {
		row.LastZ = *patch.LastZ
	}
}
