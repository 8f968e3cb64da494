// Package protocol defines the typed intents clients send, the typed
// events the server broadcasts, and the JSON envelope codec between them.
package protocol

import (
	"strconv"

	"github.com/lixenwraith/pixelden/avatar"
	"github.com/lixenwraith/pixelden/furniture"
)

// FurniDTO is the wire shape of a placed furniture instance.
type FurniDTO struct {
	ID            string  `json:"id"`
	X             int     `json:"x"`
	Y             int     `json:"y"`
	Z             float64 `json:"z"`
	DefinitionID  string  `json:"definitionId"`
	Rotation      int     `json:"rotation"`
	State         string  `json:"state,omitempty"`
	ColorOverride string  `json:"colorOverride,omitempty"`
	IsDoor        bool    `json:"isDoor,omitempty"`
	TargetRoomID  string  `json:"targetRoomId,omitempty"`
	OwnerID       string  `json:"ownerId,omitempty"`
}

// AvatarDTO is the wire shape of a resident avatar.
type AvatarDTO struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Name      string  `json:"name"`
	RoomID    string  `json:"roomId"`
	State     string  `json:"state"`
	Direction int     `json:"direction"`
	SittingOn string  `json:"sittingOnFurniId,omitempty"`
	BodyColor string  `json:"bodyColor"`
	EmoteID   string  `json:"emoteId,omitempty"`
}

// RuntimeIDString formats an avatar runtime id for the wire.
func RuntimeIDString(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// NewFurniDTO projects an instance onto the wire.
func NewFurniDTO(inst *furniture.Instance) FurniDTO {
	return FurniDTO{
		ID:            inst.ID,
		X:             inst.X,
		Y:             inst.Y,
		Z:             inst.Z,
		DefinitionID:  inst.Def.ID,
		Rotation:      inst.Rotation,
		State:         inst.State,
		ColorOverride: inst.ColorOverride,
		IsDoor:        inst.Def.Door,
		TargetRoomID:  inst.Def.TargetRoomID,
		OwnerID:       inst.OwnerUserID,
	}
}

// NewAvatarDTO projects an avatar onto the wire.
func NewAvatarDTO(a *avatar.Avatar) AvatarDTO {
	return AvatarDTO{
		ID:        RuntimeIDString(a.RuntimeID),
		X:         a.X,
		Y:         a.Y,
		Z:         a.Z,
		Name:      a.Name,
		RoomID:    a.RoomID,
		State:     a.State.String(),
		Direction: int(a.Direction),
		SittingOn: a.SittingOn,
		BodyColor: a.BodyColor,
		EmoteID:   a.EmoteID,
	}
}
