package avatar

import (
	"math"
	"testing"
	"time"

	"github.com/lixenwraith/pixelden/core"
)

func walker(x, y float64) *Avatar {
	return &Avatar{RuntimeID: 1, X: x, Y: y, Speed: 4.0, State: Idle}
}

func TestStepConsumesWaypoints(t *testing.T) {
	av := walker(1, 1)
	av.StartPath([]core.Point{{X: 2, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 2}}, nil)
	if av.State != Walking {
		t.Fatalf("state = %v, want Walking", av.State)
	}
	if av.Direction != core.East {
		t.Errorf("facing = %v, want East", av.Direction)
	}

	// Speed 4, dt 0.25: exactly one tile.
	moved, arrived := av.Step(0.25)
	if !moved || arrived {
		t.Fatalf("moved=%v arrived=%v", moved, arrived)
	}
	if av.X != 2 || av.Y != 1 {
		t.Errorf("position = (%v,%v), want (2,1)", av.X, av.Y)
	}
	if len(av.Path) != 2 {
		t.Errorf("remaining path = %d, want 2", len(av.Path))
	}

	// The remaining 2 tiles fit in a 0.5s budget; the path finishes.
	_, arrived = av.Step(0.5)
	if !arrived {
		t.Fatal("expected arrival")
	}
	if av.X != 3 || av.Y != 2 {
		t.Errorf("final position = (%v,%v), want (3,2)", av.X, av.Y)
	}
	if av.State != Idle {
		t.Errorf("state after arrival = %v, want Idle", av.State)
	}
}

func TestStepInterpolatesPartialTiles(t *testing.T) {
	av := walker(0, 0)
	av.StartPath([]core.Point{{X: 1, Y: 0}}, nil)

	moved, arrived := av.Step(0.1) // budget 0.4 tiles
	if !moved || arrived {
		t.Fatalf("moved=%v arrived=%v", moved, arrived)
	}
	if math.Abs(av.X-0.4) > 1e-9 || av.Y != 0 {
		t.Errorf("position = (%v,%v), want (0.4,0)", av.X, av.Y)
	}
	if av.State != Walking {
		t.Errorf("state = %v, want Walking", av.State)
	}
	if av.Cell() != (core.Point{X: 0, Y: 0}) {
		t.Errorf("Cell = %v, want (0,0)", av.Cell())
	}
}

func TestStepLeftoverBudgetCarriesToNextWaypoint(t *testing.T) {
	av := walker(0, 0)
	av.StartPath([]core.Point{{X: 1, Y: 0}, {X: 1, Y: 1}}, nil)

	// Budget 1.5 tiles: snap to (1,0), then half way down.
	av.Step(0.375)
	if math.Abs(av.X-1) > 1e-9 || math.Abs(av.Y-0.5) > 1e-9 {
		t.Errorf("position = (%v,%v), want (1,0.5)", av.X, av.Y)
	}
	if av.Direction != core.South {
		t.Errorf("facing = %v, want South", av.Direction)
	}
}

func TestStepWhileNotWalking(t *testing.T) {
	av := walker(1, 1)
	if moved, arrived := av.Step(1.0); moved || arrived {
		t.Errorf("idle avatar moved=%v arrived=%v", moved, arrived)
	}
}

func TestStartPathCancelsEmote(t *testing.T) {
	av := walker(1, 1)
	av.StartEmote("wave", time.Now().Add(time.Hour))
	if av.State != Emoting {
		t.Fatalf("state = %v, want Emoting", av.State)
	}
	av.StartPath([]core.Point{{X: 2, Y: 1}}, nil)
	if av.EmoteID != "" {
		t.Error("emote survived StartPath")
	}
	if av.State != Walking {
		t.Errorf("state = %v, want Walking", av.State)
	}
}

func TestTickEmoteExpiry(t *testing.T) {
	now := time.Now()
	av := walker(1, 1)
	av.StartEmote("dance", now.Add(100*time.Millisecond))

	if av.TickEmote(now) {
		t.Error("emote expired before its deadline")
	}
	if !av.TickEmote(now.Add(150 * time.Millisecond)) {
		t.Fatal("emote did not expire after its deadline")
	}
	if av.EmoteID != "" || av.State != Idle {
		t.Errorf("post-expiry: emote=%q state=%v", av.EmoteID, av.State)
	}
	// Expiring again is a no-op.
	if av.TickEmote(now.Add(time.Second)) {
		t.Error("second expiry reported a change")
	}
}

func TestEmoteWhileWalkingPausesPath(t *testing.T) {
	now := time.Now()
	av := walker(0, 0)
	av.StartPath([]core.Point{{X: 1, Y: 0}, {X: 2, Y: 0}}, nil)

	av.StartEmote("wave", now.Add(100*time.Millisecond))
	if av.State != Emoting {
		t.Fatalf("state = %v, want Emoting", av.State)
	}
	if len(av.Path) != 2 {
		t.Fatalf("emote dropped the path: %d waypoints left", len(av.Path))
	}
	if moved, _ := av.Step(1.0); moved {
		t.Error("avatar moved while emoting")
	}

	if !av.TickEmote(now.Add(150 * time.Millisecond)) {
		t.Fatal("emote did not expire")
	}
	if av.State != Walking {
		t.Fatalf("state after expiry = %v, want Walking", av.State)
	}
	if _, arrived := av.Step(0.5); !arrived {
		t.Error("resumed path did not finish")
	}
	if av.X != 2 || av.Y != 0 {
		t.Errorf("final position = (%v,%v), want (2,0)", av.X, av.Y)
	}
}

func TestSitAndStand(t *testing.T) {
	av := walker(3, 2)
	av.SitOn("chair-1", 3, 3, 0.4, core.South)

	if av.State != Sitting || av.SittingOn != "chair-1" {
		t.Fatalf("state=%v sittingOn=%q", av.State, av.SittingOn)
	}
	if av.X != 3 || av.Y != 3 || av.Z != 0.4 {
		t.Errorf("seat pose = (%v,%v,%v)", av.X, av.Y, av.Z)
	}
	if av.Direction != core.South {
		t.Errorf("facing = %v, want South", av.Direction)
	}

	av.StandTo(core.Point{X: 3, Y: 2}, 0)
	if av.State != Idle || av.SittingOn != "" {
		t.Errorf("after stand: state=%v sittingOn=%q", av.State, av.SittingOn)
	}
	if av.X != 3 || av.Y != 2 || av.Z != 0 {
		t.Errorf("stand pose = (%v,%v,%v)", av.X, av.Y, av.Z)
	}
}

func TestSitOnCancelsPathAndEmote(t *testing.T) {
	av := walker(1, 1)
	av.StartPath([]core.Point{{X: 2, Y: 1}}, &Action{Kind: ActionSit, InstanceID: "x"})
	av.SitOn("chair-1", 2, 1, 0.4, core.South)
	if av.Path != nil || av.After != nil {
		t.Error("path or deferred action survived SitOn")
	}
}

func TestPrepareRoomChange(t *testing.T) {
	av := walker(5, 5)
	av.SitOn("chair-1", 5, 5, 0.4, core.East)
	av.PrepareRoomChange("lounge", core.Point{X: 1, Y: 4}, 0)

	if av.RoomID != "lounge" {
		t.Errorf("RoomID = %q", av.RoomID)
	}
	if av.X != 1 || av.Y != 4 || av.Z != 0 {
		t.Errorf("arrival pose = (%v,%v,%v)", av.X, av.Y, av.Z)
	}
	if av.State != Idle || av.SittingOn != "" || av.Path != nil || av.After != nil {
		t.Error("transient state survived room change")
	}
}

func TestStopPath(t *testing.T) {
	av := walker(1, 1)
	av.StartPath([]core.Point{{X: 2, Y: 1}}, &Action{Kind: ActionSit, InstanceID: "x"})
	av.StopPath()
	if av.State != Idle || av.Path != nil || av.After != nil {
		t.Errorf("after StopPath: state=%v path=%v after=%v", av.State, av.Path, av.After)
	}
}
