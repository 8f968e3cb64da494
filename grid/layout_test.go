package grid

import (
	"reflect"
	"testing"

	"github.com/lixenwraith/pixelden/core"
)

func TestFromStrings(t *testing.T) {
	l, err := FromStrings([]string{
		"110",
		"02X",
	})
	if err != nil {
		t.Fatalf("FromStrings: %v", err)
	}
	if l.Cols() != 3 || l.Rows() != 2 {
		t.Fatalf("size = %dx%d, want 3x2", l.Cols(), l.Rows())
	}

	tests := []struct {
		x, y int
		want core.TileKind
	}{
		{0, 0, core.TileWall},
		{1, 0, core.TileWall},
		{2, 0, core.TileFloor},
		{0, 1, core.TileFloor},
		{1, 1, core.TileAltFloor},
		{2, 1, core.TileHole},
		{3, 0, core.TileOutOfBounds},
		{-1, 0, core.TileOutOfBounds},
		{0, 2, core.TileOutOfBounds},
	}
	for _, tt := range tests {
		if got := l.TileKind(tt.x, tt.y); got != tt.want {
			t.Errorf("TileKind(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestFromStringsRejectsUnknownRune(t *testing.T) {
	if _, err := FromStrings([]string{"0?0"}); err == nil {
		t.Fatal("expected error for unknown rune")
	}
}

func TestNewRejectsRaggedAndEmpty(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil layout")
	}
	if _, err := New([][]core.TileKind{{}}); err == nil {
		t.Error("expected error for empty row")
	}
	ragged := [][]core.TileKind{
		{core.TileFloor, core.TileFloor},
		{core.TileFloor},
	}
	if _, err := New(ragged); err == nil {
		t.Error("expected error for ragged rows")
	}
}

func TestWireRoundTrip(t *testing.T) {
	l, err := FromStrings([]string{
		"1201",
		"00X0",
	})
	if err != nil {
		t.Fatalf("FromStrings: %v", err)
	}

	wire := l.ToWire()
	wantRow0 := []any{1, 2, 0, 1}
	wantRow1 := []any{0, 0, "X", 0}
	if !reflect.DeepEqual(wire[0], wantRow0) {
		t.Errorf("wire row 0 = %v, want %v", wire[0], wantRow0)
	}
	if !reflect.DeepEqual(wire[1], wantRow1) {
		t.Errorf("wire row 1 = %v, want %v", wire[1], wantRow1)
	}

	back, err := FromWire(wire)
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}
	for y := 0; y < l.Rows(); y++ {
		for x := 0; x < l.Cols(); x++ {
			if back.TileKind(x, y) != l.TileKind(x, y) {
				t.Errorf("round trip cell (%d,%d): %v != %v", x, y, back.TileKind(x, y), l.TileKind(x, y))
			}
		}
	}
}

// JSON decoding delivers numbers as float64; YAML as int. Both must decode.
func TestFromWireNumericTypes(t *testing.T) {
	raw := [][]any{
		{float64(0), float64(1)},
		{int(2), int64(0)},
	}
	l, err := FromWire(raw)
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}
	if l.TileKind(1, 0) != core.TileWall {
		t.Errorf("float64 cell decoded to %v", l.TileKind(1, 0))
	}
	if l.TileKind(0, 1) != core.TileAltFloor {
		t.Errorf("int cell decoded to %v", l.TileKind(0, 1))
	}
}

func TestFromWireRejectsBadCells(t *testing.T) {
	if _, err := FromWire([][]any{{float64(7)}}); err == nil {
		t.Error("expected error for out-of-range numeric cell")
	}
	if _, err := FromWire([][]any{{"Z"}}); err == nil {
		t.Error("expected error for unknown string cell")
	}
	if _, err := FromWire([][]any{{true}}); err == nil {
		t.Error("expected error for unsupported cell type")
	}
	if _, err := FromWire(nil); err == nil {
		t.Error("expected error for empty matrix")
	}
}

func TestFallbackIsUnenterable(t *testing.T) {
	l := Fallback()
	if l.Cols() != 1 || l.Rows() != 1 {
		t.Fatalf("fallback size = %dx%d", l.Cols(), l.Rows())
	}
	if l.IsValidTerrain(0, 0) {
		t.Error("fallback cell must not be standable")
	}
}
