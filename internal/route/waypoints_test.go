package route

import (
	"reflect"
	"testing"

	"gridwalk/server/internal/grid"
	"gridwalk/server/internal/pathfollow"
)

func TestCellCenter(t *testing.T) {
	cfg := grid.Config{Width: 4, Height: 4, CellSize: 2, CenterOffset: grid.Offset{Y: 0.25}}
	center := CellCenter(grid.Position{X: 0, Z: 0}, cfg)
	want := pathfollow.Waypoint{X: -3, Y: 0.25, Z: -3}
	if center != want {
		t.Fatalf("expected %+v, got %+v", want, center)
	}
}

func TestCellCenterRoundTrips(t *testing.T) {
	cfg := grid.Config{Width: 7, Height: 5, CellSize: 1.5, CenterOffset: grid.Offset{X: 2, Y: 1, Z: -4}}
	for z := 0; z < cfg.Height; z++ {
		for x := 0; x < cfg.Width; x++ {
			center := CellCenter(grid.Position{X: x, Z: z}, cfg)
			back := grid.WorldToGrid(grid.WorldPoint{X: center.X, Y: center.Y, Z: center.Z}, cfg)
			if back.X != x || back.Z != z {
				t.Fatalf("center of (%d,%d) resolved to %+v", x, z, back)
			}
		}
	}
}

func TestWaypointsPreserveOrder(t *testing.T) {
	cfg := grid.Config{Width: 3, Height: 3, CellSize: 1}
	cells := []grid.Position{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 1, Z: 1}}
	waypoints := Waypoints(cells, cfg)
	if len(waypoints) != len(cells) {
		t.Fatalf("expected %d waypoints, got %d", len(cells), len(waypoints))
	}
	for i, pos := range cells {
		if waypoints[i] != CellCenter(pos, cfg) {
			t.Fatalf("waypoint %d out of order", i)
		}
	}
	if Waypoints(nil, cfg) != nil {
		t.Fatal("expected nil for empty route")
	}
}

func TestJumpDetection(t *testing.T) {
	cells := []grid.Position{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 8, Z: 0}, {X: 9, Z: 0}}
	if !IsWormholeJump(cells[1], cells[2]) {
		t.Fatal("expected non-adjacent pair to register as jump")
	}
	if IsWormholeJump(cells[0], cells[1]) {
		t.Fatal("orthogonal step misdetected as jump")
	}
	if got := Jumps(cells); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("expected jump at index 1, got %v", got)
	}
	if got := Jumps(cells[:2]); got != nil {
		t.Fatalf("expected no jumps, got %v", got)
	}
}
