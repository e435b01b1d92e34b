package pathfollow

import (
	"math"
	"reflect"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func almostEqualWaypoint(a, b Waypoint) bool {
	return almostEqual(a.X, b.X) && almostEqual(a.Y, b.Y) && almostEqual(a.Z, b.Z)
}

func TestAdvanceLinearSegment(t *testing.T) {
	state := NewState([]Waypoint{{0, 0, 0}, {10, 0, 0}})
	result := Advance(state, 5, 1)

	if result.IsComplete {
		t.Fatal("halfway along the path should not be complete")
	}
	if !almostEqualWaypoint(result.Position, Waypoint{5, 0, 0}) {
		t.Fatalf("expected position (5,0,0), got %+v", result.Position)
	}
	if !almostEqual(result.State.Progress, 0.5) || result.State.CurrentIndex != 0 {
		t.Fatalf("unexpected state %+v", result.State)
	}
}

func TestAdvanceExactArrival(t *testing.T) {
	waypoints := []Waypoint{{0, 0, 0}, {3, 0, 0}, {3, 0, 4}}
	total := TotalLength(waypoints)
	if !almostEqual(total, 7) {
		t.Fatalf("unexpected total length %v", total)
	}

	result := Advance(NewState(waypoints), total, 1)
	if !result.IsComplete {
		t.Fatal("advancing exactly the total length should complete")
	}
	if !almostEqualWaypoint(result.Position, waypoints[2]) {
		t.Fatalf("expected final waypoint, got %+v", result.Position)
	}
}

func TestAdvanceOvershootClamps(t *testing.T) {
	waypoints := []Waypoint{{0, 0, 0}, {10, 0, 0}}
	result := Advance(NewState(waypoints), 100, 1)
	if !result.IsComplete {
		t.Fatal("overshoot should complete")
	}
	if !almostEqualWaypoint(result.Position, waypoints[1]) {
		t.Fatalf("overshoot should clamp to last waypoint, got %+v", result.Position)
	}
	if result.State.Progress != 1 {
		t.Fatalf("expected progress pinned at 1, got %v", result.State.Progress)
	}
}

func TestAdvanceAcrossSegments(t *testing.T) {
	waypoints := []Waypoint{{0, 0, 0}, {2, 0, 0}, {2, 0, 2}}
	result := Advance(NewState(waypoints), 3, 1)

	if result.IsComplete {
		t.Fatal("should not be complete mid second segment")
	}
	if result.State.CurrentIndex != 1 {
		t.Fatalf("expected follower on segment 1, got %d", result.State.CurrentIndex)
	}
	if !almostEqualWaypoint(result.Position, Waypoint{2, 0, 1}) {
		t.Fatalf("expected (2,0,1), got %+v", result.Position)
	}
}

func TestAdvanceSkipsZeroLengthSegments(t *testing.T) {
	waypoints := []Waypoint{{0, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 3}}
	result := Advance(NewState(waypoints), 2, 1)

	if result.IsComplete {
		t.Fatal("should still be traveling")
	}
	if result.State.CurrentIndex != 3 {
		t.Fatalf("expected duplicates skipped to segment 3, got %d", result.State.CurrentIndex)
	}
	if !almostEqualWaypoint(result.Position, Waypoint{1, 0, 1}) {
		t.Fatalf("expected (1,0,1), got %+v", result.Position)
	}
}

func TestAdvanceDegenerateInputs(t *testing.T) {
	t.Run("no waypoints", func(t *testing.T) {
		result := Advance(NewState(nil), 5, 1)
		if !result.IsComplete {
			t.Fatal("empty path should complete immediately")
		}
		if result.Position != (Waypoint{}) || result.Rotation != 0 {
			t.Fatalf("expected origin and zero rotation, got %+v / %v", result.Position, result.Rotation)
		}
	})

	t.Run("single waypoint", func(t *testing.T) {
		sole := Waypoint{4, 5, 6}
		result := Advance(NewState([]Waypoint{sole}), 5, 1)
		if !result.IsComplete || result.Position != sole {
			t.Fatalf("expected completion at sole waypoint, got %+v", result)
		}
	})

	t.Run("all zero-length segments", func(t *testing.T) {
		point := Waypoint{1, 2, 3}
		result := Advance(NewState([]Waypoint{point, point, point}), 5, 1)
		if !result.IsComplete || !almostEqualWaypoint(result.Position, point) {
			t.Fatalf("expected completion at degenerate path end, got %+v", result)
		}
	})
}

func TestAdvanceZeroSpeedHoldsPosition(t *testing.T) {
	state := State{Waypoints: []Waypoint{{0, 0, 0}, {10, 0, 0}}, CurrentIndex: 0, Progress: 0.25}
	result := Advance(state, 0, 1)
	if result.IsComplete {
		t.Fatal("zero speed should not complete a path with distance left")
	}
	if !almostEqualWaypoint(result.Position, Waypoint{2.5, 0, 0}) {
		t.Fatalf("expected position held at (2.5,0,0), got %+v", result.Position)
	}
	if !almostEqual(result.State.Progress, 0.25) {
		t.Fatalf("progress drifted to %v", result.State.Progress)
	}
}

func TestAdvanceRotationConvention(t *testing.T) {
	for _, tc := range []struct {
		name string
		to   Waypoint
		want float64
	}{
		{"negative z is forward", Waypoint{0, 0, -10}, 0},
		{"positive x faces right", Waypoint{10, 0, 0}, math.Pi / 2},
		{"negative x faces left", Waypoint{-10, 0, 0}, -math.Pi / 2},
		{"positive z faces back", Waypoint{0, 0, 10}, math.Pi},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result := Advance(NewState([]Waypoint{{0, 0, 0}, tc.to}), 1, 1)
			if !almostEqual(result.Rotation, tc.want) {
				t.Fatalf("expected yaw %v, got %v", tc.want, result.Rotation)
			}
		})
	}
}

func TestAdvanceRotationSnapsAtSegmentBoundary(t *testing.T) {
	waypoints := []Waypoint{{0, 0, 0}, {2, 0, 0}, {2, 0, 2}}

	// Exactly consuming the first segment lands at progress 0 of the second,
	// which already reports the second segment's bearing.
	result := Advance(NewState(waypoints), 2, 1)
	if result.State.CurrentIndex != 1 || !almostEqual(result.State.Progress, 0) {
		t.Fatalf("expected start of segment 1, got %+v", result.State)
	}
	if !almostEqual(result.Rotation, math.Pi) {
		t.Fatalf("expected bearing of second segment (pi), got %v", result.Rotation)
	}
}

func TestAdvanceNeverMutatesInput(t *testing.T) {
	waypoints := []Waypoint{{0, 0, 0}, {5, 0, 0}, {5, 0, 5}}
	state := State{Waypoints: waypoints, CurrentIndex: 0, Progress: 0.2}
	snapshot := State{
		Waypoints:    append([]Waypoint(nil), waypoints...),
		CurrentIndex: state.CurrentIndex,
		Progress:     state.Progress,
	}

	Advance(state, 7, 0.5)

	if state.CurrentIndex != snapshot.CurrentIndex || state.Progress != snapshot.Progress {
		t.Fatalf("input state mutated: %+v", state)
	}
	if !reflect.DeepEqual(state.Waypoints, snapshot.Waypoints) {
		t.Fatalf("input waypoints mutated: %+v", state.Waypoints)
	}
}

func TestAdvanceAfterArrivalReconfirms(t *testing.T) {
	waypoints := []Waypoint{{0, 0, 0}, {1, 0, 0}}
	first := Advance(NewState(waypoints), 10, 1)
	if !first.IsComplete {
		t.Fatal("expected completion")
	}
	second := Advance(first.State, 10, 1)
	if !second.IsComplete {
		t.Fatal("expected repeated calls to re-confirm completion")
	}
	if !almostEqualWaypoint(second.Position, waypoints[1]) {
		t.Fatalf("arrived follower moved to %+v", second.Position)
	}
}
