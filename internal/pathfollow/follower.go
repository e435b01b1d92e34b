// Package pathfollow advances a moving point along a 3D polyline by speed
// and elapsed time, producing interpolated positions and facing yaw.
package pathfollow

import "math"

// Waypoint is a world-space point on a follow path.
type Waypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// State is an immutable follower snapshot. CurrentIndex addresses the
// segment [CurrentIndex, CurrentIndex+1]; Progress is the fraction of that
// segment already traveled. Advance never mutates a State or its waypoints.
type State struct {
	Waypoints    []Waypoint `json:"waypoints"`
	CurrentIndex int        `json:"currentIndex"`
	Progress     float64    `json:"progress"`
}

// NewState starts a follower at the beginning of the given polyline.
func NewState(waypoints []Waypoint) State {
	return State{Waypoints: waypoints}
}

// Result reports a follower position after one advancement. IsComplete is
// not persisted in State; callers check it every tick and stop advancing
// once it turns true. Further calls simply re-confirm completion.
type Result struct {
	Position   Waypoint
	Rotation   float64
	State      State
	IsComplete bool
}

func segmentLength(a, b Waypoint) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func lerp(a, b Waypoint, fraction float64) Waypoint {
	return Waypoint{
		X: a.X + (b.X-a.X)*fraction,
		Y: a.Y + (b.Y-a.Y)*fraction,
		Z: a.Z + (b.Z-a.Z)*fraction,
	}
}

// yaw is the facing angle from a toward b, with 0 radians looking down -Z.
func yaw(a, b Waypoint) float64 {
	dx := b.X - a.X
	dz := b.Z - a.Z
	if dx == 0 && dz == 0 {
		return 0
	}
	return math.Atan2(dx, -dz)
}

// Advance distributes speed*delta of travel across the polyline starting at
// the state's segment and progress. Zero-length segments are skipped without
// consuming distance; overshoot past the final waypoint clamps there.
func Advance(state State, speed, delta float64) Result {
	waypoints := state.Waypoints
	if len(waypoints) < 2 {
		position := Waypoint{}
		if len(waypoints) == 1 {
			position = waypoints[0]
		}
		return Result{Position: position, Rotation: 0, State: state, IsComplete: true}
	}

	lastSegment := len(waypoints) - 2
	idx := state.CurrentIndex
	if idx < 0 {
		idx = 0
	}
	if idx > lastSegment {
		idx = lastSegment
	}
	progress := state.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	remaining := speed * delta
	if remaining < 0 {
		remaining = 0
	}

	for {
		a := waypoints[idx]
		b := waypoints[idx+1]
		length := segmentLength(a, b)

		if length == 0 {
			if idx == lastSegment {
				return Result{
					Position:   b,
					Rotation:   yaw(a, b),
					State:      State{Waypoints: waypoints, CurrentIndex: idx, Progress: 1},
					IsComplete: true,
				}
			}
			idx++
			progress = 0
			continue
		}

		segmentRemaining := (1 - progress) * length
		if remaining < segmentRemaining {
			progress += remaining / length
			return Result{
				Position: lerp(a, b, progress),
				Rotation: yaw(a, b),
				State:    State{Waypoints: waypoints, CurrentIndex: idx, Progress: progress},
			}
		}

		remaining -= segmentRemaining
		if idx == lastSegment {
			return Result{
				Position:   b,
				Rotation:   yaw(a, b),
				State:      State{Waypoints: waypoints, CurrentIndex: idx, Progress: 1},
				IsComplete: true,
			}
		}
		idx++
		progress = 0
	}
}

// TotalLength sums the segment lengths of a polyline.
func TotalLength(waypoints []Waypoint) float64 {
	total := 0.0
	for i := 0; i+1 < len(waypoints); i++ {
		total += segmentLength(waypoints[i], waypoints[i+1])
	}
	return total
}
