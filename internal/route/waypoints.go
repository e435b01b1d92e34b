// Package route bridges pathfinder output and the path follower: it maps
// grid-space routes to world-space waypoint polylines and flags wormhole
// jumps so callers can animate them as teleports.
package route

import (
	"gridwalk/server/internal/grid"
	"gridwalk/server/internal/pathfollow"
)

// IsWormholeJump reports whether two consecutive route cells are a teleport
// rather than an orthogonal step. Renderers use the same threshold.
func IsWormholeJump(a, b grid.Position) bool {
	return grid.ManhattanDistance(a, b) > 1
}

// CellCenter returns the world-space center of a cell at the grid's ground
// plane.
func CellCenter(pos grid.Position, cfg grid.Config) pathfollow.Waypoint {
	corner := grid.GridToWorld(pos.X, pos.Z, cfg)
	return pathfollow.Waypoint{
		X: corner.X + cfg.CellSize/2,
		Y: corner.Y,
		Z: corner.Z + cfg.CellSize/2,
	}
}

// Waypoints maps a route to the world-space centers of its cells, in order.
// Wormhole jumps stay adjacent entries in the polyline; the follower crosses
// them at travel speed unless the caller splits the path at the jump.
func Waypoints(cells []grid.Position, cfg grid.Config) []pathfollow.Waypoint {
	if len(cells) == 0 {
		return nil
	}
	out := make([]pathfollow.Waypoint, 0, len(cells))
	for _, pos := range cells {
		out = append(out, CellCenter(pos, cfg))
	}
	return out
}

// Jumps lists the indices i where cells[i] -> cells[i+1] is a wormhole jump.
func Jumps(cells []grid.Position) []int {
	var jumps []int
	for i := 0; i+1 < len(cells); i++ {
		if IsWormholeJump(cells[i], cells[i+1]) {
			jumps = append(jumps, i)
		}
	}
	return jumps
}
