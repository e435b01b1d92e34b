package grid

import "math"

// WorldPoint is a position on the grid plane in world units.
type WorldPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// GridToWorld maps integer grid coordinates to the world-space corner of the
// cell. The grid is centered on the config offset and planar, so Y is always
// the offset's Y.
func GridToWorld(gridX, gridZ int, cfg Config) WorldPoint {
	return WorldPoint{
		X: (float64(gridX)-float64(cfg.Width)/2)*cfg.CellSize + cfg.CenterOffset.X,
		Y: cfg.CenterOffset.Y,
		Z: (float64(gridZ)-float64(cfg.Height)/2)*cfg.CellSize + cfg.CenterOffset.Z,
	}
}

// WorldToGrid inverts GridToWorld via floor. Integer grid coordinates
// round-trip exactly: WorldToGrid(GridToWorld(x, z, cfg), cfg) == {x, z}.
func WorldToGrid(world WorldPoint, cfg Config) Position {
	return Position{
		X: int(math.Floor((world.X-cfg.CenterOffset.X)/cfg.CellSize + float64(cfg.Width)/2)),
		Z: int(math.Floor((world.Z-cfg.CenterOffset.Z)/cfg.CellSize + float64(cfg.Height)/2)),
	}
}
