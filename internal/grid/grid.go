package grid

import "fmt"

// CellType enumerates the terrain kinds a cell can hold.
type CellType string

const (
	CellEmpty            CellType = "empty"
	CellBoulder          CellType = "boulder"
	CellGravel           CellType = "gravel"
	CellWormholeEntrance CellType = "wormholeEntrance"
	CellWormholeExit     CellType = "wormholeExit"
)

// ParseCellType maps a wire string to a CellType.
func ParseCellType(raw string) (CellType, bool) {
	switch CellType(raw) {
	case CellEmpty, CellBoulder, CellGravel, CellWormholeEntrance, CellWormholeExit:
		return CellType(raw), true
	}
	return "", false
}

// MoveCost is the cost of stepping into a cell of the given type. Boulders
// are never entered, so their cost is irrelevant.
func (t CellType) MoveCost() float64 {
	if t == CellGravel {
		return 2
	}
	return 1
}

// Walkable reports whether a cell of this type can be entered.
func (t CellType) Walkable() bool {
	return t != CellBoulder
}

// Position identifies a cell by integer grid coordinates.
type Position struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// ManhattanDistance returns |dx| + |dz| between two positions.
func ManhattanDistance(a, b Position) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dz := a.Z - b.Z
	if dz < 0 {
		dz = -dz
	}
	return dx + dz
}

// Cell is a single grid square with its own coordinates baked in.
type Cell struct {
	X    int      `json:"x"`
	Z    int      `json:"z"`
	Type CellType `json:"type"`
}

// Offset positions the grid plane in world space.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Config describes the shape and world placement of a grid.
type Config struct {
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	CellSize     float64 `json:"cellSize"`
	CenterOffset Offset  `json:"centerOffset"`
}

// Grid is an immutable 2D field of typed cells indexed [z][x]. Mutating
// operations return a new Grid and leave the receiver untouched; row slices
// may be shared between generations.
type Grid struct {
	Config Config
	Cells  [][]Cell
}

// ErrOutOfBounds is returned by mutating operations given coordinates
// outside the grid. Read paths report absence with a bool instead.
type ErrOutOfBounds struct {
	X int
	Z int
}

func (e ErrOutOfBounds) Error() string {
	return fmt.Sprintf("grid: cell (%d,%d) out of bounds", e.X, e.Z)
}

// New allocates a Width×Height grid with every cell set to CellEmpty.
func New(cfg Config) *Grid {
	cells := make([][]Cell, cfg.Height)
	for z := 0; z < cfg.Height; z++ {
		row := make([]Cell, cfg.Width)
		for x := 0; x < cfg.Width; x++ {
			row[x] = Cell{X: x, Z: z, Type: CellEmpty}
		}
		cells[z] = row
	}
	return &Grid{Config: cfg, Cells: cells}
}

// InBounds reports whether (x,z) addresses a cell of this grid.
func (g *Grid) InBounds(x, z int) bool {
	return g != nil && x >= 0 && z >= 0 && x < g.Config.Width && z < g.Config.Height
}

// CellAt returns the cell at (x,z).
func (g *Grid) CellAt(x, z int) (Cell, bool) {
	if !g.InBounds(x, z) {
		return Cell{}, false
	}
	return g.Cells[z][x], true
}

// IsWalkable reports whether the cell at (x,z) exists and can be entered.
func (g *Grid) IsWalkable(x, z int) bool {
	cell, ok := g.CellAt(x, z)
	return ok && cell.Type.Walkable()
}

// SetCellType returns a new grid with only the cell at (x,z) changed. The
// outer slice and the touched row are copied; untouched rows are shared.
func (g *Grid) SetCellType(x, z int, t CellType) (*Grid, error) {
	if !g.InBounds(x, z) {
		return nil, ErrOutOfBounds{X: x, Z: z}
	}
	cells := make([][]Cell, len(g.Cells))
	copy(cells, g.Cells)
	row := make([]Cell, len(g.Cells[z]))
	copy(row, g.Cells[z])
	row[x] = Cell{X: x, Z: z, Type: t}
	cells[z] = row
	return &Grid{Config: g.Config, Cells: cells}, nil
}

// MarkObstacle returns a new grid with the cell at (x,z) set to CellBoulder.
func (g *Grid) MarkObstacle(x, z int) (*Grid, error) {
	return g.SetCellType(x, z, CellBoulder)
}

// MarkObstacles folds MarkObstacle over the positions in order; repeated
// positions are harmless since the final write wins.
func (g *Grid) MarkObstacles(positions []Position) (*Grid, error) {
	current := g
	for _, pos := range positions {
		next, err := current.MarkObstacle(pos.X, pos.Z)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// CellsOfType collects every cell currently holding the given type, in row
// then column order.
func (g *Grid) CellsOfType(t CellType) []Position {
	if g == nil {
		return nil
	}
	var out []Position
	for z := range g.Cells {
		for x := range g.Cells[z] {
			if g.Cells[z][x].Type == t {
				out = append(out, Position{X: x, Z: z})
			}
		}
	}
	return out
}
