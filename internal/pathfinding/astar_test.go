package pathfinding

import (
	"testing"

	"gridwalk/server/internal/grid"
)

func newGrid(t *testing.T, width, height int) *grid.Grid {
	t.Helper()
	return grid.New(grid.Config{Width: width, Height: height, CellSize: 1})
}

func setCell(t *testing.T, g *grid.Grid, x, z int, cellType grid.CellType) *grid.Grid {
	t.Helper()
	next, err := g.SetCellType(x, z, cellType)
	if err != nil {
		t.Fatalf("SetCellType(%d,%d,%s) failed: %v", x, z, cellType, err)
	}
	return next
}

func requireAdjacencyInvariant(t *testing.T, g *grid.Grid, route []grid.Position) {
	t.Helper()
	for i := 0; i+1 < len(route); i++ {
		dist := grid.ManhattanDistance(route[i], route[i+1])
		if dist == 1 {
			continue
		}
		from, _ := g.CellAt(route[i].X, route[i].Z)
		to, _ := g.CellAt(route[i+1].X, route[i+1].Z)
		if from.Type == grid.CellWormholeEntrance && to.Type == grid.CellWormholeExit {
			continue
		}
		t.Fatalf("step %d: %+v -> %+v is neither adjacent nor a wormhole jump", i, route[i], route[i+1])
	}
}

func TestBestRouteUniformCostOptimal(t *testing.T) {
	g := newGrid(t, 5, 5)
	start := grid.Position{X: 0, Z: 0}
	goal := grid.Position{X: 4, Z: 4}

	route, ok := BestRoute(g, start, goal)
	if !ok {
		t.Fatal("expected a route on an empty grid")
	}
	if want := 1 + grid.ManhattanDistance(start, goal); len(route) != want {
		t.Fatalf("expected route length %d, got %d", want, len(route))
	}
	if route[0] != start || route[len(route)-1] != goal {
		t.Fatalf("route endpoints wrong: %+v ... %+v", route[0], route[len(route)-1])
	}
	requireAdjacencyInvariant(t, g, route)
}

func TestBestRouteIdenticalStartAndGoal(t *testing.T) {
	g := newGrid(t, 3, 3)
	route, ok := BestRoute(g, grid.Position{X: 1, Z: 1}, grid.Position{X: 1, Z: 1})
	if !ok || len(route) != 1 || route[0] != (grid.Position{X: 1, Z: 1}) {
		t.Fatalf("expected single-element route, got %+v (ok=%v)", route, ok)
	}
}

func TestBestRouteStartOnBoulderFails(t *testing.T) {
	g := setCell(t, newGrid(t, 3, 3), 1, 1, grid.CellBoulder)
	if _, ok := BestRoute(g, grid.Position{X: 1, Z: 1}, grid.Position{X: 1, Z: 1}); ok {
		t.Fatal("expected failure when start is a boulder, even with start == goal")
	}
}

func TestBestRouteOutOfBounds(t *testing.T) {
	g := newGrid(t, 3, 3)
	for _, tc := range []struct {
		name        string
		start, goal grid.Position
	}{
		{"start", grid.Position{X: -1, Z: 0}, grid.Position{X: 2, Z: 2}},
		{"goal", grid.Position{X: 0, Z: 0}, grid.Position{X: 3, Z: 0}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := BestRoute(g, tc.start, tc.goal); ok {
				t.Fatal("expected failure for out-of-bounds query")
			}
		})
	}
}

func TestBestRouteUnreachableGoal(t *testing.T) {
	g := newGrid(t, 5, 5)
	enclosure, err := g.MarkObstacles([]grid.Position{
		{X: 3, Z: 3}, {X: 3, Z: 4}, {X: 4, Z: 3},
	})
	if err != nil {
		t.Fatalf("MarkObstacles failed: %v", err)
	}
	if _, ok := BestRoute(enclosure, grid.Position{X: 0, Z: 0}, grid.Position{X: 4, Z: 4}); ok {
		t.Fatal("expected no route to an enclosed goal")
	}
}

func TestBestRouteAvoidsGravelWhenFreeRouteExists(t *testing.T) {
	// Two L-shaped routes of equal geometric length from corner to corner;
	// one passes through gravel, the other stays on empty cells.
	g := newGrid(t, 2, 2)
	g = setCell(t, g, 1, 0, grid.CellGravel)

	route, ok := BestRoute(g, grid.Position{X: 0, Z: 0}, grid.Position{X: 1, Z: 1})
	if !ok {
		t.Fatal("expected a route")
	}
	if len(route) != 3 {
		t.Fatalf("expected 3 cells, got %+v", route)
	}
	for _, pos := range route {
		cell, _ := g.CellAt(pos.X, pos.Z)
		if cell.Type == grid.CellGravel {
			t.Fatalf("route crosses gravel at %+v despite an equal-length free route", pos)
		}
	}
	requireAdjacencyInvariant(t, g, route)
}

func TestBestRouteTakesGravelWhenOnlyPath(t *testing.T) {
	// A 3-wide corridor fully walled except a single gravel gap.
	g := newGrid(t, 3, 3)
	g = setCell(t, g, 0, 1, grid.CellBoulder)
	g = setCell(t, g, 1, 1, grid.CellGravel)
	g = setCell(t, g, 2, 1, grid.CellBoulder)

	route, ok := BestRoute(g, grid.Position{X: 1, Z: 0}, grid.Position{X: 1, Z: 2})
	if !ok {
		t.Fatal("expected route through the gravel gap")
	}
	found := false
	for _, pos := range route {
		if pos == (grid.Position{X: 1, Z: 1}) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected route to pass through gravel gap, got %+v", route)
	}
}

func TestBestRouteWormholeShortcut(t *testing.T) {
	g := newGrid(t, 10, 1)
	g = setCell(t, g, 1, 0, grid.CellWormholeEntrance)
	g = setCell(t, g, 8, 0, grid.CellWormholeExit)

	route, ok := BestRoute(g, grid.Position{X: 0, Z: 0}, grid.Position{X: 9, Z: 0})
	if !ok {
		t.Fatal("expected a route")
	}
	// start -> entrance -> exit (jump) -> goal
	want := []grid.Position{{X: 0, Z: 0}, {X: 1, Z: 0}, {X: 8, Z: 0}, {X: 9, Z: 0}}
	if len(route) != len(want) {
		t.Fatalf("expected %d cells, got %+v", len(want), route)
	}
	for i := range want {
		if route[i] != want[i] {
			t.Fatalf("step %d: expected %+v, got %+v", i, want[i], route[i])
		}
	}
	if grid.ManhattanDistance(route[1], route[2]) <= 1 {
		t.Fatal("wormhole jump should be a non-adjacent consecutive pair")
	}
}

func TestBestRouteWormholeMultipleExits(t *testing.T) {
	g := newGrid(t, 12, 1)
	g = setCell(t, g, 1, 0, grid.CellWormholeEntrance)
	g = setCell(t, g, 5, 0, grid.CellWormholeExit)
	g = setCell(t, g, 10, 0, grid.CellWormholeExit)

	route, ok := BestRoute(g, grid.Position{X: 0, Z: 0}, grid.Position{X: 11, Z: 0})
	if !ok {
		t.Fatal("expected a route")
	}
	// The far exit lands one step from the goal; any shortest route uses it.
	if len(route) != 4 {
		t.Fatalf("expected 4 cells via the far exit, got %+v", route)
	}
	if route[2] != (grid.Position{X: 10, Z: 0}) {
		t.Fatalf("expected jump to far exit, got %+v", route)
	}
	requireAdjacencyInvariant(t, g, route)
}

func TestBestRouteObstacleDetour(t *testing.T) {
	g := newGrid(t, 5, 5)
	var err error
	g, err = g.MarkObstacles([]grid.Position{{X: 2, Z: 0}, {X: 2, Z: 1}, {X: 2, Z: 2}, {X: 2, Z: 3}})
	if err != nil {
		t.Fatalf("MarkObstacles failed: %v", err)
	}
	route, ok := BestRoute(g, grid.Position{X: 0, Z: 0}, grid.Position{X: 4, Z: 0})
	if !ok {
		t.Fatal("expected a detour route")
	}
	requireAdjacencyInvariant(t, g, route)
	for _, pos := range route {
		if !g.IsWalkable(pos.X, pos.Z) {
			t.Fatalf("route enters blocked cell %+v", pos)
		}
	}
	// Around a wall reaching row 3 the detour runs through row 4.
	if want := 13; len(route) != want {
		t.Fatalf("expected detour length %d, got %d: %+v", want, len(route), route)
	}
}
