// Package pathfinding implements deterministic A* search over a terrain
// grid, including free teleport edges between wormhole entrances and exits.
package pathfinding

import (
	"container/heap"

	"gridwalk/server/internal/grid"
)

var neighborOffsets = [...]grid.Position{
	{X: 0, Z: -1},
	{X: 1, Z: 0},
	{X: 0, Z: 1},
	{X: -1, Z: 0},
}

type pathNode struct {
	point  grid.Position
	g      float64
	h      float64
	f      float64
	index  int
	parent *pathNode
}

// pathQueue orders open nodes by lowest f, breaking ties toward the lower
// heuristic so nodes closer to the goal pop first.
type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].h < pq[j].h
}

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func heuristic(a, b grid.Position) float64 {
	return float64(grid.ManhattanDistance(a, b))
}

// BestRoute runs A* from start to goal and returns the cell-by-cell route,
// inclusive of both endpoints. It reports false when start or goal is out of
// bounds, start is not walkable, or no route exists. Consecutive entries are
// orthogonally adjacent except for entrance→exit wormhole jumps, which cost
// nothing beyond reaching the entrance.
func BestRoute(g *grid.Grid, start, goal grid.Position) ([]grid.Position, bool) {
	if g == nil || !g.InBounds(start.X, start.Z) || !g.InBounds(goal.X, goal.Z) {
		return nil, false
	}
	if !g.IsWalkable(start.X, start.Z) {
		return nil, false
	}
	if start == goal {
		return []grid.Position{start}, true
	}

	exits := g.CellsOfType(grid.CellWormholeExit)

	index := func(p grid.Position) int { return p.Z*g.Config.Width + p.X }

	open := &pathQueue{}
	heap.Init(open)
	startNode := &pathNode{point: start, g: 0, h: heuristic(start, goal), f: heuristic(start, goal)}
	heap.Push(open, startNode)
	gScore := map[int]float64{index(start): 0}
	closed := make(map[int]struct{})

	// Bounds worst-case work so a search can never stall the caller's tick.
	maxExpansions := g.Config.Width * g.Config.Height

	offer := func(current *pathNode, point grid.Position, tentativeG float64) {
		idx := index(point)
		if _, seen := closed[idx]; seen {
			return
		}
		if prev, ok := gScore[idx]; ok && tentativeG >= prev {
			return
		}
		gScore[idx] = tentativeG
		h := heuristic(point, goal)
		heap.Push(open, &pathNode{
			point:  point,
			g:      tentativeG,
			h:      h,
			f:      tentativeG + h,
			parent: current,
		})
	}

	expansions := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		currIdx := index(current.point)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		if current.point == goal {
			return reconstructRoute(current), true
		}
		expansions++
		if expansions > maxExpansions {
			break
		}

		for _, delta := range neighborOffsets {
			next := grid.Position{X: current.point.X + delta.X, Z: current.point.Z + delta.Z}
			cell, ok := g.CellAt(next.X, next.Z)
			if !ok || !cell.Type.Walkable() {
				continue
			}
			offer(current, next, current.g+cell.Type.MoveCost())
		}

		if cell, ok := g.CellAt(current.point.X, current.point.Z); ok && cell.Type == grid.CellWormholeEntrance {
			for _, exit := range exits {
				if exit == current.point {
					continue
				}
				offer(current, exit, current.g)
			}
		}
	}
	return nil, false
}

// reconstructRoute walks parent links back to the start, then reverses.
func reconstructRoute(end *pathNode) []grid.Position {
	if end == nil {
		return nil
	}
	route := make([]grid.Position, 0)
	for node := end; node != nil; node = node.parent {
		route = append(route, node.point)
	}
	for i := 0; i < len(route)/2; i++ {
		j := len(route) - 1 - i
		route[i], route[j] = route[j], route[i]
	}
	return route
}
