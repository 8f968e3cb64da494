// Package pathfind implements A* over a room's dynamic walkability.
package pathfind

import (
	"container/heap"

	"github.com/lixenwraith/pixelden/core"
)

// WalkFunc answers whether an avatar may stand on (x,y) right now.
// Furniture changes are reflected on the next query; paths are not
// revalidated retroactively.
type WalkFunc func(x, y int) bool

// Search bounds one A* run. Cols and Rows size the node cap.
type Search struct {
	Cols int
	Rows int
	Walk WalkFunc
}

type node struct {
	cell    core.Point
	g       int // cost from start
	f       int // g + heuristic
	parent  *node
	heapIdx int
	closed  bool
}

type openHeap []*node

func (h openHeap) Len() int            { return len(h) }
func (h openHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h openHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].heapIdx = i; h[j].heapIdx = j }
func (h *openHeap) Push(x any)         { n := x.(*node); n.heapIdx = len(*h); *h = append(*h, n) }
func (h *openHeap) Pop() any           { old := *h; n := old[len(old)-1]; *h = old[:len(old)-1]; return n }

var neighborSteps = [4]core.Point{{X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0}}

// FindPath returns the waypoints from start to goal inclusive, or nil when
// no path exists. 4-connected, uniform edge cost, Manhattan heuristic.
// Work is capped at 2*cols*rows expanded nodes; past the cap the search
// reports no path rather than scanning further.
func (s Search) FindPath(start, goal core.Point) []core.Point {
	if start == goal {
		return []core.Point{start}
	}
	if !s.Walk(goal.X, goal.Y) {
		return nil
	}

	nodeCap := 2 * s.Cols * s.Rows
	nodes := make(map[core.Point]*node, 64)

	startNode := &node{cell: start, g: 0, f: core.ManhattanDist(start, goal)}
	nodes[start] = startNode

	open := openHeap{startNode}
	heap.Init(&open)

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(&open).(*node)
		cur.closed = true

		if cur.cell == goal {
			return rebuild(cur)
		}

		expanded++
		if expanded > nodeCap {
			return nil
		}

		for _, step := range neighborSteps {
			next := core.Point{X: cur.cell.X + step.X, Y: cur.cell.Y + step.Y}
			if next.X < 0 || next.X >= s.Cols || next.Y < 0 || next.Y >= s.Rows {
				continue
			}
			if !s.Walk(next.X, next.Y) {
				continue
			}

			g := cur.g + 1
			existing, seen := nodes[next]
			if !seen {
				n := &node{cell: next, g: g, f: g + core.ManhattanDist(next, goal), parent: cur}
				nodes[next] = n
				heap.Push(&open, n)
				continue
			}
			if existing.closed || g >= existing.g {
				continue
			}
			// Better route to a cell already on the open list.
			existing.g = g
			existing.f = g + core.ManhattanDist(next, goal)
			existing.parent = cur
			heap.Fix(&open, existing.heapIdx)
		}
	}
	return nil
}

func rebuild(n *node) []core.Point {
	count := 0
	for c := n; c != nil; c = c.parent {
		count++
	}
	path := make([]core.Point, count)
	for c := n; c != nil; c = c.parent {
		count--
		path[count] = c.cell
	}
	return path
}
