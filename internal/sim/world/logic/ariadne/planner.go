package ariadne

import (
	"container/heap"
	"errors"
	"fmt"

	"dungeonnav.ai/internal/sim/world/kernel/coord"
	"dungeonnav.ai/internal/sim/world/logic/collide"
	"dungeonnav.ai/internal/sim/world/logic/mathx"
)

var ErrNoPath = errors.New("no path")

// Planner produces the waypoints from one position to another. The first
// waypoint is the first point to head for, the last one is the destination.
type Planner interface {
	Plan(mv collide.Mover, from, to coord.Pos) ([]coord.Pos, error)
}

// GridPlanner runs A* over map tiles with four neighbours and compresses the
// tile path into its turning points.
type GridPlanner struct {
	Probe *collide.Probe
}

func NewGridPlanner(p *collide.Probe) *GridPlanner {
	return &GridPlanner{Probe: p}
}

type pathNode struct {
	tile   coord.Tile
	g      int
	h      int
	seq    int
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

// Less breaks ties on the heuristic and then on insertion order so equal
// cost paths always come out the same way.
func (pq pathQueue) Less(i, j int) bool {
	fi, fj := pq[i].g+pq[i].h, pq[j].g+pq[j].h
	if fi != fj {
		return fi < fj
	}
	if pq[i].h != pq[j].h {
		return pq[i].h < pq[j].h
	}
	return pq[i].seq < pq[j].seq
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

func manhattan(a, b coord.Tile) int {
	return mathx.AbsInt(a.X-b.X) + mathx.AbsInt(a.Y-b.Y)
}

func (gp *GridPlanner) walkable(mv collide.Mover, t coord.Tile) bool {
	m := gp.Probe.Map
	return m.InBounds(t) && !gp.Probe.Blocks(mv, m.At(t))
}

// Tiles returns the tile path from start to goal inclusive.
func (gp *GridPlanner) Tiles(mv collide.Mover, start, goal coord.Tile) ([]coord.Tile, error) {
	m := gp.Probe.Map
	if !m.InBounds(start) || !m.InBounds(goal) {
		return nil, fmt.Errorf("plan %v -> %v: %w", start, goal, ErrNoPath)
	}
	if start == goal {
		return []coord.Tile{start}, nil
	}
	if !gp.walkable(mv, goal) {
		return nil, fmt.Errorf("plan %v -> %v: goal blocked: %w", start, goal, ErrNoPath)
	}

	idx := func(t coord.Tile) int { return t.X + t.Y*m.W }
	gScore := make([]int, m.W*m.H)
	for i := range gScore {
		gScore[i] = -1
	}
	closed := make([]bool, m.W*m.H)

	open := &pathQueue{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &pathNode{tile: start, h: manhattan(start, goal), seq: seq})
	gScore[idx(start)] = 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*pathNode)
		ci := idx(cur.tile)
		if closed[ci] {
			continue
		}
		closed[ci] = true
		if cur.tile == goal {
			return reconstruct(cur), nil
		}
		for _, d := range mathx.SmallAround {
			nt := cur.tile.Add(d.X, d.Y)
			if !gp.walkable(mv, nt) {
				continue
			}
			ni := idx(nt)
			if closed[ni] {
				continue
			}
			g := cur.g + 1
			if prev := gScore[ni]; prev >= 0 && g >= prev {
				continue
			}
			gScore[ni] = g
			seq++
			heap.Push(open, &pathNode{tile: nt, g: g, h: manhattan(nt, goal), seq: seq, parent: cur})
		}
	}
	return nil, fmt.Errorf("plan %v -> %v: %w", start, goal, ErrNoPath)
}

func reconstruct(end *pathNode) []coord.Tile {
	path := make([]coord.Tile, 0, end.g+1)
	for n := end; n != nil; n = n.parent {
		path = append(path, n.tile)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Plan implements Planner.
func (gp *GridPlanner) Plan(mv collide.Mover, from, to coord.Pos) ([]coord.Pos, error) {
	tiles, err := gp.Tiles(mv, from.Tile(), to.Tile())
	if err != nil {
		return nil, err
	}
	out := make([]coord.Pos, 0, 16)
	for i := 1; i+1 < len(tiles); i++ {
		in := coord.Tile{X: tiles[i].X - tiles[i-1].X, Y: tiles[i].Y - tiles[i-1].Y}
		next := coord.Tile{X: tiles[i+1].X - tiles[i].X, Y: tiles[i+1].Y - tiles[i].Y}
		if in != next {
			c := tiles[i].Center()
			c.Z = to.Z
			out = append(out, c)
		}
	}
	out = append(out, to)
	if len(out) > PathCapacity {
		out = out[:PathCapacity]
	}
	return out, nil
}

// Connected reports whether a walkable path joins the two tiles.
func (gp *GridPlanner) Connected(mv collide.Mover, a, b coord.Tile) bool {
	_, err := gp.Tiles(mv, a, b)
	return err == nil
}
