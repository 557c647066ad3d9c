package snap

import "github.com/1broseidon/meterdeck/internal/platform"

// Side is the edge of a window that touches an attached neighbour.
type Side int

const (
	Left Side = iota
	Right
	Top
	Bottom
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// Opposite returns the side the neighbour records for the same contact.
func (s Side) Opposite() Side {
	switch s {
	case Left:
		return Right
	case Right:
		return Left
	case Top:
		return Bottom
	default:
		return Top
	}
}

// Graph records which windows are attached to which, and on what side.
// Every write touches both endpoints, so graph[a][b] == s always implies
// graph[b][a] == s.Opposite().
type Graph struct {
	edges map[platform.WindowID]map[platform.WindowID]Side
}

func NewGraph() *Graph {
	return &Graph{edges: make(map[platform.WindowID]map[platform.WindowID]Side)}
}

// Attach records that side of a touches b. An existing a/b entry is
// replaced rather than duplicated.
func (g *Graph) Attach(a, b platform.WindowID, side Side) {
	if a == b {
		return
	}
	g.set(a, b, side)
	g.set(b, a, side.Opposite())
}

func (g *Graph) set(from, to platform.WindowID, side Side) {
	m := g.edges[from]
	if m == nil {
		m = make(map[platform.WindowID]Side)
		g.edges[from] = m
	}
	m[to] = side
}

// Detach forgets the attachment between a and b in both directions.
func (g *Graph) Detach(a, b platform.WindowID) {
	g.unset(a, b)
	g.unset(b, a)
}

func (g *Graph) unset(from, to platform.WindowID) {
	m := g.edges[from]
	if m == nil {
		return
	}
	delete(m, to)
	if len(m) == 0 {
		delete(g.edges, from)
	}
}

// Remove deletes id and every attachment that references it.
func (g *Graph) Remove(id platform.WindowID) {
	for other := range g.edges[id] {
		g.unset(other, id)
	}
	delete(g.edges, id)
}

// Clear forgets every attachment.
func (g *Graph) Clear() {
	g.edges = make(map[platform.WindowID]map[platform.WindowID]Side)
}

// Side reports the side of a attached to b.
func (g *Graph) Side(a, b platform.WindowID) (Side, bool) {
	side, ok := g.edges[a][b]
	return side, ok
}

// Neighbors returns a copy of a's attachment map.
func (g *Graph) Neighbors(id platform.WindowID) map[platform.WindowID]Side {
	out := make(map[platform.WindowID]Side, len(g.edges[id]))
	for k, v := range g.edges[id] {
		out[k] = v
	}
	return out
}

// Degree returns how many windows id is attached to.
func (g *Graph) Degree(id platform.WindowID) int {
	return len(g.edges[id])
}
