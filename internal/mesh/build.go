package mesh

import (
	"fmt"

	"meshforge/internal/geom"
)

// Triangulation is the raw description of a mesh: a point list, triangles
// as point-index triples, and boundary segments as point-index pairs.
// Indices are zero-based.
type Triangulation struct {
	Points    []geom.Point
	Triangles [][3]int
	Segments  [][2]int
}

// Build assembles the live graph: one node per element, adjacency wherever
// two elements share a geometric edge. Every edge of the triangulation must
// be covered by at most two elements.
func (tr *Triangulation) Build() (*Graph, error) {
	g := NewGraph()
	edgeOwners := make(map[geom.Edge][]*Node)

	addOwner := func(e geom.Edge, n *Node) error {
		owners := edgeOwners[e]
		if len(owners) >= 2 {
			return fmt.Errorf("%w: edge %v shared by more than two elements", ErrCorrupt, e)
		}
		edgeOwners[e] = append(owners, n)
		return nil
	}

	point := func(i int) (geom.Point, error) {
		if i < 0 || i >= len(tr.Points) {
			return geom.Point{}, fmt.Errorf("%w: point index %d out of range", ErrCorrupt, i)
		}
		return tr.Points[i], nil
	}

	for _, t := range tr.Triangles {
		var pts [3]geom.Point
		for i, idx := range t {
			p, err := point(idx)
			if err != nil {
				return nil, err
			}
			pts[i] = p
		}
		n := &Node{el: geom.NewTriangle(pts[0], pts[1], pts[2])}
		g.AddNode(n)
		for i := 0; i < 3; i++ {
			if err := addOwner(geom.NewEdge(pts[i], pts[(i+1)%3]), n); err != nil {
				return nil, err
			}
		}
	}

	for _, s := range tr.Segments {
		a, err := point(s[0])
		if err != nil {
			return nil, err
		}
		b, err := point(s[1])
		if err != nil {
			return nil, err
		}
		n := &Node{el: geom.NewSegment(a, b)}
		g.AddNode(n)
		if err := addOwner(geom.NewEdge(a, b), n); err != nil {
			return nil, err
		}
	}

	for _, owners := range edgeOwners {
		if len(owners) == 2 {
			g.AddEdge(owners[0], owners[1])
		}
	}
	return g, nil
}

// Grid returns a structured triangulation of a w-by-h rectangle split into
// nx-by-ny cells of two right triangles each, with boundary segments along
// the rectangle border. With square cells all triangles are right isosceles
// (45 degree minimum angle), so the mesh has no bad elements under the
// default quality threshold.
func Grid(nx, ny int, w, h float64) *Triangulation {
	tr := &Triangulation{}
	cols := nx + 1
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			tr.Points = append(tr.Points, geom.Point{
				X: w * float64(i) / float64(nx),
				Y: h * float64(j) / float64(ny),
			})
		}
	}
	at := func(i, j int) int { return j*cols + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			a, b := at(i, j), at(i+1, j)
			c, d := at(i+1, j+1), at(i, j+1)
			tr.Triangles = append(tr.Triangles, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	for i := 0; i < nx; i++ {
		tr.Segments = append(tr.Segments,
			[2]int{at(i, 0), at(i+1, 0)},
			[2]int{at(i, ny), at(i+1, ny)})
	}
	for j := 0; j < ny; j++ {
		tr.Segments = append(tr.Segments,
			[2]int{at(0, j), at(0, j+1)},
			[2]int{at(nx, j), at(nx, j+1)})
	}
	return tr
}

// BadNodes returns the nodes whose elements violate the quality threshold.
// Single-threaded scan; intended for seeding and verification, not for use
// while workers are running.
func BadNodes(g *Graph, minAngle float64) []*Node {
	var bad []*Node
	for _, n := range g.Nodes() {
		if n.Data().BadBelow(minAngle) {
			bad = append(bad, n)
		}
	}
	return bad
}

// Check verifies structural consistency of the live graph: adjacent
// elements actually share an edge, every triangle has exactly three
// neighbors and every segment exactly one.
func Check(g *Graph) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for n := range g.nodes {
		deg := len(g.adj[n])
		switch n.el.Dim() {
		case 3:
			if deg != 3 {
				return fmt.Errorf("%w: triangle %v has %d neighbors", ErrCorrupt, n.el, deg)
			}
		case 2:
			if deg != 1 {
				return fmt.Errorf("%w: segment %v has %d neighbors", ErrCorrupt, n.el, deg)
			}
		}
		for nb := range g.adj[n] {
			if _, live := g.nodes[nb]; !live {
				return fmt.Errorf("%w: adjacency to removed node from %v", ErrCorrupt, n.el)
			}
			if !n.el.IsRelated(nb.Data()) {
				return fmt.Errorf("%w: adjacent elements %v and %v share no edge", ErrCorrupt, n.el, nb.Data())
			}
		}
	}
	return nil
}
