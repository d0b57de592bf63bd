// Package cavity implements one refinement step: locate the cavity around
// a bad element by chasing obtuse angles, grow it with circumcircle tests,
// retriangulate it around the new center vertex, and commit the replacement
// into the live graph.
//
// A Cavity is owned by exactly one task. All containers are reused across
// tasks through the engine's pool and reset in bulk.
package cavity

import (
	"fmt"

	"meshforge/internal/geom"
	"meshforge/internal/logging"
	"meshforge/internal/mesh"
)

// Connection is one boundary tuple: the cavity-interior node, the exterior
// node, and the geometric edge they share. Value-comparable, so duplicate
// detection is plain equality.
type Connection struct {
	Src, Dst *mesh.Node
	Edge     geom.Edge
}

type postEdge struct {
	src, dst *mesh.Node
}

// Cavity is the ephemeral state of one refinement task.
type Cavity struct {
	g *mesh.Graph
	t *mesh.Task

	center        geom.Point
	centerNode    *mesh.Node
	centerElement *geom.Element
	dim           int

	pre    []*mesh.Node
	preSet map[*mesh.Node]struct{}

	post      []*mesh.Node
	postEdges []postEdge

	connections []Connection

	frontier []*mesh.Node

	minAngle float64
}

// New returns an empty cavity. Reset must be called before each use.
func New() *Cavity {
	return &Cavity{preSet: make(map[*mesh.Node]struct{})}
}

// Reset binds the cavity to a task and clears all containers.
func (c *Cavity) Reset(g *mesh.Graph, t *mesh.Task, minAngle float64) {
	c.g = g
	c.t = t
	c.minAngle = minAngle
	c.centerNode = nil
	c.centerElement = nil
	c.dim = 0
	c.clearRegion()
	c.connections = c.connections[:0]
}

// clearRegion drops the growth state but not the recorded connections.
func (c *Cavity) clearRegion() {
	c.pre = c.pre[:0]
	for n := range c.preSet {
		delete(c.preSet, n)
	}
	c.post = c.post[:0]
	c.postEdges = c.postEdges[:0]
	c.frontier = c.frontier[:0]
}

func (c *Cavity) addPre(n *mesh.Node) {
	c.pre = append(c.pre, n)
	c.preSet[n] = struct{}{}
}

func (c *Cavity) inPre(n *mesh.Node) bool {
	_, ok := c.preSet[n]
	return ok
}

// Initialize locates the true cavity center starting from a bad seed:
// while the current center is still live and obtuse, hop to the node
// opposite the obtuse angle. A vanished node (removed by a concurrent
// commit) terminates the chase normally.
func (c *Cavity) Initialize(seed *mesh.Node) error {
	c.clearRegion()
	c.connections = c.connections[:0]
	return c.anchor(seed)
}

// anchor runs the obtuse chase and seeds the growth state, leaving any
// recorded connections alone. Shared by Initialize and segment
// re-anchoring.
func (c *Cavity) anchor(seed *mesh.Node) error {
	c.centerNode = seed
	el, err := c.t.Element(seed)
	if err != nil {
		return err
	}
	c.centerElement = el

	// The chase is expected to settle quickly; a walk longer than the
	// node count means two obtuse elements are bouncing the center back
	// and forth, which valid meshes do not produce.
	limit := c.g.NodeCount() + 1
	for steps := 0; ; steps++ {
		live, err := c.t.Contains(c.centerNode)
		if err != nil {
			return err
		}
		if !live || !c.centerElement.IsObtuse() {
			break
		}
		if steps >= limit {
			return fmt.Errorf("%w: obtuse chase did not settle after %d hops", mesh.ErrCorrupt, steps)
		}
		opp, err := c.getOpposite(c.centerNode)
		if err != nil {
			return err
		}
		c.centerNode = opp
		if c.centerElement, err = c.t.Element(opp); err != nil {
			return err
		}
	}

	c.center = c.centerElement.Center()
	c.dim = c.centerElement.Dim()
	c.addPre(c.centerNode)
	c.frontier = append(c.frontier, c.centerNode)
	return nil
}

// getOpposite finds the neighbor across the edge opposite the obtuse
// vertex. The element must have exactly three adjacent edges; anything
// else is mesh corruption, not a retryable condition.
func (c *Cavity) getOpposite(node *mesh.Node) (*mesh.Node, error) {
	neighbors, err := c.t.Neighbors(node)
	if err != nil {
		return nil, err
	}
	if len(neighbors) != 3 {
		return nil, fmt.Errorf("%w: obtuse element with %d neighbors", mesh.ErrCorrupt, len(neighbors))
	}
	el, err := c.t.Element(node)
	if err != nil {
		return nil, err
	}
	obtuse := el.Obtuse()
	for _, nb := range neighbors {
		nbEl, err := c.t.Element(nb)
		if err != nil {
			return nil, err
		}
		edge, ok := el.RelatedEdge(nbEl)
		if !ok {
			return nil, fmt.Errorf("%w: adjacent elements share no edge", mesh.ErrCorrupt)
		}
		if !edge.Contains(obtuse) {
			return nb, nil
		}
	}
	return nil, fmt.Errorf("%w: no neighbor opposite the obtuse angle", mesh.ErrCorrupt)
}

// Build grows the cavity from the frontier until it is closed. When the
// expansion runs into a segment encroached by a triangle-anchored cavity,
// the whole cavity re-anchors on that segment and expansion restarts from
// there; connections recorded so far are kept. The re-anchor recursion of
// the textbook formulation is flattened into this loop, since the number
// of escalations has no small bound.
func (c *Cavity) Build() error {
	for {
		seg, err := c.expandFrontier()
		if err != nil {
			return err
		}
		if seg == nil {
			return nil
		}
		logging.CavityDebug("encroached segment, re-anchoring cavity on %v", seg.Data())
		c.clearRegion()
		if err := c.anchor(seg); err != nil {
			return err
		}
	}
}

// expandFrontier pops the LIFO frontier and classifies every neighbor.
// It returns a non-nil node when an encroached segment demands re-anchoring.
func (c *Cavity) expandFrontier() (*mesh.Node, error) {
	for len(c.frontier) > 0 {
		curr := c.frontier[len(c.frontier)-1]
		c.frontier = c.frontier[:len(c.frontier)-1]

		neighbors, err := c.t.Neighbors(curr)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			seg, err := c.expand(curr, nb)
			if err != nil || seg != nil {
				return seg, err
			}
		}
	}
	return nil, nil
}

// expand classifies next relative to the cavity: interior (absorbed into
// pre), encroached segment (returned for re-anchoring), or boundary
// (recorded as a connection).
func (c *Cavity) expand(node, next *mesh.Node) (*mesh.Node, error) {
	nextEl, err := c.t.Element(next)
	if err != nil {
		return nil, err
	}

	// A second, distinct segment can never be absorbed into a
	// segment-anchored cavity.
	secondSegment := c.dim == 2 && nextEl.Dim() == 2 && next != c.centerNode
	if !secondSegment && nextEl.InCircle(c.center) {
		if nextEl.Dim() == 2 && c.dim != 2 {
			// A segment encroached by a triangle cavity takes over
			// as the cavity anchor.
			return next, nil
		}
		if !c.inPre(next) {
			c.addPre(next)
			c.frontier = append(c.frontier, next)
		}
		return nil, nil
	}

	nodeEl, err := c.t.Element(node)
	if err != nil {
		return nil, err
	}
	edge, ok := nextEl.RelatedEdge(nodeEl)
	if !ok {
		return nil, fmt.Errorf("%w: boundary neighbor shares no edge", mesh.ErrCorrupt)
	}
	conn := Connection{Src: node, Dst: next, Edge: edge}
	for _, existing := range c.connections {
		if existing == conn {
			return nil, nil
		}
	}
	c.connections = append(c.connections, conn)
	return nil, nil
}

// ComputePost synthesizes the replacement subgraph in the staging
// containers: the new elements around the center vertex, their adjacency to
// the exterior nodes recorded in connections, and their adjacency to each
// other. Nothing touches the live graph yet.
func (c *Cavity) ComputePost() error {
	if c.centerElement.Dim() == 2 {
		// The cavity is anchored on a segment: split it at the center.
		n1 := c.t.NewNode(geom.NewSegment(c.center, c.centerElement.Point(0)))
		n2 := c.t.NewNode(geom.NewSegment(c.center, c.centerElement.Point(1)))
		c.post = append(c.post, n1, n2)
	}

	for _, conn := range c.connections {
		newEl := geom.NewTriangle(c.center, conn.Edge.A, conn.Edge.B)

		other := conn.Dst
		if c.inPre(conn.Dst) {
			other = conn.Src
		}
		otherEl, err := c.t.Element(other)
		if err != nil {
			return err
		}
		if _, ok := newEl.RelatedEdge(otherEl); !ok {
			return fmt.Errorf("%w: replacement %v does not border %v", mesh.ErrCorrupt, newEl, otherEl)
		}

		newNode := c.t.NewNode(newEl)
		c.postEdges = append(c.postEdges, postEdge{src: newNode, dst: other})

		for _, pn := range c.post {
			if pn.Data().IsRelated(newEl) {
				c.postEdges = append(c.postEdges, postEdge{src: newNode, dst: pn})
			}
		}
		c.post = append(c.post, newNode)
	}
	return nil
}

// Update commits the staged replacement: remove the cavity interior, add
// the new nodes (pushing the bad ones back to the scheduler), wire up the
// staged adjacency, and defensively re-push the original seed if it
// survived outside this cavity. All touched nodes are already owned by the
// task, so no locks are re-acquired or re-validated here.
func (c *Cavity) Update(seed *mesh.Node, push func(*mesh.Node)) {
	for _, n := range c.pre {
		c.t.RemoveNode(n)
	}

	for _, n := range c.post {
		c.t.AddNode(n)
		if n.Data().BadBelow(c.minAngle) {
			push(n)
		}
	}

	for _, e := range c.postEdges {
		c.t.AddEdge(e.src, e.dst)
	}

	if c.g.Contains(seed) {
		push(seed)
	}
}

// Dim returns the cavity dimension: 2 when anchored on a segment, 3 on a
// triangle.
func (c *Cavity) Dim() int { return c.dim }

// Center returns the replacement vertex.
func (c *Cavity) Center() geom.Point { return c.center }

// CenterNode returns the node anchoring the cavity.
func (c *Cavity) CenterNode() *mesh.Node { return c.centerNode }

// PreCount returns the number of nodes to be deleted.
func (c *Cavity) PreCount() int { return len(c.pre) }

// PostCount returns the number of staged replacement nodes.
func (c *Cavity) PostCount() int { return len(c.post) }

// Connections returns the recorded boundary tuples.
func (c *Cavity) Connections() []Connection { return c.connections }
