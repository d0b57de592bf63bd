// Package geom provides the planar primitives of the refinement engine:
// points, shared edges, and mesh elements (segments and triangles) together
// with the quality and circumcircle predicates the cavity algorithm relies on.
package geom

import (
	"fmt"
	"math"
)

// Point is an immutable 2D coordinate.
type Point struct {
	X, Y float64
}

// DistanceSq returns the squared euclidean distance to q.
func (p Point) DistanceSq(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Less orders points lexicographically. Used to normalize edge endpoints
// so that structurally equal edges compare equal.
func (p Point) Less(q Point) bool {
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Edge is the pair of points shared between two adjacent elements.
// Endpoints are stored in normalized order, so Edge values are comparable
// with == regardless of construction order.
type Edge struct {
	A, B Point
}

// NewEdge returns the normalized edge between a and b.
func NewEdge(a, b Point) Edge {
	if b.Less(a) {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Contains reports whether p is one of the edge endpoints.
func (e Edge) Contains(p Point) bool {
	return e.A == p || e.B == p
}

// Midpoint returns the point halfway between the endpoints.
func (e Edge) Midpoint() Point {
	return Point{X: (e.A.X + e.B.X) / 2, Y: (e.A.Y + e.B.Y) / 2}
}

func (e Edge) String() string {
	return fmt.Sprintf("%v-%v", e.A, e.B)
}

// angleDeg returns the interior angle at apex, in degrees.
func angleDeg(apex, p, q Point) float64 {
	ux, uy := p.X-apex.X, p.Y-apex.Y
	vx, vy := q.X-apex.X, q.Y-apex.Y
	dot := ux*vx + uy*vy
	norm := math.Sqrt((ux*ux + uy*uy) * (vx*vx + vy*vy))
	if norm == 0 {
		return 0
	}
	cos := dot / norm
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos) * 180 / math.Pi
}
