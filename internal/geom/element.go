package geom

import (
	"fmt"
	"strings"
)

// DefaultMinAngle is the quality threshold inherited from classic Delaunay
// refinement: triangles with a smaller minimum angle are scheduled for
// refinement.
const DefaultMinAngle = 30.0

// inCircleSlack absorbs rounding in the circumcircle membership test.
const inCircleSlack = 1e-9

// Element is a mesh primitive: a boundary segment (dim 2) or a triangle
// (dim 3). Elements are immutable; all derived quantities (circumcenter,
// circumradius, minimum angle, obtuse vertex) are computed at construction.
type Element struct {
	points   [3]Point
	dim      int
	center   Point
	radiusSq float64
	minAngle float64 // smallest interior angle in degrees; 180 for segments
	obtuse   int     // index of the obtuse vertex, -1 if none
}

// NewTriangle builds a triangle element from three corner points.
func NewTriangle(a, b, c Point) *Element {
	e := &Element{
		points: [3]Point{a, b, c},
		dim:    3,
		obtuse: -1,
	}

	angles := [3]float64{
		angleDeg(a, b, c),
		angleDeg(b, c, a),
		angleDeg(c, a, b),
	}
	e.minAngle = angles[0]
	for i, ang := range angles {
		if ang < e.minAngle {
			e.minAngle = ang
		}
		if ang > 90 {
			e.obtuse = i
		}
	}

	e.center = circumcenter(a, b, c)
	e.radiusSq = e.center.DistanceSq(a)
	return e
}

// NewSegment builds a boundary segment element. Its center is the segment
// midpoint and its circle is the diametral circle, so InCircle doubles as
// the encroachment test.
func NewSegment(a, b Point) *Element {
	e := &Element{
		points:   [3]Point{a, b},
		dim:      2,
		obtuse:   -1,
		minAngle: 180,
	}
	e.center = Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	e.radiusSq = e.center.DistanceSq(a)
	return e
}

// circumcenter returns the point equidistant from the three corners.
func circumcenter(a, b, c Point) Point {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	aa := a.X*a.X + a.Y*a.Y
	bb := b.X*b.X + b.Y*b.Y
	cc := c.X*c.X + c.Y*c.Y
	return Point{
		X: (aa*(b.Y-c.Y) + bb*(c.Y-a.Y) + cc*(a.Y-b.Y)) / d,
		Y: (aa*(c.X-b.X) + bb*(a.X-c.X) + cc*(b.X-a.X)) / d,
	}
}

// Dim returns 2 for segments and 3 for triangles.
func (e *Element) Dim() int { return e.dim }

// Point returns the i-th corner point.
func (e *Element) Point(i int) Point { return e.points[i] }

// Center returns the circumcenter of a triangle or the midpoint of a
// segment; it is the candidate vertex inserted when the element is refined.
func (e *Element) Center() Point { return e.center }

// MinAngle returns the smallest interior angle in degrees.
func (e *Element) MinAngle() float64 { return e.minAngle }

// IsBad reports whether the element violates the default quality threshold.
// Segments are never bad.
func (e *Element) IsBad() bool { return e.BadBelow(DefaultMinAngle) }

// BadBelow reports whether the element's minimum angle is below the given
// threshold in degrees.
func (e *Element) BadBelow(minAngle float64) bool {
	return e.dim == 3 && e.minAngle < minAngle
}

// IsObtuse reports whether one interior angle exceeds 90 degrees.
// Segments are never obtuse.
func (e *Element) IsObtuse() bool { return e.obtuse >= 0 }

// Obtuse returns the vertex at the obtuse angle. It must only be called
// when IsObtuse is true.
func (e *Element) Obtuse() Point { return e.points[e.obtuse] }

// InCircle reports whether p lies inside the element's circumcircle
// (diametral circle for segments).
func (e *Element) InCircle(p Point) bool {
	return e.center.DistanceSq(p) <= e.radiusSq+inCircleSlack*e.radiusSq
}

// sharedPoints counts corner points the two elements have in common and
// returns the first two.
func (e *Element) sharedPoints(o *Element) (int, Point, Point) {
	var n int
	var s [2]Point
	for i := 0; i < e.dim; i++ {
		for j := 0; j < o.dim; j++ {
			if e.points[i] == o.points[j] {
				if n < 2 {
					s[n] = e.points[i]
				}
				n++
			}
		}
	}
	return n, s[0], s[1]
}

// IsRelated reports whether the two elements share an edge.
func (e *Element) IsRelated(o *Element) bool {
	n, _, _ := e.sharedPoints(o)
	return n == 2
}

// RelatedEdge returns the edge shared with o. The second return value is
// false when the elements do not share exactly two points.
func (e *Element) RelatedEdge(o *Element) (Edge, bool) {
	n, a, b := e.sharedPoints(o)
	if n != 2 {
		return Edge{}, false
	}
	return NewEdge(a, b), true
}

func (e *Element) String() string {
	var sb strings.Builder
	if e.dim == 2 {
		sb.WriteString("seg")
	} else {
		sb.WriteString("tri")
	}
	for i := 0; i < e.dim; i++ {
		fmt.Fprintf(&sb, " %v", e.points[i])
	}
	return sb.String()
}
