package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshforge/internal/geom"
)

func TestGridBuild(t *testing.T) {
	tr := Grid(3, 3, 1, 1)
	g, err := tr.Build()
	require.NoError(t, err)

	assert.Len(t, tr.Triangles, 18)
	assert.Len(t, tr.Segments, 12)
	assert.Equal(t, 30, g.NodeCount())
	require.NoError(t, Check(g))

	// Square cells give right isosceles triangles only.
	assert.Empty(t, BadNodes(g, 30))
	assert.Len(t, BadNodes(g, 46), 18)
}

func TestBuildRejectsOversharedEdge(t *testing.T) {
	tr := &Triangulation{
		Points: []geom.Point{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 0.5, Y: 1}, {X: 0.5, Y: -1},
		},
		Triangles: [][3]int{{0, 1, 2}, {0, 1, 3}, {0, 1, 4}},
	}
	_, err := tr.Build()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestBuildRejectsBadIndex(t *testing.T) {
	tr := &Triangulation{
		Points:    []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}},
		Triangles: [][3]int{{0, 1, 9}},
	}
	_, err := tr.Build()
	assert.ErrorIs(t, err, ErrCorrupt)

	tr = &Triangulation{
		Points:   []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}},
		Segments: [][2]int{{0, -1}},
	}
	_, err = tr.Build()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCheckCatchesWrongDegrees(t *testing.T) {
	// A lone triangle has zero neighbors instead of three.
	tr := &Triangulation{
		Points:    []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	g, err := tr.Build()
	require.NoError(t, err)
	assert.ErrorIs(t, Check(g), ErrCorrupt)
}

func TestCheckCatchesUnrelatedAdjacency(t *testing.T) {
	g := NewGraph()
	n1 := triNode(geom.Point{X: 0, Y: 0}, geom.Point{X: 1, Y: 0}, geom.Point{X: 0, Y: 1})
	n2 := triNode(geom.Point{X: 10, Y: 10}, geom.Point{X: 11, Y: 10}, geom.Point{X: 10, Y: 11})
	g.AddNode(n1)
	g.AddNode(n2)
	g.AddEdge(n1, n2)

	assert.ErrorIs(t, Check(g), ErrCorrupt)
}
