package mesh

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elementStrings(g *Graph) []string {
	var out []string
	for _, n := range g.Nodes() {
		out = append(out, n.Data().String())
	}
	sort.Strings(out)
	return out
}

func TestMeshRoundTrip(t *testing.T) {
	g, err := Grid(2, 2, 1, 1).Build()
	require.NoError(t, err)

	base := filepath.Join(t.TempDir(), "grid")
	require.NoError(t, WriteMesh(g, base))

	got, err := ReadMesh(base)
	require.NoError(t, err)
	require.NoError(t, Check(got))
	assert.Equal(t, g.NodeCount(), got.NodeCount())

	if diff := cmp.Diff(elementStrings(g), elementStrings(got)); diff != "" {
		t.Fatalf("round trip changed elements (-want +got):\n%s", diff)
	}
}

func TestReadMeshWithoutPoly(t *testing.T) {
	g, err := Grid(2, 2, 1, 1).Build()
	require.NoError(t, err)

	base := filepath.Join(t.TempDir(), "nopoly")
	require.NoError(t, WriteMesh(g, base))
	require.NoError(t, os.Remove(base+".poly"))

	tr, err := ReadTriangulation(base)
	require.NoError(t, err)
	assert.Len(t, tr.Triangles, 8)
	assert.Empty(t, tr.Segments)
}

func TestReadTriangulationZeroBased(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "zero")

	node := "# comment\n3 2 0 0\n0 0.0 0.0\n1 1.0 0.0\n2 0.0 1.0\n"
	ele := "1 3 0\n0 0 1 2\n"
	require.NoError(t, os.WriteFile(base+".node", []byte(node), 0644))
	require.NoError(t, os.WriteFile(base+".ele", []byte(ele), 0644))

	tr, err := ReadTriangulation(base)
	require.NoError(t, err)
	require.Len(t, tr.Points, 3)
	require.Len(t, tr.Triangles, 1)
	assert.Equal(t, [3]int{0, 1, 2}, tr.Triangles[0])
	assert.Equal(t, 1.0, tr.Points[1].X)
}

func TestReadTriangulationMissingNode(t *testing.T) {
	_, err := ReadTriangulation(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestReadTriangulationMalformed(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(base+".node", []byte("2 2 0 0\n1 0.0 0.0\n"), 0644))

	_, err := ReadTriangulation(base)
	assert.Error(t, err, "header promises more points than the file has")
}
