package mesh

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"meshforge/internal/geom"
)

// The on-disk format is the Triangle / Lonestar one: <base>.node holds the
// point list, <base>.ele the triangles and <base>.poly the boundary
// segments. Indices may be zero- or one-based; the base is detected from
// the first entry.

// ReadTriangulation loads <base>.node, <base>.ele and <base>.poly.
// The .poly file is optional; a mesh without one simply has no boundary
// segments.
func ReadTriangulation(base string) (*Triangulation, error) {
	tr := &Triangulation{}

	nodeLines, err := readFields(base + ".node")
	if err != nil {
		return nil, err
	}
	if len(nodeLines) == 0 {
		return nil, fmt.Errorf("mesh: %s.node: empty file", base)
	}
	count, err := strconv.Atoi(nodeLines[0][0])
	if err != nil || len(nodeLines)-1 < count {
		return nil, fmt.Errorf("mesh: %s.node: malformed header", base)
	}
	idxBase := 0
	if count > 0 {
		if first, err := strconv.Atoi(nodeLines[1][0]); err == nil && first == 1 {
			idxBase = 1
		}
	}
	tr.Points = make([]geom.Point, count)
	for i := 1; i <= count; i++ {
		f := nodeLines[i]
		if len(f) < 3 {
			return nil, fmt.Errorf("mesh: %s.node: short point line %d", base, i)
		}
		idx, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, fmt.Errorf("mesh: %s.node: bad index on line %d: %w", base, i, err)
		}
		x, err1 := strconv.ParseFloat(f[1], 64)
		y, err2 := strconv.ParseFloat(f[2], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("mesh: %s.node: bad coordinates on line %d", base, i)
		}
		idx -= idxBase
		if idx < 0 || idx >= count {
			return nil, fmt.Errorf("mesh: %s.node: index %d out of range", base, idx)
		}
		tr.Points[idx] = geom.Point{X: x, Y: y}
	}

	eleLines, err := readFields(base + ".ele")
	if err != nil {
		return nil, err
	}
	if len(eleLines) == 0 {
		return nil, fmt.Errorf("mesh: %s.ele: empty file", base)
	}
	triCount, err := strconv.Atoi(eleLines[0][0])
	if err != nil || len(eleLines)-1 < triCount {
		return nil, fmt.Errorf("mesh: %s.ele: malformed header", base)
	}
	for i := 1; i <= triCount; i++ {
		f := eleLines[i]
		if len(f) < 4 {
			return nil, fmt.Errorf("mesh: %s.ele: short triangle line %d", base, i)
		}
		var tri [3]int
		for j := 0; j < 3; j++ {
			v, err := strconv.Atoi(f[j+1])
			if err != nil {
				return nil, fmt.Errorf("mesh: %s.ele: bad vertex on line %d: %w", base, i, err)
			}
			tri[j] = v - idxBase
		}
		tr.Triangles = append(tr.Triangles, tri)
	}

	polyLines, err := readFields(base + ".poly")
	if os.IsNotExist(err) {
		return tr, nil
	}
	if err != nil {
		return nil, err
	}
	// First header describes inline points (usually zero, points live in
	// .node); the second header is the segment count.
	if len(polyLines) < 2 {
		return nil, fmt.Errorf("mesh: %s.poly: malformed file", base)
	}
	inlinePoints, err := strconv.Atoi(polyLines[0][0])
	if err != nil {
		return nil, fmt.Errorf("mesh: %s.poly: malformed header", base)
	}
	segHeader := 1 + inlinePoints
	if segHeader >= len(polyLines) {
		return nil, fmt.Errorf("mesh: %s.poly: missing segment header", base)
	}
	segCount, err := strconv.Atoi(polyLines[segHeader][0])
	if err != nil || len(polyLines)-segHeader-1 < segCount {
		return nil, fmt.Errorf("mesh: %s.poly: malformed segment header", base)
	}
	for i := 1; i <= segCount; i++ {
		f := polyLines[segHeader+i]
		if len(f) < 3 {
			return nil, fmt.Errorf("mesh: %s.poly: short segment line %d", base, i)
		}
		a, err1 := strconv.Atoi(f[1])
		b, err2 := strconv.Atoi(f[2])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("mesh: %s.poly: bad segment on line %d", base, i)
		}
		tr.Segments = append(tr.Segments, [2]int{a - idxBase, b - idxBase})
	}
	return tr, nil
}

// ReadMesh loads a triangulation from disk and assembles the live graph.
func ReadMesh(base string) (*Graph, error) {
	tr, err := ReadTriangulation(base)
	if err != nil {
		return nil, err
	}
	return tr.Build()
}

// WriteMesh dumps the live graph back into <base>.node / <base>.ele /
// <base>.poly with one-based indices.
func WriteMesh(g *Graph, base string) error {
	index := make(map[geom.Point]int)
	var points []geom.Point
	var tris []*geom.Element
	var segs []*geom.Element

	for _, n := range g.Nodes() {
		el := n.Data()
		for i := 0; i < el.Dim(); i++ {
			p := el.Point(i)
			if _, ok := index[p]; !ok {
				index[p] = 0
				points = append(points, p)
			}
		}
		if el.Dim() == 3 {
			tris = append(tris, el)
		} else {
			segs = append(segs, el)
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Less(points[j]) })
	for i, p := range points {
		index[p] = i + 1
	}

	var node strings.Builder
	fmt.Fprintf(&node, "%d 2 0 0\n", len(points))
	for i, p := range points {
		fmt.Fprintf(&node, "%d %g %g\n", i+1, p.X, p.Y)
	}
	if err := os.WriteFile(base+".node", []byte(node.String()), 0644); err != nil {
		return fmt.Errorf("mesh: write %s.node: %w", base, err)
	}

	var ele strings.Builder
	fmt.Fprintf(&ele, "%d 3 0\n", len(tris))
	for i, el := range tris {
		fmt.Fprintf(&ele, "%d %d %d %d\n", i+1,
			index[el.Point(0)], index[el.Point(1)], index[el.Point(2)])
	}
	if err := os.WriteFile(base+".ele", []byte(ele.String()), 0644); err != nil {
		return fmt.Errorf("mesh: write %s.ele: %w", base, err)
	}

	var poly strings.Builder
	fmt.Fprintf(&poly, "0 2 0 0\n%d 0\n", len(segs))
	for i, el := range segs {
		fmt.Fprintf(&poly, "%d %d %d\n", i+1, index[el.Point(0)], index[el.Point(1)])
	}
	poly.WriteString("0\n")
	if err := os.WriteFile(base+".poly", []byte(poly.String()), 0644); err != nil {
		return fmt.Errorf("mesh: write %s.poly: %w", base, err)
	}
	return nil
}

// readFields returns the whitespace-split fields of every non-empty,
// non-comment line.
func readFields(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines [][]string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, strings.Fields(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("mesh: read %s: %w", path, err)
	}
	return lines, nil
}
