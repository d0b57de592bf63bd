package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meshforge/internal/mesh"
)

var checkCmd = &cobra.Command{
	Use:   "check <mesh-base>",
	Short: "Verify mesh consistency and report quality statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	base := args[0]
	g, err := mesh.ReadMesh(base)
	if err != nil {
		return err
	}
	if err := mesh.Check(g); err != nil {
		return err
	}

	var tris, segs int
	worst := 180.0
	for _, n := range g.Nodes() {
		el := n.Data()
		if el.Dim() == 3 {
			tris++
			if el.MinAngle() < worst {
				worst = el.MinAngle()
			}
		} else {
			segs++
		}
	}
	bad := len(mesh.BadNodes(g, cfg.Refine.MinAngle))

	fmt.Printf("%s: consistent\n", base)
	fmt.Printf("  triangles: %d, segments: %d\n", tris, segs)
	fmt.Printf("  bad (min angle < %g): %d, worst angle: %.2f\n", cfg.Refine.MinAngle, bad, worst)
	return nil
}
