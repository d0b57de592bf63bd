package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"meshforge/internal/logging"
	"meshforge/internal/mesh"
	"meshforge/internal/refine"
)

var refineOutput string

var refineCmd = &cobra.Command{
	Use:   "refine <mesh-base>",
	Short: "Refine a mesh until no bad triangles remain",
	Long: `Loads <mesh-base>.node/.ele/.poly, refines every triangle whose
minimum angle is below the quality threshold, verifies the result and
optionally writes the refined mesh back out.`,
	Args: cobra.ExactArgs(1),
	RunE: runRefine,
}

func init() {
	refineCmd.Flags().StringVarP(&refineOutput, "output", "o", "", "write the refined mesh to <output>.node/.ele/.poly")
}

func runRefine(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base := args[0]
	g, err := mesh.ReadMesh(base)
	if err != nil {
		return err
	}
	if err := mesh.Check(g); err != nil {
		return fmt.Errorf("input mesh is inconsistent: %w", err)
	}
	badBefore := len(mesh.BadNodes(g, cfg.Refine.MinAngle))
	logging.Boot("loaded %s: %d elements, %d bad", base, g.NodeCount(), badBefore)

	eng := refine.New(g, refine.Config{
		Workers:  cfg.Refine.Workers,
		MinAngle: cfg.Refine.MinAngle,
		MaxTasks: cfg.Refine.MaxTasks,
	})
	m, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	if err := mesh.Check(g); err != nil {
		return fmt.Errorf("refined mesh is inconsistent: %w", err)
	}
	badAfter := len(mesh.BadNodes(g, cfg.Refine.MinAngle))

	fmt.Printf("refined %s in %v\n", base, m.Duration)
	fmt.Printf("  elements: %d, bad: %d -> %d\n", g.NodeCount(), badBefore, badAfter)
	fmt.Printf("  tasks: %d, committed: %d, conflicts: %d\n", m.Tasks, m.Committed, m.Conflicts)
	fmt.Printf("  removed: %d, added: %d, rescheduled: %d\n", m.NodesRemoved, m.NodesAdded, m.Rescheduled)

	if badAfter != 0 {
		return fmt.Errorf("%d bad triangles remain", badAfter)
	}
	if refineOutput != "" {
		if err := mesh.WriteMesh(g, refineOutput); err != nil {
			return err
		}
		fmt.Printf("  wrote %s.node/.ele/.poly\n", refineOutput)
	}
	return nil
}
