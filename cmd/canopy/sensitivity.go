package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/pkg/analysis"
)

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity [tree-id]",
	Short: "Sweep one node field and report how the expected value moves",
	Long: `Re-evaluates the tree while varying the utility or cost of a single
node across an inclusive range, and prints the expected value and best root choice per step.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		id, path := treeArg(cmd, args)
		tree, err := app.LoadTree(cmd.Context(), id, path)
		if err != nil {
			return err
		}

		var sweep analysis.Sweep
		sweep.NodeID, _ = cmd.Flags().GetString("node")
		sweep.Field, _ = cmd.Flags().GetString("field")
		sweep.Min, _ = cmd.Flags().GetFloat64("min")
		sweep.Max, _ = cmd.Flags().GetFloat64("max")
		sweep.Steps, _ = cmd.Flags().GetInt("steps")

		points, err := app.Engine.Sensitivity(cmd.Context(), tree.Nodes, sweep)
		if err != nil {
			return err
		}
		return printer(cmd).Sensitivity(sweep.Field, points)
	},
}

func init() {
	addTreeFlags(sensitivityCmd)
	sensitivityCmd.Flags().String("node", "", "ID of the node to vary")
	sensitivityCmd.Flags().String("field", analysis.FieldUtility, "Field to vary: utility or cost")
	sensitivityCmd.Flags().Float64("min", 0, "Lower bound of the sweep")
	sensitivityCmd.Flags().Float64("max", 100, "Upper bound of the sweep")
	sensitivityCmd.Flags().Int("steps", 5, "Number of evaluated points")
	_ = sensitivityCmd.MarkFlagRequired("node")
	rootCmd.AddCommand(sensitivityCmd)
}
