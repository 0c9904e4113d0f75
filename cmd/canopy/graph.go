package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/pkg/analysis"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [tree-id]",
	Short: "Export the tree as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the tree. When the tree evaluates,
each node is labelled with its expected value and the optimal path is highlighted.`,
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

		var res *analysis.Result
		if plain, _ := cmd.Flags().GetBool("plain"); !plain {
			res, err = app.Engine.Evaluate(cmd.Context(), tree.Nodes)
			if err != nil {
				app.Logger.Warn("Drawing tree without values", "tree_id", tree.ID, "err", err)
			}
		}
		return printer(cmd).Graph(tree.Nodes, res)
	},
}

func init() {
	graphCmd.Flags().StringP("file", "f", "", "Read the tree from a file instead of the store")
	graphCmd.Flags().Bool("plain", false, "Skip evaluation and draw the bare structure")
	rootCmd.AddCommand(graphCmd)
}
