package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/pkg/analysis"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [tree-id]",
	Short: "Compute the expected value of a tree",
	Long:  `Validates the tree, evaluates every node and prints the breakdown of each expected value.`,
	Args:  cobra.MaximumNArgs(1),
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
		res, err := app.Engine.Evaluate(cmd.Context(), tree.Nodes)
		var rejected *analysis.RejectedError
		if errors.As(err, &rejected) && printer(cmd).JSON {
			_ = printer(cmd).Validation(tree.Name, rejected.Report)
		}
		if err != nil {
			return err
		}
		return printer(cmd).Evaluation(tree.Name, res)
	},
}

var pathCmd = &cobra.Command{
	Use:   "path [tree-id]",
	Short: "Print the optimal path through a tree",
	Args:  cobra.MaximumNArgs(1),
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
		res, err := app.Engine.Evaluate(cmd.Context(), tree.Nodes)
		if err != nil {
			return err
		}
		return printer(cmd).Path(res)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary [tree-id]",
	Short: "Count the nodes of a tree and print its expected value",
	Args:  cobra.MaximumNArgs(1),
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
		summary, err := app.Engine.Summary(cmd.Context(), tree.Nodes)
		if err != nil {
			return err
		}
		return printer(cmd).Summary(summary)
	},
}

func init() {
	for _, c := range []*cobra.Command{evaluateCmd, pathCmd, summaryCmd} {
		addTreeFlags(c)
		rootCmd.AddCommand(c)
	}
}
