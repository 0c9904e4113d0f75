package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [tree-id]",
	Short: "Check a tree for structural and probability errors",
	Long: `Runs every validation rule against the tree and prints errors and warnings.
Exits with a non-zero status when the tree has errors.`,
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
		report := app.Engine.Validate(cmd.Context(), tree.Nodes)
		if err := printer(cmd).Validation(tree.Name, report); err != nil {
			return err
		}
		if !report.OK {
			return fmt.Errorf("tree %s has %d error(s)", tree.ID, len(report.Errors))
		}
		return nil
	},
}

func init() {
	addTreeFlags(validateCmd)
	rootCmd.AddCommand(validateCmd)
}
