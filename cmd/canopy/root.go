package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/internal/presentation/tui"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy evaluates decision trees by expected value",
	Long: `Canopy reads decision trees made of decision, chance and terminal nodes,
validates them and computes the expected value of every node and the optimal path.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().String("dir", "", "Directory containing tree files (overrides store.dir)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// openApp loads the configuration, applies flag overrides and wires the app.
func openApp(cmd *cobra.Command) (*cli.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("dir") {
		cfg.Store.Dir, _ = cmd.Flags().GetString("dir")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Open(cfg, debug)
}

// printer builds a Printer for stdout honouring --json.
func printer(cmd *cobra.Command) cli.Printer {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return cli.Printer{
		Out:  cmd.OutOrStdout(),
		JSON: jsonMode,
		Rich: !jsonMode && tui.IsTerminal(os.Stdout),
	}
}

// addTreeFlags registers the flags shared by commands that read one tree.
func addTreeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Read the tree from a file instead of the store")
	cmd.Flags().Bool("json", false, "Print JSON output")
}

// treeArg returns the tree ID argument and the --file flag.
func treeArg(cmd *cobra.Command, args []string) (string, string) {
	path, _ := cmd.Flags().GetString("file")
	if len(args) > 0 {
		return args[0], path
	}
	return "", path
}
