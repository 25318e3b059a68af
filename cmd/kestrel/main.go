package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "kestrel",
	Short: "Kestrel property-graph query planner",
	Long: `Kestrel enumerates join orders for property-graph patterns and picks
the cheapest logical plan. The explain subcommand plans a query described in
a YAML file against a declared catalog and prints the chosen operator tree.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kestrel %s\n", version)
	},
}

func main() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newExplainCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
