// Package cli provides the command-line interface for chview.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chview-io/chview/internal/cli/commands"
	"github.com/chview-io/chview/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile  string
		database string
		verbose  bool
	)

	rootCmd := &cobra.Command{
		Use:   "chview",
		Short: "chview - ClickHouse Materialized View Lineage",
		Long: `chview infers the data-flow lineage of ClickHouse materialized views
and serves it as an interactive graph.

It reads view DDL from system.tables, parses source and target references,
and lays the resulting graph out as left-to-right dependency levels.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if database != "" {
				cfg.Database = database
			}
			if verbose {
				cfg.Verbose = true
			}

			ctx := commands.WithConfig(cmd.Context(), cfg)
			ctx = commands.WithLogger(ctx, commands.NewLogger(cmd.ErrOrStderr(), cfg.Verbose))
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
ClickHouse Materialized View Lineage
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./chview.yaml)")
	rootCmd.PersistentFlags().StringVarP(&database, "database", "d", "", "Restrict lineage to one database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewLineageCommand())
	rootCmd.AddCommand(commands.NewGraphCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
