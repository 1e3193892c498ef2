package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"anon-bd/anonrun/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "anonrun <manifest>",
	Short: "anonrun - manifest-driven dataset anonymization",
	Long: `anonrun anonymizes a delimited dataset as described by a manifest.

The manifest declares the role of every column, a generalization hierarchy
for each quasi-identifier and the privacy models to enforce. anonrun checks
it, loads the data, asks the anonymization engine for a transformation that
satisfies every model and writes the result.

Running "anonrun <manifest>" is the same as "anonrun run <manifest>".`,
	Version:       Version,
	Args:          exactArgs(1),
	RunE:          runJob,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var usage *cli.UsageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", rootCmd.Name())
		}
	}
	os.Exit(cli.ExitCode(err))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "tool config file (default "+defaultConfigHint+")")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment overrides from a .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cli.NewUsageError("%v", err)
	})

	addRunFlags(rootCmd)
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return cli.NewUsageError("%s accepts %d arg(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// noArgs is cobra.NoArgs reporting a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return cli.NewUsageError("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}
