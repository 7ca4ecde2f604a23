// Command paygatectl is the operator CLI: it exercises the same token cache,
// payment service and ledger as the server, without going through HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           "paygatectl",
		Short:         "Operate the paygate payment backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "output as JSON (default when stdout is not a terminal)")

	rootCmd.AddCommand(tokenCmd(&opts))
	rootCmd.AddCommand(intentCmd(&opts))
	rootCmd.AddCommand(migrateCmd(&opts))

	return rootCmd
}

type rootOptions struct {
	json bool
}
