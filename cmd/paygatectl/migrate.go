package main

import (
	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/paygate/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/paygate/internal/config"
)

// migrateCmd only needs the ledger path, so it runs on hosts that carry no
// upstream credentials.
func migrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending ledger migrations and print the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.DBPath()
			if err != nil {
				return err
			}
			if path == "" {
				return errLedgerDisabled
			}

			db, err := sqliteadapter.NewDB(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
				return err
			}

			version, dirty, err := sqliteadapter.MigrationVersion(db.Writer)
			if err != nil {
				return err
			}

			return newPrinter(cmd.OutOrStdout(), opts.json).migration(migrationView{
				Path:    db.Path(),
				Version: version,
				Dirty:   dirty,
			})
		},
	}
}
