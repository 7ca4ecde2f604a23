package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/paygate/internal/application"
)

func intentCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intent",
		Short: "Create and inspect payment intents",
	}

	cmd.AddCommand(intentCreateCmd(opts))
	cmd.AddCommand(intentGetCmd(opts))
	cmd.AddCommand(intentListCmd(opts))

	return cmd
}

func intentCreateCmd(opts *rootOptions) *cobra.Command {
	var amount int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a payment intent",
		Example: `  paygatectl intent create --amount 89900
  paygatectl intent create --amount 1500 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if amount < 0 {
				return fmt.Errorf("--amount must not be negative, got %d", amount)
			}

			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			intent, err := e.payments.CreatePaymentIntent(cmd.Context(), amount)
			if err != nil {
				return err
			}

			return newPrinter(cmd.OutOrStdout(), opts.json).intent(intent, true)
		},
	}

	cmd.Flags().Int64Var(&amount, "amount", 0, "amount in the smallest currency unit")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func intentGetCmd(opts *rootOptions) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Look up a payment intent",
		Long: `Look up a payment intent upstream, refreshing the ledger copy.

With --local the intent is read from the ledger only, without an access
token or any upstream request.`,
		Example: `  paygatectl intent get int_hkdm8pbx5g3r
  paygatectl intent get int_hkdm8pbx5g3r --local --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			lookup := e.payments.GetPaymentIntent
			if local {
				lookup = e.payments.GetRecordedPaymentIntent
			}

			intent, err := lookup(cmd.Context(), args[0])
			if errors.Is(err, application.ErrLedgerDisabled) {
				return errLedgerDisabled
			}
			if err != nil {
				return err
			}

			return newPrinter(cmd.OutOrStdout(), opts.json).intent(intent, false)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "read from the ledger without calling upstream")

	return cmd
}

func intentListCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently created intents from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if !e.cfg.LedgerEnabled() {
				return errLedgerDisabled
			}

			intents, err := e.payments.ListPaymentIntents(cmd.Context(), limit)
			if err != nil {
				return err
			}

			return newPrinter(cmd.OutOrStdout(), opts.json).intents(intents)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of intents (1-100)")

	return cmd
}

