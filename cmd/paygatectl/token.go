package main

import (
	"time"

	"github.com/spf13/cobra"
)

func tokenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Authenticate and show the token state and expiry",
		Long: `Exchange the configured client ID and API key for a bearer token.

The token itself is masked; only its state and expiry are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			value, err := e.tokens.Token(cmd.Context())
			if err != nil {
				return err
			}

			snap := e.tokens.Snapshot()
			out := newPrinter(cmd.OutOrStdout(), opts.json)
			return out.token(tokenView{
				Token:     maskToken(value),
				State:     string(e.tokens.State()),
				ExpiresAt: formatExpiry(snap.ExpiresAt),
				ExpiresIn: expiresIn(snap.ExpiresAt, time.Now()),
			})
		},
	}
}

// maskToken keeps the first and last four characters of a token.
func maskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}

func expiresIn(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := t.Sub(now).Round(time.Second)
	if d <= 0 {
		return "expired"
	}
	return d.String()
}
