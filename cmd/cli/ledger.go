package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/tokenlife/internal/application"
	"github.com/turtacn/tokenlife/internal/domain/models"
)

func newCleanupCmd(opts *globalOptions) *cobra.Command {
	var verifyOpts models.VerifyOptions

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove ledger entries that can no longer verify",
		Long: `Sweep the revocation ledger: entries that are expired, malformed or not verifiable under
the current key are removed, the rest are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, opts, func(ctx context.Context, c *application.Components) error {
				res, err := c.Service.CleanupInvalidList(ctx, verifyOpts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d removed=%d retained=%d duration=%s\n",
					res.Scanned, res.Removed, res.Retained, res.Duration)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&verifyOpts.Secret, "secret", "", "verify entries with this secret instead of the configured one")
	return cmd
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var countOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the revocation ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, opts, func(ctx context.Context, c *application.Components) error {
				if countOnly {
					n, err := c.Ledger.Count(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), n)
					return nil
				}
				return c.Ledger.Scan(ctx, func(token string) error {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), token)
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVar(&countOnly, "count", false, "print only the number of entries")
	return cmd
}
