package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/tokenlife/internal/application"
	"github.com/turtacn/tokenlife/internal/domain/models"
)

func newSignCmd(opts *globalOptions) *cobra.Command {
	var (
		auth, access, data string
		signOpts           models.SignOptions
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a token",
		Long: `Sign a token for the given claims and print it.
--auth, --access and --data accept JSON; anything that is not valid JSON is used as a string.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			claims := &models.Claims{
				Auth:   claimValue(auth),
				Access: claimValue(access),
			}
			if data != "" {
				claims.Data = claimValue(data)
			}
			return withComponents(cmd, opts, func(ctx context.Context, c *application.Components) error {
				token, err := c.Service.Sign(ctx, claims, signOpts)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&auth, "auth", "", "identity claim (required)")
	cmd.Flags().StringVar(&access, "access", "", "scope claim (required)")
	cmd.Flags().StringVar(&data, "data", "", "optional caller data")
	cmd.Flags().StringVar(&signOpts.ExpiresIn, "expires-in", "", "token lifetime, e.g. 1h, 2d (default: keys.default_expires_in)")
	cmd.Flags().StringVar(&signOpts.Secret, "secret", "", "use this secret instead of the configured one")
	return cmd
}

func newVerifyCmd(opts *globalOptions) *cobra.Command {
	var verifyOpts models.VerifyOptions

	cmd := &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, opts, func(ctx context.Context, c *application.Components) error {
				claims, err := c.Service.Verify(ctx, args[0], verifyOpts)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(claims)
			})
		},
	}
	cmd.Flags().StringVar(&verifyOpts.Secret, "secret", "", "use this secret instead of the configured one")
	return cmd
}

func newInvalidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "invalidate TOKEN",
		Aliases: []string{"revoke"},
		Short:   "Add a token to the revocation ledger",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, opts, func(ctx context.Context, c *application.Components) error {
				if err := c.Service.Invalidate(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "revoked")
				return nil
			})
		},
	}
}

// claimValue decodes s as JSON, falling back to the raw string.
func claimValue(s string) interface{} {
	if s == "" {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
