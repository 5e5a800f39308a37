package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/turtacn/tokenlife/internal/application"
	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/internal/infrastructure/monitoring"
	"github.com/turtacn/tokenlife/pkg/constants"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configFile string
	logLevel   string
}

// NewRootCmd builds the `tokenctl` command tree.
// NewRootCmd 构建 `tokenctl` 命令树。
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "tokenctl",
		Short: "Sign, verify and revoke tokens from the command line.",
		Long: `tokenctl runs token lifecycle operations against the configured key material and
revocation store: signing, verification, revocation, ledger cleanup and inspection.

With the memory store every invocation starts from an empty ledger; point store.driver at
redis, sqlite or postgres to share revocations with the daemon.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to the config file (default: tokenlife.yaml in /etc/tokenlife or .)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level for diagnostics written to stderr")

	rootCmd.AddCommand(
		newSignCmd(opts),
		newVerifyCmd(opts),
		newInvalidateCmd(opts),
		newCleanupCmd(opts),
		newListCmd(opts),
	)
	return rootCmd
}

// Execute is the main entry point for the CLI application.
// If an error occurs, it prints the error and exits.
// Execute 是 CLI 应用程序的主入口点。
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withComponents loads configuration, builds the components for one command and releases them
// when fn returns.
func withComponents(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, c *application.Components) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Log.Level = opts.logLevel

	log, err := monitoring.NewZapLoggerTo(&cfg.Log, zapcore.AddSync(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	c, err := application.Build(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
		defer cancel()
		_ = c.Close(closeCtx)
	}()

	return fn(ctx, c)
}
