package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/awardtoken/internal/client"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/logging"
	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
	verbose   bool

	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tokenctl",
	Short: "Command line client for the award token server",
	Long: `tokenctl submits session cookies to a running award token server and
prints the act token it returns, together with the server's step log.

Cookies can be passed inline, read from a file, or taken straight from
the browsers installed on this machine.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := logging.DefaultConfig()
		cfg.Development = true
		cfg.Level = "warn"
		if verbose {
			cfg.Level = "debug"
		}
		var err error
		logger, err = logging.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("AWARDTOKEN_SERVER", "http://localhost:3000"), "award token server base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Minute, "request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(getCmd, cookiesCmd, healthCmd)
}

func newClient() *client.Client {
	opts := client.DefaultOptions()
	opts.Timeout = timeout
	return client.New(serverURL, opts)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
