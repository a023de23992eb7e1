package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ourcity/ourcity-cli/client"
	"github.com/ourcity/ourcity-cli/config"
	"github.com/ourcity/ourcity-cli/internal/logging"
	"github.com/ourcity/ourcity-cli/repl"
	"github.com/ourcity/ourcity-cli/session"
	"github.com/ourcity/ourcity-cli/transport"
)

// retryBackoff is the delay before the first retry; it doubles per attempt.
const retryBackoff = 250 * time.Millisecond

var rootCmd = &cobra.Command{
	Use:   "ourcity",
	Short: "OurCity is an interactive client for the OurCity community API",
	Long: `An interactive shell for logging in, browsing posts and administering users
on an OurCity server. Settings come from OURCITY_* environment variables and
can be overridden with flags.`,
	SilenceUsage: true,
	RunE:         runShell,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	defer memguard.Purge()
	if err := rootCmd.Execute(); err != nil {
		memguard.Purge()
		os.Exit(1)
	}
}

func init() {
	addConfigFlags(rootCmd.PersistentFlags())
}

// addConfigFlags registers the flags that override config.Load.
func addConfigFlags(f *pflag.FlagSet) {
	f.String("api-url", "", fmt.Sprintf("API base URL (env %s, default %s)", config.EnvAPIURL, config.DefaultAPIURL))
	f.Duration("timeout", 0, fmt.Sprintf("per-request timeout (env %s, default %s)", config.EnvTimeout, config.DefaultTimeout))
	f.Int("retries", 0, fmt.Sprintf("retries for idempotent requests (env %s)", config.EnvRetries))
	f.String("log-level", "", fmt.Sprintf("debug, info, warn or error (env %s, default %s)", config.EnvLogLevel, config.DefaultLogLevel))
	f.String("log-format", "", fmt.Sprintf("text or json (env %s)", config.EnvLogFormat))
}

// loadConfig reads the environment, applies any flags the user set and
// validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("api-url") {
		cfg.APIURL, _ = f.GetString("api-url")
	}
	if f.Changed("timeout") {
		cfg.Timeout, _ = f.GetDuration("timeout")
	}
	if f.Changed("retries") {
		cfg.Retries, _ = f.GetInt("retries")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("log-format") {
		cfg.LogFormat, _ = f.GetString("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runShell(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	tr, err := transport.New(cfg.Endpoint(),
		transport.WithTimeout(cfg.Timeout),
		transport.WithRetries(cfg.Retries, retryBackoff),
		transport.WithLogger(logger),
		transport.WithUserAgent("ourcity-cli/"+Version),
	)
	if err != nil {
		return err
	}
	defer tr.CloseIdleConnections()
	logger.Debug("starting shell", "endpoint", tr.Endpoint())

	// SIGINT never terminates the shell; it is delivered to the REPL,
	// which abandons the current read or request.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	in := repl.NewTerminalInput(os.Stdin, interrupts)
	defer in.Close()

	shell := repl.New(
		client.New(tr, client.WithLogger(logger)),
		session.NewStore(),
		in,
		cmd.OutOrStdout(),
		repl.WithLogger(logger),
	)
	return shell.Run(ctx)
}
