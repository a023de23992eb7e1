package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ourcity/ourcity-cli/config"
	"github.com/ourcity/ourcity-cli/devserver"
	"github.com/ourcity/ourcity-cli/internal/logging"
	"github.com/ourcity/ourcity-cli/storage"
	bboltstorage "github.com/ourcity/ourcity-cli/storage/bbolt"
	"github.com/ourcity/ourcity-cli/storage/memory"
	"github.com/ourcity/ourcity-cli/storage/postgres"
)

const (
	envAdminPassword = "OURCITY_ADMIN_PASSWORD"
	envPostgresDSN   = "OURCITY_DEV_POSTGRES_DSN"
	demoUsername     = "resident"
)

var (
	port             int
	dataDir          string
	postgresDSN      string
	adminPassword    string
	demoUserPassword string
	sessionTTL       time.Duration
	noSamplePosts    bool
	tlsCert          string
	tlsKey           string
)

var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run a local OurCity API for development and testing",
	Long: `Serves the authentication, post and admin endpoints the shell uses under
/apis/v1. Data lives in memory unless --data-dir (BBolt) or --postgres-dsn is
given. The admin account is created on first start.`,
	Args: cobra.NoArgs,
	RunE: runDevServer,
}

func init() {
	rootCmd.AddCommand(devServerCmd)
	f := devServerCmd.Flags()
	f.IntVarP(&port, "port", "p", 8000, "Port to listen on")
	f.StringVar(&dataDir, "data-dir", "", "Directory for a persistent BBolt database")
	f.StringVar(&postgresDSN, "postgres-dsn", os.Getenv(envPostgresDSN), "PostgreSQL connection string (env "+envPostgresDSN+")")
	f.StringVar(&adminPassword, "admin-password", os.Getenv(envAdminPassword), "Password for the seeded admin account (env "+envAdminPassword+")")
	f.StringVar(&demoUserPassword, "demo-user-password", "", "Also seed a non-admin '"+demoUsername+"' account with this password")
	f.DurationVar(&sessionTTL, "session-ttl", 24*time.Hour, "Absolute lifetime of a login session")
	f.BoolVar(&noSamplePosts, "no-sample-posts", false, "Do not seed sample posts")
	f.StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	f.StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
}

// openRepository picks the storage backend from the flags. The returned
// closer is never nil.
func openRepository(ctx context.Context) (storage.Repository, func() error, error) {
	switch {
	case postgresDSN != "" && dataDir != "":
		return nil, nil, errors.New("--postgres-dsn and --data-dir are mutually exclusive")
	case postgresDSN != "":
		repo, err := postgres.NewRepositoryFromDSN(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		return repo, repo.Close, nil
	case dataDir != "":
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		repo, err := bboltstorage.NewRepositoryFromFile(filepath.Join(dataDir, "ourcity.db"), nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open storage: %w", err)
		}
		return repo, repo.Close, nil
	default:
		return memory.NewRepository(), func() error { return nil }, nil
	}
}

func runDevServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Default to info so audit events are visible.
	level := cfg.LogLevel
	if !cmd.Flags().Changed("log-level") && os.Getenv(config.EnvLogLevel) == "" {
		level = "info"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, cfg.LogFormat)
	if err != nil {
		return err
	}
	if (tlsCert == "") != (tlsKey == "") {
		return errors.New("--tls-cert and --tls-key must be given together")
	}

	ctx := cmd.Context()
	repo, closeRepo, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	seed := devserver.SeedOptions{
		AdminPassword: adminPassword,
		SamplePosts:   !noSamplePosts,
	}
	if demoUserPassword != "" {
		seed.Users = map[string]string{demoUsername: demoUserPassword}
	}
	if err := devserver.Seed(ctx, repo, seed); err != nil {
		if errors.Is(err, devserver.ErrAdminPasswordRequired) {
			return fmt.Errorf("%w: pass --admin-password or set %s", err, envAdminPassword)
		}
		return fmt.Errorf("failed to seed storage: %w", err)
	}

	srv := devserver.New(repo,
		devserver.WithLogger(logger),
		devserver.WithSessionDuration(sessionTTL),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	done := make(chan error, 1)
	go func() {
		var err error
		if tlsCert != "" {
			err = server.ListenAndServeTLS(tlsCert, tlsKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- fmt.Errorf("server failed: %w", err)
			return
		}
		done <- nil
	}()

	out := cmd.OutOrStdout()
	printBanner(out, "Development API Server")
	fmt.Fprintf(out, "Serving %s on port %d (docs at %s/docs)...\n", devserver.BasePath, port, devserver.BasePath)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-done:
		return err
	}
}
