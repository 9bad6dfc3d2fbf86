// Command helpdesk-fakeapi serves the in-memory helpdesk API for local
// development against the CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/afterdarksys/helpdesk/internal/fakeapi"
	"github.com/afterdarksys/helpdesk/internal/models"
	"github.com/afterdarksys/helpdesk/internal/pkg/logger"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "helpdesk-fakeapi",
		Short: "Serve an in-memory helpdesk API",
		Long: `Serve an in-memory helpdesk API seeded with demo accounts.

Every account's password is "<username>-pass": alice, bob, teamop,
teamtech, teamhead and admin.

Examples:
  # Serve on the CLI's default API URL
  helpdesk-fakeapi

  # Issue role claims instead of relying on reserved usernames
  helpdesk-fakeapi --role-claims --addr :9000`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			withClaims, _ := cmd.Flags().GetBool("role-claims")
			ttl, _ := cmd.Flags().GetDuration("token-ttl")
			level, _ := cmd.Flags().GetString("log-level")
			return serve(addr, withClaims, ttl, level)
		},
	}
	cmd.Flags().String("addr", ":8000", "Listen address")
	cmd.Flags().Bool("role-claims", false, "Add a role claim to issued tokens")
	cmd.Flags().Duration("token-ttl", time.Hour, "Access token lifetime")
	cmd.Flags().String("log-level", "info", "Log level")
	return cmd
}

func serve(addr string, withClaims bool, ttl time.Duration, level string) error {
	zapLogger, err := logger.New(level, "development")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync(zapLogger)

	opts := fakeapi.Options{TokenTTL: ttl, Logger: zapLogger}
	if withClaims {
		opts.RoleClaims = map[string]models.Role{
			"teamop":   models.RoleOperationsTeam,
			"teamtech": models.RoleTechSupport,
			"teamhead": models.RoleTeamHead,
			"admin":    models.RoleAdmin,
		}
	}
	fake := fakeapi.New(opts, fakeapi.DefaultAccounts()...)

	srv := &http.Server{
		Addr:         addr,
		Handler:      fake.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("Starting fake API server", zap.String("addr", addr), zap.Bool("role_claims", withClaims))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-quit:
	}
	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	zapLogger.Info("Server exited gracefully")
	return nil
}
