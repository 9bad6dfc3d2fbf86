// Package app wires configuration, logging, the API client, the session and
// the ticket controller for the command tree.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/afterdarksys/helpdesk/internal/apiclient"
	"github.com/afterdarksys/helpdesk/internal/authz"
	"github.com/afterdarksys/helpdesk/internal/cli/output"
	"github.com/afterdarksys/helpdesk/internal/config"
	"github.com/afterdarksys/helpdesk/internal/lifecycle"
	"github.com/afterdarksys/helpdesk/internal/pkg/logger"
	"github.com/afterdarksys/helpdesk/internal/session"
	"github.com/afterdarksys/helpdesk/internal/tickets"
)

// Version is reported in the User-Agent header
var Version = "dev"

// App is shared by every command of one invocation
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	Viper      *viper.Viper
	ConfigFile string

	Config   *config.Config
	Logger   *zap.Logger
	Client   *apiclient.Client
	Session  *session.Manager
	Tickets  *lifecycle.Controller
	Resolver authz.Resolver

	// Store overrides the configured session backend
	Store session.Store

	redis *redis.Client
	in    *bufio.Reader
}

// New creates an App reading from stdin and writing to stdout/stderr
func New() *App {
	return &App{
		In:    os.Stdin,
		Out:   os.Stdout,
		Err:   os.Stderr,
		Viper: viper.New(),
	}
}

// Init loads configuration and builds the collaborators. It runs once per
// invocation before any command.
func (a *App) Init() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(a.Viper, a.ConfigFile)
	if err != nil {
		return err
	}
	a.Config = cfg

	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.Environment)
	if err != nil {
		return fmt.Errorf("error building logger: %w", err)
	}
	a.Logger = log
	if cfg.Verbose && a.Viper.ConfigFileUsed() != "" {
		a.Logger.Debug("Using config file", zap.String("path", a.Viper.ConfigFileUsed()))
	}

	client, err := apiclient.New(cfg.APIURL,
		apiclient.WithLogger(a.Logger),
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithUserAgent("helpdesk-cli/"+Version),
	)
	if err != nil {
		return err
	}
	a.Client = client

	store, err := a.store()
	if err != nil {
		return err
	}
	a.Resolver = authz.Resolver{Legacy: cfg.Auth.LegacyUsernameRoles}
	a.Session = session.NewManager(client, store, a.Resolver, a.Logger)
	a.Tickets = lifecycle.New(client, a.Session, tickets.NewCollection(), a.Logger)
	return nil
}

func (a *App) store() (session.Store, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	switch a.Config.Session.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	case config.BackendRedis:
		a.redis = session.NewRedisClient(session.RedisConfig{
			Addr:     a.Config.Session.Redis.Addr,
			Password: a.Config.Session.Redis.Password,
			DB:       a.Config.Session.Redis.DB,
		}, a.Logger)
		return session.NewRedisStore(a.redis, a.Config.Session.Profile), nil
	default:
		path, err := a.Config.SessionFile()
		if err != nil {
			return nil, err
		}
		return session.NewFileStore(path), nil
	}
}

// Close releases connections and flushes the logger
func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.Logger != nil {
		_ = logger.Sync(a.Logger)
	}
}

// Printer returns a printer for the configured output format
func (a *App) Printer() *output.Printer {
	format := config.OutputTable
	if a.Config != nil {
		format = a.Config.Output
	}
	return output.New(a.Out, format)
}

// Context returns the context commands run API calls under
func (a *App) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	timeout := 2 * apiclient.DefaultTimeout
	if a.Config != nil && a.Config.RequestTimeout > 0 {
		timeout = 4 * a.Config.RequestTimeout
	}
	return context.WithTimeout(parent, timeout+time.Second)
}

// SignedIn restores the stored session and returns it
func (a *App) SignedIn(ctx context.Context) (*session.State, error) {
	if err := a.Session.Restore(ctx); err != nil {
		return nil, err
	}
	return a.Session.Require()
}

// Allowed returns the session if its role may perform action. It fails
// before any ticket request is made.
func (a *App) Allowed(ctx context.Context, action authz.Action, denied string) (*session.State, error) {
	st, err := a.SignedIn(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.Can(st.Role(), action) {
		return nil, apiclient.NewError(apiclient.KindForbidden, "%s", denied)
	}
	return st, nil
}

// Report prints err for the user. Session expiry adds the sign-in hint.
func (a *App) Report(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(a.Err, "Error: %s\n", apiclient.MessageOf(err))
	if errors.Is(err, apiclient.ErrSessionExpired) {
		fmt.Fprintln(a.Err, "Run 'helpdesk auth login' to sign in.")
	}
}
