package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rohmanhakim/newsletter-triage/internal/build"
	"github.com/rohmanhakim/newsletter-triage/internal/config"
	"github.com/rohmanhakim/newsletter-triage/internal/connection"
	"github.com/rohmanhakim/newsletter-triage/internal/database"
	"github.com/rohmanhakim/newsletter-triage/internal/logging"
	"github.com/rohmanhakim/newsletter-triage/internal/metadata"
	"github.com/rohmanhakim/newsletter-triage/internal/settings"
	"github.com/rohmanhakim/newsletter-triage/internal/triage"
	"github.com/spf13/cobra"
)

// app holds the services a command works with, all bound to one database.
type app struct {
	cfg         config.Config
	logger      *slog.Logger
	recorder    *metadata.Recorder
	store       *database.Store
	user        database.User
	settings    *settings.Service
	connections *connection.Manager
	triage      *triage.Service
	httpClient  *http.Client
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := InitConfigWithError()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel(),
		Format: logging.Format(cfg.LogFormat()),
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	recorder := metadata.NewRecorder(build.Name, logger)

	store, err := database.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	user, err := store.EnsureUser(ctx, cfg.UserEmail())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Timeout()}
	manager := connection.NewManager(store, recorder).WithHTTPClient(httpClient)
	if oauthCfg := connection.OAuthConfig(connection.ProviderGoogle, cfg.GoogleClientID(), cfg.GoogleClientSecret()); oauthCfg != nil {
		manager = manager.WithProvider(connection.ProviderGoogle, oauthCfg)
	}
	if oauthCfg := connection.OAuthConfig(connection.ProviderRaindrop, cfg.RaindropClientID(), cfg.RaindropClientSecret()); oauthCfg != nil {
		manager = manager.WithProvider(connection.ProviderRaindrop, oauthCfg)
	}

	exporter := connection.NewRaindropExporter(manager).
		WithHTTPClient(httpClient).
		WithUserAgent(cfg.UserAgent())

	return &app{
		cfg:         cfg,
		logger:      logger,
		recorder:    recorder,
		store:       store,
		user:        user,
		settings:    settings.NewService(store, cfg.MailFolder()),
		connections: manager,
		triage:      triage.NewService(store, recorder).WithExporter(exporter),
		httpClient:  httpClient,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp wraps a command body with app setup and teardown.
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}
