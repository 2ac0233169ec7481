package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/nicolog/internal/auth"
	"github.com/Tiliavir/nicolog/internal/config"
	"github.com/Tiliavir/nicolog/internal/logging"
	"github.com/Tiliavir/nicolog/internal/storage"
	"github.com/Tiliavir/nicolog/internal/store"
)

// appContext is what every command shares once setup has run.
type appContext struct {
	cfg     config.Config
	logger  *zap.Logger
	session *auth.Session
	hosted  *auth.HostedUI
}

var app appContext

// setup loads the config and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return err
	}
	app.cfg = cfg
	app.logger = logger.With(zap.String("command", cmd.Name()))
	return nil
}

// errNotConfigured is returned by auth commands when no user pool is configured.
var errNotConfigured = errors.New("sign-in is not configured")

// userPoolConfigured reports an error naming the missing Cognito settings.
func userPoolConfigured() error {
	if err := app.cfg.Cognito.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errNotConfigured, err)
	}
	return nil
}

// currentSession builds the session on first use and restores the saved
// sign-in, so callers never observe the checking state.
func currentSession(ctx context.Context) (*auth.Session, error) {
	if app.session != nil {
		return app.session, nil
	}

	opts := auth.Options{
		Tokens:        auth.NewTokenFile(app.cfg.DataDir),
		ProviderNames: app.cfg.Cognito.Providers,
		Logger:        app.logger,
	}
	if err := userPoolConfigured(); err == nil {
		c, err := auth.NewCognito(ctx, app.cfg.Cognito)
		if err != nil {
			return nil, err
		}
		opts.Provider = c
	} else {
		app.logger.Debug("user pool not configured", zap.Error(err))
	}
	if app.cfg.Cognito.Domain != "" {
		h, err := auth.NewHostedUI(app.cfg.Cognito)
		if err != nil {
			return nil, err
		}
		opts.Social = h
		app.hosted = h
	}

	s := auth.NewSession(opts)
	if err := s.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	app.session = s
	return s, nil
}

// openStore opens userID's journal with its full history.
func openStore(userID string) (*store.Store, error) {
	return store.Open(storage.NewJournal(app.cfg.DataDir, userID), time.Now())
}

// requireEntries returns the signed-in user and their entries, exiting with a
// hint when nobody is signed in.
func requireEntries(ctx context.Context) (*auth.User, *store.Store) {
	s, err := currentSession(ctx)
	if err != nil {
		exitWith(exitUserError, err)
	}
	user := s.Current().User
	if user == nil {
		exitWith(exitUserError, errors.New("not signed in – run `nicolog auth login` first"))
	}
	st, err := openStore(user.ID)
	if err != nil {
		exitWith(exitStorageError, err)
	}
	return user, st
}
