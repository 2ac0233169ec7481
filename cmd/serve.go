package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/nicolog/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the nicolog HTTP API",
	Long: `Serve the HTTP API for the browser app: sign-in (including Google, Facebook and
LinkedIn through the hosted UI callback), logging urges and reports. Metrics
are exposed on /metrics.

Tracking routes require "Authorization: Bearer <token>". Sign-in responses
carry the token; for a session restored at startup print it with
"nicolog auth token".`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, localhost:3000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr := app.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	if err := userPoolConfigured(); err != nil {
		app.logger.Warn("serving without a user pool, sign-in will fail", zap.Error(err))
	}

	s, err := currentSession(ctx)
	if err != nil {
		return err
	}
	opts := server.Options{
		Addr:    addr,
		Session: s,
		Open:    openStore,
		Logger:  app.logger,
	}
	if app.hosted != nil {
		opts.LogoutURL = app.hosted.LogoutURL()
	}
	srv, err := server.New(opts)
	if err != nil {
		return err
	}
	if u := s.Current().User; u != nil {
		app.logger.Info("serving restored session, use `nicolog auth token` for the bearer token", zap.String("user_id", u.ID))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}
