// Package server provides the nicolog HTTP API.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Tiliavir/nicolog/internal/auth"
	"github.com/Tiliavir/nicolog/internal/store"
)

// OpenFunc opens the entry store of a signed-in user.
type OpenFunc func(userID string) (*store.Store, error)

// Options configures a Server.
type Options struct {
	Addr    string
	Session *auth.Session
	Open    OpenFunc
	// LogoutURL is returned from logout so browsers can end the hosted UI
	// session too. Empty when social sign-in is not configured.
	LogoutURL string
	Logger    *zap.Logger
	Metrics   *Metrics
	Now       func() time.Time
}

// Server serves the auth and tracking API for the session's user.
type Server struct {
	echo      *echo.Echo
	addr      string
	session   *auth.Session
	open      OpenFunc
	logoutURL string
	logger    *zap.Logger
	metrics   *Metrics
	now       func() time.Time

	unsubscribe  func()
	requireToken echo.MiddlewareFunc

	mu    sync.RWMutex
	store *store.Store
	owner string
}

// New creates the server and subscribes it to session changes so the signed-in
// user's entries are opened on sign-in and dropped on sign-out.
func New(opts Options) (*Server, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if opts.Open == nil {
		return nil, fmt.Errorf("open cannot be nil")
	}
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		addr:      opts.Addr,
		session:   opts.Session,
		open:      opts.Open,
		logoutURL: opts.LogoutURL,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	s.requireToken = middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: s.validToken,
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Please sign in").SetInternal(err)
		},
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(s.requestLogger)
	e.Use(s.metrics.Middleware())

	s.registerRoutes()

	s.unsubscribe = s.session.Subscribe(s.onSessionEvent)
	if u := s.session.Current().User; u != nil {
		s.attach(u.ID)
	}
	return s, nil
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		duration := time.Since(start)

		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", duration),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return err
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	v1 := s.echo.Group("/api/v1")

	a := v1.Group("/auth")
	a.POST("/login", s.handleLogin, s.ownerWhenSignedIn)
	a.POST("/register", s.handleRegister, s.ownerWhenSignedIn)
	a.POST("/confirm", s.handleConfirm)
	a.POST("/resend", s.handleResend)
	a.POST("/logout", s.handleLogout, s.signedIn, s.requireToken)
	a.GET("/social/:provider", s.handleSocial, s.ownerWhenSignedIn)
	a.GET("/callback", s.handleCallback)
	a.GET("/me", s.handleMe, s.signedIn, s.requireToken)

	g := v1.Group("", s.signedIn, s.requireToken, s.withEntries)
	g.GET("/entries", s.handleListEntries)
	g.POST("/entries", s.handleCreateEntry)
	g.GET("/report", s.handleReport)
	g.GET("/report/navigate", s.handleNavigate)
	g.GET("/today", s.handleToday)
}

func (s *Server) onSessionEvent(ev auth.Event, user *auth.User) {
	switch ev {
	case auth.SignedIn:
		s.attach(user.ID)
	case auth.SignedOut:
		s.detach()
	}
}

// attach opens userID's entries, replacing whatever was open before.
func (s *Server) attach(userID string) {
	s.detach()
	st, err := s.open(userID)
	if err != nil {
		s.logger.Error("opening entries", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.mu.Lock()
	s.store = st
	s.owner = userID
	s.mu.Unlock()
	s.logger.Debug("entries opened", zap.String("user_id", userID), zap.Int("count", st.Len()))
}

func (s *Server) detach() {
	s.mu.Lock()
	s.store = nil
	s.owner = ""
	s.mu.Unlock()
}

// storeFor returns the open store if it belongs to userID.
func (s *Server) storeFor(userID string) *store.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.owner != userID {
		return nil
	}
	return s.store
}

const (
	userKey  = "nicolog.user"
	storeKey = "nicolog.store"
)

// signedIn rejects requests while the session is being restored or nobody
// is signed in.
func (s *Server) signedIn(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		st := s.session.Current()
		if st.Checking {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Restoring your session, please retry")
		}
		if st.User == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Please sign in")
		}
		c.Set(userKey, st.User)
		return next(c)
	}
}

// validToken reports whether key is the session's current access token.
func (s *Server) validToken(key string, _ echo.Context) (bool, error) {
	want, err := s.session.AccessToken()
	if err != nil || want == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(want)) == 1, nil
}

// ownerWhenSignedIn lets anyone through while nobody is signed in. Once a user
// is, only a caller holding their access token may replace the session.
func (s *Server) ownerWhenSignedIn(next echo.HandlerFunc) echo.HandlerFunc {
	guarded := s.requireToken(next)
	return func(c echo.Context) error {
		if s.session.Current().User == nil {
			return next(c)
		}
		return guarded(c)
	}
}

// withEntries attaches the signed-in user's open store.
func (s *Server) withEntries(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := currentUser(c)
		entries := s.storeFor(user.ID)
		if entries == nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Your entries are not available right now")
		}
		c.Set(storeKey, entries)
		return next(c)
	}
}

func currentUser(c echo.Context) *auth.User {
	return c.Get(userKey).(*auth.User)
}

func currentStore(c echo.Context) *store.Store {
	return c.Get(storeKey).(*store.Store)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.addr))
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	s.unsubscribe()
	return s.echo.Shutdown(ctx)
}
