package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Event is a session transition delivered to listeners.
type Event int

const (
	SignedIn Event = iota + 1
	SignedOut
	RedirectFailed
)

func (e Event) String() string {
	switch e {
	case SignedIn:
		return "signedIn"
	case SignedOut:
		return "signedOut"
	case RedirectFailed:
		return "redirectFailed"
	default:
		return "unknown"
	}
}

// Listener receives session transitions. user is nil unless ev is SignedIn.
type Listener func(ev Event, user *User)

// State is a snapshot of the session. While Checking is true the stored
// session has not been restored yet and User must not be trusted.
type State struct {
	User     *User
	Checking bool
}

// RegisterResult is returned by Session.Register.
type RegisterResult struct {
	NeedsConfirmation bool
}

// resendInterval is the minimum spacing between confirmation code requests.
const resendInterval = 30 * time.Second

// pendingTTL bounds how long a started social sign-in may take.
const pendingTTL = 10 * time.Minute

// Options configures a Session.
type Options struct {
	Provider IdentityProvider
	// Social may be nil when the hosted UI is not configured.
	Social        SocialLogin
	Tokens        *TokenFile
	ProviderNames map[string]string
	Logger        *zap.Logger
	Now           func() time.Time
}

// Session owns the signed-in user. Create it with NewSession, call Restore
// once at startup and Logout to tear it down.
type Session struct {
	provider      IdentityProvider
	social        SocialLogin
	tokenFile     *TokenFile
	providerNames map[string]string
	logger        *zap.Logger
	now           func() time.Time

	mu        sync.Mutex
	user      *User
	tokens    *Tokens
	checking  bool
	pending   map[string]pendingRedirect
	resend    map[string]*rate.Limiter
	listeners map[int]Listener
	nextID    int
}

type pendingRedirect struct {
	Redirect
	created time.Time
}

// NewSession returns a session in the checking state.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		provider:      opts.Provider,
		social:        opts.Social,
		tokenFile:     opts.Tokens,
		providerNames: opts.ProviderNames,
		logger:        logger,
		now:           now,
		checking:      true,
		pending:       map[string]pendingRedirect{},
		resend:        map[string]*rate.Limiter{},
		listeners:     map[int]Listener{},
	}
}

// Current returns the signed-in user (nil when signed out) and the checking flag.
func (s *Session) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Checking: s.checking}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// AccessToken returns the current access token, or ErrNotSignedIn.
func (s *Session) AccessToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil || s.user == nil {
		return "", newError(ErrNotSignedIn, "Please sign in", nil)
	}
	return s.tokens.AccessToken, nil
}

// Subscribe registers l and returns a function that removes it.
func (s *Session) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify calls listeners outside the lock.
func (s *Session) notify(ev Event, user *User) {
	s.mu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()
	for _, l := range ls {
		l(ev, user)
	}
}

// Restore loads the saved tokens, refreshing them when expired, and ends the
// checking state. A missing or unusable session leaves the user signed out.
func (s *Session) Restore(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.checking = false
		s.mu.Unlock()
	}()

	if s.tokenFile == nil {
		return nil
	}
	tok, err := s.tokenFile.Load()
	if err != nil {
		s.logger.Warn("discarding saved session", zap.Error(err))
		_ = s.tokenFile.Clear()
		return nil
	}
	if tok == nil {
		return nil
	}

	user, _, err := UserFromIDToken(tok.IDToken, s.providerNames)
	if err != nil {
		s.logger.Warn("discarding saved session", zap.Error(err))
		_ = s.tokenFile.Clear()
		return nil
	}

	if !tok.Valid(s.now()) {
		if tok.RefreshToken == "" || s.provider == nil {
			_ = s.tokenFile.Clear()
			return nil
		}
		refreshed, err := s.provider.Refresh(ctx, user.ID, tok.RefreshToken)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				s.logger.Info("saved session rejected", zap.Error(err))
				_ = s.tokenFile.Clear()
				return nil
			}
			s.logger.Warn("session refresh failed, keeping saved session", zap.Error(err))
			return err
		}
		if user, _, err = UserFromIDToken(refreshed.IDToken, s.providerNames); err != nil {
			_ = s.tokenFile.Clear()
			return newError(ErrInvalidCredentials, "Your session has expired, please sign in again", err)
		}
		tok = &refreshed
		if err := s.tokenFile.Save(refreshed); err != nil {
			s.logger.Warn("could not save refreshed session", zap.Error(err))
		}
	}

	s.establish(user, *tok)
	s.logger.Debug("session restored", zap.String("user_id", user.ID), zap.String("provider", user.Provider()))
	return nil
}

// establish records a signed-in user and notifies listeners.
func (s *Session) establish(user User, tok Tokens) {
	s.mu.Lock()
	s.user = &user
	s.tokens = &tok
	s.checking = false
	s.mu.Unlock()
	u := user
	s.notify(SignedIn, &u)
}

// signIn persists tok and establishes the user it identifies.
func (s *Session) signIn(tok Tokens) (User, error) {
	user, _, err := UserFromIDToken(tok.IDToken, s.providerNames)
	if err != nil {
		return User{}, newError(ErrInvalidCredentials, "The identity provider returned an unreadable identity", err)
	}
	if s.tokenFile != nil {
		if err := s.tokenFile.Save(tok); err != nil {
			s.logger.Warn("could not save session", zap.Error(err))
		}
	}
	s.establish(user, tok)
	return user, nil
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) (User, error) {
	if err := ValidateLogin(email, password); err != nil {
		return User{}, err
	}
	tok, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Info("login failed", zap.String("email", email), zap.Error(err))
		return User{}, err
	}
	return s.signIn(tok)
}

// Register creates an account. When the user pool requires confirmation the
// session stays signed out; otherwise the new user is signed in.
func (s *Session) Register(ctx context.Context, r Registration) (RegisterResult, error) {
	if err := r.Validate(); err != nil {
		return RegisterResult{}, err
	}
	res, err := s.provider.SignUp(ctx, r.Email, r.Password, r.Name)
	if err != nil {
		s.logger.Info("registration failed", zap.String("email", r.Email), zap.Error(err))
		return RegisterResult{}, err
	}
	if res.NeedsConfirmation {
		return RegisterResult{NeedsConfirmation: true}, nil
	}
	if _, err := s.Login(ctx, r.Email, r.Password); err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{}, nil
}

// ConfirmRegistration submits the emailed confirmation code.
func (s *Session) ConfirmRegistration(ctx context.Context, email, code string) error {
	if err := ValidateConfirmation(email, code); err != nil {
		return err
	}
	if err := s.provider.ConfirmSignUp(ctx, email, code); err != nil {
		s.logger.Info("confirmation failed", zap.String("email", email), zap.Error(err))
		return err
	}
	return nil
}

// ResendConfirmationCode asks for a new code, at most once per resendInterval
// for each email. A request the user pool rejects does not count.
func (s *Session) ResendConfirmationCode(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	now := s.now()
	r := s.resendLimiter(email, now).ReserveN(now, 1)
	if r.DelayFrom(now) > 0 {
		r.CancelAt(now)
		return newError(ErrRateLimited, "A code was sent recently, please wait before asking again", nil)
	}
	if err := s.provider.ResendConfirmationCode(ctx, email); err != nil {
		r.CancelAt(now)
		return err
	}
	return nil
}

// resendLimiter returns the limiter for email, dropping limiters that have
// fully recovered.
func (s *Session) resendLimiter(email string, now time.Time) *rate.Limiter {
	key := strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.resend[key]; ok {
		return l
	}
	for k, l := range s.resend {
		if l.TokensAt(now) >= 1 {
			delete(s.resend, k)
		}
	}
	l := rate.NewLimiter(rate.Every(resendInterval), 1)
	s.resend[key] = l
	return l
}

// BeginSocial starts a hosted UI sign-in with p and returns the URL to open.
func (s *Session) BeginSocial(p Provider) (Redirect, error) {
	if s.social == nil {
		return Redirect{}, newError(ErrSocialLoginFailed, "Social sign-in is not configured", nil)
	}
	r, err := s.social.AuthCodeURL(p)
	if err != nil {
		s.notify(RedirectFailed, nil)
		return Redirect{}, err
	}
	now := s.now()
	s.mu.Lock()
	for state, pr := range s.pending {
		if now.Sub(pr.created) > pendingTTL {
			delete(s.pending, state)
		}
	}
	s.pending[r.State] = pendingRedirect{Redirect: r, created: now}
	s.mu.Unlock()
	return r, nil
}

// CompleteSocial finishes a sign-in started by BeginSocial.
func (s *Session) CompleteSocial(ctx context.Context, cb Callback) (User, error) {
	s.mu.Lock()
	pr, ok := s.pending[cb.State]
	delete(s.pending, cb.State)
	s.mu.Unlock()

	if !ok || s.now().Sub(pr.created) > pendingTTL {
		s.notify(RedirectFailed, nil)
		return User{}, newError(ErrSocialLoginFailed, "Social sign-in expired or was not started here, please try again", nil)
	}
	tok, err := s.social.Exchange(ctx, cb.Code, pr.Verifier)
	if err != nil {
		s.logger.Info("social login failed", zap.String("provider", string(pr.Provider)), zap.Error(err))
		s.notify(RedirectFailed, nil)
		return User{}, err
	}
	user, err := s.signIn(tok)
	if err != nil {
		s.notify(RedirectFailed, nil)
		return User{}, newError(ErrSocialLoginFailed, "Social sign-in could not be completed", err)
	}
	return user, nil
}

// FailSocial reports a redirect that came back with an error.
func (s *Session) FailSocial(err error) {
	s.logger.Info("social login redirect failed", zap.Error(err))
	s.notify(RedirectFailed, nil)
}

// Logout signs out everywhere when possible and always clears the local session.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	tok := s.tokens
	wasSignedIn := s.user != nil
	s.user = nil
	s.tokens = nil
	s.mu.Unlock()

	if tok != nil && s.provider != nil {
		if err := s.provider.SignOut(ctx, tok.AccessToken); err != nil {
			s.logger.Warn("global sign-out failed", zap.Error(err))
		}
	}
	if s.tokenFile != nil {
		if err := s.tokenFile.Clear(); err != nil {
			return err
		}
	}
	if wasSignedIn {
		s.notify(SignedOut, nil)
	}
	return nil
}
