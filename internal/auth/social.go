package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/nicolog/internal/config"
)

// HostedUI performs social sign-in through the user pool's OAuth2 endpoints
// using the authorization code flow with PKCE.
type HostedUI struct {
	oauth     *oauth2.Config
	baseURL   string
	logoutURL string
	providers map[string]string
}

// NewHostedUI builds the OAuth2 client for the configured hosted UI domain.
func NewHostedUI(cfg config.CognitoConfig) (*HostedUI, error) {
	if cfg.Domain == "" {
		return nil, newError(ErrSocialLoginFailed, "Social sign-in is not configured (cognito.domain is empty)", nil)
	}
	base := strings.TrimSuffix(cfg.Domain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &HostedUI{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/oauth2/authorize",
				TokenURL: base + "/oauth2/token",
			},
		},
		baseURL:   base,
		logoutURL: cfg.LogoutURL,
		providers: cfg.Providers,
	}, nil
}

// AuthCodeURL returns the URL that starts sign-in with p, plus the state and
// PKCE verifier needed to complete it.
func (h *HostedUI) AuthCodeURL(p Provider) (Redirect, error) {
	idp := h.providers[string(p)]
	if idp == "" {
		return Redirect{}, newError(ErrSocialLoginFailed, fmt.Sprintf("Sign-in with %s is not configured", p), nil)
	}
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	u := h.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("identity_provider", idp),
	)
	return Redirect{URL: u, State: state, Verifier: verifier, Provider: p}, nil
}

// Exchange trades an authorization code for user pool tokens.
func (h *HostedUI) Exchange(ctx context.Context, code, verifier string) (Tokens, error) {
	tok, err := h.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Tokens{}, newError(ErrSocialLoginFailed, "Social sign-in could not be completed", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return Tokens{}, newError(ErrSocialLoginFailed, "Social sign-in returned no identity", nil)
	}
	return Tokens{
		AccessToken:  tok.AccessToken,
		IDToken:      idToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

// LogoutURL returns the hosted UI logout endpoint, which ends the provider session too.
func (h *HostedUI) LogoutURL() string {
	q := url.Values{
		"client_id":  {h.oauth.ClientID},
		"logout_uri": {h.logoutURL},
	}
	return h.baseURL + "/logout?" + q.Encode()
}

// Callback is the query of a hosted UI redirect.
type Callback struct {
	Code  string
	State string
}

// CallbackFromQuery extracts the code and state, turning an error redirect into ErrSocialLoginFailed.
func CallbackFromQuery(q url.Values) (Callback, error) {
	if e := q.Get("error"); e != "" {
		desc := q.Get("error_description")
		if desc == "" {
			desc = e
		}
		return Callback{}, newError(ErrSocialLoginFailed, "Social sign-in was cancelled or refused", errors.New(desc))
	}
	cb := Callback{Code: q.Get("code"), State: q.Get("state")}
	if cb.Code == "" || cb.State == "" {
		return Callback{}, newError(ErrSocialLoginFailed, "Social sign-in returned an incomplete response", nil)
	}
	return cb, nil
}

// AwaitCallback serves redirectURL on the loopback interface until the hosted
// UI redirects the browser back to it or ctx is done.
func AwaitCallback(ctx context.Context, redirectURL string) (Callback, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return Callback{}, fmt.Errorf("invalid redirect URL %q: %w", redirectURL, err)
	}
	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return Callback{}, fmt.Errorf("listening for the sign-in callback on %s: %w", u.Host, err)
	}

	type result struct {
		cb  Callback
		err error
	}
	done := make(chan result, 1)

	path := u.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		cb, err := CallbackFromQuery(r.URL.Query())
		if err != nil {
			http.Error(w, UserMessage(err)+". You can close this window.", http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Signed in to nicolog. You can close this window.")
		}
		select {
		case done <- result{cb, err}:
		default:
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case <-ctx.Done():
		return Callback{}, newError(ErrSocialLoginFailed, "Timed out waiting for social sign-in", ctx.Err())
	case res := <-done:
		return res.cb, res.err
	}
}
