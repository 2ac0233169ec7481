package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func makeIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("signing id token: %v", err)
	}
	return s
}

func emailTokens(t *testing.T, sub, email string, exp time.Time) Tokens {
	t.Helper()
	return Tokens{
		AccessToken:  "access-" + sub,
		IDToken:      makeIDToken(t, jwt.MapClaims{"sub": sub, "email": email, "name": "Nico", "exp": exp.Unix()}),
		RefreshToken: "refresh-" + sub,
		Expiry:       exp,
	}
}

// fakeProvider is an in-memory user pool.
type fakeProvider struct {
	t           *testing.T
	now         time.Time
	users       map[string]string // email -> password
	unconfirmed map[string]string // email -> code
	signOuts    int
	refreshErr  error
	resent      int
}

func newFakeProvider(t *testing.T, now time.Time) *fakeProvider {
	return &fakeProvider{t: t, now: now, users: map[string]string{}, unconfirmed: map[string]string{}}
}

func (f *fakeProvider) SignIn(_ context.Context, email, password string) (Tokens, error) {
	if _, ok := f.unconfirmed[email]; ok {
		return Tokens{}, newError(ErrConfirmationRequired, "Please confirm your email before signing in", nil)
	}
	if pw, ok := f.users[email]; !ok || pw != password {
		return Tokens{}, newError(ErrInvalidCredentials, "Invalid email or password", nil)
	}
	return emailTokens(f.t, "sub-"+email, email, f.now.Add(time.Hour)), nil
}

func (f *fakeProvider) SignUp(_ context.Context, email, password, _ string) (SignUpResult, error) {
	if _, ok := f.users[email]; ok {
		return SignUpResult{}, newError(ErrAccountExists, "An account with this email already exists", nil)
	}
	f.users[email] = password
	f.unconfirmed[email] = "123456"
	return SignUpResult{NeedsConfirmation: true, UserID: "sub-" + email}, nil
}

func (f *fakeProvider) ConfirmSignUp(_ context.Context, email, code string) error {
	if f.unconfirmed[email] != code {
		return newError(ErrConfirmationFailed, "Invalid confirmation code", nil)
	}
	delete(f.unconfirmed, email)
	return nil
}

func (f *fakeProvider) ResendConfirmationCode(context.Context, string) error {
	f.resent++
	return nil
}

func (f *fakeProvider) Refresh(_ context.Context, username, refreshToken string) (Tokens, error) {
	if f.refreshErr != nil {
		return Tokens{}, f.refreshErr
	}
	tok := emailTokens(f.t, username, "refreshed@example.com", f.now.Add(time.Hour))
	tok.RefreshToken = refreshToken
	return tok, nil
}

func (f *fakeProvider) SignOut(context.Context, string) error {
	f.signOuts++
	return nil
}

// fakeSocial issues tokens for any code.
type fakeSocial struct {
	t          *testing.T
	now        time.Time
	exchangeFn func(code, verifier string) (Tokens, error)
}

func (f *fakeSocial) AuthCodeURL(p Provider) (Redirect, error) {
	return Redirect{URL: "https://auth.example.com/oauth2/authorize?p=" + string(p), State: "state-" + string(p), Verifier: "verifier", Provider: p}, nil
}

func (f *fakeSocial) Exchange(_ context.Context, code, verifier string) (Tokens, error) {
	if f.exchangeFn != nil {
		return f.exchangeFn(code, verifier)
	}
	return Tokens{
		AccessToken: "social-access",
		IDToken: makeIDToken(f.t, jwt.MapClaims{
			"sub":        "google-sub",
			"email":      "nico@gmail.com",
			"name":       "Nico G",
			"picture":    "https://example.com/a.png",
			"identities": []map[string]any{{"providerName": "Google", "providerType": "Google"}},
		}),
		Expiry: f.now.Add(time.Hour),
	}, nil
}
