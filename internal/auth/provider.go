package auth

import "context"

// SignUpResult reports whether the new account must be confirmed before use.
type SignUpResult struct {
	NeedsConfirmation bool
	UserID            string
}

// IdentityProvider is the user pool as seen by the session.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (Tokens, error)
	SignUp(ctx context.Context, email, password, name string) (SignUpResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendConfirmationCode(ctx context.Context, email string) error
	Refresh(ctx context.Context, username, refreshToken string) (Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Redirect is a pending hosted UI sign-in.
type Redirect struct {
	URL      string
	State    string
	Verifier string
	Provider Provider
}

// SocialLogin starts and completes redirect-based sign-in.
type SocialLogin interface {
	AuthCodeURL(p Provider) (Redirect, error)
	Exchange(ctx context.Context, code, verifier string) (Tokens, error)
}
