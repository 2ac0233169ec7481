package auth

import (
	"fmt"
	"strings"
)

// Provider names a social identity provider reachable through the hosted UI.
type Provider string

const (
	Google   Provider = "google"
	Facebook Provider = "facebook"
	LinkedIn Provider = "linkedin"
)

// ParseProvider accepts google, facebook or linkedin in any case.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case Google, Facebook, LinkedIn:
		return p, nil
	default:
		return "", newError(ErrInvalidInput, fmt.Sprintf("unsupported provider %q (want google, facebook or linkedin)", s), nil)
	}
}

// Origin records how a user authenticated. It is either EmailOrigin or SocialOrigin.
type Origin interface {
	origin()
	// Name is "email" or the social provider name.
	Name() string
}

// EmailOrigin is a username/password account in the user pool.
type EmailOrigin struct{}

func (EmailOrigin) origin() {}

func (EmailOrigin) Name() string { return "email" }

// SocialOrigin is an account federated from a social provider.
type SocialOrigin struct {
	Provider  Provider
	AvatarURL string
}

func (SocialOrigin) origin() {}

func (o SocialOrigin) Name() string { return string(o.Provider) }

// User is the signed-in identity.
type User struct {
	ID     string
	Email  string
	Name   string
	Origin Origin
}

// Provider returns the origin name: email, google, facebook or linkedin.
func (u User) Provider() string {
	if u.Origin == nil {
		return EmailOrigin{}.Name()
	}
	return u.Origin.Name()
}

// AvatarURL returns the social avatar, if any.
func (u User) AvatarURL() string {
	if s, ok := u.Origin.(SocialOrigin); ok {
		return s.AvatarURL
	}
	return ""
}
