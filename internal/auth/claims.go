package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// idClaims are the ID token claims nicolog reads.
type idClaims struct {
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Picture    string     `json:"picture"`
	Username   string     `json:"cognito:username"`
	Identities []identity `json:"identities"`
	jwt.RegisteredClaims
}

type identity struct {
	ProviderName string `json:"providerName"`
	ProviderType string `json:"providerType"`
}

// UserFromIDToken reads the user out of a user pool ID token. The token is not
// verified: it is only ever read after being received from the user pool over
// TLS. providerNames maps google/facebook/linkedin to user pool IdP names.
func UserFromIDToken(idToken string, providerNames map[string]string) (User, time.Time, error) {
	var claims idClaims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil {
		return User{}, time.Time{}, fmt.Errorf("parsing id token: %w", err)
	}
	if claims.Subject == "" {
		return User{}, time.Time{}, fmt.Errorf("id token has no subject")
	}

	u := User{
		ID:     claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Origin: EmailOrigin{},
	}
	if u.Name == "" {
		u.Name, _, _ = strings.Cut(u.Email, "@")
	}
	if len(claims.Identities) > 0 {
		if p, ok := providerFor(claims.Identities[0].ProviderName, providerNames); ok {
			u.Origin = SocialOrigin{Provider: p, AvatarURL: claims.Picture}
		}
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return u, exp, nil
}

func providerFor(idpName string, providerNames map[string]string) (Provider, bool) {
	for key, name := range providerNames {
		if strings.EqualFold(name, idpName) {
			if p, err := ParseProvider(key); err == nil {
				return p, true
			}
		}
	}
	return "", false
}
