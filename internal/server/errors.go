package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Tiliavir/nicolog/internal/auth"
)

// failures maps auth failure kinds to HTTP status codes and metric labels.
var failures = []struct {
	kind   error
	status int
	label  string
}{
	{auth.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{auth.ErrNotSignedIn, http.StatusUnauthorized, "not_signed_in"},
	{auth.ErrConfirmationRequired, http.StatusForbidden, "confirmation_required"},
	{auth.ErrAccountExists, http.StatusConflict, "account_exists"},
	{auth.ErrConfirmationFailed, http.StatusBadRequest, "confirmation_failed"},
	{auth.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{auth.ErrSocialLoginFailed, http.StatusBadGateway, "social_login_failed"},
}

func statusFor(err error) int {
	for _, f := range failures {
		if errors.Is(err, f.kind) {
			return f.status
		}
	}
	return http.StatusInternalServerError
}

func failureKind(err error) string {
	for _, f := range failures {
		if errors.Is(err, f.kind) {
			return f.label
		}
	}
	return "internal"
}

// authError records a failed auth operation and turns err into an HTTP error
// carrying the user-facing message.
func (s *Server) authError(operation string, err error) error {
	s.metrics.authFailed(operation, err)
	return echo.NewHTTPError(statusFor(err), auth.UserMessage(err)).SetInternal(err)
}
