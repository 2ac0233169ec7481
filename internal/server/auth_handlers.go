package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Tiliavir/nicolog/internal/auth"
)

// UserResponse describes the signed-in user.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func userResponse(u auth.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Provider:  u.Provider(),
		AvatarURL: u.AvatarURL(),
	}
}

// SessionResponse is returned when a sign-in completes. AccessToken must be
// sent as "Authorization: Bearer <token>" on every guarded request.
type SessionResponse struct {
	UserResponse
	AccessToken string `json:"access_token"`
}

// sessionResponse pairs u with the session's current access token.
func (s *Server) sessionResponse(u auth.User) (SessionResponse, error) {
	tok, err := s.session.AccessToken()
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{UserResponse: userResponse(u), AccessToken: tok}, nil
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the request body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	AcceptTerms     bool   `json:"accept_terms"`
}

// RegisterResponse tells the client whether to show the confirmation form.
// AccessToken is set when the new account was signed in right away.
type RegisterResponse struct {
	NeedsConfirmation bool   `json:"needs_confirmation"`
	AccessToken       string `json:"access_token,omitempty"`
}

// ConfirmRequest is the request body for POST /api/v1/auth/confirm.
type ConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResendRequest is the request body for POST /api/v1/auth/resend.
type ResendRequest struct {
	Email string `json:"email"`
}

// StatusResponse is a plain acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}

// LogoutResponse optionally carries the hosted UI logout URL.
type LogoutResponse struct {
	Status    string `json:"status"`
	LogoutURL string `json:"logout_url,omitempty"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := s.session.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return s.authError("login", err)
	}
	resp, err := s.sessionResponse(u)
	if err != nil {
		return s.authError("login", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res, err := s.session.Register(c.Request().Context(), auth.Registration{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		AcceptTerms:     req.AcceptTerms,
	})
	if err != nil {
		return s.authError("register", err)
	}
	resp := RegisterResponse{NeedsConfirmation: res.NeedsConfirmation}
	if !res.NeedsConfirmation {
		if resp.AccessToken, err = s.session.AccessToken(); err != nil {
			return s.authError("register", err)
		}
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleConfirm(c echo.Context) error {
	var req ConfirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.session.ConfirmRegistration(c.Request().Context(), req.Email, req.Code); err != nil {
		return s.authError("confirm", err)
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "confirmed"})
}

func (s *Server) handleResend(c echo.Context) error {
	var req ResendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.session.ResendConfirmationCode(c.Request().Context(), req.Email); err != nil {
		return s.authError("resend", err)
	}
	return c.JSON(http.StatusAccepted, StatusResponse{Status: "sent"})
}

func (s *Server) handleLogout(c echo.Context) error {
	if err := s.session.Logout(c.Request().Context()); err != nil {
		s.logger.Error("logout", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Could not sign out").SetInternal(err)
	}
	return c.JSON(http.StatusOK, LogoutResponse{Status: "signed_out", LogoutURL: s.logoutURL})
}

func (s *Server) handleSocial(c echo.Context) error {
	p, err := auth.ParseProvider(c.Param("provider"))
	if err != nil {
		return s.authError("social", err)
	}
	r, err := s.session.BeginSocial(p)
	if err != nil {
		return s.authError("social", err)
	}
	return c.Redirect(http.StatusFound, r.URL)
}

func (s *Server) handleCallback(c echo.Context) error {
	cb, err := auth.CallbackFromQuery(c.QueryParams())
	if err != nil {
		s.session.FailSocial(err)
		return s.authError("social", err)
	}
	u, err := s.session.CompleteSocial(c.Request().Context(), cb)
	if err != nil {
		return s.authError("social", err)
	}
	resp, err := s.sessionResponse(u)
	if err != nil {
		return s.authError("social", err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, userResponse(*currentUser(c)))
}
