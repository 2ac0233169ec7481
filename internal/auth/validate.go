package auth

import (
	"net/mail"
	"strings"
)

// MinPasswordLength is the shortest password the registration form accepts.
const MinPasswordLength = 6

// Registration is the sign-up form.
type Registration struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	AcceptTerms     bool
}

// Validate applies the registration form rules.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Name) == "" || r.Email == "" || r.Password == "" || r.ConfirmPassword == "" {
		return newError(ErrInvalidInput, "Please fill in all fields", nil)
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return newError(ErrInvalidInput, "Passwords do not match", nil)
	}
	if len(r.Password) < MinPasswordLength {
		return newError(ErrInvalidInput, "Password must be at least 6 characters", nil)
	}
	if !r.AcceptTerms {
		return newError(ErrInvalidInput, "You must accept the terms and conditions", nil)
	}
	return nil
}

// ValidateLogin applies the login form rules.
func ValidateLogin(email, password string) error {
	if email == "" || password == "" {
		return newError(ErrInvalidInput, "Please enter email and password", nil)
	}
	return validateEmail(email)
}

// ValidateConfirmation applies the confirmation form rules.
func ValidateConfirmation(email, code string) error {
	if strings.TrimSpace(code) == "" {
		return newError(ErrInvalidInput, "Please enter the confirmation code", nil)
	}
	return validateEmail(email)
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return newError(ErrInvalidInput, "Please enter a valid email address", err)
	}
	return nil
}
