package auth

import "errors"

// Failure kinds. Match them with errors.Is.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountExists        = errors.New("account already exists")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrConfirmationFailed   = errors.New("confirmation failed")
	ErrSocialLoginFailed    = errors.New("social login failed")
	ErrNotSignedIn          = errors.New("not signed in")
	ErrRateLimited          = errors.New("too many requests")
	ErrInvalidInput         = errors.New("invalid input")
)

// Error is an authentication failure with a message fit for the user.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func newError(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UserMessage returns the message to show in the originating form.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Something went wrong, please try again"
}
