package auth

import (
	"errors"
	"testing"
)

func TestRegistrationValidate(t *testing.T) {
	valid := Registration{Name: "Nico", Email: "nico@example.com", Password: "secret1", ConfirmPassword: "secret1", AcceptTerms: true}
	tests := []struct {
		name    string
		mutate  func(r *Registration)
		wantMsg string
	}{
		{"valid", func(r *Registration) {}, ""},
		{"missing name", func(r *Registration) { r.Name = " " }, "Please fill in all fields"},
		{"missing confirmation", func(r *Registration) { r.ConfirmPassword = "" }, "Please fill in all fields"},
		{"bad email", func(r *Registration) { r.Email = "nico" }, "Please enter a valid email address"},
		{"mismatch", func(r *Registration) { r.ConfirmPassword = "secret2" }, "Passwords do not match"},
		{"short", func(r *Registration) { r.Password, r.ConfirmPassword = "abc", "abc" }, "Password must be at least 6 characters"},
		{"terms", func(r *Registration) { r.AcceptTerms = false }, "You must accept the terms and conditions"},
	}
	for _, tt := range tests {
		r := valid
		tt.mutate(&r)
		err := r.Validate()
		if tt.wantMsg == "" {
			if err != nil {
				t.Errorf("%s: Validate() = %v, want nil", tt.name, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: Validate() = %v, want ErrInvalidInput", tt.name, err)
			continue
		}
		if got := UserMessage(err); got != tt.wantMsg {
			t.Errorf("%s: message = %q, want %q", tt.name, got, tt.wantMsg)
		}
	}
}

func TestValidateConfirmation(t *testing.T) {
	if err := ValidateConfirmation("nico@example.com", " "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty code: got %v", err)
	}
	if err := ValidateConfirmation("nico@example.com", "123456"); err != nil {
		t.Errorf("valid code: got %v", err)
	}
}

func TestUserMessageFallback(t *testing.T) {
	if got := UserMessage(errors.New("boom")); got != "Something went wrong, please try again" {
		t.Errorf("UserMessage = %q", got)
	}
}
