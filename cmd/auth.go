package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Tiliavir/nicolog/internal/auth"
)

// socialTimeout bounds how long `auth social` waits for the browser redirect.
const socialTimeout = 5 * time.Minute

var (
	authEmail       string
	authPassword    string
	authName        string
	authCode        string
	authAcceptTerms bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in, register and manage your account",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runAuthRegister,
}

var authConfirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm a new account with the emailed code",
	Args:  cobra.NoArgs,
	RunE:  runAuthConfirm,
}

var authResendCmd = &cobra.Command{
	Use:   "resend",
	Short: "Send a new confirmation code",
	Args:  cobra.NoArgs,
	RunE:  runAuthResend,
}

var authSocialCmd = &cobra.Command{
	Use:       "social <google|facebook|linkedin>",
	Short:     "Sign in with Google, Facebook or LinkedIn in the browser",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(auth.Google), string(auth.Facebook), string(auth.LinkedIn)},
	RunE:      runAuthSocial,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runAuthWhoami,
}

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the access token for the API started by serve",
	Args:  cobra.NoArgs,
	RunE:  runAuthToken,
}

func init() {
	for _, c := range []*cobra.Command{authLoginCmd, authRegisterCmd, authConfirmCmd, authResendCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Email address (prompted when empty)")
	}
	authLoginCmd.Flags().StringVar(&authPassword, "password", "", "Password (prompted when empty)")
	authRegisterCmd.Flags().StringVar(&authPassword, "password", "", "Password (prompted when empty)")
	authRegisterCmd.Flags().StringVar(&authName, "name", "", "Your name (prompted when empty)")
	authRegisterCmd.Flags().BoolVar(&authAcceptTerms, "accept-terms", false, "Accept the terms and conditions")
	authConfirmCmd.Flags().StringVar(&authCode, "code", "", "Confirmation code from the email (prompted when empty)")

	authCmd.AddCommand(authLoginCmd, authRegisterCmd, authConfirmCmd, authResendCmd,
		authSocialCmd, authLogoutCmd, authWhoamiCmd, authTokenCmd)
}

var stdin = bufio.NewReader(os.Stdin)

// prompt asks for a value unless it was given as a flag.
func prompt(label, value string) string {
	if value != "" {
		return value
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, _ := stdin.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(label, value string) string {
	if value != "" {
		return value
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(label, "")
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return string(pw)
}

// authSession returns the restored session, exiting when sign-in is not configured.
func authSession(ctx context.Context) *auth.Session {
	if err := userPoolConfigured(); err != nil {
		exitWith(exitUserError, err)
	}
	s, err := currentSession(ctx)
	if err != nil {
		exitWith(exitUserError, err)
	}
	return s
}

// authFailed prints the user-facing message for err and exits.
func authFailed(op string, err error) {
	app.logger.Debug(op+" failed", zap.Error(err))
	exitWith(exitUserError, errors.New(auth.UserMessage(err)))
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	s := authSession(cmd.Context())
	email := prompt("Email", authEmail)
	password := promptPassword("Password", authPassword)

	u, err := s.Login(cmd.Context(), email, password)
	if err != nil {
		authFailed("login", err)
	}
	fmt.Printf("Signed in as %s <%s>.\n", u.Name, u.Email)
	return nil
}

func runAuthRegister(cmd *cobra.Command, args []string) error {
	s := authSession(cmd.Context())
	r := auth.Registration{
		Name:        prompt("Name", authName),
		Email:       prompt("Email", authEmail),
		AcceptTerms: authAcceptTerms,
	}
	r.Password = promptPassword("Password", authPassword)
	if authPassword != "" {
		r.ConfirmPassword = authPassword
	} else {
		r.ConfirmPassword = promptPassword("Confirm password", "")
	}

	res, err := s.Register(cmd.Context(), r)
	if err != nil {
		authFailed("register", err)
	}
	if res.NeedsConfirmation {
		fmt.Printf("Account created. Check %s for a confirmation code, then run:\n  nicolog auth confirm --email %s --code <code>\n", r.Email, r.Email)
		return nil
	}
	fmt.Printf("Account created. Signed in as %s.\n", r.Name)
	return nil
}

func runAuthConfirm(cmd *cobra.Command, args []string) error {
	s := authSession(cmd.Context())
	email := prompt("Email", authEmail)
	code := prompt("Confirmation code", authCode)

	if err := s.ConfirmRegistration(cmd.Context(), email, code); err != nil {
		authFailed("confirm", err)
	}
	fmt.Println("Account confirmed. Sign in with `nicolog auth login`.")
	return nil
}

func runAuthResend(cmd *cobra.Command, args []string) error {
	s := authSession(cmd.Context())
	email := prompt("Email", authEmail)

	if err := s.ResendConfirmationCode(cmd.Context(), email); err != nil {
		authFailed("resend", err)
	}
	fmt.Printf("A new confirmation code was sent to %s.\n", email)
	return nil
}

func runAuthSocial(cmd *cobra.Command, args []string) error {
	p, err := auth.ParseProvider(args[0])
	if err != nil {
		authFailed("social", err)
	}
	s := authSession(cmd.Context())

	r, err := s.BeginSocial(p)
	if err != nil {
		authFailed("social", err)
	}
	fmt.Println("Open this URL in your browser to continue:")
	fmt.Println(r.URL)

	ctx, cancel := context.WithTimeout(cmd.Context(), socialTimeout)
	defer cancel()
	cb, err := auth.AwaitCallback(ctx, app.cfg.Cognito.RedirectURL)
	if err != nil {
		s.FailSocial(err)
		authFailed("social", err)
	}
	u, err := s.CompleteSocial(ctx, cb)
	if err != nil {
		authFailed("social", err)
	}
	fmt.Printf("Signed in with %s as %s <%s>.\n", p, u.Name, u.Email)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	s, err := currentSession(cmd.Context())
	if err != nil {
		exitWith(exitUserError, err)
	}
	u := s.Current().User
	if u == nil {
		fmt.Println("Not signed in.")
		return nil
	}
	if err := s.Logout(cmd.Context()); err != nil {
		exitWith(exitStorageError, err)
	}
	fmt.Println("Signed out.")
	if _, social := u.Origin.(auth.SocialOrigin); social && app.hosted != nil {
		fmt.Println("To end the provider session as well, open:")
		fmt.Println(app.hosted.LogoutURL())
	}
	return nil
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	s, err := currentSession(cmd.Context())
	if err != nil {
		exitWith(exitUserError, err)
	}
	printWhoami(os.Stdout, s.Current().User)
	return nil
}

func runAuthToken(cmd *cobra.Command, args []string) error {
	tok, err := authSession(cmd.Context()).AccessToken()
	if err != nil {
		authFailed("token", err)
	}
	fmt.Println(tok)
	return nil
}

func printWhoami(w io.Writer, u *auth.User) {
	if u == nil {
		fmt.Fprintln(w, "Not signed in.")
		return
	}
	fmt.Fprintf(w, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(w, "  ID:       %s\n", u.ID)
	fmt.Fprintf(w, "  Provider: %s\n", u.Provider())
	if a := u.AvatarURL(); a != "" {
		fmt.Fprintf(w, "  Avatar:   %s\n", a)
	}
}
