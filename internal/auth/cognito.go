package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/Tiliavir/nicolog/internal/config"
)

// cognitoAPI is the subset of the Cognito client nicolog calls.
type cognitoAPI interface {
	InitiateAuth(ctx context.Context, in *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	SignUp(ctx context.Context, in *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, in *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	GlobalSignOut(ctx context.Context, in *cip.GlobalSignOutInput, optFns ...func(*cip.Options)) (*cip.GlobalSignOutOutput, error)
}

// Cognito is an IdentityProvider backed by a Cognito user pool app client.
type Cognito struct {
	api          cognitoAPI
	clientID     string
	clientSecret string
	now          func() time.Time
}

// NewCognito creates a Cognito provider for the configured region and app client.
// The user pool operations used here are unauthenticated, so no AWS
// credentials are required.
func NewCognito(ctx context.Context, cfg config.CognitoConfig) (*Cognito, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return nil, err
	}
	return newCognito(cip.NewFromConfig(awsCfg), cfg.ClientID, cfg.ClientSecret), nil
}

func newCognito(api cognitoAPI, clientID, clientSecret string) *Cognito {
	return &Cognito{api: api, clientID: clientID, clientSecret: clientSecret, now: time.Now}
}

// secretHash computes SECRET_HASH for app clients that have a secret.
func (c *Cognito) secretHash(username string) *string {
	if c.clientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(c.clientSecret))
	mac.Write([]byte(username + c.clientID))
	return aws.String(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func (c *Cognito) authParams(username string, params map[string]string) map[string]string {
	if h := c.secretHash(username); h != nil {
		params["SECRET_HASH"] = *h
	}
	return params
}

func (c *Cognito) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: c.authParams(email, map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		}),
	})
	if err != nil {
		return Tokens{}, mapCognitoError(err, ErrInvalidCredentials, "Invalid email or password")
	}
	if out.AuthenticationResult == nil {
		return Tokens{}, newError(ErrInvalidCredentials, "Sign-in needs a step nicolog does not support: "+string(out.ChallengeName), nil)
	}
	return c.tokens(out.AuthenticationResult, ""), nil
}

func (c *Cognito) SignUp(ctx context.Context, email, password, name string) (SignUpResult, error) {
	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(email),
		Password:   aws.String(password),
		SecretHash: c.secretHash(email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
		},
	})
	if err != nil {
		return SignUpResult{}, mapCognitoError(err, ErrInvalidInput, "Registration failed")
	}
	return SignUpResult{
		NeedsConfirmation: !out.UserConfirmed,
		UserID:            aws.ToString(out.UserSub),
	}, nil
}

func (c *Cognito) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := c.api.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         aws.String(c.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		SecretHash:       c.secretHash(email),
	})
	if err != nil {
		return mapCognitoError(err, ErrConfirmationFailed, "Invalid confirmation code")
	}
	return nil
}

func (c *Cognito) ResendConfirmationCode(ctx context.Context, email string) error {
	_, err := c.api.ResendConfirmationCode(ctx, &cip.ResendConfirmationCodeInput{
		ClientId:   aws.String(c.clientID),
		Username:   aws.String(email),
		SecretHash: c.secretHash(email),
	})
	if err != nil {
		return mapCognitoError(err, ErrConfirmationFailed, "Could not send the confirmation code")
	}
	return nil
}

// Refresh exchanges a refresh token for new access and ID tokens. username is
// only needed for app clients with a secret.
func (c *Cognito) Refresh(ctx context.Context, username, refreshToken string) (Tokens, error) {
	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: c.authParams(username, map[string]string{
			"REFRESH_TOKEN": refreshToken,
		}),
	})
	if err != nil {
		return Tokens{}, mapCognitoError(err, ErrInvalidCredentials, "Your session has expired, please sign in again")
	}
	if out.AuthenticationResult == nil {
		return Tokens{}, newError(ErrInvalidCredentials, "Your session has expired, please sign in again", nil)
	}
	return c.tokens(out.AuthenticationResult, refreshToken), nil
}

func (c *Cognito) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.api.GlobalSignOut(ctx, &cip.GlobalSignOutInput{AccessToken: aws.String(accessToken)})
	if err != nil {
		return mapCognitoError(err, ErrNotSignedIn, "Sign-out failed")
	}
	return nil
}

// tokens converts an authentication result. Refresh responses carry no new
// refresh token, so the previous one is kept.
func (c *Cognito) tokens(res *types.AuthenticationResultType, refreshToken string) Tokens {
	tok := Tokens{
		AccessToken:  aws.ToString(res.AccessToken),
		IDToken:      aws.ToString(res.IdToken),
		RefreshToken: aws.ToString(res.RefreshToken),
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	if res.ExpiresIn > 0 {
		tok.Expiry = c.now().Add(time.Duration(res.ExpiresIn) * time.Second)
	}
	return tok
}

// mapCognitoError translates user pool exceptions into auth failure kinds.
// fallbackKind and fallbackMsg describe errors with no specific mapping.
func mapCognitoError(err error, fallbackKind error, fallbackMsg string) error {
	var (
		notAuthorized  *types.NotAuthorizedException
		userNotFound   *types.UserNotFoundException
		usernameExists *types.UsernameExistsException
		notConfirmed   *types.UserNotConfirmedException
		codeMismatch   *types.CodeMismatchException
		expiredCode    *types.ExpiredCodeException
		tooMany        *types.TooManyRequestsException
		limitExceeded  *types.LimitExceededException
		failedAttempts *types.TooManyFailedAttemptsException
		badPassword    *types.InvalidPasswordException
		badParameter   *types.InvalidParameterException
	)
	switch {
	case errors.As(err, &notAuthorized), errors.As(err, &userNotFound):
		return newError(ErrInvalidCredentials, "Invalid email or password", err)
	case errors.As(err, &usernameExists):
		return newError(ErrAccountExists, "An account with this email already exists", err)
	case errors.As(err, &notConfirmed):
		return newError(ErrConfirmationRequired, "Please confirm your email before signing in", err)
	case errors.As(err, &codeMismatch):
		return newError(ErrConfirmationFailed, "Invalid confirmation code", err)
	case errors.As(err, &expiredCode):
		return newError(ErrConfirmationFailed, "The confirmation code has expired, request a new one", err)
	case errors.As(err, &tooMany), errors.As(err, &limitExceeded), errors.As(err, &failedAttempts):
		return newError(ErrRateLimited, "Too many attempts, please wait and try again", err)
	case errors.As(err, &badPassword):
		return newError(ErrInvalidInput, "The password does not meet the requirements", err)
	case errors.As(err, &badParameter):
		return newError(ErrInvalidInput, "Some of the details entered are not valid", err)
	default:
		return newError(fallbackKind, fallbackMsg, err)
	}
}
