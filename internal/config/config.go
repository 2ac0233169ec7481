package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "NICOLOG_"

// Config is the root configuration for nicolog, stored in ~/.nicolog/config.yaml.
type Config struct {
	// DataDir holds entries, tokens and the config file itself.
	DataDir string        `koanf:"data_dir"`
	Log     LogConfig     `koanf:"log"`
	Cognito CognitoConfig `koanf:"cognito"`
	Server  ServerConfig  `koanf:"server"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CognitoConfig holds the Cognito user pool and hosted UI settings.
type CognitoConfig struct {
	Region       string `koanf:"region"`
	UserPoolID   string `koanf:"user_pool_id"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	// Domain is the hosted UI domain, e.g. "nicolog.auth.eu-west-1.amazoncognito.com".
	Domain      string   `koanf:"domain"`
	RedirectURL string   `koanf:"redirect_url"`
	LogoutURL   string   `koanf:"logout_url"`
	Scopes      []string `koanf:"scopes"`
	// Providers maps google/facebook/linkedin to the identity provider
	// names configured in the user pool.
	Providers map[string]string `koanf:"providers"`
}

// ServerConfig configures `nicolog serve`.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

const (
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "console"
	DefaultRegion      = "eu-west-1"
	DefaultServerAddr  = "localhost:3000"
	DefaultRedirectURL = "http://localhost:3000/api/v1/auth/callback"
	DefaultLogoutURL   = "http://localhost:3000/"
)

// DefaultScopes are the OAuth scopes requested from the hosted UI.
var DefaultScopes = []string{"email", "profile", "openid"}

// DefaultProviders are the user pool identity provider names.
var DefaultProviders = map[string]string{
	"google":   "Google",
	"facebook": "Facebook",
	"linkedin": "LinkedIn",
}

// Validate reports whether enough Cognito settings are present to talk to the user pool.
func (c CognitoConfig) Validate() error {
	var missing []string
	if c.Region == "" {
		missing = append(missing, "cognito.region")
	}
	if c.ClientID == "" {
		missing = append(missing, "cognito.client_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s (set them in the config file or as %sCOGNITO_* variables)",
			strings.Join(missing, ", "), EnvPrefix)
	}
	return nil
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# nicolog configuration – ~/.nicolog/config.yaml
#
# Every value can be overridden with an environment variable, e.g.
# NICOLOG_COGNITO_CLIENT_ID or NICOLOG_LOG_LEVEL. A .env file in the working
# directory is read as well.

# Directory for entries and the saved session. Defaults to ~/.nicolog.
data_dir: ""

log:
  # debug, info, warn or error
  level: warn
  # console or json
  format: console

# ── AWS Cognito ─────────────────────────────────────────────────────────────
cognito:
  region: eu-west-1
  user_pool_id: ""
  # App client without a secret is recommended for a personal install.
  client_id: ""
  client_secret: ""
  # Hosted UI domain used for Google/Facebook/LinkedIn sign-in,
  # e.g. nicolog.auth.eu-west-1.amazoncognito.com
  domain: ""
  redirect_url: http://localhost:3000/api/v1/auth/callback
  logout_url: http://localhost:3000/
  scopes: [email, profile, openid]
  providers:
    google: Google
    facebook: Facebook
    linkedin: LinkedIn

server:
  addr: localhost:3000
`

// FilePath returns the path to ~/.nicolog/config.yaml.
func FilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".nicolog", "config.yaml"), nil
}

// Load reads the YAML config at path (the default location when empty),
// creating it with annotated defaults on first run, then applies .env and
// NICOLOG_* environment overrides.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := FilePath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	k := koanf.New(".")

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
	case err != nil:
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := applyDefaults(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps NICOLOG_COGNITO_CLIENT_ID to cognito.client_id. Only the first
// underscore separates section from field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if lower == "data_dir" {
		return lower
	}
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// applyDefaults fills zero-value fields so callers always get a usable Config
// even if the user only partially fills in the file.
func applyDefaults(cfg *Config) error {
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".nicolog")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Cognito.Region == "" {
		cfg.Cognito.Region = DefaultRegion
	}
	if cfg.Cognito.RedirectURL == "" {
		cfg.Cognito.RedirectURL = DefaultRedirectURL
	}
	if cfg.Cognito.LogoutURL == "" {
		cfg.Cognito.LogoutURL = DefaultLogoutURL
	}
	if len(cfg.Cognito.Scopes) == 0 {
		cfg.Cognito.Scopes = append([]string(nil), DefaultScopes...)
	}
	if cfg.Cognito.Providers == nil {
		cfg.Cognito.Providers = map[string]string{}
	}
	for k, v := range DefaultProviders {
		if cfg.Cognito.Providers[k] == "" {
			cfg.Cognito.Providers[k] = v
		}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	return nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
