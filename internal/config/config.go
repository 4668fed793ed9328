package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Backend BackendConfig
	Session SessionConfig
	View    ViewConfig
	Storage StorageConfig
	Log     LogConfig
	Mock    MockConfig
}

type BackendConfig struct {
	BaseURL string
	Timeout string // empty means no client-side timeout
}

type SessionConfig struct {
	Token string
}

type ViewConfig struct {
	TagLimit         int
	DescriptionLimit int
	WebURL           string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type MockConfig struct {
	Port   int
	Secret string
}

func defaults() Config {
	return Config{
		View: ViewConfig{
			TagLimit:         2,
			DescriptionLimit: 160,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Mock: MockConfig{
			Port: 5050,
		},
	}
}

// Load reads configuration from the platform-native backend, a .env file in
// the working directory, environment variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.devfolio.app).
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/devfolio/config.json.
//
// Environment variables (DEVFOLIO_*) override backend values on all platforms.
// Values from .env never override variables already set in the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "[WARN] could not read .env: %v\n", err)
	}
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Session.Token == "" {
		if tok, err := kc.Get(keychainService, tokenAccount); err == nil && tok != "" {
			cfg.Session.Token = tok
		}
	}
	if cfg.Mock.Secret == "" {
		if s, err := kc.Get(keychainService, mockSecretAccount); err == nil && s != "" {
			cfg.Mock.Secret = s
		}
	}

	if cfg.View.TagLimit < 0 {
		return Config{}, fmt.Errorf("view.tag_limit must not be negative, got %d", cfg.View.TagLimit)
	}
	if cfg.View.DescriptionLimit < 0 {
		return Config{}, fmt.Errorf("view.description_limit must not be negative, got %d", cfg.View.DescriptionLimit)
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")

	return cfg, nil
}

// RequireBackend reports a descriptive error when no backend URL is configured.
func (c Config) RequireBackend() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("missing required config: backend URL. " +
			"Set it via environment variable DEVFOLIO_BACKEND_URL, a .env file, " +
			"or `devfolio config set backend.base_url <url>`" + backendHint())
	}
	return nil
}

// BackendTimeout parses Backend.Timeout. An empty value yields zero (no timeout).
func (c Config) BackendTimeout() (time.Duration, error) {
	if c.Backend.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid backend.timeout %q: %w", c.Backend.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("backend.timeout must not be negative, got %s", d)
	}
	return d, nil
}

const (
	keychainService   = "devfolio"
	tokenAccount      = "session_token"
	mockSecretAccount = "mock_secret"
)

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// SaveToken stores the session credential in the platform secret store.
func SaveToken(token string) error {
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}
	return keychainSet(keychainService, tokenAccount, token)
}

// ClearToken removes the stored session credential.
func ClearToken() error {
	return keychainDelete(keychainService, tokenAccount)
}
