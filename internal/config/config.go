package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration
type Config struct {
	API     APIConfig
	Poll    PollConfig
	Player  PlayerConfig
	Status  StatusConfig
	Logging LoggingConfig
}

// APIConfig holds settings for the game server API
type APIConfig struct {
	BaseURL        string        // server origin, e.g. http://127.0.0.1:8000
	Root           string        // API root path, "/api"
	RequestTimeout time.Duration // upper bound on every request
	PushURL        string        // optional websocket URL for status pushes
}

// PollConfig holds the polling policy of the watchers
type PollConfig struct {
	Interval   time.Duration
	MaxBackoff time.Duration
}

// PlayerConfig identifies the player this client acts for
type PlayerConfig struct {
	GameID   string
	PlayerID string
	Screen   string // initial screen, role_confirm when empty
}

// StatusConfig holds the optional local status endpoint settings
type StatusConfig struct {
	Enabled bool
	Host    string
	Port    int
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://127.0.0.1:8000",
			Root:           "/api",
			RequestTimeout: 10 * time.Second,
		},
		Poll: PollConfig{
			Interval:   1500 * time.Millisecond,
			MaxBackoff: 15 * time.Second,
		},
		Player: PlayerConfig{
			Screen: "role_confirm",
		},
		Status: StatusConfig{
			Host: "127.0.0.1",
			Port: 8081,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Validate checks the configuration for values the client cannot run with
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api base url: %q", c.API.BaseURL)
	}
	if c.API.PushURL != "" {
		p, err := url.Parse(c.API.PushURL)
		if err != nil || (p.Scheme != "ws" && p.Scheme != "wss") {
			return fmt.Errorf("invalid push url (must be ws:// or wss://): %q", c.API.PushURL)
		}
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.Poll.Interval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.Poll.MaxBackoff < c.Poll.Interval {
		return fmt.Errorf("max backoff (%s) must not be shorter than the poll interval (%s)", c.Poll.MaxBackoff, c.Poll.Interval)
	}
	if c.Status.Enabled && (c.Status.Port < 1 || c.Status.Port > 65535) {
		return fmt.Errorf("invalid status port (must be between 1-65535 inclusive): %d", c.Status.Port)
	}
	return nil
}

// APIBase returns the base URL joined with the API root, without a trailing slash
func (c *Config) APIBase() string {
	root := "/" + strings.Trim(c.API.Root, "/")
	if root == "/" {
		root = ""
	}
	return strings.TrimSuffix(c.API.BaseURL, "/") + root
}

// GetAddr returns the status server address in host:port format
func (c *Config) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Status.Host, c.Status.Port)
}
