package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the client.
type Config struct {
	// APIBaseURL is the picfeed REST API root (e.g. http://localhost:5000/api).
	APIBaseURL string

	// StreamURL is the websocket event stream endpoint. Empty disables live
	// updates.
	StreamURL string

	// WebBaseURL is the public web front end, used to build canonical post
	// links for the share clipboard copy.
	WebBaseURL string

	// SessionDBPath is the SQLite file holding the persisted session.
	SessionDBPath string

	// RequestTimeout bounds each API request.
	RequestTimeout time.Duration

	// ClipboardCommand is the external clipboard utility command line.
	// Empty falls back to an in-memory clipboard.
	ClipboardCommand string
}

// PostURL returns the canonical public URL for a post.
func (c *Config) PostURL(id string) string {
	return c.WebBaseURL + "/post/" + id
}

// Load reads configuration from the environment with sensible defaults,
// loading a .env file first when one is present.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	apiURL := os.Getenv("PICFEED_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:5000/api"
	}

	webURL := os.Getenv("PICFEED_WEB_URL")
	if webURL == "" {
		webURL = "http://localhost:3000"
	}

	sessionPath := os.Getenv("PICFEED_SESSION_DB")
	if sessionPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir for session db: %w", err)
		}
		sessionPath = filepath.Join(home, ".picfeed", "session.db")
	}

	timeout := 10 * time.Second
	if t := os.Getenv("PICFEED_TIMEOUT_SECONDS"); t != "" {
		secs, err := strconv.Atoi(t)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid PICFEED_TIMEOUT_SECONDS: %q", t)
		}
		timeout = time.Duration(secs) * time.Second
	}

	return &Config{
		APIBaseURL:       apiURL,
		StreamURL:        os.Getenv("PICFEED_STREAM_URL"),
		WebBaseURL:       webURL,
		SessionDBPath:    sessionPath,
		RequestTimeout:   timeout,
		ClipboardCommand: os.Getenv("PICFEED_CLIPBOARD_CMD"),
	}, nil
}
