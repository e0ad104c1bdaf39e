// Package session persists the authenticated session so it survives process
// restarts, the way the web client keeps its token in local storage.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "modernc.org/sqlite"

	"github.com/dmarsh/picfeed-client/internal/domain"
)

// ErrNoSession is returned by Load when no usable session is stored.
var ErrNoSession = errors.New("no stored session")

// Store is a SQLite-backed single-row session store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the session database at path, creating parent
// directories as needed. The caller should Close the store when done.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			user_json TEXT NOT NULL,
			saved_at TIMESTAMP NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the session, replacing any previous one.
func (s *Store) Save(token string, user domain.UserProfile) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO session (id, token, user_json, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET token = ?, user_json = ?, saved_at = ?`,
		token, string(userJSON), time.Now().UTC(),
		token, string(userJSON), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the stored session. A session whose token has expired is
// discarded and reported as ErrNoSession, so the caller goes straight to the
// login path instead of resuming a session the server will reject.
func (s *Store) Load() (string, *domain.UserProfile, error) {
	var token, userJSON string
	err := s.db.QueryRow(`SELECT token, user_json FROM session WHERE id = 1`).
		Scan(&token, &userJSON)
	if err == sql.ErrNoRows {
		return "", nil, ErrNoSession
	}
	if err != nil {
		return "", nil, fmt.Errorf("load session: %w", err)
	}

	if tokenExpired(token) {
		if err := s.Clear(); err != nil {
			return "", nil, fmt.Errorf("clear expired session: %w", err)
		}
		return "", nil, ErrNoSession
	}

	var user domain.UserProfile
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return "", nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return token, &user, nil
}

// Clear removes the stored session, as on logout or a 401.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// tokenExpired inspects the JWT exp claim without verifying the signature.
// The server stays the authority on token validity; this only avoids
// resuming a session it would reject anyway. Tokens that don't parse or
// carry no expiry are left for the server to judge.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}
