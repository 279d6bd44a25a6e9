package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName carries the authenticated session id.
	CookieName = "samlgate_session"

	// nextCookieName carries the pending post-login redirect target
	// between signin and the ACS callback.
	nextCookieName = "login_next_url"

	// nextTTL bounds how long a pending login may dangle.
	nextTTL = 10 * time.Minute
)

// Session is one authenticated browser session.
type Session struct {
	ID        string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Manager persists sessions in SQL.
type Manager struct {
	db  *sql.DB
	ttl time.Duration
}

// NewManager creates a session manager. ttl <= 0 defaults to 24 hours.
func NewManager(db *sql.DB, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{db: db, ttl: ttl}
}

// Establish creates a session for username and sets the session cookie.
func (m *Manager) Establish(ctx context.Context, w http.ResponseWriter, username string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO sessions (id, username, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, sess.ID, sess.Username, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl / time.Second),
	})
	return sess, nil
}

// Get returns the unexpired session for the request cookie, or nil when the
// browser has no valid session.
func (m *Manager) Get(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil
	}
	sess := &Session{}
	err = m.db.QueryRowContext(ctx, `
		SELECT id, username, created_at, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > $2
	`, cookie.Value, time.Now().UTC()).Scan(&sess.ID, &sess.Username, &sess.CreatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return sess, nil
}

// Terminate deletes the request's session, if any, and clears the cookie.
func (m *Manager) Terminate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err == nil {
		if _, err := m.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, cookie.Value); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}
	http.SetCookie(w, &http.Cookie{Name: CookieName, MaxAge: -1, Path: "/"})
	return nil
}

// CleanupExpired removes expired session rows.
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetLoginNext stores the validated post-login redirect target.
func SetLoginNext(w http.ResponseWriter, nextURL string) {
	http.SetCookie(w, &http.Cookie{
		Name:     nextCookieName,
		Value:    nextURL,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(nextTTL / time.Second),
	})
}

// PopLoginNext returns the pending redirect target and clears it. Returns
// "" when nothing is pending; clearing an already-cleared value is a no-op.
func PopLoginNext(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(nextCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: nextCookieName, MaxAge: -1, Path: "/"})
	return cookie.Value
}

// EnsureSchema creates the sessions table when absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id VARCHAR(36) PRIMARY KEY,
			username VARCHAR(150) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure session schema: %w", err)
	}
	return nil
}
