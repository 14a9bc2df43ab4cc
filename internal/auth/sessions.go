package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/librarydesk/internal/config"
	"github.com/mrlokans/librarydesk/internal/entities"
)

const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
	SessionKeyRole     = "role"
	SessionKeyLoginAt  = "login_at"
)

func init() {
	gob.Register(entities.UserRole(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager stores sessions in the given SQLite handle, normally the
// one underlying the main gorm connection.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 12 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "librarydesk_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession renews the token, to prevent fixation, and stores the user.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyUserID, int(user.ID))
	sm.Put(r.Context(), SessionKeyUsername, user.Username)
	sm.Put(r.Context(), SessionKeyRole, user.Role)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now())

	return nil
}

func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID returns 0 when the request carries no session.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

func (sm *SessionManager) GetUsername(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUsername)
}
