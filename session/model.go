package session

import "time"

// Session is the persisted shape of a session id. Backends that store more
// than a key (CouchDB, Postgres) use it as their record layout; the manager
// never reads it.
type Session struct {
	ID        string        `json:"_id"`
	CreatedAt time.Time     `json:"created"`
	TTL       time.Duration `json:"-"`
}

func newSession(id string, now time.Time, ttl time.Duration) Session {
	return Session{ID: id, CreatedAt: now.UTC(), TTL: ttl}
}

// ExpiresAt returns the absolute expiry, or the zero time when the session
// lives until revoked.
func (s Session) ExpiresAt() time.Time {
	if s.TTL <= 0 {
		return time.Time{}
	}
	return s.CreatedAt.Add(s.TTL)
}

func (s Session) expired(now time.Time) bool {
	exp := s.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}
