package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/KaramelBytes/datadash/internal/dataset"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "datadash_session"

// session is the per-browser state. Only the current upload is kept; toggles
// and chart choices travel in the query string. Entries are replaced, never
// mutated, so readers need no extra locking.
type session struct {
	id     string
	upload *dataset.File
}

// SessionStore keeps sessions in a bounded, TTL-evicting LRU. Sessions never
// share mutable state; an upload stored in one is invisible to every other.
type SessionStore struct {
	ttl      time.Duration
	uid      Generator
	sessions *expirable.LRU[string, *session]
}

// NewSessionStore returns a store holding at most size sessions and evicting
// those idle longer than ttl. When full, the least recently used session goes.
func NewSessionStore(size int, ttl time.Duration, uid Generator) *SessionStore {
	if uid == nil {
		uid = UUIDGenerator{}
	}
	onEvict := func(id string, _ *session) {
		slog.Debug("session evicted", "session", id)
	}
	return &SessionStore{
		ttl:      ttl,
		uid:      uid,
		sessions: expirable.NewLRU[string, *session](size, onEvict, ttl),
	}
}

// Resolve returns the id of the request's session, creating one and setting
// the cookie on w when the request carries none or an expired one.
func (s *SessionStore) Resolve(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			// re-adding restarts the idle timer
			s.sessions.Add(c.Value, sess)
			return c.Value
		}
	}
	id := s.uid.Generate()
	s.sessions.Add(id, &session{id: id})
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return id
}

// SetUpload replaces the session's current upload.
func (s *SessionStore) SetUpload(id string, f *dataset.File) {
	s.sessions.Add(id, &session{id: id, upload: f})
}

// Upload returns the session's current upload, or nil.
func (s *SessionStore) Upload(id string) *dataset.File {
	if sess, ok := s.sessions.Get(id); ok {
		return sess.upload
	}
	return nil
}

// Len reports the number of stored sessions, including expired ones the
// eviction loop has not reached yet.
func (s *SessionStore) Len() int {
	return s.sessions.Len()
}
