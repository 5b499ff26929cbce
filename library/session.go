package library

import (
	"sync"

	"go.uber.org/zap"
)

// Session tracks who is logged in. Only the user id is persisted; the
// User itself is always resolved from the Store.
type Session struct {
	mu      sync.RWMutex
	store   *Store
	storage *Storage
	log     *zap.Logger
	userID  string
}

func NewSession(store *Store, storage *Storage, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{store: store, storage: storage, log: log}
}

// Login matches username and password exactly. On success the user id
// becomes the session pointer.
func (s *Session) Login(username, password string) (User, error) {
	u, ok := s.store.FindByCredentials(username, password)
	if !ok {
		s.log.Info("login rejected", zap.String("username", username))
		return User{}, &AuthError{Err: ErrInvalidCredentials}
	}
	s.Begin(u)
	return u, nil
}

// Begin makes u the current user, e.g. right after registration.
func (s *Session) Begin(u User) {
	s.mu.Lock()
	s.userID = u.ID
	s.mu.Unlock()
	s.storage.SaveRaw(SessionKey, u.ID)
	s.log.Debug("session started", zap.String("user_id", u.ID))
}

// Restore reads the persisted pointer and resolves it. A pointer to a
// user that no longer exists counts as no session.
func (s *Session) Restore() (User, bool) {
	id, ok := s.storage.LoadRaw(SessionKey)
	if !ok || id == "" {
		return User{}, false
	}
	u, ok := s.store.User(id)
	if !ok {
		s.log.Info("dropping dangling session", zap.String("user_id", id))
		return User{}, false
	}
	s.mu.Lock()
	s.userID = u.ID
	s.mu.Unlock()
	return u, true
}

// Logout clears the pointer. Accounts are untouched.
func (s *Session) Logout() {
	s.mu.Lock()
	s.userID = ""
	s.mu.Unlock()
	s.storage.ClearRaw(SessionKey)
}

// Current resolves the session pointer against the store.
func (s *Session) Current() (User, bool) {
	s.mu.RLock()
	id := s.userID
	s.mu.RUnlock()
	if id == "" {
		return User{}, false
	}
	return s.store.User(id)
}
