// Package session persists the signed-in user of one browser.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	lserrors "langsite/internal/errors"
	"langsite/internal/logger"
	"langsite/internal/storage"
)

// Session is the record of a signed-in user, as returned by the auth API.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// Store saves, loads and clears the session under storage.KeyUser.
type Store struct {
	port      storage.Store
	onCorrupt func()
}

// NewStore binds a session store to a storage port.
func NewStore(port storage.Store) *Store {
	return &Store{port: port}
}

// OnCorrupt registers a hook called whenever a malformed session is discarded.
func (s *Store) OnCorrupt(hook func()) *Store {
	s.onCorrupt = hook
	return s
}

// Save serializes and persists the session.
func (s *Store) Save(ctx context.Context, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.port.Set(ctx, storage.KeyUser, string(payload)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the persisted session. Malformed content is removed and reported
// as absent; read failures are reported as absent too.
func (s *Store) Load(ctx context.Context) (Session, bool) {
	raw, found, err := s.port.Get(ctx, storage.KeyUser)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("failed to read session")
		return Session{}, false
	}
	if !found {
		return Session{}, false
	}
	sess, err := decode(raw)
	if err != nil {
		logger.Get().Debug().
			Err(fmt.Errorf("%w: %v", lserrors.ErrCorruptState, err)).
			Msg("discarding malformed session")
		if removeErr := s.port.Remove(ctx, storage.KeyUser); removeErr != nil {
			logger.Get().Warn().Err(removeErr).Msg("failed to clear malformed session")
		}
		if s.onCorrupt != nil {
			s.onCorrupt()
		}
		return Session{}, false
	}
	return sess, true
}

var errNotUser = errors.New("stored value is not a user record")

// decode accepts a JSON object identifying a user by id, email or token.
// null, scalars and empty objects are rejected.
func decode(raw string) (Session, error) {
	var sess *Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return Session{}, err
	}
	if sess == nil || (sess.ID == "" && sess.Email == "" && sess.Token == "") {
		return Session{}, errNotUser
	}
	return *sess, nil
}

// Clear removes the persisted session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.port.Remove(ctx, storage.KeyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
