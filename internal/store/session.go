package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sadopc/fretes/internal/freight"
)

// SessionKey is the fixed durable key holding the session.
const SessionKey = "ziran_fretes_session_v1"

// Session is the authenticated identity of the running client.
type Session struct {
	Token string       `json:"token"`
	User  freight.User `json:"user"`
}

// KV is the durable storage a SessionStore writes through to.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// SessionStore keeps the in-memory session and its durable copy in lock-step:
// the memory copy only changes after the durable write succeeds.
type SessionStore struct {
	kv KV

	mu      sync.RWMutex
	current *Session
}

func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// Save overwrites both copies.
func (s *SessionStore) Save(sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Set(SessionKey, string(data)); err != nil {
		return err
	}
	s.current = &sess
	return nil
}

// Load reads the durable copy and adopts it in memory. Missing, unreadable
// or malformed data yields nil.
func (s *SessionStore) Load() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(SessionKey)
	if err != nil || !ok {
		s.current = nil
		return nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.current = nil
		return nil
	}
	s.current = &sess
	out := sess
	return &out
}

// Clear drops both copies.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(SessionKey); err != nil {
		return err
	}
	s.current = nil
	return nil
}

// Current returns a copy of the in-memory session.
func (s *SessionStore) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Credentials reports the token and email to authenticate RPC calls with.
func (s *SessionStore) Credentials() (token, email string, ok bool) {
	sess, ok := s.Current()
	if !ok || sess.Token == "" {
		return "", "", false
	}
	return sess.Token, sess.User.Email, true
}
