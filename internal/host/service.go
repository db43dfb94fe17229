// Package host manages the single shared control token. Possession of the
// current key value is the only proof of host authority in a session.
package host

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"karaoke-service/internal/store"
)

// DefaultTTL bounds a host session: a host must renew at least hourly or the
// slot frees itself.
const DefaultTTL = time.Hour

type Service struct {
	store *store.Store
}

func New(s *store.Store) *Service {
	return &Service{store: s}
}

// CreateKey mints a fresh 128-bit key and stores it with the given TTL,
// replacing any previously active key. There is exactly one live key at a
// time.
func (s *Service) CreateKey(ctx context.Context, ttl time.Duration) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	key := hex.EncodeToString(buf)
	if err := s.store.SetHostKey(ctx, key, ttl); err != nil {
		return "", err
	}
	return key, nil
}

// ValidateKey reports whether candidate equals the currently stored key.
// An absent or expired key always fails validation.
func (s *Service) ValidateKey(ctx context.Context, candidate string) (bool, error) {
	current, err := s.store.GetHostKey(ctx)
	if err != nil {
		return false, err
	}
	if current == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(current), []byte(candidate)) == 1, nil
}

// CurrentKey returns the active key, or "" when none is set.
func (s *Service) CurrentKey(ctx context.Context) (string, error) {
	return s.store.GetHostKey(ctx)
}

// RenewKey extends the TTL of the active key and returns it. It never mints:
// with no active key it returns "" and writes nothing.
func (s *Service) RenewKey(ctx context.Context, ttl time.Duration) (string, error) {
	current, err := s.store.GetHostKey(ctx)
	if err != nil {
		return "", err
	}
	if current == "" {
		return "", nil
	}
	if err := s.store.SetHostKey(ctx, current, ttl); err != nil {
		return "", err
	}
	return current, nil
}

func (s *Service) DeleteKey(ctx context.Context) error {
	return s.store.DeleteHostKey(ctx)
}
