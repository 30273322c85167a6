package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/textremind/pkg/domain"
)

// Store implements ports.VerificationStore in memory.
// Safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	codes        map[string]string
	codeVerified map[string]bool
	verified     map[string]bool
	passwords    map[string][]byte
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		codes:        make(map[string]string),
		codeVerified: make(map[string]bool),
		verified:     make(map[string]bool),
		passwords:    make(map[string][]byte),
	}
}

// SaveCode stores the latest code issued for number.
func (s *Store) SaveCode(ctx context.Context, number, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[number] = code
	return nil
}

// Code returns the latest code issued for number.
func (s *Store) Code(ctx context.Context, number string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.codes[number]
	if !ok {
		return "", domain.ErrCodeNotFound
	}
	return code, nil
}

// MarkCodeVerified records a successful code check.
func (s *Store) MarkCodeVerified(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codeVerified[number] = true
	return nil
}

// IsCodeVerified reports whether number passed a code check.
func (s *Store) IsCodeVerified(ctx context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codeVerified[number], nil
}

// MarkVerified records that number is fully verified.
func (s *Store) MarkVerified(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[number] = true
	return nil
}

// IsVerified reports whether number is fully verified.
func (s *Store) IsVerified(ctx context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.verified[number], nil
}

// SetPasswordHash stores a copy of hash.
func (s *Store) SetPasswordHash(ctx context.Context, number string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords[number] = slices.Clone(hash)
	return nil
}

// PasswordHash returns a copy of the stored hash.
func (s *Store) PasswordHash(ctx context.Context, number string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.passwords[number]
	if !ok {
		return nil, domain.ErrPasswordNotSet
	}
	return slices.Clone(hash), nil
}
