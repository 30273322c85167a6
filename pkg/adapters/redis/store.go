package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/textremind/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "textremind:"

// Store implements ports.VerificationStore and ports.MessageQueue using Redis.
type Store struct {
	client  *backend.Client
	prefix  string
	codeTTL time.Duration
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithCodeTTL sets how long an issued verification code stays valid.
func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.codeTTL = ttl
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client:  client,
		prefix:  defaultPrefix,
		codeTTL: 0, // codes never expire by default
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client returns the underlying client.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) codeKey(number string) string {
	return s.prefix + "code:" + number
}

func (s *Store) numberKey(number string) string {
	return s.prefix + "number:" + number
}

func (s *Store) codeVerifiedKey() string {
	return s.prefix + "only_number_verified"
}

func (s *Store) verifiedKey() string {
	return s.prefix + "verified"
}

// SaveCode stores the latest code issued for number.
func (s *Store) SaveCode(ctx context.Context, number, code string) error {
	if err := s.client.Set(ctx, s.codeKey(number), code, s.codeTTL).Err(); err != nil {
		return fmt.Errorf("failed to save code: %w", err)
	}
	return nil
}

// Code returns the latest code issued for number.
func (s *Store) Code(ctx context.Context, number string) (string, error) {
	code, err := s.client.Get(ctx, s.codeKey(number)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", domain.ErrCodeNotFound
		}
		return "", fmt.Errorf("failed to get code: %w", err)
	}
	return code, nil
}

// MarkCodeVerified records a successful code check.
func (s *Store) MarkCodeVerified(ctx context.Context, number string) error {
	return s.client.SAdd(ctx, s.codeVerifiedKey(), number).Err()
}

// IsCodeVerified reports whether number passed a code check.
func (s *Store) IsCodeVerified(ctx context.Context, number string) (bool, error) {
	return s.client.SIsMember(ctx, s.codeVerifiedKey(), number).Result()
}

// MarkVerified records that number is fully verified.
func (s *Store) MarkVerified(ctx context.Context, number string) error {
	return s.client.SAdd(ctx, s.verifiedKey(), number).Err()
}

// IsVerified reports whether number is fully verified.
func (s *Store) IsVerified(ctx context.Context, number string) (bool, error) {
	return s.client.SIsMember(ctx, s.verifiedKey(), number).Result()
}

// SetPasswordHash stores the password hash of number.
func (s *Store) SetPasswordHash(ctx context.Context, number string, hash []byte) error {
	if err := s.client.HSet(ctx, s.numberKey(number), "password", string(hash)).Err(); err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}
	return nil
}

// PasswordHash returns the stored hash.
func (s *Store) PasswordHash(ctx context.Context, number string) ([]byte, error) {
	hash, err := s.client.HGet(ctx, s.numberKey(number), "password").Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrPasswordNotSet
		}
		return nil, fmt.Errorf("failed to get password: %w", err)
	}
	return []byte(hash), nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
