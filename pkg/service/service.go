package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/textremind/internal/logging"
	"github.com/aretw0/textremind/pkg/domain"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits of a verification code.
const CodeLength = 6

// verificationText is the body of the SMS carrying a code.
const verificationText = "Your verification code for TextRemind is %s."

// Service holds the backend state machine of a phone number.
type Service struct {
	store  ports.VerificationStore
	queue  ports.MessageQueue
	sender ports.SMSSender

	logger   *slog.Logger
	now      func() time.Time
	newCode  func() (string, error)
	newID    func() string
	hashCost int
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the clock used to validate delivery times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCodeGenerator overrides how verification codes are produced.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		s.newCode = gen
	}
}

// WithIDGenerator overrides how message IDs are produced.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// WithHashCost sets the bcrypt cost used for passwords.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
	}
}

// New creates a service over the given store, queue and sender.
func New(store ports.VerificationStore, queue ports.MessageQueue, sender ports.SMSSender, opts ...Option) *Service {
	s := &Service{
		store:    store,
		queue:    queue,
		sender:   sender,
		logger:   logging.NewNop(),
		now:      time.Now,
		newCode:  RandomCode,
		newID:    uuid.NewString,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RandomCode returns CodeLength random decimal digits.
func RandomCode() (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, msg)
}

func requireNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return invalid("A phone number is required.")
	}
	return nil
}

// Check reports whether number is fully verified.
func (s *Service) Check(ctx context.Context, number string) (bool, error) {
	if err := requireNumber(number); err != nil {
		return false, err
	}
	return s.store.IsVerified(ctx, number)
}

// SendVerification issues a new code for number and texts it.
func (s *Service) SendVerification(ctx context.Context, number string) error {
	if err := requireNumber(number); err != nil {
		return err
	}
	code, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.store.SaveCode(ctx, number, code); err != nil {
		return err
	}
	if err := s.sender.Send(ctx, number, fmt.Sprintf(verificationText, code)); err != nil {
		return fmt.Errorf("failed to deliver code: %w", err)
	}
	s.logger.Info("verification code sent", "number", number)
	return nil
}

// CheckVerification compares code with the latest code issued for number. A
// match marks the number as code-verified.
func (s *Service) CheckVerification(ctx context.Context, number, code string) (bool, error) {
	if err := requireNumber(number); err != nil {
		return false, err
	}
	actual, err := s.store.Code(ctx, number)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	if actual != code {
		return false, nil
	}
	if err := s.store.MarkCodeVerified(ctx, number); err != nil {
		return false, err
	}
	return true, nil
}

// SetPassword stores a password for a code-verified number and marks it verified.
func (s *Service) SetPassword(ctx context.Context, number, password string) error {
	if err := requireNumber(number); err != nil {
		return err
	}
	if password == "" {
		return invalid("A password is required.")
	}
	ok, err := s.store.IsCodeVerified(ctx, number)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotVerified
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.SetPasswordHash(ctx, number, hash); err != nil {
		return err
	}
	return s.store.MarkVerified(ctx, number)
}

// CheckPassword reports whether password matches the one stored for a verified number.
func (s *Service) CheckPassword(ctx context.Context, number, password string) (bool, error) {
	if err := requireNumber(number); err != nil {
		return false, err
	}
	verified, err := s.store.IsVerified(ctx, number)
	if err != nil {
		return false, err
	}
	if !verified {
		return false, domain.ErrNotVerified
	}
	hash, err := s.store.PasswordHash(ctx, number)
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil, nil
}

// ScheduleRequest is the payload of the schedule operation.
type ScheduleRequest struct {
	Body     string `mapstructure:"body"`
	To       string `mapstructure:"to"`
	Time     int64  `mapstructure:"time"`
	Password string `mapstructure:"password"`
}

// Schedule queues a message for a verified number. The delivery time is unix
// seconds and must be in the future.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (domain.ScheduledMessage, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return domain.ScheduledMessage{}, invalid("A message is required.")
	}
	if utf8.RuneCountInString(body) > domain.MaxMessageLength {
		return domain.ScheduledMessage{}, invalid(fmt.Sprintf(
			"Your message is too long, it must be no more than %d characters.", domain.MaxMessageLength))
	}
	if err := requireNumber(req.To); err != nil {
		return domain.ScheduledMessage{}, err
	}

	at := time.Unix(req.Time, 0)
	if !at.After(s.now()) {
		return domain.ScheduledMessage{}, domain.ErrPastTime
	}

	verified, err := s.store.IsVerified(ctx, req.To)
	if err != nil {
		return domain.ScheduledMessage{}, err
	}
	if !verified {
		verified, err = s.store.IsCodeVerified(ctx, req.To)
		if err != nil {
			return domain.ScheduledMessage{}, err
		}
	}
	if !verified {
		return domain.ScheduledMessage{}, domain.ErrNotVerified
	}

	msg := domain.ScheduledMessage{
		ID:        s.newID(),
		Body:      body,
		To:        req.To,
		DeliverAt: at,
	}
	if err := s.queue.Enqueue(ctx, msg); err != nil {
		return domain.ScheduledMessage{}, err
	}
	s.logger.Info("message scheduled", "id", msg.ID, "deliver_at", msg.DeliverAt.Unix())
	return msg, nil
}
