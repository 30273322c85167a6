package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/textremind/internal/config"
	httpAdapter "github.com/aretw0/textremind/pkg/adapters/http"
	"github.com/aretw0/textremind/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/textremind/pkg/adapters/redis"
	"github.com/aretw0/textremind/pkg/adapters/twilio"
	"github.com/aretw0/textremind/pkg/dispatch"
	"github.com/aretw0/textremind/pkg/observability"
	"github.com/aretw0/textremind/pkg/ports"
	"github.com/aretw0/textremind/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Backend holds the server-side components built from the configuration.
type Backend struct {
	Service  *service.Service
	Store    ports.VerificationStore
	Queue    ports.MessageQueue
	Sender   ports.SMSSender
	Locker   ports.DistributedLocker
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	cfg     *config.Config
	logger  *slog.Logger
	health  func(ctx context.Context) error
	closers []func() error
}

// NewBackend wires stores, sender, metrics and service according to cfg.
func NewBackend(cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{cfg: cfg, logger: logger}

	switch cfg.Store.Driver {
	case config.DriverRedis:
		opts := []redisAdapter.Option{redisAdapter.WithPrefix(cfg.Store.Prefix)}
		if cfg.Store.CodeTTL > 0 {
			opts = append(opts, redisAdapter.WithCodeTTL(cfg.Store.CodeTTL))
		}
		store := redisAdapter.New(cfg.Store.Addr, cfg.Store.Password, cfg.Store.DB, opts...)
		b.Store, b.Queue = store, store
		b.Locker = redisAdapter.NewLocker(store.Client(), cfg.Store.Prefix)
		b.health = store.Ping
		b.closers = append(b.closers, store.Close)
		logger.Info("using redis store", "addr", cfg.Store.Addr, "db", cfg.Store.DB)
	case config.DriverMemory:
		b.Store, b.Queue = memory.NewStore(), memory.NewQueue()
		logger.Info("using in-memory store, data is lost on exit")
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Twilio.AccountSID != "" {
		opts := []twilio.Option{twilio.WithLogger(logger)}
		if cfg.Twilio.BaseURL != "" {
			opts = append(opts, twilio.WithBaseURL(cfg.Twilio.BaseURL))
		}
		b.Sender = twilio.New(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.Number, opts...)
	} else {
		b.Sender = &loggingSender{next: memory.NewOutbox(), logger: logger}
		logger.Warn("twilio is not configured, text messages are only logged")
	}

	if cfg.Server.Metrics {
		b.Registry = prometheus.NewRegistry()
		b.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		b.Metrics = observability.NewMetrics(b.Registry)
	}

	b.Service = service.New(b.Store, b.Queue, b.Sender, service.WithLogger(logger))
	return b, nil
}

// Handler returns the HTTP API serving the service.
func (b *Backend) Handler() http.Handler {
	opts := []httpAdapter.Option{httpAdapter.WithLogger(b.logger)}
	if b.Metrics != nil {
		opts = append(opts, httpAdapter.WithMetrics(b.Metrics, b.Registry))
	}
	if b.health != nil {
		opts = append(opts, httpAdapter.WithHealthCheck(b.health))
	}
	return httpAdapter.NewHandler(b.Service, opts...)
}

// Dispatcher returns the message dispatcher over the queue and sender.
func (b *Backend) Dispatcher() *dispatch.Dispatcher {
	opts := []dispatch.Option{dispatch.WithLogger(b.logger)}
	if b.Locker != nil {
		opts = append(opts, dispatch.WithLocker(b.Locker), dispatch.WithLockTTL(b.cfg.Dispatch.LockTTL))
	}
	if b.Metrics != nil {
		opts = append(opts, dispatch.WithMetrics(b.Metrics))
	}
	return dispatch.New(b.Queue, b.Sender, opts...)
}

// Close releases connections.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// loggingSender records messages and logs them. It stands in for Twilio in
// local setups.
type loggingSender struct {
	next   ports.SMSSender
	logger *slog.Logger
}

func (s *loggingSender) Send(ctx context.Context, to, body string) error {
	s.logger.Info("text message", "to", to, "body", body)
	return s.next.Send(ctx, to, body)
}
