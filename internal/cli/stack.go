package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	survey "github.com/Lokiragnarock/srm-cia-survey"
	"github.com/Lokiragnarock/srm-cia-survey/internal/config"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/file"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/memory"
	redisadapter "github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/redis"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/remote"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/adapters/sqlite"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/observability"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/persistence/middleware"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Stack is everything a command needs, wired from Settings.
type Stack struct {
	Settings config.Settings
	Logger   *slog.Logger
	Engine   *survey.Engine

	Store     ports.StateStore
	Sink      ports.SubmissionSink
	Responses ports.ResponseReader
	Locker    ports.DistributedLocker
	Metrics   *observability.Metrics

	closers []func() error
}

type buildOptions struct {
	registerer prometheus.Registerer
	engineOpts []survey.Option
	skipSink   bool
}

// BuildOption tweaks Build.
type BuildOption func(*buildOptions)

// WithRegisterer enables Prometheus metrics on reg.
func WithRegisterer(reg prometheus.Registerer) BuildOption {
	return func(o *buildOptions) {
		o.registerer = reg
	}
}

// WithEngineOptions passes extra options to the survey engine.
func WithEngineOptions(opts ...survey.Option) BuildOption {
	return func(o *buildOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// WithoutSink skips the submission backend, for commands that only read
// the survey definition.
func WithoutSink() BuildOption {
	return func(o *buildOptions) {
		o.skipSink = true
	}
}

// Build loads the survey and opens the configured backends. The caller
// must Close the stack.
func Build(ctx context.Context, s config.Settings, logger *slog.Logger, opts ...BuildOption) (st *Stack, err error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	st = &Stack{Settings: s, Logger: logger}
	defer func() {
		if err != nil {
			_ = st.Close()
			st = nil
		}
	}()

	hooks := observability.LoggingHooks(logger)
	if o.registerer != nil {
		st.Metrics, err = observability.NewMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		hooks = hooks.Merge(st.Metrics.Hooks())
	}

	engineOpts := []survey.Option{
		survey.WithLogger(logger),
		survey.WithLifecycleHooks(hooks),
		survey.WithStrictChoices(s.StrictChoices),
		survey.WithTimeout(s.Timeout),
	}
	st.Engine, err = survey.Open(ctx, s.Source, append(engineOpts, o.engineOpts...)...)
	if err != nil {
		return nil, err
	}

	if err = st.openStore(ctx); err != nil {
		return nil, err
	}
	if !o.skipSink {
		if err = st.openSink(); err != nil {
			return nil, err
		}
	}

	if st.Metrics != nil {
		store := st.Store
		err = st.Metrics.TrackActiveSessions(func() float64 {
			ids, err := store.List(context.Background())
			if err != nil {
				return 0
			}
			return float64(len(ids))
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return st, nil
}

func (st *Stack) openStore(ctx context.Context) error {
	s := st.Settings
	switch s.Store {
	case config.StoreFile:
		st.Store = file.NewStore(s.StoreDir)
	case config.StoreRedis:
		rs := redisadapter.New(s.Redis.Addr, "", 0,
			redisadapter.WithPrefix(s.Redis.Prefix),
			redisadapter.WithTTL(s.Redis.TTL),
		)
		st.closers = append(st.closers, rs.Close)
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", s.Redis.Addr, err)
		}
		st.Store = rs
		st.Locker = redisadapter.NewLocker(rs.Client(), s.Redis.Prefix+"lock:")
	default:
		st.Store = memory.NewStore()
	}

	if s.EncryptionKey != "" {
		key, err := middleware.ParseKey(s.EncryptionKey)
		if err != nil {
			return fmt.Errorf("encryption_key: %w", err)
		}
		encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return err
		}
		st.Store = encrypt(st.Store)
	}
	st.Logger.Debug("state store ready", "store", s.Store, "encrypted", s.EncryptionKey != "")
	return nil
}

func (st *Stack) openSink() error {
	s := st.Settings
	ids := st.Engine.Graph().IDs()

	switch s.Sink {
	case config.SinkSQLite:
		sink, err := sqlite.Open(s.SQLitePath, sqlite.WithLogger(st.Logger), sqlite.WithQuestionIDs(ids))
		if err != nil {
			return err
		}
		st.closers = append(st.closers, sink.Close)
		st.Sink, st.Responses = sink, sink
	case config.SinkRemote:
		client, err := remote.New(s.RemoteURL, remote.WithTimeout(s.Timeout), remote.WithLogger(st.Logger))
		if err != nil {
			return err
		}
		st.Sink, st.Responses = client, client
	default:
		sink := memory.NewSink(ids...)
		st.Sink, st.Responses = sink, sink
	}

	if len(s.MaskPatterns) > 0 {
		mask, err := middleware.NewPIIMiddleware(s.MaskPatterns)
		if err != nil {
			return fmt.Errorf("mask_patterns: %w", err)
		}
		st.Sink = mask(st.Sink)
	}
	st.Logger.Debug("submission sink ready", "sink", s.Sink, "masked", len(s.MaskPatterns))
	return nil
}

// Manager creates a session manager over the stack's engine and backends.
func (st *Stack) Manager(opts ...session.Option) *session.Manager {
	base := []session.Option{session.WithLogger(st.Logger)}
	if st.Sink != nil {
		base = append(base, session.WithSink(st.Sink))
	}
	if st.Locker != nil {
		base = append(base, session.WithLocker(st.Locker))
	}
	return session.NewManager(st.Engine, st.Store, append(base, opts...)...)
}

// ResetSession removes a stored session; a missing one is not an error.
func (st *Stack) ResetSession(ctx context.Context, sessionID string) error {
	err := st.Store.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("failed to reset session %s: %w", sessionID, err)
	}
	return nil
}

// Close releases the backends in reverse order.
func (st *Stack) Close() error {
	var errs []error
	for i := len(st.closers) - 1; i >= 0; i-- {
		errs = append(errs, st.closers[i]())
	}
	st.closers = nil
	return errors.Join(errs...)
}
