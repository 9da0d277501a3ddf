package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/automata/internal/adapters/file"
	"github.com/aretw0/automata/pkg/adapters/memory"
	"github.com/aretw0/automata/pkg/adapters/redis"
	"github.com/aretw0/automata/pkg/persistence/middleware"
	"github.com/aretw0/automata/pkg/ports"
	"github.com/aretw0/automata/pkg/session"
)

// Backend bundles the session store with its optional locker.
type Backend struct {
	Store  ports.RunStore
	Locker ports.DistributedLocker
	closer io.Closer
}

// Close releases the connection of network backends.
func (b *Backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// OpenBackend selects the session store named by cfg.Store.
//
//   - file (default): JSON files under cfg.SessionsDir, or <dir>/.automata/sessions
//   - memory: process-local, lost on exit
//   - redis: cfg.Redis, with a distributed lock per session
//
// When cfg.StoreKey is set, runs are encrypted before they reach the store.
func OpenBackend(ctx context.Context, cfg Config) (*Backend, error) {
	b, err := openBackend(ctx, cfg)
	if err != nil || cfg.StoreKey == "" {
		return b, err
	}

	mw, err := encryption(cfg)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Store = middleware.Chain(b.Store, mw)
	return b, nil
}

func encryption(cfg Config) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.StoreKey)
	if err != nil {
		return nil, fmt.Errorf("AUTOMATA_STORE_KEY: %w", err)
	}
	conf := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.StoreFallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("AUTOMATA_STORE_FALLBACK_KEYS[%d]: %w", i, err)
		}
		conf.FallbackKeys = append(conf.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(conf), nil
}

func openBackend(ctx context.Context, cfg Config) (*Backend, error) {
	switch cfg.Store {
	case "", "file":
		dir := cfg.SessionsDir
		if dir == "" {
			dir = filepath.Join(cfg.Dir, ".automata", "sessions")
		}
		return &Backend{Store: file.New(dir)}, nil
	case "memory":
		return &Backend{Store: memory.NewStore()}, nil
	case "redis":
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store: redis.NewFromClient(client,
				redis.WithPrefix(cfg.Redis.Prefix),
				redis.WithTTL(cfg.Redis.TTL),
			),
			Locker: redis.NewLocker(client, cfg.Redis.Prefix),
			closer: client,
		}, nil
	}
	return nil, fmt.Errorf("unknown session store %q (want file, memory or redis)", cfg.Store)
}

// NewSessionManager wires a session manager over the backend.
func NewSessionManager(b *Backend, catalog ports.Catalog, cfg Config, logger *slog.Logger) *session.Manager {
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithLockTTL(cfg.LockTTL),
		session.WithHistoryLimit(cfg.HistorySize),
	}
	if b.Locker != nil {
		opts = append(opts, session.WithLocker(b.Locker))
	}
	return session.NewManager(b.Store, catalog, opts...)
}
