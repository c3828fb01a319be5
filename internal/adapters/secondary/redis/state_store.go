package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lorrc/caller-panel/internal/core/domain"
	"github.com/lorrc/caller-panel/internal/core/ports"
)

// Config controls the Redis connection and key layout.
type Config struct {
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces every key, e.g. "caller-panel:session:{id}:call".
	KeyPrefix string
	// TTL is refreshed on every write. Zero keeps keys forever.
	TTL time.Duration

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.KeyPrefix == "" {
		out.KeyPrefix = "caller-panel"
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// StateStore keeps the shared panel state in Redis as JSON values so that
// several panel instances and the telephony integration see the same data.
type StateStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.StateStore = (*StateStore)(nil)

// Open connects to Redis and validates connectivity via PING.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*StateStore, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewStateStore(rdb, cfg.KeyPrefix, cfg.TTL, logger), nil
}

// NewStateStore wraps an existing client.
func NewStateStore(rdb *goredis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *StateStore {
	return &StateStore{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With("component", "redis_state_store"),
	}
}

const (
	fieldCall    = "call"
	fieldContact = "contact"
	fieldTickets = "tickets"
)

func (s *StateStore) key(sessionID, field string) string {
	return s.prefix + ":session:" + sessionID + ":" + field
}

// getJSON reports false when the key does not exist.
func (s *StateStore) getJSON(ctx context.Context, key string, out any) (bool, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *StateStore) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *StateStore) CallData(ctx context.Context, sessionID string) (domain.CallerContext, bool, error) {
	var caller domain.CallerContext
	ok, err := s.getJSON(ctx, s.key(sessionID, fieldCall), &caller)
	if err != nil || !ok {
		return domain.CallerContext{}, false, err
	}
	return caller, true, nil
}

func (s *StateStore) SetCallData(ctx context.Context, sessionID string, caller domain.CallerContext) error {
	return s.setJSON(ctx, s.key(sessionID, fieldCall), caller)
}

// ClearCallData removes the caller and the lookup outcome tied to it in one
// transaction.
func (s *StateStore) ClearCallData(ctx context.Context, sessionID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.key(sessionID, fieldCall), s.key(sessionID, fieldTickets))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis clear call data: %w", err)
	}
	return nil
}

func (s *StateStore) Contact(ctx context.Context, sessionID string) (*domain.Contact, error) {
	var contact domain.Contact
	ok, err := s.getJSON(ctx, s.key(sessionID, fieldContact), &contact)
	if err != nil || !ok {
		return nil, err
	}
	return &contact, nil
}

func (s *StateStore) SetContact(ctx context.Context, sessionID string, contact domain.Contact) error {
	return s.setJSON(ctx, s.key(sessionID, fieldContact), contact)
}

func (s *StateStore) SaveFetchOutcome(ctx context.Context, sessionID string, state domain.TicketFetchState) error {
	if err := s.setJSON(ctx, s.key(sessionID, fieldTickets), state); err != nil {
		return err
	}
	s.logger.Debug("fetch outcome saved", "session_id", sessionID, "phase", state.Phase)
	return nil
}

func (s *StateStore) FetchOutcome(ctx context.Context, sessionID string) (domain.TicketFetchState, bool, error) {
	var state domain.TicketFetchState
	ok, err := s.getJSON(ctx, s.key(sessionID, fieldTickets), &state)
	if err != nil || !ok {
		return domain.TicketFetchState{}, false, err
	}
	return state, true, nil
}

func (s *StateStore) DeleteSession(ctx context.Context, sessionID string) error {
	err := s.rdb.Del(ctx,
		s.key(sessionID, fieldCall),
		s.key(sessionID, fieldContact),
		s.key(sessionID, fieldTickets),
	).Err()
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (s *StateStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *StateStore) Close() error {
	return s.rdb.Close()
}
