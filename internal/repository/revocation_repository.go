package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/session-api/pkg/retry"
)

const activeMarker = "active"

var connectedClientsPattern = regexp.MustCompile(`connected_clients:(\d+)`)

// RevocationOptions tunes key layout and request-path bounds for the store.
type RevocationOptions struct {
	KeyPrefix string
	TTL       time.Duration
	Timeout   time.Duration
	Retry     retry.Policy
}

// RevocationRepository tracks which token fingerprints are live in Redis.
type RevocationRepository struct {
	client redis.UniversalClient
	logger *zap.Logger
	opts   RevocationOptions
}

// NewRevocationRepository constructs a revocation repository.
func NewRevocationRepository(client redis.UniversalClient, logger *zap.Logger, opts RevocationOptions) *RevocationRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevocationRepository{client: client, logger: logger, opts: opts}
}

func (r *RevocationRepository) key(fingerprint string) string {
	return r.opts.KeyPrefix + fingerprint
}

func (r *RevocationRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opts.Timeout)
}

// Activate marks the fingerprint live. Re-activating refreshes the TTL only.
func (r *RevocationRepository) Activate(ctx context.Context, fingerprint string) error {
	if r.client == nil {
		return errors.New("revocation store not configured")
	}
	key := r.key(fingerprint)
	err := retry.Do(ctx, r.logger, "revocation.activate", r.opts.Retry, func(ctx context.Context) error {
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()
		return r.client.Set(ctx, key, activeMarker, r.opts.TTL).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Deactivate removes the fingerprint. Unknown fingerprints are not an error.
func (r *RevocationRepository) Deactivate(ctx context.Context, fingerprint string) error {
	if r.client == nil {
		return errors.New("revocation store not configured")
	}
	key := r.key(fingerprint)
	var removed int64
	err := retry.Do(ctx, r.logger, "revocation.deactivate", r.opts.Retry, func(ctx context.Context) error {
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()
		n, err := r.client.Del(ctx, key).Result()
		removed = n
		return err
	})
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	if removed == 0 {
		r.logger.Debug("fingerprint already inactive", zap.String("key", key))
	}
	return nil
}

// IsActive reports whether the fingerprint is live. Any store failure reads as
// inactive.
func (r *RevocationRepository) IsActive(ctx context.Context, fingerprint string) bool {
	if r.client == nil {
		return false
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	key := r.key(fingerprint)
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Error("revocation lookup failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return val == activeMarker
}

// ConnectionCount returns the number of clients connected to the store, or 0
// when it cannot be determined.
func (r *RevocationRepository) ConnectionCount(ctx context.Context) int64 {
	if r.client == nil {
		return 0
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	info, err := r.client.Info(ctx, "clients").Result()
	if err != nil {
		r.logger.Warn("redis info failed", zap.Error(err))
		return 0
	}
	return ParseConnectedClients(info)
}

// Health pings the store.
func (r *RevocationRepository) Health(ctx context.Context) bool {
	if r.client == nil {
		return false
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pong, err := r.client.Ping(ctx).Result()
	if err != nil {
		r.logger.Warn("redis ping failed", zap.Error(err))
		return false
	}
	return pong == "PONG"
}

// Close releases the underlying Redis connection if present.
func (r *RevocationRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// ParseConnectedClients extracts connected_clients from an INFO payload.
func ParseConnectedClients(info string) int64 {
	match := connectedClientsPattern.FindStringSubmatch(info)
	if len(match) != 2 {
		return 0
	}
	n, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
