package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/openfolio/portfolio-service/internal/models"
)

// SecurityStore is the backing catalog the cache reads through to.
type SecurityStore interface {
	GetSecurity(ctx context.Context, ticker string) (*models.Security, error)
	SecurityExists(ctx context.Context, ticker string) (bool, error)
}

// SecurityCache is a read-through Redis cache in front of the security
// catalog. Catalog rows are immutable, so entries only ever expire; there
// is no invalidation path. Redis being down degrades to direct store reads.
type SecurityCache struct {
	rdb   *redis.Client
	store SecurityStore
	ttl   time.Duration
	log   zerolog.Logger
}

// NewSecurityCache creates a SecurityCache with the given entry TTL.
func NewSecurityCache(rdb *redis.Client, store SecurityStore, ttl time.Duration, log zerolog.Logger) *SecurityCache {
	return &SecurityCache{rdb: rdb, store: store, ttl: ttl, log: log}
}

func securityKey(ticker string) string {
	return "security:" + ticker
}

// GetSecurity retrieves a catalog row, serving from Redis when possible.
func (c *SecurityCache) GetSecurity(ctx context.Context, ticker string) (*models.Security, error) {
	key := securityKey(ticker)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var s models.Security
		if err := json.Unmarshal(cached, &s); err == nil {
			return &s, nil
		}
		// Unreadable payload: fall through and repopulate.
	} else if err != redis.Nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("security cache read failed")
	}

	s, err := c.store.GetSecurity(ctx, ticker)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal security: %w", err)
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("security cache write failed")
	}
	return s, nil
}

// SecurityExists reports whether the ticker resolves in the catalog. A
// cache hit answers without touching the store; a miss asks the store
// directly so that absent tickers are never cached as present.
func (c *SecurityCache) SecurityExists(ctx context.Context, ticker string) (bool, error) {
	n, err := c.rdb.Exists(ctx, securityKey(ticker)).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	if err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("security cache check failed")
	}
	return c.store.SecurityExists(ctx, ticker)
}
