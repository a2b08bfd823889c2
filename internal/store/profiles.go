package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"fitlink/server/internal/models"
)

// ProfileDirectory resolves display names for conversation decoration. It
// is never on the aggregation correctness path; callers fall back to a
// placeholder on any failure.
type ProfileDirectory interface {
	ResolveDisplayName(ctx context.Context, userID string) (string, error)
}

// Profiles reads display names from the users table through a Redis
// read-through cache. The cache client is optional; without it every
// lookup goes to the database.
type Profiles struct {
	pool         *pgxpool.Pool
	cache        *redis.Client
	cacheTTL     time.Duration
	queryTimeout time.Duration
}

// NewProfiles creates a profile directory. cache may be nil.
func NewProfiles(pool *pgxpool.Pool, cache *redis.Client, queryTimeout time.Duration) *Profiles {
	return &Profiles{
		pool:         pool,
		cache:        cache,
		cacheTTL:     10 * time.Minute,
		queryTimeout: queryTimeout,
	}
}

var _ ProfileDirectory = (*Profiles)(nil)

// OpenRedis connects a Redis client from a URL and verifies it with a ping.
func OpenRedis(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return c, nil
}

func (p *Profiles) ResolveDisplayName(ctx context.Context, userID string) (string, error) {
	key := "profile:name:" + userID

	if p.cache != nil {
		name, err := p.cache.Get(ctx, key).Result()
		if err == nil && name != "" {
			return name, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Printf("profile cache get %s: %v", userID, err)
		}
	}

	qctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	var profile models.Profile
	err := p.pool.QueryRow(qctx,
		"SELECT id, name, role, created_at FROM users WHERE id = $1", userID,
	).Scan(&profile.ID, &profile.Name, &profile.Role, &profile.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: resolve name: %v", ErrStoreUnavailable, err)
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, profile.Name, p.cacheTTL).Err(); err != nil {
			log.Printf("profile cache set %s: %v", userID, err)
		}
	}
	return profile.Name, nil
}

// StaticProfiles is a fixed id-to-name map, used as a directory stand-in
// by tests.
type StaticProfiles map[string]string

var _ ProfileDirectory = (StaticProfiles)(nil)

func (s StaticProfiles) ResolveDisplayName(_ context.Context, userID string) (string, error) {
	name, ok := s[userID]
	if !ok {
		return "", ErrNotFound
	}
	return name, nil
}
