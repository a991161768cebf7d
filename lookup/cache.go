package lookup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/felipevm/vendasbot/core/logger"
)

// CacheTTL is the freshness window for memoized lookups. Entries older
// than this are treated as absent and overwritten on the next search.
const CacheTTL = 24 * time.Hour

// CacheKey identifies one memoized lookup. Results are partitioned per
// chat like every other persisted artifact.
type CacheKey struct {
	ChatID       int64
	Location     string
	Category     string
	RadiusMeters int
}

// Cache memoizes per-term search results. Get reports a miss (not an
// error) for absent or expired entries.
type Cache interface {
	Get(ctx context.Context, key CacheKey) ([]Place, bool, error)
	Put(ctx context.Context, key CacheKey, places []Place) error
}

// SQLCache stores results as JSONB rows in Postgres, read-before-write.
type SQLCache struct {
	db  *sqlx.DB
	ttl time.Duration
}

func NewSQLCache(db *sqlx.DB) *SQLCache {
	return &SQLCache{db: db, ttl: CacheTTL}
}

func (c *SQLCache) Get(ctx context.Context, key CacheKey) ([]Place, bool, error) {
	const q = `
		SELECT results FROM lookup_cache
		 WHERE chat_id = $1 AND location = $2 AND category = $3 AND radius_m = $4
		   AND cached_at > $5`

	var raw []byte
	err := c.db.QueryRowxContext(ctx, q,
		key.ChatID, key.Location, key.Category, key.RadiusMeters,
		time.Now().Add(-c.ttl),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup: cache get: %w", err)
	}

	var places []Place
	if err := json.Unmarshal(raw, &places); err != nil {
		return nil, false, fmt.Errorf("lookup: cache decode: %w", err)
	}
	logger.Debug(ctx, "service.lookup", "cache.hit",
		slog.String("category", key.Category),
		slog.Int("hits", len(places)))
	return places, true, nil
}

func (c *SQLCache) Put(ctx context.Context, key CacheKey, places []Place) error {
	raw, err := json.Marshal(places)
	if err != nil {
		return fmt.Errorf("lookup: cache encode: %w", err)
	}

	const q = `
		INSERT INTO lookup_cache (chat_id, location, category, radius_m, results, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chat_id, location, category, radius_m)
		DO UPDATE SET results = EXCLUDED.results, cached_at = EXCLUDED.cached_at`

	if _, err := c.db.ExecContext(ctx, q,
		key.ChatID, key.Location, key.Category, key.RadiusMeters, raw, time.Now(),
	); err != nil {
		return fmt.Errorf("lookup: cache put: %w", err)
	}
	return nil
}
