package history

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkamal/stockaudit/internal/database"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS narrative_cache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// NarrativeCache stores collaborator responses keyed by batch hash. It
// lives in the cache-profile database: losing it costs one extra model
// call, nothing more.
type NarrativeCache struct {
	db  *database.DB
	log zerolog.Logger
}

// NewNarrativeCache creates the cache and applies its schema.
func NewNarrativeCache(db *database.DB, log zerolog.Logger) (*NarrativeCache, error) {
	if _, err := db.Exec(cacheSchema); err != nil {
		return nil, fmt.Errorf("applying cache schema: %w", err)
	}
	return &NarrativeCache{
		db:  db,
		log: log.With().Str("component", "narrative_cache").Logger(),
	}, nil
}

// Get returns the cached blob for a key, if present.
func (c *NarrativeCache) Get(key string) ([]byte, bool) {
	var value []byte
	err := c.db.QueryRow(`SELECT value FROM narrative_cache WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return nil, false
	}
	return value, true
}

// Set stores a blob, replacing any previous entry for the key.
func (c *NarrativeCache) Set(key string, value []byte) error {
	_, err := c.db.Exec(
		`INSERT INTO narrative_cache (key, value, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`,
		key, value, time.Now().UTC(),
	)
	return err
}

// PurgeOlderThan removes entries created before the cutoff.
func (c *NarrativeCache) PurgeOlderThan(cutoff time.Time) (int64, error) {
	result, err := c.db.Exec(`DELETE FROM narrative_cache WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging narrative cache: %w", err)
	}
	return result.RowsAffected()
}
