package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	prefaberrors "github.com/dpup/prefab/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/wwwouaiebe/TravelNotes-sub003/internal/clients/overpass"
)

// OpenPostgres opens and verifies a Postgres connection through the pgx driver
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}

	return db, nil
}

// SQLStore persists geodata responses in the overpass_cache table. Entries
// older than ttl are ignored.
type SQLStore struct {
	DB  *sql.DB
	TTL time.Duration
}

// NewSQLStore creates a store on db
func NewSQLStore(db *sql.DB, ttl time.Duration) *SQLStore {
	return &SQLStore{DB: db, TTL: ttl}
}

// Migrate creates the cache table when missing
func (s *SQLStore) Migrate(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("geodata store: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS overpass_cache (
		key        TEXT PRIMARY KEY,
		payload    BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`)
	if err != nil {
		return fmt.Errorf("create overpass_cache table: %w", err)
	}
	return nil
}

// Get returns the stored response for key, when fresh
func (s *SQLStore) Get(ctx context.Context, key string) (*overpass.Response, bool, error) {
	if s.DB == nil {
		return nil, false, errors.New("geodata store: db is nil")
	}

	var payload []byte
	var createdAt time.Time
	err := s.DB.QueryRowContext(ctx, `
	SELECT payload, created_at
	FROM overpass_cache
	WHERE key = $1;
	`, key).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get geodata store: query overpass_cache table: %w", err)
	}

	if s.TTL > 0 && time.Since(createdAt) > s.TTL {
		return nil, false, nil
	}

	response, err := DecodeResponse(payload)
	if err != nil {
		return nil, false, fmt.Errorf("get geodata store key=%q: %w", key, err)
	}
	return response, true, nil
}

// Put stores response under key, replacing any previous entry
func (s *SQLStore) Put(ctx context.Context, key string, response *overpass.Response) error {
	if s.DB == nil {
		return errors.New("geodata store: db is nil")
	}

	payload, err := EncodeResponse(response)
	if err != nil {
		return fmt.Errorf("put geodata store key=%q: %w", key, err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO overpass_cache (key, payload, created_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE
	SET payload = EXCLUDED.payload,
		created_at = EXCLUDED.created_at;
	`, key, payload)
	if err != nil {
		return fmt.Errorf("put geodata store key=%q: %w", key, err)
	}
	return nil
}

// DeleteExpired removes entries older than the store TTL
func (s *SQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("geodata store: db is nil")
	}
	if s.TTL <= 0 {
		return 0, nil
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM overpass_cache WHERE created_at < $1;`, time.Now().Add(-s.TTL))
	if err != nil {
		return 0, fmt.Errorf("delete expired geodata: %w", err)
	}
	return res.RowsAffected()
}

// StartPeriodicCleanup starts a goroutine that periodically deletes expired
// entries until ctx is done
func (s *SQLStore) StartPeriodicCleanup(ctx context.Context, interval time.Duration, logger *zap.SugaredLogger) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	go func() {
		defer recoverPanic(logger, "Geodata store cleanup: recovered from panic")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.DeleteExpired(ctx)
				if err != nil {
					logger.Errorw("Geodata store cleanup failed", "error", err)
				} else if removed > 0 {
					logger.Infow("Geodata store cleanup", "removed", removed)
				}
			}
		}
	}()
}

// recoverPanic logs a recovered panic with a trimmed stack trace. It must be
// deferred directly.
func recoverPanic(logger *zap.SugaredLogger, msg string) {
	if r := recover(); r != nil {
		err, _ := prefaberrors.ParseStack(debug.Stack())
		skipFrames := 3
		numFrames := 5
		logger.Errorw(msg, "error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
	}
}
