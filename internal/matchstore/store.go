// internal/matchstore/store.go

// Package matchstore is the match persistence sink: ranked snapshots are
// written to Postgres keyed by request id, with a Redis cache in front of the
// read path.
package matchstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	commonerrors "sourcing-match/internal/common/errors"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/models"
)

// ErrNotFound is returned when no snapshot exists for a request id.
var ErrNotFound = errors.New("no matches stored for request")

type Store struct {
	db       *sql.DB
	redis    *redis.Client // nil disables the read cache
	cacheTTL time.Duration
	logger   logger.Logger
}

func New(db *sql.DB, redisClient *redis.Client, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		redis:    redisClient,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "matchstore"}),
	}
}

func cacheKey(requestID string) string {
	return "matches:" + requestID
}

// Save writes the ranked snapshot for a request, replacing any previous one.
// The stored list is a copy of what the caller received, not a live
// reference. Failures come back as STORAGE_UNAVAILABLE.
func (s *Store) Save(ctx context.Context, requestID string, matches []models.ScoredCandidate) error {
	payload, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("marshal matches: %w", err)
	}

	now := time.Now().UTC()
	query := `INSERT INTO request_matches (id, request_id, matches, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (request_id) DO UPDATE SET matches = $3, created_at = $4`
	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), requestID, payload, now); err != nil {
		return commonerrors.NewStorageUnavailableError(err)
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey(requestID), payload, s.cacheTTL).Err(); err != nil {
			// Cache write failure is not a sink failure.
			s.logger.Debug("cache set failed", map[string]interface{}{
				"requestId": requestID,
				"error":     err.Error(),
			})
		}
	}

	return nil
}

// Find returns the persisted snapshot for a request, preferring the cache.
func (s *Store) Find(ctx context.Context, requestID string) (*models.MatchSnapshot, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey(requestID)).Result(); err == nil {
			var matches []models.ScoredCandidate
			if err := json.Unmarshal([]byte(val), &matches); err == nil {
				return &models.MatchSnapshot{RequestID: requestID, Matches: matches}, nil
			}
		}
	}

	var (
		snapshot models.MatchSnapshot
		payload  []byte
	)
	query := `SELECT id, matches, created_at FROM request_matches WHERE request_id = $1`
	err := s.db.QueryRowContext(ctx, query, requestID).Scan(&snapshot.ID, &payload, &snapshot.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, commonerrors.NewStorageUnavailableError(err)
	}

	snapshot.RequestID = requestID
	if err := json.Unmarshal(payload, &snapshot.Matches); err != nil {
		return nil, fmt.Errorf("decode stored matches: %w", err)
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey(requestID), payload, s.cacheTTL).Err(); err != nil {
			s.logger.Debug("cache repopulate failed", map[string]interface{}{
				"requestId": requestID,
				"error":     err.Error(),
			})
		}
	}

	return &snapshot, nil
}
