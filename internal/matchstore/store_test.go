// internal/matchstore/store_test.go
package matchstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "sourcing-match/internal/common/errors"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func setupTestRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func createTestMatches() []models.ScoredCandidate {
	return []models.ScoredCandidate{
		{
			CandidateItem: models.CandidateItem{
				ID:     "int-1",
				Name:   "vintage leather jacket",
				Price:  79.99,
				Source: models.SourceInternal,
			},
			Score: 0.82,
		},
		{
			CandidateItem: models.CandidateItem{
				ID:     "ebay-3",
				Name:   "leather jacket",
				Price:  55,
				Source: models.SourceEbay,
			},
			Score: 0.61,
		},
	}
}

// ==========================
// Save Tests
// ==========================

func TestSave_UpsertsSnapshot(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO request_matches").
		WithArgs(sqlmock.AnyArg(), "req-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := New(db, nil, time.Minute, logger.NewNoOpLogger())
	err := store.Save(context.Background(), "req-1", createTestMatches())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_DatabaseFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO request_matches").
		WillReturnError(sql.ErrConnDone)

	store := New(db, nil, time.Minute, logger.NewNoOpLogger())
	err := store.Save(context.Background(), "req-1", createTestMatches())

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeStorageUnavailable, commonerrors.CodeOf(err))
}

func TestSave_PopulatesCache(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO request_matches").
		WillReturnResult(sqlmock.NewResult(1, 1))

	redisClient := setupTestRedis(t)
	store := New(db, redisClient, time.Minute, logger.NewNoOpLogger())

	require.NoError(t, store.Save(context.Background(), "req-1", createTestMatches()))

	cached, err := redisClient.Get(context.Background(), "matches:req-1").Result()
	require.NoError(t, err)

	var matches []models.ScoredCandidate
	require.NoError(t, json.Unmarshal([]byte(cached), &matches))
	assert.Len(t, matches, 2)
}

// ==========================
// Find Tests
// ==========================

func TestFind_ReadsFromDatabase(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	payload, _ := json.Marshal(createTestMatches())
	created := time.Now().UTC()

	mock.ExpectQuery("SELECT id, matches, created_at FROM request_matches").
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "matches", "created_at"}).
			AddRow("row-id", payload, created))

	store := New(db, nil, time.Minute, logger.NewNoOpLogger())
	snapshot, err := store.Find(context.Background(), "req-1")

	require.NoError(t, err)
	assert.Equal(t, "req-1", snapshot.RequestID)
	assert.Equal(t, "row-id", snapshot.ID)
	require.Len(t, snapshot.Matches, 2)
	assert.Equal(t, 0.82, snapshot.Matches[0].Score)
}

func TestFind_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, matches, created_at FROM request_matches").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	store := New(db, nil, time.Minute, logger.NewNoOpLogger())
	_, err := store.Find(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFind_CacheHitSkipsDatabase(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	// No query expectations: a cache hit must never touch Postgres.

	redisClient := setupTestRedis(t)
	payload, _ := json.Marshal(createTestMatches())
	require.NoError(t, redisClient.Set(context.Background(), "matches:req-9", payload, time.Minute).Err())

	store := New(db, redisClient, time.Minute, logger.NewNoOpLogger())
	snapshot, err := store.Find(context.Background(), "req-9")

	require.NoError(t, err)
	assert.Equal(t, "req-9", snapshot.RequestID)
	assert.Len(t, snapshot.Matches, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_CacheMissFallsThrough(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	payload, _ := json.Marshal(createTestMatches())
	mock.ExpectQuery("SELECT id, matches, created_at FROM request_matches").
		WithArgs("req-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "matches", "created_at"}).
			AddRow("row-2", payload, time.Now().UTC()))

	redisClient := setupTestRedis(t)
	store := New(db, redisClient, time.Minute, logger.NewNoOpLogger())

	snapshot, err := store.Find(context.Background(), "req-2")
	require.NoError(t, err)
	assert.Len(t, snapshot.Matches, 2)

	// The read path repopulates the cache.
	cached := redisClient.Get(context.Background(), "matches:req-2")
	assert.NoError(t, cached.Err())
}

func TestFind_CacheRepopulateFailureIsNotAReadFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	payload, _ := json.Marshal(createTestMatches())
	mock.ExpectQuery("SELECT id, matches, created_at FROM request_matches").
		WithArgs("req-3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "matches", "created_at"}).
			AddRow("row-3", payload, time.Now().UTC()))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	store := New(db, redisClient, time.Minute, logger.NewNoOpLogger())

	snapshot, err := store.Find(context.Background(), "req-3")
	require.NoError(t, err)
	assert.Len(t, snapshot.Matches, 2)
}
