// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sourcing-match/internal/aggregate"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/engine"
	"sourcing-match/internal/matchstore"
	"sourcing-match/internal/models"
	"sourcing-match/internal/ranking"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSource struct {
	name  string
	items []models.CandidateItem
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Search(ctx context.Context, q aggregate.Query) ([]models.CandidateItem, error) {
	return f.items, nil
}
func (f *fakeSource) SupportsCategory(category string) bool { return true }

type fakeSink struct{}

func (f *fakeSink) Enqueue(requestID string, matches []models.ScoredCandidate) {}

type fakeSearcher struct {
	requests []models.ActiveRequest
}

func (f *fakeSearcher) SearchActive(ctx context.Context, price float64, category string) ([]models.ActiveRequest, error) {
	return f.requests, nil
}

type testHarness struct {
	router http.Handler
	mock   sqlmock.Sqlmock
	db     *sql.DB
}

func setupServer(t *testing.T, searcher engine.RequestSearcher, sources ...aggregate.Source) *testHarness {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNoOpLogger()
	svc := engine.NewService(
		aggregate.New(time.Second, log, sources...),
		ranking.NewRanker(ranking.DefaultWeights(), log),
		&fakeSink{},
		searcher,
		20,
		0.3,
		nil,
		log,
	)
	store := matchstore.New(db, nil, time.Minute, log)
	srv := New(":0", svc, store, nil, log)

	return &testHarness{router: srv.Routes(), mock: mock, db: db}
}

func (h *testHarness) post(path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *testHarness) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

// ==========================
// POST /api/match
// ==========================

func TestHandleMatch_Success(t *testing.T) {
	src := &fakeSource{name: models.SourceInternal, items: []models.CandidateItem{
		{ID: "int-1", Name: "vintage leather jacket", Source: models.SourceInternal, SourcePriority: 1.2, Price: 60},
		{ID: "int-2", Name: "gaming console", Source: models.SourceInternal, SourcePriority: 1.2, Price: 300},
	}}
	h := setupServer(t, &fakeSearcher{}, src)

	rec := h.post("/api/match", `{
		"requestId": "req-1",
		"searchQuery": "vintage leather jacket",
		"budget": 100
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, 2, resp.TotalMatches)
	assert.Equal(t, 2, resp.InternalMatches)
	assert.Equal(t, 0, resp.ExternalMatches)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "int-1", resp.Matches[0].ID)
}

func TestHandleMatch_InvalidJSON(t *testing.T) {
	h := setupServer(t, &fakeSearcher{})

	rec := h.post("/api/match", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestHandleMatch_MissingRequiredFields(t *testing.T) {
	h := setupServer(t, &fakeSearcher{})

	tests := []struct {
		name string
		body string
	}{
		{"no requestId", `{"searchQuery": "jacket"}`},
		{"no searchQuery", `{"requestId": "req-1"}`},
		{"empty requestId", `{"requestId": "", "searchQuery": "jacket"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.post("/api/match", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// ==========================
// GET /api/requests/{id}/matches
// ==========================

func TestHandleGetMatches_Found(t *testing.T) {
	h := setupServer(t, &fakeSearcher{})

	matches := []models.ScoredCandidate{
		{CandidateItem: models.CandidateItem{ID: "int-1", Name: "jacket", Source: models.SourceInternal}, Score: 0.8},
	}
	payload, _ := json.Marshal(matches)
	h.mock.ExpectQuery("SELECT id, matches, created_at FROM request_matches").
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "matches", "created_at"}).
			AddRow("row-1", payload, time.Now().UTC()))

	rec := h.get("/api/requests/req-1/matches")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalMatches)
	assert.Equal(t, 1, resp.InternalMatches)
}

func TestHandleGetMatches_NotFound(t *testing.T) {
	h := setupServer(t, &fakeSearcher{})

	h.mock.ExpectQuery("SELECT id, matches, created_at FROM request_matches").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	rec := h.get("/api/requests/missing/matches")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ==========================
// Webhooks
// ==========================

func TestHandleNewRequest_Success(t *testing.T) {
	src := &fakeSource{name: models.SourceInternal, items: []models.CandidateItem{
		{ID: "int-1", Name: "vintage leather jacket", Source: models.SourceInternal},
	}}
	h := setupServer(t, &fakeSearcher{}, src)

	rec := h.post("/api/webhooks/new-request", `{
		"request_id": "req-1",
		"buyer_id": "buyer-1",
		"request_description": "vintage leather jacket",
		"budget": 100
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.MatchesFound)
}

func TestHandleNewRequest_MissingFields(t *testing.T) {
	h := setupServer(t, &fakeSearcher{})

	rec := h.post("/api/webhooks/new-request", `{"buyer_id": "buyer-1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleNewListing_Success(t *testing.T) {
	searcher := &fakeSearcher{requests: []models.ActiveRequest{
		{ID: "req-1", BuyerID: "buyer-1", Description: "vintage leather jacket wanted"},
		{ID: "req-2", BuyerID: "buyer-2", Description: "electric scooter"},
	}}
	h := setupServer(t, searcher)

	rec := h.post("/api/webhooks/new-listing", `{
		"listing_id": "lst-1",
		"seller_id": "seller-1",
		"item_name": "vintage leather jacket",
		"price": 80
	}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.WebhookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.MatchesFound)
}

func TestHandleNewListing_SchemaValidation(t *testing.T) {
	h := setupServer(t, &fakeSearcher{})

	rec := h.post("/api/webhooks/new-listing", `{"seller_id": "seller-1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Infrastructure Endpoints
// ==========================

func TestHealthEndpoints(t *testing.T) {
	h := setupServer(t, &fakeSearcher{})

	for _, path := range []string{"/health", "/ready"} {
		rec := h.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := setupServer(t, &fakeSearcher{})

	rec := h.get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
