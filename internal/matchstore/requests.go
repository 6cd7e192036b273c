// internal/matchstore/requests.go
package matchstore

import (
	"context"
	"database/sql"

	commonerrors "sourcing-match/internal/common/errors"
	"sourcing-match/internal/common/logger"
	"sourcing-match/internal/models"
)

// RequestStore reads active sourcing requests for reverse matching: when a
// new listing arrives, open requests are fetched and scored against it.
type RequestStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRequestStore(db *sql.DB, log logger.Logger) *RequestStore {
	return &RequestStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "requeststore"}),
	}
}

// SearchActive returns open sourcing requests a new listing could satisfy:
// category-compatible and, for budget-constrained requests, with a budget
// covering the listing price. Unconstrained requests (budget 0) always pass
// the price filter.
func (r *RequestStore) SearchActive(ctx context.Context, price float64, category string) ([]models.ActiveRequest, error) {
	query := `SELECT request_id, buyer_id, request_description, budget, category
		FROM sourcing_requests
		WHERE status = 'active'
		  AND (budget = 0 OR budget >= $1)
		  AND (category = '' OR $2 = '' OR category = $2)`

	rows, err := r.db.QueryContext(ctx, query, price, category)
	if err != nil {
		return nil, commonerrors.NewStorageUnavailableError(err)
	}
	defer rows.Close()

	var requests []models.ActiveRequest
	for rows.Next() {
		var req models.ActiveRequest
		if err := rows.Scan(&req.ID, &req.BuyerID, &req.Description, &req.Budget, &req.Category); err != nil {
			return nil, commonerrors.NewStorageUnavailableError(err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewStorageUnavailableError(err)
	}

	return requests, nil
}
