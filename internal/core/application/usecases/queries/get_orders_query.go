// Package queries contains read-only use cases. Handlers go through
// ports.OrderReader and never load aggregates.
package queries

import (
	"errors"
	"fmt"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

const (
	DefaultOrdersLimit = 50
	MaxOrdersLimit     = 500
)

var ErrGetOrdersQueryIsNotConstructed = errors.New(
	"GetOrdersQuery must be created via NewGetOrdersQuery constructor",
)

// GetOrdersQuery lists orders filtered by status.
//
// Example:
//
//	query, err := NewGetOrdersQuery([]string{"PENDING_COURIER", "UNASSIGNABLE"}, 0)
//	if err != nil {
//	    return err
//	}
//	orders, err := handler.Handle(ctx, query)
type GetOrdersQuery struct {
	statuses []order.Status
	limit    int

	guard guard.ConstructorGuard
}

// NewGetOrdersQuery parses status names. limit 0 selects DefaultOrdersLimit.
func NewGetOrdersQuery(statusNames []string, limit int) (GetOrdersQuery, error) {
	var err error
	statuses := make([]order.Status, 0, len(statusNames))
	for _, name := range statusNames {
		status, parseErr := order.ParseStatus(name)
		if parseErr != nil {
			err = errors.Join(err, parseErr)
			continue
		}
		statuses = append(statuses, status)
	}
	if limit == 0 {
		limit = DefaultOrdersLimit
	}
	if limit < 0 || limit > MaxOrdersLimit {
		err = errors.Join(err, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxOrdersLimit))
	}
	if err != nil {
		return GetOrdersQuery{}, fmt.Errorf("invalid orders query: %w", err)
	}

	return GetOrdersQuery{statuses: statuses, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetOrdersQueryIsNotConstructed)
}

// GetOrdersQueryResponse is one order row.
type GetOrdersQueryResponse struct {
	ID         kernel.UUID
	CustomerID string
	PharmacyID kernel.UUID
	Status     string
	Total      int64
	CourierID  *kernel.UUID
	Attempts   int
}
