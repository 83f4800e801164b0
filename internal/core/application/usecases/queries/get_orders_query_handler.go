package queries

import (
	"context"

	"pharmadelivery/internal/core/ports"
)

// GetOrdersQueryHandler backs GET /admin/orders.
type GetOrdersQueryHandler struct {
	reader ports.OrderReader
}

func NewGetOrdersQueryHandler(reader ports.OrderReader) GetOrdersQueryHandler {
	return GetOrdersQueryHandler{reader: reader}
}

func (h GetOrdersQueryHandler) Handle(ctx context.Context, query GetOrdersQuery) ([]GetOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	summaries, err := h.reader.ListOrders(ctx, query.statuses, query.limit)
	if err != nil {
		return nil, err
	}

	orders := make([]GetOrdersQueryResponse, 0, len(summaries))
	for _, s := range summaries {
		orders = append(orders, toResponse(s))
	}
	return orders, nil
}

func toResponse(s ports.OrderSummary) GetOrdersQueryResponse {
	return GetOrdersQueryResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		PharmacyID: s.PharmacyID,
		Status:     s.Status.String(),
		Total:      s.Total,
		CourierID:  s.CourierID,
		Attempts:   s.Attempts,
	}
}
