package orderrepo

import (
	"context"
	"errors"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderReader serves admin queries outside any unit of work.
type GormOrderReader struct {
	db *gorm.DB
}

var _ ports.OrderReader = (*GormOrderReader)(nil)

func NewGormOrderReader(db *gorm.DB) *GormOrderReader {
	return &GormOrderReader{db: db}
}

func (r *GormOrderReader) ListOrders(ctx context.Context, statuses []order.Status, limit int) ([]ports.OrderSummary, error) {
	query := inStatuses(r.db.WithContext(ctx), statuses).Order("created_at, id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []OrderDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]ports.OrderSummary, 0, len(dtos))
	for _, dto := range dtos {
		summary, err := summarize(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

func (r *GormOrderReader) GetOrder(ctx context.Context, id kernel.UUID) (ports.OrderSummary, error) {
	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.OrderSummary{}, errs.NewObjectNotFoundError("order", id.String())
		}
		return ports.OrderSummary{}, err
	}
	return summarize(dto)
}

func summarize(dto OrderDTO) (ports.OrderSummary, error) {
	snap, err := toSnapshot(dto)
	if err != nil {
		return ports.OrderSummary{}, err
	}

	total := snap.Fee
	for _, l := range snap.Lines {
		total += l.Amount()
	}
	return ports.OrderSummary{
		ID:         snap.ID,
		CustomerID: snap.CustomerID,
		PharmacyID: snap.PharmacyID,
		Status:     snap.Status,
		Total:      total,
		CourierID:  snap.CourierID,
		Attempts:   len(snap.Attempts),
		CreatedAt:  snap.CreatedAt,
		UpdatedAt:  snap.UpdatedAt,
	}, nil
}
