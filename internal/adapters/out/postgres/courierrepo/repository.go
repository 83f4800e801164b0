package courierrepo

import (
	"context"
	"errors"
	"fmt"

	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormCourierRepository implements ports.CourierRepository using GORM.
type GormCourierRepository struct {
	db *gorm.DB
}

var _ ports.CourierRepository = (*GormCourierRepository)(nil)

// NewGormCourierRepository creates a new GORM courier repository.
func NewGormCourierRepository(db *gorm.DB) *GormCourierRepository {
	return &GormCourierRepository{db: db}
}

// Add saves a new courier. The phone must not belong to another courier.
func (r *GormCourierRepository) Add(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Omit("seq").Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewValueIsInvalidErrorWithCause("courier",
				fmt.Errorf("phone %s or id %s already registered", aggregate.Phone(), aggregate.ID()))
		}
		return err
	}
	return nil
}

// Update saves an existing courier.
func (r *GormCourierRepository) Update(ctx context.Context, aggregate *courier.Courier) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&CourierDTO{}).
		Where("id = ?", dto.ID).
		Select("name", "phone", "verified", "lat", "lng").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("courier", aggregate.ID().String())
	}
	return nil
}

// Get retrieves a courier by ID.
func (r *GormCourierRepository) Get(ctx context.Context, id kernel.UUID) (*courier.Courier, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(ctx, "courier", id.String(), "id = ?", id.Bytes())
}

// GetByPhone retrieves the courier registered under phone.
func (r *GormCourierRepository) GetByPhone(ctx context.Context, phone string) (*courier.Courier, error) {
	return r.first(ctx, "courier", phone, "phone = ?", phone)
}

func (r *GormCourierRepository) first(ctx context.Context, name, key string, cond string, args ...any) (*courier.Courier, error) {
	var dto CourierDTO
	if err := r.db.WithContext(ctx).Where(cond, args...).First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError(name, key)
		}
		return nil, err
	}
	return toDomain(dto)
}

// GetAllVerified returns verified couriers in registration order.
func (r *GormCourierRepository) GetAllVerified(ctx context.Context, limit int) ([]*courier.Courier, error) {
	query := r.db.WithContext(ctx).Where("verified").Order("seq")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []CourierDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}

// GetAllFree returns verified couriers in registration order that hold
// neither an active delivery nor an outstanding offer.
func (r *GormCourierRepository) GetAllFree(ctx context.Context, limit int) ([]*courier.Courier, error) {
	query := r.db.WithContext(ctx).
		Where("verified").
		Where(`NOT EXISTS (
			SELECT 1 FROM orders o
			WHERE (o.courier_id = couriers.id AND o.status IN ?)
			   OR (o.offered_courier_id = couriers.id AND o.status = ?)
		)`, []string{order.CourierAssigned.String(), order.EnRoute.String()}, order.PendingCourier.String()).
		Order("seq")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []CourierDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}
	return toDomainAll(dtos)
}
