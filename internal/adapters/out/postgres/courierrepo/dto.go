// Package courierrepo persists courier aggregates.
package courierrepo

import (
	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO is the row of the couriers table. Location is optional, so both
// coordinates are nullable.
type CourierDTO struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq      int64     `gorm:"autoIncrement;not null;uniqueIndex"`
	Name     string    `gorm:"type:varchar(255);not null"`
	Phone    string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	Verified bool      `gorm:"not null;default:false"`
	Lat      *float64  `gorm:"type:double precision"`
	Lng      *float64  `gorm:"type:double precision"`
}

func (CourierDTO) TableName() string {
	return "couriers"
}

func fromDomain(c *courier.Courier) CourierDTO {
	dto := CourierDTO{
		ID:       c.ID().Bytes(),
		Name:     c.Name(),
		Phone:    c.Phone(),
		Verified: c.IsVerified(),
	}
	if loc := c.Location(); loc != nil {
		lat, lng := loc.Lat(), loc.Lng()
		dto.Lat, dto.Lng = &lat, &lng
	}
	return dto
}

func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var loc *kernel.GeoPoint
	if dto.Lat != nil && dto.Lng != nil {
		p, geoErr := kernel.NewGeoPoint(*dto.Lat, *dto.Lng)
		if geoErr != nil {
			return nil, geoErr
		}
		loc = &p
	}

	return courier.RestoreCourier(id, dto.Name, dto.Phone, dto.Verified, loc)
}

func toDomainAll(dtos []CourierDTO) ([]*courier.Courier, error) {
	couriers := make([]*courier.Courier, 0, len(dtos))
	for _, dto := range dtos {
		c, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		couriers = append(couriers, c)
	}
	return couriers, nil
}
