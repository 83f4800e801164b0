// Package catalogrepo persists pharmacies, medicines and doctors.
package catalogrepo

import (
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PharmacyDTO struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name    string    `gorm:"type:varchar(255);not null"`
	Address string    `gorm:"type:varchar(255)"`
	Phone   string    `gorm:"type:varchar(32);not null;index"`
	OnDuty  bool      `gorm:"not null;default:false"`
	Open    bool      `gorm:"not null;default:false"`
	Lat     float64   `gorm:"type:double precision;not null"`
	Lng     float64   `gorm:"type:double precision;not null"`
}

func (PharmacyDTO) TableName() string {
	return "pharmacies"
}

// MedicineDTO carries SearchKey, the folded name and aliases, so that search
// is a single LIKE on an indexed column.
type MedicineDTO struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey"`
	PharmacyID           uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name                 string         `gorm:"type:varchar(255);not null"`
	Aliases              pq.StringArray `gorm:"type:text[]"`
	SearchKey            string         `gorm:"type:text;not null;index"`
	Price                int64          `gorm:"type:bigint;not null"`
	Stock                int            `gorm:"type:int;not null;check:stock >= 0"`
	RequiresPrescription bool           `gorm:"not null;default:false"`
}

func (MedicineDTO) TableName() string {
	return "medicines"
}

type DoctorDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Specialty string    `gorm:"type:varchar(255)"`
	Phone     string    `gorm:"type:varchar(32)"`
}

func (DoctorDTO) TableName() string {
	return "doctors"
}

func pharmacyFromDomain(p catalog.Pharmacy) PharmacyDTO {
	return PharmacyDTO{
		ID:      p.ID.Bytes(),
		Name:    p.Name,
		Address: p.Address,
		Phone:   p.Phone,
		OnDuty:  p.OnDuty,
		Open:    p.Open,
		Lat:     p.Location.Lat(),
		Lng:     p.Location.Lng(),
	}
}

func pharmacyToDomain(dto PharmacyDTO) (catalog.Pharmacy, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return catalog.Pharmacy{}, err
	}
	loc, err := kernel.NewGeoPoint(dto.Lat, dto.Lng)
	if err != nil {
		return catalog.Pharmacy{}, err
	}
	return catalog.Pharmacy{
		ID:       id,
		Name:     dto.Name,
		Address:  dto.Address,
		Phone:    dto.Phone,
		OnDuty:   dto.OnDuty,
		Open:     dto.Open,
		Location: loc,
	}, nil
}

func medicineFromDomain(m catalog.Medicine) MedicineDTO {
	return MedicineDTO{
		ID:                   m.ID.Bytes(),
		PharmacyID:           m.PharmacyID.Bytes(),
		Name:                 m.Name,
		Aliases:              pq.StringArray(append([]string(nil), m.Aliases...)),
		SearchKey:            m.SearchKey(),
		Price:                m.Price,
		Stock:                m.Stock,
		RequiresPrescription: m.RequiresPrescription,
	}
}

func medicineToDomain(dto MedicineDTO) (catalog.Medicine, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return catalog.Medicine{}, err
	}
	pharmacyID, err := kernel.UUIDFromBytes(dto.PharmacyID[:])
	if err != nil {
		return catalog.Medicine{}, err
	}
	return catalog.Medicine{
		ID:                   id,
		PharmacyID:           pharmacyID,
		Name:                 dto.Name,
		Aliases:              []string(dto.Aliases),
		Price:                dto.Price,
		Stock:                dto.Stock,
		RequiresPrescription: dto.RequiresPrescription,
	}, nil
}

func doctorFromDomain(d catalog.Doctor) DoctorDTO {
	return DoctorDTO{ID: d.ID.Bytes(), Name: d.Name, Specialty: d.Specialty, Phone: d.Phone}
}

func doctorToDomain(dto DoctorDTO) (catalog.Doctor, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return catalog.Doctor{}, err
	}
	return catalog.Doctor{ID: id, Name: dto.Name, Specialty: dto.Specialty, Phone: dto.Phone}, nil
}
