package catalogrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/ports"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/textnorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalogRepository implements ports.CatalogRepository using GORM.
type GormCatalogRepository struct {
	db *gorm.DB
}

var _ ports.CatalogRepository = (*GormCatalogRepository)(nil)

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *GormCatalogRepository) GetPharmacy(ctx context.Context, id kernel.UUID) (catalog.Pharmacy, error) {
	var dto PharmacyDTO
	if err := r.first(ctx, &dto, "pharmacy", id); err != nil {
		return catalog.Pharmacy{}, err
	}
	return pharmacyToDomain(dto)
}

func (r *GormCatalogRepository) ListPharmacies(ctx context.Context, filter ports.PharmacyFilter) ([]catalog.Pharmacy, error) {
	query := r.db.WithContext(ctx).Order("name")
	if filter.OnDutyOnly {
		query = query.Where("on_duty = ?", true)
	}
	if filter.OpenOnly {
		query = query.Where("open = ?", true)
	}

	var dtos []PharmacyDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]catalog.Pharmacy, 0, len(dtos))
	for _, dto := range dtos {
		p, err := pharmacyToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *GormCatalogRepository) UpsertPharmacy(ctx context.Context, pharmacy catalog.Pharmacy) error {
	if err := pharmacy.Validate(); err != nil {
		return err
	}
	dto := pharmacyFromDomain(pharmacy)
	return r.upsert(ctx, &dto)
}

func (r *GormCatalogRepository) GetMedicine(ctx context.Context, id kernel.UUID) (catalog.Medicine, error) {
	var dto MedicineDTO
	if err := r.first(ctx, &dto, "medicine", id); err != nil {
		return catalog.Medicine{}, err
	}
	return medicineToDomain(dto)
}

// SearchMedicines matches the folded query against search_key.
func (r *GormCatalogRepository) SearchMedicines(ctx context.Context, query string, limit int) ([]catalog.Medicine, error) {
	folded := textnorm.Fold(query)
	if folded == "" {
		return []catalog.Medicine{}, nil
	}

	q := r.db.WithContext(ctx).
		Where("stock > 0").
		Where(`search_key LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(folded)+"%").
		Order("name, price")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var dtos []MedicineDTO
	if err := q.Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]catalog.Medicine, 0, len(dtos))
	for _, dto := range dtos {
		m, err := medicineToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *GormCatalogRepository) UpsertMedicine(ctx context.Context, medicine catalog.Medicine) error {
	if err := medicine.Validate(); err != nil {
		return err
	}
	dto := medicineFromDomain(medicine)
	return r.upsert(ctx, &dto)
}

// DecrementStock is a single conditional UPDATE; no row matching means the
// medicine is unknown or short of stock.
func (r *GormCatalogRepository) DecrementStock(ctx context.Context, medicineID kernel.UUID, quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsOutOfRangeError("quantity", quantity, 1, nil)
	}

	result := r.db.WithContext(ctx).
		Model(&MedicineDTO{}).
		Where("id = ? AND stock >= ?", medicineID.Bytes(), quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	m, err := r.GetMedicine(ctx, medicineID)
	if err != nil {
		return err
	}
	return errs.NewObjectIsStaleError("medicine stock", fmt.Sprintf("%s (%d left)", medicineID, m.Stock))
}

func (r *GormCatalogRepository) GetDoctor(ctx context.Context, id kernel.UUID) (catalog.Doctor, error) {
	var dto DoctorDTO
	if err := r.first(ctx, &dto, "doctor", id); err != nil {
		return catalog.Doctor{}, err
	}
	return doctorToDomain(dto)
}

func (r *GormCatalogRepository) ListDoctors(ctx context.Context, limit int) ([]catalog.Doctor, error) {
	query := r.db.WithContext(ctx).Order("name")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dtos []DoctorDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]catalog.Doctor, 0, len(dtos))
	for _, dto := range dtos {
		d, err := doctorToDomain(dto)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *GormCatalogRepository) UpsertDoctor(ctx context.Context, doctor catalog.Doctor) error {
	if err := doctor.Validate(); err != nil {
		return err
	}
	dto := doctorFromDomain(doctor)
	return r.upsert(ctx, &dto)
}

func (r *GormCatalogRepository) first(ctx context.Context, dest any, name string, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).First(dest, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewObjectNotFoundError(name, id.String())
		}
		return err
	}
	return nil
}

func (r *GormCatalogRepository) upsert(ctx context.Context, dto any) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(dto).Error
}
