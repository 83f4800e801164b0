package ports

import (
	"context"

	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/kernel"
)

// PharmacyFilter narrows ListPharmacies. Zero value lists every pharmacy.
type PharmacyFilter struct {
	OnDutyOnly bool
	OpenOnly   bool
}

// CatalogRepository reads pharmacies, medicines and doctors. The Upsert
// methods serve seeding and back office tools; the dialogue never writes
// the catalog except through DecrementStock.
type CatalogRepository interface {
	GetPharmacy(ctx context.Context, id kernel.UUID) (catalog.Pharmacy, error)
	ListPharmacies(ctx context.Context, filter PharmacyFilter) ([]catalog.Pharmacy, error)
	UpsertPharmacy(ctx context.Context, pharmacy catalog.Pharmacy) error

	GetMedicine(ctx context.Context, id kernel.UUID) (catalog.Medicine, error)

	// SearchMedicines returns at most limit in-stock medicines whose name or
	// alias contains query, ignoring case and accents, ordered by name.
	SearchMedicines(ctx context.Context, query string, limit int) ([]catalog.Medicine, error)
	UpsertMedicine(ctx context.Context, medicine catalog.Medicine) error

	// DecrementStock removes quantity units from the medicine's stock. The write
	// is conditional on stock >= quantity; when it does not hold the call
	// returns *errs.ObjectIsStaleError and leaves the stock unchanged.
	DecrementStock(ctx context.Context, medicineID kernel.UUID, quantity int) error

	GetDoctor(ctx context.Context, id kernel.UUID) (catalog.Doctor, error)
	ListDoctors(ctx context.Context, limit int) ([]catalog.Doctor, error)
	UpsertDoctor(ctx context.Context, doctor catalog.Doctor) error
}
