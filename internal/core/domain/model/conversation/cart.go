package conversation

import (
	"errors"
	"fmt"
	"math"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
)

// PrescriptionPhotoInstructions tells the user how to unlock a gated medicine.
const PrescriptionPhotoInstructions = "Envoyez une photo nette et lisible de votre ordonnance " +
	"(nom du médecin, date et médicaments visibles). La pharmacie la validera avant l'ajout au panier."

var (
	ErrPrescriptionRequired = errors.New("prescription required")
	ErrPharmacyMismatch     = errors.New("pharmacy mismatch")
	ErrInsufficientStock    = errors.New("insufficient stock")
)

// PrescriptionRequiredError is returned when a gated medicine is added before approval.
type PrescriptionRequiredError struct {
	MedicineName string
	Instructions string
}

func (e *PrescriptionRequiredError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPrescriptionRequired, e.MedicineName)
}

func (e *PrescriptionRequiredError) Unwrap() error {
	return ErrPrescriptionRequired
}

// PharmacyMismatchError is returned when the cart already belongs to another pharmacy.
type PharmacyMismatchError struct {
	CartPharmacyID      kernel.UUID
	RequestedPharmacyID kernel.UUID
}

func (e *PharmacyMismatchError) Error() string {
	return fmt.Sprintf("%s: cart is for %s, item is from %s",
		ErrPharmacyMismatch, e.CartPharmacyID, e.RequestedPharmacyID)
}

func (e *PharmacyMismatchError) Unwrap() error {
	return ErrPharmacyMismatch
}

// InsufficientStockError is returned when the cumulative quantity exceeds the stock snapshot.
type InsufficientStockError struct {
	MedicineName string
	Requested    int
	Available    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: %s requested %d, available %d",
		ErrInsufficientStock, e.MedicineName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// AddItem applies the cart rules and appends item, merging it with an existing
// line for the same medicine. Checks run in this order: prescription gating,
// single pharmacy, cumulative stock. A successful gated addition consumes the
// prescription approval.
func (s *State) AddItem(item CartItem) ([]CartItem, error) {
	if item.Quantity <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"quantity", fmt.Errorf("%d is not greater than 0", item.Quantity))
	}
	if err := errors.Join(item.MedicineID.Validate(), item.PharmacyID.Validate()); err != nil {
		return nil, err
	}

	if item.RequiresPrescription && !s.PrescriptionApproved {
		return nil, &PrescriptionRequiredError{
			MedicineName: item.Name,
			Instructions: PrescriptionPhotoInstructions,
		}
	}

	if len(s.Cart) > 0 && s.PharmacyID != nil && !s.PharmacyID.IsEqual(item.PharmacyID) {
		return nil, &PharmacyMismatchError{
			CartPharmacyID:      *s.PharmacyID,
			RequestedPharmacyID: item.PharmacyID,
		}
	}

	inCart := s.QuantityInCart(item.MedicineID)
	if item.Quantity > item.StockSnapshot-inCart {
		requested := math.MaxInt
		if item.Quantity <= math.MaxInt-inCart {
			requested = inCart + item.Quantity
		}
		return nil, &InsufficientStockError{
			MedicineName: item.Name,
			Requested:    requested,
			Available:    item.StockSnapshot,
		}
	}

	merged := false
	for i := range s.Cart {
		if s.Cart[i].MedicineID.IsEqual(item.MedicineID) {
			s.Cart[i].Quantity += item.Quantity
			s.Cart[i].StockSnapshot = item.StockSnapshot
			merged = true
			break
		}
	}
	if !merged {
		s.Cart = append(s.Cart, item)
	}

	pharmacyID := item.PharmacyID
	s.PharmacyID = &pharmacyID
	if item.RequiresPrescription {
		s.PrescriptionApproved = false
	}

	return append([]CartItem(nil), s.Cart...), nil
}
