// Package conversation holds the per-user dialogue state and the cart rules
// enforced on it: one pharmacy per cart, prescription gating and stock snapshots.
package conversation

import (
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
)

// Step is the discrete dialogue state that drives event routing.
type Step string

const (
	StepMenu                     Step = "MENU"
	StepAwaitingMedicineSearch   Step = "AWAITING_MEDICINE_SEARCH"
	StepAwaitingOrderSelection   Step = "AWAITING_FILTERED_ORDER_SELECTION"
	StepAwaitingPrescription     Step = "AWAITING_PRESCRIPTION_PHOTO"
	StepAwaitingDeliveryLocation Step = "AWAITING_DELIVERY_LOCATION"
	StepAwaitingDoctorSelection  Step = "AWAITING_DOCTOR_SELECTION"
)

// Steps lists every step, MENU first.
func Steps() []Step {
	return []Step{
		StepMenu,
		StepAwaitingMedicineSearch,
		StepAwaitingOrderSelection,
		StepAwaitingPrescription,
		StepAwaitingDeliveryLocation,
		StepAwaitingDoctorSelection,
	}
}

// IsValid reports whether s is a known step.
func (s Step) IsValid() bool {
	for _, known := range Steps() {
		if s == known {
			return true
		}
	}
	return false
}

// CartItem is one medicine line. Name, price, prescription flag and stock are
// snapshots taken when the item was added.
type CartItem struct {
	MedicineID           kernel.UUID
	PharmacyID           kernel.UUID
	Name                 string
	Quantity             int
	UnitPrice            int64
	RequiresPrescription bool
	StockSnapshot        int
}

func (c CartItem) Amount() int64 {
	return int64(c.Quantity) * c.UnitPrice
}

// SearchResult is one numbered line of the last search, selectable with "COMMANDER n q".
type SearchResult struct {
	MedicineID           kernel.UUID
	PharmacyID           kernel.UUID
	PharmacyName         string
	Name                 string
	Price                int64
	Stock                int
	RequiresPrescription bool
}

// DoctorChoice is one numbered line of the doctor list.
type DoctorChoice struct {
	DoctorID  kernel.UUID
	Name      string
	Specialty string
}

// PendingItem is a prescription-gated medicine the user asked for before
// approval; it is added to the cart once the pharmacy approves.
type PendingItem struct {
	MedicineID kernel.UUID
	PharmacyID kernel.UUID
	Quantity   int
}

type Profile struct {
	Name         string
	LastLocation *kernel.GeoPoint
}

// State is everything the dialogue remembers about one user. It is owned by
// the dispatcher and replaced as a whole on every write.
type State struct {
	UserID               string
	Step                 Step
	Cart                 []CartItem
	PharmacyID           *kernel.UUID
	PrescriptionApproved bool
	AwaitingPhoto        bool
	ActiveOrderID        *kernel.UUID
	LastResults          []SearchResult
	LastDoctors          []DoctorChoice
	PendingItem          *PendingItem
	PrescriptionPhoto    string
	Profile              Profile
	Welcomed             bool
	UpdatedAt            time.Time
}

// NewState is the default state of a user never seen before.
func NewState(userID string) State {
	return State{
		UserID: userID,
		Step:   StepMenu,
	}
}

// Clone returns a deep copy, so stores never share slices with callers.
func (s State) Clone() State {
	out := s
	out.Cart = append([]CartItem(nil), s.Cart...)
	out.LastResults = append([]SearchResult(nil), s.LastResults...)
	out.LastDoctors = append([]DoctorChoice(nil), s.LastDoctors...)
	if s.PharmacyID != nil {
		id := *s.PharmacyID
		out.PharmacyID = &id
	}
	if s.ActiveOrderID != nil {
		id := *s.ActiveOrderID
		out.ActiveOrderID = &id
	}
	if s.PendingItem != nil {
		item := *s.PendingItem
		out.PendingItem = &item
	}
	if s.Profile.LastLocation != nil {
		loc := *s.Profile.LastLocation
		out.Profile.LastLocation = &loc
	}
	return out
}

// ResetToMenu returns the user to MENU without touching the cart.
func (s *State) ResetToMenu() {
	s.Step = StepMenu
	s.AwaitingPhoto = false
}

// AwaitPrescription moves the user to the photo step.
func (s *State) AwaitPrescription() {
	s.Step = StepAwaitingPrescription
	s.AwaitingPhoto = true
}

// ClearCart empties the cart and releases the active pharmacy.
func (s *State) ClearCart() {
	s.Cart = nil
	s.PharmacyID = nil
}

// CartTotal is the sum of all line amounts.
func (s State) CartTotal() int64 {
	var total int64
	for _, item := range s.Cart {
		total += item.Amount()
	}
	return total
}

// CartRequiresPrescription reports whether any cart line is gated.
func (s State) CartRequiresPrescription() bool {
	for _, item := range s.Cart {
		if item.RequiresPrescription {
			return true
		}
	}
	return false
}

// QuantityInCart is the cumulative quantity of medicineID already in the cart.
func (s State) QuantityInCart(medicineID kernel.UUID) int {
	total := 0
	for _, item := range s.Cart {
		if item.MedicineID.IsEqual(medicineID) {
			total += item.Quantity
		}
	}
	return total
}

// Touch stamps the last activity time used for idle eviction.
func (s *State) Touch(now time.Time) {
	s.UpdatedAt = now
}
