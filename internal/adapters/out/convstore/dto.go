// Package convstore provides the conversation store backends: an in-process
// sharded map, MongoDB and Redis. The remote backends persist StateDTO, a
// flat document with string identifiers, so both BSON and JSON encode it
// without custom codecs.
package convstore

import (
	"errors"
	"time"

	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/kernel"
)

type StateDTO struct {
	UserID               string            `bson:"_id" json:"userId"`
	Step                 string            `bson:"step" json:"step"`
	Cart                 []CartItemDTO     `bson:"cart,omitempty" json:"cart,omitempty"`
	PharmacyID           string            `bson:"pharmacyId,omitempty" json:"pharmacyId,omitempty"`
	PrescriptionApproved bool              `bson:"prescriptionApproved" json:"prescriptionApproved"`
	AwaitingPhoto        bool              `bson:"awaitingPhoto" json:"awaitingPhoto"`
	ActiveOrderID        string            `bson:"activeOrderId,omitempty" json:"activeOrderId,omitempty"`
	LastResults          []SearchResultDTO `bson:"lastResults,omitempty" json:"lastResults,omitempty"`
	LastDoctors          []DoctorChoiceDTO `bson:"lastDoctors,omitempty" json:"lastDoctors,omitempty"`
	PendingItem          *PendingItemDTO   `bson:"pendingItem,omitempty" json:"pendingItem,omitempty"`
	PrescriptionPhoto    string            `bson:"prescriptionPhoto,omitempty" json:"prescriptionPhoto,omitempty"`
	ProfileName          string            `bson:"profileName,omitempty" json:"profileName,omitempty"`
	LastLocation         *LocationDTO      `bson:"lastLocation,omitempty" json:"lastLocation,omitempty"`
	Welcomed             bool              `bson:"welcomed" json:"welcomed"`
	UpdatedAt            time.Time         `bson:"updatedAt" json:"updatedAt"`
}

type CartItemDTO struct {
	MedicineID           string `bson:"medicineId" json:"medicineId"`
	PharmacyID           string `bson:"pharmacyId" json:"pharmacyId"`
	Name                 string `bson:"name" json:"name"`
	Quantity             int    `bson:"quantity" json:"quantity"`
	UnitPrice            int64  `bson:"unitPrice" json:"unitPrice"`
	RequiresPrescription bool   `bson:"requiresPrescription" json:"requiresPrescription"`
	StockSnapshot        int    `bson:"stockSnapshot" json:"stockSnapshot"`
}

type SearchResultDTO struct {
	MedicineID           string `bson:"medicineId" json:"medicineId"`
	PharmacyID           string `bson:"pharmacyId" json:"pharmacyId"`
	PharmacyName         string `bson:"pharmacyName" json:"pharmacyName"`
	Name                 string `bson:"name" json:"name"`
	Price                int64  `bson:"price" json:"price"`
	Stock                int    `bson:"stock" json:"stock"`
	RequiresPrescription bool   `bson:"requiresPrescription" json:"requiresPrescription"`
}

type DoctorChoiceDTO struct {
	DoctorID  string `bson:"doctorId" json:"doctorId"`
	Name      string `bson:"name" json:"name"`
	Specialty string `bson:"specialty" json:"specialty"`
}

type PendingItemDTO struct {
	MedicineID string `bson:"medicineId" json:"medicineId"`
	PharmacyID string `bson:"pharmacyId" json:"pharmacyId"`
	Quantity   int    `bson:"quantity" json:"quantity"`
}

type LocationDTO struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// FromDomain maps a state to its stored form.
func FromDomain(s conversation.State) StateDTO {
	dto := StateDTO{
		UserID:               s.UserID,
		Step:                 string(s.Step),
		PharmacyID:           optionalID(s.PharmacyID),
		PrescriptionApproved: s.PrescriptionApproved,
		AwaitingPhoto:        s.AwaitingPhoto,
		ActiveOrderID:        optionalID(s.ActiveOrderID),
		PrescriptionPhoto:    s.PrescriptionPhoto,
		ProfileName:          s.Profile.Name,
		Welcomed:             s.Welcomed,
		UpdatedAt:            s.UpdatedAt,
	}

	for _, item := range s.Cart {
		dto.Cart = append(dto.Cart, CartItemDTO{
			MedicineID:           item.MedicineID.String(),
			PharmacyID:           item.PharmacyID.String(),
			Name:                 item.Name,
			Quantity:             item.Quantity,
			UnitPrice:            item.UnitPrice,
			RequiresPrescription: item.RequiresPrescription,
			StockSnapshot:        item.StockSnapshot,
		})
	}
	for _, r := range s.LastResults {
		dto.LastResults = append(dto.LastResults, SearchResultDTO{
			MedicineID:           r.MedicineID.String(),
			PharmacyID:           r.PharmacyID.String(),
			PharmacyName:         r.PharmacyName,
			Name:                 r.Name,
			Price:                r.Price,
			Stock:                r.Stock,
			RequiresPrescription: r.RequiresPrescription,
		})
	}
	for _, d := range s.LastDoctors {
		dto.LastDoctors = append(dto.LastDoctors, DoctorChoiceDTO{
			DoctorID:  d.DoctorID.String(),
			Name:      d.Name,
			Specialty: d.Specialty,
		})
	}
	if s.PendingItem != nil {
		dto.PendingItem = &PendingItemDTO{
			MedicineID: s.PendingItem.MedicineID.String(),
			PharmacyID: s.PendingItem.PharmacyID.String(),
			Quantity:   s.PendingItem.Quantity,
		}
	}
	if loc := s.Profile.LastLocation; loc != nil {
		dto.LastLocation = &LocationDTO{Lat: loc.Lat(), Lng: loc.Lng()}
	}
	return dto
}

// ToDomain rebuilds the state. A corrupted identifier fails the whole document.
func ToDomain(dto StateDTO) (conversation.State, error) {
	var errs []error
	parse := func(s string) kernel.UUID {
		id, err := kernel.UUIDFromString(s)
		if err != nil {
			errs = append(errs, err)
		}
		return id
	}
	parseOptional := func(s string) *kernel.UUID {
		if s == "" {
			return nil
		}
		id := parse(s)
		return &id
	}

	s := conversation.State{
		UserID:               dto.UserID,
		Step:                 conversation.Step(dto.Step),
		PharmacyID:           parseOptional(dto.PharmacyID),
		PrescriptionApproved: dto.PrescriptionApproved,
		AwaitingPhoto:        dto.AwaitingPhoto,
		ActiveOrderID:        parseOptional(dto.ActiveOrderID),
		PrescriptionPhoto:    dto.PrescriptionPhoto,
		Profile:              conversation.Profile{Name: dto.ProfileName},
		Welcomed:             dto.Welcomed,
		UpdatedAt:            dto.UpdatedAt,
	}
	if !s.Step.IsValid() {
		s.Step = conversation.StepMenu
	}

	for _, item := range dto.Cart {
		s.Cart = append(s.Cart, conversation.CartItem{
			MedicineID:           parse(item.MedicineID),
			PharmacyID:           parse(item.PharmacyID),
			Name:                 item.Name,
			Quantity:             item.Quantity,
			UnitPrice:            item.UnitPrice,
			RequiresPrescription: item.RequiresPrescription,
			StockSnapshot:        item.StockSnapshot,
		})
	}
	for _, r := range dto.LastResults {
		s.LastResults = append(s.LastResults, conversation.SearchResult{
			MedicineID:           parse(r.MedicineID),
			PharmacyID:           parse(r.PharmacyID),
			PharmacyName:         r.PharmacyName,
			Name:                 r.Name,
			Price:                r.Price,
			Stock:                r.Stock,
			RequiresPrescription: r.RequiresPrescription,
		})
	}
	for _, d := range dto.LastDoctors {
		s.LastDoctors = append(s.LastDoctors, conversation.DoctorChoice{
			DoctorID:  parse(d.DoctorID),
			Name:      d.Name,
			Specialty: d.Specialty,
		})
	}
	if p := dto.PendingItem; p != nil {
		s.PendingItem = &conversation.PendingItem{
			MedicineID: parse(p.MedicineID),
			PharmacyID: parse(p.PharmacyID),
			Quantity:   p.Quantity,
		}
	}
	if loc := dto.LastLocation; loc != nil {
		point, err := kernel.NewGeoPoint(loc.Lat, loc.Lng)
		if err != nil {
			errs = append(errs, err)
		}
		s.Profile.LastLocation = &point
	}

	if err := errors.Join(errs...); err != nil {
		return conversation.State{}, err
	}
	return s, nil
}

func optionalID(id *kernel.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
