// Package catalog holds the read-mostly reference data the dialogue works
// against: pharmacies, their medicines and the doctors customers can book.
// These are plain validated records; their source of truth is the document store.
package catalog

import (
	"errors"
	"fmt"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/textnorm"
)

// Pharmacy is a dispensary that prepares orders. OnDuty marks a pharmacy
// operating outside normal hours ("pharmacie de garde").
type Pharmacy struct {
	ID       kernel.UUID
	Name     string
	Address  string
	Phone    string
	OnDuty   bool
	Open     bool
	Location kernel.GeoPoint
}

func (p Pharmacy) Validate() error {
	var err error
	if e := p.ID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if p.Name == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("pharmacy name"))
	}
	if p.Phone == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("pharmacy phone"))
	}
	if e := p.Location.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	return err
}

// Medicine is one stock line of one pharmacy.
type Medicine struct {
	ID                   kernel.UUID
	PharmacyID           kernel.UUID
	Name                 string
	Aliases              []string
	Price                int64
	Stock                int
	RequiresPrescription bool
}

func (m Medicine) Validate() error {
	var err error
	if e := m.ID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if e := m.PharmacyID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if m.Name == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("medicine name"))
	}
	if m.Price < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause(
			"medicine price", fmt.Errorf("%d is negative", m.Price)))
	}
	if m.Stock < 0 {
		err = errors.Join(err, errs.NewValueIsInvalidErrorWithCause(
			"medicine stock", fmt.Errorf("%d is negative", m.Stock)))
	}
	return err
}

// Matches reports whether query names this medicine, ignoring case and accents.
// "paracetamol" matches "Paracétamol 500mg" and the alias "Doliprane" matches "doli".
func (m Medicine) Matches(query string) bool {
	if textnorm.Contains(m.Name, query) {
		return true
	}
	for _, alias := range m.Aliases {
		if textnorm.Contains(alias, query) {
			return true
		}
	}
	return false
}

// SearchKey is the folded text persistence adapters index for substring search.
func (m Medicine) SearchKey() string {
	key := textnorm.Fold(m.Name)
	for _, alias := range m.Aliases {
		key += " " + textnorm.Fold(alias)
	}
	return key
}

// Doctor is a practitioner customers can request an appointment with.
type Doctor struct {
	ID        kernel.UUID
	Name      string
	Specialty string
	Phone     string
}

func (d Doctor) Validate() error {
	var err error
	if e := d.ID.Validate(); e != nil {
		err = errors.Join(err, e)
	}
	if d.Name == "" {
		err = errors.Join(err, errs.NewValueIsRequiredError("doctor name"))
	}
	return err
}
