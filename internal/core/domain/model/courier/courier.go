package courier

import (
	"errors"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

// Domain errors for courier operations.
var (
	// ErrNameIsRequired is returned when attempting to create a courier without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrPhoneIsRequired is returned when attempting to create a courier without a messaging address.
	ErrPhoneIsRequired = errs.NewValueIsRequiredError("phone")
	// ErrCourierIsNotConstructed is returned when using an improperly initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier constructor")
)

// Courier is a delivery rider reachable on the messaging channel.
//
// Business rules:
//   - a courier needs a valid UUID, a name and a phone (messaging address)
//   - only verified couriers are offered orders
//   - the last known position, when present, is used to rank candidates
//
// Example usage:
//
//	c, err := NewCourier(kernel.NewUUID(), "Koffi", "2250501020304")
//	if err != nil {
//	    return err
//	}
//	c.Verify()
type Courier struct {
	// id uniquely identifies the courier
	id kernel.UUID
	// name is shown to customers once the courier accepts an order
	name string
	// phone is the messaging address offers are sent to; button replies are matched on it
	phone string
	// verified couriers have passed onboarding checks
	verified bool
	// location is the last reported position, nil when unknown
	location *kernel.GeoPoint
	guard    guard.ConstructorGuard
}

// NewCourier creates an unverified courier with no known position.
func NewCourier(id kernel.UUID, name, phone string) (*Courier, error) {
	courier := &Courier{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		courier.setID(id),
		courier.setName(name),
		courier.setPhone(phone),
	); err != nil {
		return nil, err
	}

	return courier, nil
}

// RestoreCourier reconstructs a Courier loaded from storage.
func RestoreCourier(id kernel.UUID, name, phone string, verified bool, location *kernel.GeoPoint) (*Courier, error) {
	courier, err := NewCourier(id, name, phone)
	if err != nil {
		return nil, err
	}
	if location != nil {
		if err = location.Validate(); err != nil {
			return nil, err
		}
	}

	courier.verified = verified
	courier.location = location
	return courier, nil
}

// IsEqual compares couriers by identity.
func (c *Courier) IsEqual(other *Courier) bool {
	if other == nil {
		return false
	}
	return c.id.IsEqual(other.id)
}

// Validate ensures the courier was built through NewCourier or RestoreCourier.
func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

func (c *Courier) ID() kernel.UUID {
	return c.id
}

func (c *Courier) Name() string {
	return c.name
}

func (c *Courier) Phone() string {
	return c.phone
}

func (c *Courier) IsVerified() bool {
	return c.verified
}

// Location returns the last reported position, nil when unknown.
func (c *Courier) Location() *kernel.GeoPoint {
	return c.location
}

// Verify marks the courier as eligible for offers.
func (c *Courier) Verify() {
	c.verified = true
}

// ReportLocation records the courier's current position.
func (c *Courier) ReportLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	c.location = &location
	return nil
}

// DistanceKm returns the distance to target, or ok=false when the position is unknown.
func (c *Courier) DistanceKm(target kernel.GeoPoint) (float64, bool) {
	if c.location == nil {
		return 0, false
	}
	return c.location.DistanceKm(target), true
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	c.name = name
	return nil
}

func (c *Courier) setPhone(phone string) error {
	if phone == "" {
		return ErrPhoneIsRequired
	}
	c.phone = phone
	return nil
}
