package commands

import (
	"errors"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

var (
	ErrCreateCourierCommandIsNotConstructed = errors.New(
		"CreateCourierCommand must be created via NewCreateCourierCommand constructor",
	)
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
)

// CreateCourierCommand registers a courier reachable on the messaging channel.
// Used by the admin API and the catalog seed.
//
// Example:
//
//	cmd, err := NewCreateCourierCommand(kernel.NewUUID(), "Koffi", "2250501020304", true, nil)
//	if err != nil {
//	    return fmt.Errorf("invalid courier data: %w", err)
//	}
//
//	handler := NewCreateCourierCommandHandler(uowFactory)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create courier: %w", err)
//	}
type CreateCourierCommand struct { //nolint:recvcheck //using for validation
	courierID kernel.UUID
	name      string
	phone     string
	verified  bool
	location  *kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewCreateCourierCommand validates the courier data. location may be nil.
func NewCreateCourierCommand(
	courierID kernel.UUID, name, phone string, verified bool, location *kernel.GeoPoint,
) (CreateCourierCommand, error) {
	command := CreateCourierCommand{
		verified: verified,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setCourierID(courierID),
		command.setName(name),
		command.setPhone(phone),
		command.setLocation(location),
	); err != nil {
		return CreateCourierCommand{}, err
	}

	return command, nil
}

func (c CreateCourierCommand) Validate() error {
	return c.guard.Validate(ErrCreateCourierCommandIsNotConstructed)
}

func (c CreateCourierCommand) CourierID() kernel.UUID     { return c.courierID }
func (c CreateCourierCommand) Name() string               { return c.name }
func (c CreateCourierCommand) Phone() string              { return c.phone }
func (c CreateCourierCommand) Verified() bool             { return c.verified }
func (c CreateCourierCommand) Location() *kernel.GeoPoint { return c.location }

func (c *CreateCourierCommand) setCourierID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.courierID = id
	return nil
}

func (c *CreateCourierCommand) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}

	c.name = name
	return nil
}

func (c *CreateCourierCommand) setPhone(phone string) error {
	if phone == "" {
		return ErrCourierPhoneIsRequired
	}

	c.phone = phone
	return nil
}

func (c *CreateCourierCommand) setLocation(location *kernel.GeoPoint) error {
	if location == nil {
		return nil
	}
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}
