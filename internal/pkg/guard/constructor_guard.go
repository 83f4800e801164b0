// Package guard provides the constructor guard embedded by value objects,
// aggregates, commands and queries to reject zero-value instances.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the caller passes no
// error of its own.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks a struct as built through its constructor. Its zero
// value is "not constructed", so a struct literal that skips the constructor
// fails Validate.
//
// Example:
//
//	type CartItem struct {
//	    quantity int
//	    guard    guard.ConstructorGuard
//	}
//
//	func NewCartItem(quantity int) CartItem {
//	    return CartItem{quantity: quantity, guard: guard.NewConstructorGuard()}
//	}
//
//	func (c CartItem) Validate() error {
//	    return c.guard.Validate(ErrCartItemIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard that reports the owner as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a constructed guard and validationError (or
// ErrDefaultConstructorGuard when validationError is nil) otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
