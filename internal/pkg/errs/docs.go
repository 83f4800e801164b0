// Package errs holds the typed errors shared by the domain, the use cases
// and the adapters.
//
// Every type pairs a sentinel (ErrObjectNotFound, ErrObjectIsStale,
// ErrValueIsInvalid, ErrValueIsOutOfRange, ErrValueIsRequired) with a struct
// carrying the offending parameter, so callers branch with errors.Is and
// still log the detail. ObjectIsStaleError marks a conditional order write
// that lost against a concurrent one; the courier workflow treats it as a
// no-op rather than a failure.
package errs
