// Package order implements the Order aggregate: a pharmacy delivery from
// prescription review through courier assignment to hand-over.
//
// The package includes:
//   - Order: the aggregate root, with its origin Revision for conditional writes
//   - Status: the lifecycle state machine, driven by a transition table
//   - Line: a checked-out medicine with price and prescription snapshots
//   - Attempt: one courier offer and its outcome
//
// Key business rules:
//   - Draft orders with a prescription-gated line wait for pharmacy review
//   - a rejected prescription, an unassignable order and a delivered order are final
//   - couriers are offered an order one at a time, each at most once
//   - only the courier holding the outstanding offer can accept or refuse it
package order
