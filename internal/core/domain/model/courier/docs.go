// Package courier provides the Courier aggregate: a delivery rider who can be
// offered orders over the messaging channel.
//
// Key business rules:
//   - couriers must have a valid unique identifier, name and phone
//   - only verified couriers are candidates for offers
//   - the last reported position ranks candidates by distance to the pharmacy
package courier
