// Package services provides stateless domain services that don't belong to a
// single aggregate.
//
// The package includes:
//   - FeeCalculator: day/night delivery tariff and service-area membership
//   - IntentClassifier: maps free text to an enumerated Intent (KeywordClassifier implements it)
//   - CourierSelector: picks the next courier to offer an order to
package services
