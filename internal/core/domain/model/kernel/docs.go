// Package kernel holds the value objects shared by every aggregate:
//   - UUID: identifiers for orders, pharmacies, medicines, couriers and doctors
//   - GeoPoint: a validated WGS84 coordinate with haversine distance
//   - Geofence: the inclusive rectangular service area
//
// Values are immutable and must be built through their constructors; the zero
// value of each type fails Validate.
package kernel
