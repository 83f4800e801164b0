package kernel

import (
	"encoding/json"
	"errors"
	"math"

	"pharmadelivery/internal/pkg/errs"
	"pharmadelivery/internal/pkg/guard"
)

const (
	minLatitude  = -90.0
	maxLatitude  = 90.0
	minLongitude = -180.0
	maxLongitude = 180.0

	earthRadiusKm = 6371.0
)

var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError("GeoPoint must be created via NewGeoPoint")

// GeoPoint is a WGS84 coordinate shared by customers, pharmacies and orders.
type GeoPoint struct {
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	if math.IsNaN(lat) || lat < minLatitude || lat > maxLatitude {
		return GeoPoint{}, errs.NewValueIsOutOfRangeError("latitude", lat, minLatitude, maxLatitude)
	}
	if math.IsNaN(lng) || lng < minLongitude || lng > maxLongitude {
		return GeoPoint{}, errs.NewValueIsOutOfRangeError("longitude", lng, minLongitude, maxLongitude)
	}

	return GeoPoint{
		lat:   lat,
		lng:   lng,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// MustNewGeoPoint is NewGeoPoint for fixtures and configuration defaults.
func MustNewGeoPoint(lat, lng float64) GeoPoint {
	p, err := NewGeoPoint(lat, lng)
	if err != nil {
		panic(err)
	}
	return p
}

func (p GeoPoint) Lat() float64 {
	return p.lat
}

func (p GeoPoint) Lng() float64 {
	return p.lng
}

func (p GeoPoint) IsEqual(other GeoPoint) bool {
	return p.lat == other.lat && p.lng == other.lng
}

// DistanceKm returns the great-circle (haversine) distance to other.
func (p GeoPoint) DistanceKm(other GeoPoint) float64 {
	lat1 := p.lat * math.Pi / 180
	lat2 := other.lat * math.Pi / 180
	dLat := (other.lat - p.lat) * math.Pi / 180
	dLng := (other.lng - p.lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

type geoPointJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p GeoPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoPointJSON{Lat: p.lat, Lng: p.lng})
}

func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	var raw geoPointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	point, err := NewGeoPoint(raw.Lat, raw.Lng)
	if err != nil {
		return err
	}
	*p = point
	return nil
}

// Geofence is the rectangular service area. Bounds are inclusive.
type Geofence struct {
	minLat, maxLat float64
	minLng, maxLng float64
	guard          guard.ConstructorGuard
}

var ErrGeofenceIsNotConstructed = errs.NewValueIsRequiredError("Geofence must be created via NewGeofence")

func NewGeofence(minLat, maxLat, minLng, maxLng float64) (Geofence, error) {
	var err error
	if _, e := NewGeoPoint(minLat, minLng); e != nil {
		err = errors.Join(err, e)
	}
	if _, e := NewGeoPoint(maxLat, maxLng); e != nil {
		err = errors.Join(err, e)
	}
	if minLat > maxLat {
		err = errors.Join(err, errs.NewValueIsOutOfRangeError("minLat", minLat, minLatitude, maxLat))
	}
	if minLng > maxLng {
		err = errors.Join(err, errs.NewValueIsOutOfRangeError("minLng", minLng, minLongitude, maxLng))
	}
	if err != nil {
		return Geofence{}, err
	}

	return Geofence{
		minLat: minLat,
		maxLat: maxLat,
		minLng: minLng,
		maxLng: maxLng,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Contains reports whether p lies inside the fence, edges included.
func (g Geofence) Contains(p GeoPoint) bool {
	return p.lat >= g.minLat && p.lat <= g.maxLat &&
		p.lng >= g.minLng && p.lng <= g.maxLng
}

func (g Geofence) Validate() error {
	return g.guard.Validate(ErrGeofenceIsNotConstructed)
}
