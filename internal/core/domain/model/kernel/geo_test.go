package kernel_test

import (
	"encoding/json"
	"math"
	"testing"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"abidjan", 5.3364, -4.0267, false},
		{"poles_are_valid", 90, 180, false},
		{"latitude_too_high", 90.0001, 0, true},
		{"longitude_too_low", 0, -180.5, true},
		{"nan", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := kernel.NewGeoPoint(tt.lat, tt.lng)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
				return
			}
			require.NoError(t, err)
			require.NoError(t, p.Validate())
			assert.Equal(t, tt.lat, p.Lat())
			assert.Equal(t, tt.lng, p.Lng())
		})
	}
}

func TestGeoPoint_ZeroValueIsNotConstructed(t *testing.T) {
	var p kernel.GeoPoint

	require.ErrorIs(t, p.Validate(), kernel.ErrGeoPointIsNotConstructed)
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	plateau := kernel.MustNewGeoPoint(5.3200, -4.0160)
	cocody := kernel.MustNewGeoPoint(5.3600, -3.9700)

	d := plateau.DistanceKm(cocody)

	assert.InDelta(t, 6.76, d, 0.2)
	assert.InDelta(t, d, cocody.DistanceKm(plateau), 1e-9)
	assert.Zero(t, plateau.DistanceKm(plateau))
}

func TestGeoPoint_JSON(t *testing.T) {
	p := kernel.MustNewGeoPoint(5.3364, -4.0267)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lat":5.3364,"lng":-4.0267}`, string(data))

	var out kernel.GeoPoint
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, p.IsEqual(out))
	require.NoError(t, out.Validate())

	require.Error(t, json.Unmarshal([]byte(`{"lat":123,"lng":0}`), &out))
}

func TestGeofence_Contains(t *testing.T) {
	fence, err := kernel.NewGeofence(5.20, 5.45, -4.15, -3.85)
	require.NoError(t, err)

	tests := []struct {
		name string
		p    kernel.GeoPoint
		want bool
	}{
		{"inside", kernel.MustNewGeoPoint(5.33, -4.02), true},
		{"south_west_corner", kernel.MustNewGeoPoint(5.20, -4.15), true},
		{"north_east_corner", kernel.MustNewGeoPoint(5.45, -3.85), true},
		{"just_north", kernel.MustNewGeoPoint(5.4501, -4.00), false},
		{"just_east", kernel.MustNewGeoPoint(5.30, -3.8499), false},
		{"far_away", kernel.MustNewGeoPoint(48.85, 2.35), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fence.Contains(tt.p))
		})
	}
}

func TestNewGeofence_InvertedBounds(t *testing.T) {
	_, err := kernel.NewGeofence(5.45, 5.20, -3.85, -4.15)

	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}
