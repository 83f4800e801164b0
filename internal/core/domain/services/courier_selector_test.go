package services_test

import (
	"testing"
	"time"

	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pharmacyLocation = kernel.MustNewGeoPoint(5.32, -4.016)

func pendingCourierOrder(t *testing.T) *order.Order {
	t.Helper()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	o, err := order.NewOrder(kernel.NewUUID(), "2250701020304", kernel.NewUUID(), now)
	require.NoError(t, err)
	line := order.Line{MedicineID: kernel.NewUUID(), Name: "Paracétamol", Quantity: 1, UnitPrice: 750}
	require.NoError(t, o.Checkout([]order.Line{line}, kernel.MustNewGeoPoint(5.33, -4.02), 1000, now))
	return o
}

func newCourier(t *testing.T, name string, verified bool, location *kernel.GeoPoint) *courier.Courier {
	t.Helper()
	c, err := courier.RestoreCourier(kernel.NewUUID(), name, "225"+name, verified, location)
	require.NoError(t, err)
	return c
}

func ptr(p kernel.GeoPoint) *kernel.GeoPoint { return &p }

func TestCourierSelector_Select(t *testing.T) {
	selector := services.NewCourierSelector()

	t.Run("should pick nearest verified courier", func(t *testing.T) {
		far := newCourier(t, "far", true, ptr(kernel.MustNewGeoPoint(5.40, -3.90)))
		near := newCourier(t, "near", true, ptr(kernel.MustNewGeoPoint(5.321, -4.015)))
		unverified := newCourier(t, "unverified", false, ptr(pharmacyLocation))

		got, err := selector.Select(pendingCourierOrder(t), []*courier.Courier{far, unverified, near}, pharmacyLocation)

		require.NoError(t, err)
		assert.True(t, got.IsEqual(near))
	})

	t.Run("should keep repository order for unknown positions, after ranked ones", func(t *testing.T) {
		a := newCourier(t, "a", true, nil)
		b := newCourier(t, "b", true, nil)
		located := newCourier(t, "located", true, ptr(kernel.MustNewGeoPoint(5.45, -3.85)))

		ranked := selector.Rank(pendingCourierOrder(t), []*courier.Courier{a, b, located}, pharmacyLocation)

		require.Len(t, ranked, 3)
		assert.True(t, ranked[0].IsEqual(located))
		assert.True(t, ranked[1].IsEqual(a))
		assert.True(t, ranked[2].IsEqual(b))
	})

	t.Run("should skip couriers already tried", func(t *testing.T) {
		o := pendingCourierOrder(t)
		first := newCourier(t, "first", true, nil)
		second := newCourier(t, "second", true, nil)
		now := time.Now()
		require.NoError(t, o.Offer(first.ID(), now))
		require.NoError(t, o.RefuseOffer(first.ID(), now))

		got, err := selector.Select(o, []*courier.Courier{first, second}, pharmacyLocation)

		require.NoError(t, err)
		assert.True(t, got.IsEqual(second))
	})

	t.Run("should return ErrCourierNotFound when exhausted", func(t *testing.T) {
		o := pendingCourierOrder(t)
		only := newCourier(t, "only", true, nil)
		require.NoError(t, o.Offer(only.ID(), time.Now()))
		require.NoError(t, o.ExpireOffer(only.ID(), time.Now()))

		_, err := selector.Select(o, []*courier.Courier{only}, pharmacyLocation)
		require.ErrorIs(t, err, services.ErrCourierNotFound)

		_, err = selector.Select(o, nil, pharmacyLocation)
		require.ErrorIs(t, err, services.ErrCourierNotFound)
	})

	t.Run("should validate order", func(t *testing.T) {
		_, err := selector.Select(&order.Order{}, nil, pharmacyLocation)

		require.ErrorIs(t, err, order.ErrOrderIsNotConstructed)
	})
}
