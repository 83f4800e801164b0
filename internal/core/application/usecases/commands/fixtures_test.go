package commands_test

import (
	"testing"
	"time"

	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/courier"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
)

const customerPhone = "2250701020304"

var (
	now      = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	abidjan  = kernel.MustNewGeoPoint(5.3600, -4.0083)
	plateau  = kernel.MustNewGeoPoint(5.3237, -4.0176)
	cocody   = kernel.MustNewGeoPoint(5.3599, -3.9870)
	yopougon = kernel.MustNewGeoPoint(5.3364, -4.0890)
)

func newPharmacy() catalog.Pharmacy {
	return catalog.Pharmacy{
		ID:       kernel.NewUUID(),
		Name:     "Pharmacie du Plateau",
		Phone:    "2250102030405",
		Open:     true,
		Location: plateau,
	}
}

func paracetamolLine() order.Line {
	return order.Line{
		MedicineID: kernel.NewUUID(),
		Name:       "Paracétamol 500mg",
		Quantity:   2,
		UnitPrice:  1500,
	}
}

func amoxicillinLine() order.Line {
	return order.Line{
		MedicineID:           kernel.NewUUID(),
		Name:                 "Amoxicilline 1g",
		Quantity:             1,
		UnitPrice:            4200,
		RequiresPrescription: true,
	}
}

func newCourier(t *testing.T, name, phone string, at *kernel.GeoPoint) *courier.Courier {
	t.Helper()
	c, err := courier.RestoreCourier(kernel.NewUUID(), name, phone, true, at)
	require.NoError(t, err)
	return c
}

func pendingCourierOrder(t *testing.T, pharmacyID kernel.UUID) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), customerPhone, pharmacyID, now)
	require.NoError(t, err)
	require.NoError(t, o.Checkout([]order.Line{paracetamolLine()}, abidjan, 1000, now))
	require.Equal(t, order.PendingCourier, o.Status())
	return o
}

func pendingPrescriptionOrder(t *testing.T, pharmacyID kernel.UUID) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), customerPhone, pharmacyID, now)
	require.NoError(t, err)
	require.NoError(t, o.AttachPrescription("media-1", now))
	require.NoError(t, o.RequirePrescription(now))
	return o
}

func approvedOrder(t *testing.T, pharmacyID kernel.UUID) *order.Order {
	t.Helper()
	o := pendingPrescriptionOrder(t, pharmacyID)
	require.NoError(t, o.ApprovePrescription(now))
	return o
}
