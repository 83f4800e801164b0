package order_test

import (
	"testing"
	"time"

	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0       = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	customer = "2250701020304"
	point    = kernel.MustNewGeoPoint(5.33, -4.02)
)

func newDraft(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), customer, kernel.NewUUID(), t0)
	require.NoError(t, err)
	return o
}

func plainLine() order.Line {
	return order.Line{MedicineID: kernel.NewUUID(), Name: "Paracétamol 500mg", Quantity: 2, UnitPrice: 750}
}

func gatedLine() order.Line {
	return order.Line{MedicineID: kernel.NewUUID(), Name: "Amoxicilline 1g", Quantity: 1, UnitPrice: 2500, RequiresPrescription: true}
}

func pendingCourier(t *testing.T) *order.Order {
	t.Helper()
	o := newDraft(t)
	require.NoError(t, o.Checkout([]order.Line{plainLine()}, point, 1000, t0))
	require.Equal(t, order.PendingCourier, o.Status())
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("creates_draft", func(t *testing.T) {
		id := kernel.NewUUID()
		pharmacyID := kernel.NewUUID()

		o, err := order.NewOrder(id, customer, pharmacyID, t0)

		require.NoError(t, err)
		require.NoError(t, o.Validate())
		assert.True(t, o.ID().IsEqual(id))
		assert.True(t, o.PharmacyID().IsEqual(pharmacyID))
		assert.Equal(t, customer, o.CustomerID())
		assert.Equal(t, order.Draft, o.Status())
		assert.False(t, o.IsCheckedOut())
		assert.Nil(t, o.Courier())
		assert.Nil(t, o.Delivery())
		assert.Equal(t, t0, o.CreatedAt())
	})

	t.Run("joins_all_validation_errors", func(t *testing.T) {
		o, err := order.NewOrder(kernel.UUID{}, "", kernel.UUID{}, t0)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
		assert.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.Contains(t, err.Error(), "customer id")
	})

	t.Run("nil_order_is_not_constructed", func(t *testing.T) {
		var o *order.Order

		assert.Equal(t, order.ErrOrderIsNotConstructed, o.Validate())
	})
}

func TestOrder_Checkout(t *testing.T) {
	t.Run("plain_cart_goes_to_pending_courier", func(t *testing.T) {
		o := newDraft(t)

		err := o.Checkout([]order.Line{plainLine()}, point, 1000, t0.Add(time.Minute))

		require.NoError(t, err)
		assert.Equal(t, order.PendingCourier, o.Status())
		assert.Equal(t, int64(1500), o.Subtotal())
		assert.Equal(t, int64(2500), o.Total())
		assert.True(t, o.Delivery().IsEqual(point))
		assert.Equal(t, t0.Add(time.Minute), o.UpdatedAt())
	})

	t.Run("gated_cart_waits_for_prescription", func(t *testing.T) {
		o := newDraft(t)

		err := o.Checkout([]order.Line{plainLine(), gatedLine()}, point, 1000, t0)

		require.NoError(t, err)
		assert.Equal(t, order.PendingPrescription, o.Status())
		assert.True(t, o.RequiresPrescription())
	})

	t.Run("approved_order_goes_to_pending_courier", func(t *testing.T) {
		o := newDraft(t)
		require.NoError(t, o.AttachPrescription("media-1", t0))
		require.NoError(t, o.RequirePrescription(t0))
		require.NoError(t, o.ApprovePrescription(t0))

		err := o.Checkout([]order.Line{gatedLine()}, point, 1000, t0)

		require.NoError(t, err)
		assert.Equal(t, order.PendingCourier, o.Status())
	})

	t.Run("rejects_second_checkout", func(t *testing.T) {
		o := pendingCourier(t)

		err := o.Checkout([]order.Line{plainLine()}, point, 1000, t0)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects_empty_and_invalid_lines", func(t *testing.T) {
		o := newDraft(t)

		require.ErrorIs(t, o.Checkout(nil, point, 1000, t0), errs.ErrValueIsRequired)

		bad := plainLine()
		bad.Quantity = 0
		err := o.Checkout([]order.Line{bad}, point, -1, t0)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Contains(t, err.Error(), "line quantity")
		assert.Contains(t, err.Error(), "fee")
		assert.Equal(t, order.Draft, o.Status())
	})

	t.Run("rejects_unconstructed_delivery_point", func(t *testing.T) {
		o := newDraft(t)

		err := o.Checkout([]order.Line{plainLine()}, kernel.GeoPoint{}, 1000, t0)

		require.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
	})
}

func TestOrder_Prescription(t *testing.T) {
	t.Run("reject_is_terminal", func(t *testing.T) {
		o := newDraft(t)
		require.NoError(t, o.Checkout([]order.Line{gatedLine()}, point, 1000, t0))
		require.NoError(t, o.AttachPrescription("media-1", t0))

		require.NoError(t, o.RejectPrescription(t0))

		assert.Equal(t, order.PrescriptionRejected, o.Status())
		require.Error(t, o.AwaitCourier(t0))
		require.Error(t, o.Offer(kernel.NewUUID(), t0))
		require.Error(t, o.AttachPrescription("media-2", t0))
	})

	t.Run("approve_then_await_courier", func(t *testing.T) {
		o := newDraft(t)
		require.NoError(t, o.Checkout([]order.Line{gatedLine()}, point, 1000, t0))

		require.NoError(t, o.ApprovePrescription(t0))
		require.NoError(t, o.AwaitCourier(t0))

		assert.Equal(t, order.PendingCourier, o.Status())
	})

	t.Run("await_courier_needs_checkout", func(t *testing.T) {
		o := newDraft(t)
		require.NoError(t, o.RequirePrescription(t0))
		require.NoError(t, o.ApprovePrescription(t0))

		require.ErrorIs(t, o.AwaitCourier(t0), errs.ErrValueIsInvalid)
	})

	t.Run("empty_reference_is_rejected", func(t *testing.T) {
		o := newDraft(t)

		require.ErrorIs(t, o.AttachPrescription("", t0), errs.ErrValueIsRequired)
	})
}

func TestOrder_Offers(t *testing.T) {
	t.Run("accept_assigns_courier", func(t *testing.T) {
		o := pendingCourier(t)
		courierID := kernel.NewUUID()
		require.NoError(t, o.Offer(courierID, t0))
		assert.True(t, o.OutstandingCourier().IsEqual(courierID))

		require.NoError(t, o.AcceptOffer(courierID, t0.Add(time.Minute)))

		assert.Equal(t, order.CourierAssigned, o.Status())
		assert.True(t, o.Courier().IsEqual(courierID))
		latest, ok := o.LatestAttempt()
		require.True(t, ok)
		assert.Equal(t, order.Accepted, latest.Outcome)
		require.NotNil(t, latest.ResolvedAt)
		assert.False(t, o.HasOutstandingOffer())
	})

	t.Run("only_the_offered_courier_can_answer", func(t *testing.T) {
		o := pendingCourier(t)
		offered := kernel.NewUUID()
		require.NoError(t, o.Offer(offered, t0))

		require.ErrorIs(t, o.AcceptOffer(kernel.NewUUID(), t0), order.ErrNoOutstandingOffer)
		require.ErrorIs(t, o.RefuseOffer(kernel.NewUUID(), t0), order.ErrNoOutstandingOffer)
		assert.Equal(t, order.PendingCourier, o.Status())
	})

	t.Run("one_offer_at_a_time_and_never_twice", func(t *testing.T) {
		o := pendingCourier(t)
		first := kernel.NewUUID()
		require.NoError(t, o.Offer(first, t0))

		require.ErrorIs(t, o.Offer(kernel.NewUUID(), t0), order.ErrOfferOutstanding)

		require.NoError(t, o.RefuseOffer(first, t0))
		require.ErrorIs(t, o.Offer(first, t0), order.ErrCourierAlreadyTried)
	})

	t.Run("late_accept_after_expiry_fails", func(t *testing.T) {
		o := pendingCourier(t)
		courierID := kernel.NewUUID()
		require.NoError(t, o.Offer(courierID, t0))
		require.NoError(t, o.ExpireOffer(courierID, t0.Add(5*time.Minute)))

		err := o.AcceptOffer(courierID, t0.Add(6*time.Minute))

		require.ErrorIs(t, err, order.ErrNoOutstandingOffer)
		latest, _ := o.LatestAttempt()
		assert.Equal(t, order.TimedOut, latest.Outcome)
	})

	t.Run("late_expiry_after_accept_fails", func(t *testing.T) {
		o := pendingCourier(t)
		courierID := kernel.NewUUID()
		require.NoError(t, o.Offer(courierID, t0))
		require.NoError(t, o.AcceptOffer(courierID, t0))

		require.ErrorIs(t, o.ExpireOffer(courierID, t0), order.ErrNoOutstandingOffer)
		assert.Equal(t, order.CourierAssigned, o.Status())
	})

	t.Run("unassignable_after_all_refusals", func(t *testing.T) {
		o := pendingCourier(t)
		candidates := []kernel.UUID{kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID()}
		for _, c := range candidates {
			require.NoError(t, o.Offer(c, t0))
			require.ErrorIs(t, o.MarkUnassignable(t0), order.ErrOfferOutstanding)
			require.NoError(t, o.RefuseOffer(c, t0))
			assert.True(t, o.HasTried(c))
		}

		require.NoError(t, o.MarkUnassignable(t0))

		assert.Equal(t, order.Unassignable, o.Status())
		assert.Len(t, o.Attempts(), len(candidates))
	})

	t.Run("offer_requires_pending_courier", func(t *testing.T) {
		o := newDraft(t)

		require.ErrorIs(t, o.Offer(kernel.NewUUID(), t0), errs.ErrValueIsInvalid)
	})
}

func TestOrder_Delivery(t *testing.T) {
	o := pendingCourier(t)
	courierID := kernel.NewUUID()
	require.NoError(t, o.Offer(courierID, t0))
	require.NoError(t, o.AcceptOffer(courierID, t0))

	require.ErrorIs(t, o.PickUp(kernel.NewUUID(), t0), order.ErrCourierMismatch)
	require.ErrorIs(t, o.Deliver(courierID, t0), errs.ErrValueIsInvalid)

	require.NoError(t, o.PickUp(courierID, t0))
	assert.Equal(t, order.EnRoute, o.Status())

	require.NoError(t, o.Deliver(courierID, t0))
	assert.Equal(t, order.Delivered, o.Status())
	assert.True(t, o.Status().IsTerminal())
}

func TestOrder_SnapshotRestore(t *testing.T) {
	o := pendingCourier(t)
	courierID := kernel.NewUUID()
	require.NoError(t, o.Offer(courierID, t0))
	o.MarkSaved(3)

	restored, err := order.Restore(o.Snapshot())

	require.NoError(t, err)
	assert.True(t, restored.IsEqual(o))
	assert.Equal(t, o.Lines(), restored.Lines())
	assert.Equal(t, o.Attempts(), restored.Attempts())
	assert.Equal(t, int64(3), restored.Version())

	rev := restored.Revision()
	assert.Equal(t, int64(3), rev.Version)
	assert.Equal(t, order.PendingCourier, rev.Status)
	require.NotNil(t, rev.OfferedCourierID)
	assert.True(t, rev.OfferedCourierID.IsEqual(courierID))

	t.Run("revision_stays_at_origin_until_saved", func(t *testing.T) {
		require.NoError(t, restored.AcceptOffer(courierID, t0))

		assert.Equal(t, order.PendingCourier, restored.Revision().Status)
		restored.MarkSaved(4)
		assert.Equal(t, order.CourierAssigned, restored.Revision().Status)
		assert.Nil(t, restored.Revision().OfferedCourierID)
	})

	t.Run("invalid_snapshot", func(t *testing.T) {
		s := o.Snapshot()
		s.Status = order.Unknown
		s.CustomerID = ""

		_, err := order.Restore(s)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status")
		assert.Contains(t, err.Error(), "customer id")
	})
}
