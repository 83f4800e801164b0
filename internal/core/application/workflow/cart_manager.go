package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/core/domain/services"
	"pharmadelivery/internal/core/ports"
)

var (
	// ErrOutOfServiceArea is returned when the delivery point is outside the geofence.
	ErrOutOfServiceArea = errors.New("delivery point is outside the service area")
	// ErrEmptyCart is returned when checking out an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
)

// CheckoutHandler runs the checkout transaction.
type CheckoutHandler interface {
	Handle(ctx context.Context, cmd commands.CheckoutCommand) (commands.CheckoutResult, error)
}

// CartManager enforces the cart rules against the live catalog and turns a
// cart into an order.
type CartManager struct {
	catalog  ports.CatalogRepository
	fees     services.FeeCalculator
	checkout CheckoutHandler
	now      func() time.Time
	logger   *slog.Logger
}

func NewCartManager(
	catalog ports.CatalogRepository,
	fees services.FeeCalculator,
	checkout CheckoutHandler,
	now func() time.Time,
	logger *slog.Logger,
) *CartManager {
	if now == nil {
		now = time.Now
	}
	return &CartManager{
		catalog:  catalog,
		fees:     fees,
		checkout: checkout,
		now:      now,
		logger:   logger.With("component", "cart"),
	}
}

// TryAddItem snapshots the medicine from the catalog and applies
// conversation.State.AddItem. On PrescriptionRequired the request is kept as
// the pending item and the user moves to the photo step, so an approval can
// replay it.
func (m *CartManager) TryAddItem(
	ctx context.Context, state *conversation.State, medicineID kernel.UUID, quantity int,
) ([]conversation.CartItem, error) {
	medicine, err := m.catalog.GetMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}

	cart, err := state.AddItem(conversation.CartItem{
		MedicineID:           medicine.ID,
		PharmacyID:           medicine.PharmacyID,
		Name:                 medicine.Name,
		Quantity:             quantity,
		UnitPrice:            medicine.Price,
		RequiresPrescription: medicine.RequiresPrescription,
		StockSnapshot:        medicine.Stock,
	})
	if errors.Is(err, conversation.ErrPrescriptionRequired) {
		state.PendingItem = &conversation.PendingItem{
			MedicineID: medicine.ID,
			PharmacyID: medicine.PharmacyID,
			Quantity:   quantity,
		}
		state.AwaitPrescription()
	}
	if err != nil {
		return nil, err
	}

	m.logger.DebugContext(ctx, "item added",
		"user", state.UserID, "medicine", medicine.ID.String(), "quantity", quantity)
	return cart, nil
}

// Checkout creates (or completes) the order for the cart and clears the
// cart. The returned status is PENDING_COURIER or PENDING_PRESCRIPTION; the
// caller starts courier assignment for the former.
func (m *CartManager) Checkout(
	ctx context.Context, state *conversation.State, delivery kernel.GeoPoint,
) (commands.CheckoutResult, int64, error) {
	if len(state.Cart) == 0 || state.PharmacyID == nil {
		return commands.CheckoutResult{}, 0, ErrEmptyCart
	}
	if !m.fees.InServiceArea(delivery) {
		return commands.CheckoutResult{}, 0, ErrOutOfServiceArea
	}

	at := m.now()
	fee := m.fees.Fee(at)

	lines := make([]order.Line, 0, len(state.Cart))
	for _, item := range state.Cart {
		lines = append(lines, order.Line{
			MedicineID:           item.MedicineID,
			Name:                 item.Name,
			Quantity:             item.Quantity,
			UnitPrice:            item.UnitPrice,
			RequiresPrescription: item.RequiresPrescription,
		})
	}

	cmd, err := commands.NewCheckoutCommand(commands.CheckoutParams{
		CustomerID:      state.UserID,
		PharmacyID:      *state.PharmacyID,
		Lines:           lines,
		Delivery:        delivery,
		Fee:             fee,
		ApprovedOrderID: state.ActiveOrderID,
		PrescriptionRef: state.PrescriptionPhoto,
		At:              at,
	})
	if err != nil {
		return commands.CheckoutResult{}, 0, err
	}

	result, err := m.checkout.Handle(ctx, cmd)
	if err != nil {
		return commands.CheckoutResult{}, 0, err
	}

	orderID := result.OrderID
	state.ActiveOrderID = &orderID
	state.ClearCart()
	state.ResetToMenu()
	state.Profile.LastLocation = &delivery

	m.logger.InfoContext(ctx, "order checked out",
		"user", state.UserID, "order", orderID.String(), "status", result.Status.String(),
		"total", result.Total, "reused", result.Reused)
	return result, fee, nil
}
