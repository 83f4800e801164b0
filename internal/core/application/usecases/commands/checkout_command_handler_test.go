package commands_test

import (
	"errors"
	"testing"

	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCheckoutCommand(t *testing.T, pharmacyID kernel.UUID, approved *kernel.UUID, lines ...order.Line) commands.CheckoutCommand {
	t.Helper()
	cmd, err := commands.NewCheckoutCommand(commands.CheckoutParams{
		CustomerID:      customerPhone,
		PharmacyID:      pharmacyID,
		Lines:           lines,
		Delivery:        abidjan,
		Fee:             1000,
		ApprovedOrderID: approved,
		PrescriptionRef: "media-42",
		At:              now,
	})
	require.NoError(t, err)
	return cmd
}

func TestCheckoutCommandHandler_Handle_CreatesOrderAwaitingCourier(t *testing.T) {
	ctx := t.Context()
	line := paracetamolLine()
	cmd := newCheckoutCommand(t, kernel.NewUUID(), nil, line)

	orderRepo := new(MockOrderRepository)
	catalogRepo := new(MockCatalogRepository)
	uow := newTxUoW(ctx)
	mock.InOrder(
		uow.On("OrderRepository").Return(orderRepo).Once(),
		uow.On("CatalogRepository").Return(catalogRepo).Once(),
		catalogRepo.On("DecrementStock", ctx, line.MedicineID, 2).Return(nil).Once(),
		orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
	)

	h := commands.NewCheckoutCommandHandler(MockOrderCatalogUoWFactory{uow: uow})
	result, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.PendingCourier, result.Status)
	assert.Equal(t, int64(4000), result.Total)
	assert.False(t, result.Reused)
	uow.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	catalogRepo.AssertExpectations(t)
}

func TestCheckoutCommandHandler_Handle_GatedCartWaitsForPharmacy(t *testing.T) {
	ctx := t.Context()
	line := amoxicillinLine()
	cmd := newCheckoutCommand(t, kernel.NewUUID(), nil, line)

	var saved *order.Order
	orderRepo := new(MockOrderRepository)
	catalogRepo := new(MockCatalogRepository)
	uow := newTxUoW(ctx)
	uow.On("OrderRepository").Return(orderRepo).Once()
	uow.On("CatalogRepository").Return(catalogRepo).Once()
	catalogRepo.On("DecrementStock", ctx, line.MedicineID, 1).Return(nil).Once()
	orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*order.Order) }).
		Return(nil).Once()
	uow.On("Commit", ctx).Return(nil).Once()

	h := commands.NewCheckoutCommandHandler(MockOrderCatalogUoWFactory{uow: uow})
	result, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, order.PendingPrescription, result.Status)
	require.NotNil(t, saved)
	assert.Equal(t, "media-42", saved.PrescriptionRef())
}

func TestCheckoutCommandHandler_Handle_ReusesApprovedOrder(t *testing.T) {
	ctx := t.Context()
	pharmacyID := kernel.NewUUID()
	approved := approvedOrder(t, pharmacyID)
	approvedID := approved.ID()
	line := amoxicillinLine()
	cmd := newCheckoutCommand(t, pharmacyID, &approvedID, line)

	orderRepo := new(MockOrderRepository)
	catalogRepo := new(MockCatalogRepository)
	uow := newTxUoW(ctx)
	mock.InOrder(
		uow.On("OrderRepository").Return(orderRepo).Once(),
		uow.On("CatalogRepository").Return(catalogRepo).Once(),
		orderRepo.On("Get", ctx, approvedID).Return(approved, nil).Once(),
		catalogRepo.On("DecrementStock", ctx, line.MedicineID, 1).Return(nil).Once(),
		orderRepo.On("Update", ctx, approved).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
	)

	h := commands.NewCheckoutCommandHandler(MockOrderCatalogUoWFactory{uow: uow})
	result, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.True(t, result.Reused)
	assert.Equal(t, approvedID, result.OrderID)
	assert.Equal(t, order.PendingCourier, result.Status)
	orderRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestCheckoutCommandHandler_Handle_ApprovedOrderOfAnotherPharmacyIsNotReused(t *testing.T) {
	ctx := t.Context()
	approved := approvedOrder(t, kernel.NewUUID())
	approvedID := approved.ID()
	line := paracetamolLine()
	cmd := newCheckoutCommand(t, kernel.NewUUID(), &approvedID, line)

	orderRepo := new(MockOrderRepository)
	catalogRepo := new(MockCatalogRepository)
	uow := newTxUoW(ctx)
	uow.On("OrderRepository").Return(orderRepo).Once()
	uow.On("CatalogRepository").Return(catalogRepo).Once()
	orderRepo.On("Get", ctx, approvedID).Return(approved, nil).Once()
	catalogRepo.On("DecrementStock", ctx, line.MedicineID, 2).Return(nil).Once()
	orderRepo.On("Add", ctx, mock.AnythingOfType("*order.Order")).Return(nil).Once()
	uow.On("Commit", ctx).Return(nil).Once()

	h := commands.NewCheckoutCommandHandler(MockOrderCatalogUoWFactory{uow: uow})
	result, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.False(t, result.Reused)
	assert.NotEqual(t, approvedID, result.OrderID)
}

func TestCheckoutCommandHandler_Handle_StockRaceLost(t *testing.T) {
	ctx := t.Context()
	line := paracetamolLine()
	cmd := newCheckoutCommand(t, kernel.NewUUID(), nil, line)

	orderRepo := new(MockOrderRepository)
	catalogRepo := new(MockCatalogRepository)
	uow := newTxUoW(ctx)
	uow.On("OrderRepository").Return(orderRepo).Once()
	uow.On("CatalogRepository").Return(catalogRepo).Once()
	catalogRepo.On("DecrementStock", ctx, line.MedicineID, 2).
		Return(errs.NewObjectIsStaleError("medicine", line.MedicineID)).Once()
	catalogRepo.On("GetMedicine", ctx, line.MedicineID).
		Return(catalog.Medicine{ID: line.MedicineID, Stock: 1}, nil).Once()

	h := commands.NewCheckoutCommandHandler(MockOrderCatalogUoWFactory{uow: uow})
	_, err := h.Handle(ctx, cmd)

	var stockErr *conversation.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	orderRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestCheckoutCommandHandler_Handle_BeginFails(t *testing.T) {
	ctx := t.Context()
	cmd := newCheckoutCommand(t, kernel.NewUUID(), nil, paracetamolLine())

	uow := new(MockUoW)
	uow.On("Begin", ctx).Return(errors.New("connection refused")).Once()

	h := commands.NewCheckoutCommandHandler(MockOrderCatalogUoWFactory{uow: uow})
	_, err := h.Handle(ctx, cmd)

	require.EqualError(t, err, "connection refused")
	uow.AssertNotCalled(t, "Rollback", mock.Anything)
}

func TestCheckoutCommandHandler_Handle_RejectsUnconstructedCommand(t *testing.T) {
	h := commands.NewCheckoutCommandHandler(MockOrderCatalogUoWFactory{uow: new(MockUoW)})
	_, err := h.Handle(t.Context(), commands.CheckoutCommand{})
	require.ErrorIs(t, err, commands.ErrCheckoutCommandIsNotConstructed)
}
