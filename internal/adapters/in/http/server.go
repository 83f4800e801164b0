package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"pharmadelivery/api"
	"pharmadelivery/internal/core/application/dialogue"
	"pharmadelivery/internal/core/application/usecases/commands"
	"pharmadelivery/internal/core/application/usecases/queries"
	"pharmadelivery/internal/core/domain/model/kernel"
	"pharmadelivery/internal/core/domain/model/order"
	"pharmadelivery/internal/generated/servers"
	"pharmadelivery/internal/observability"
	"pharmadelivery/internal/pkg/errs"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

const defaultDispatchTimeout = 30 * time.Second

// EventDispatcher processes one decoded inbound event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev dialogue.Event) error
}

// ConversationCounter reports the number of stored conversations.
type ConversationCounter interface {
	Count(ctx context.Context) (int, error)
}

// OrderAssigner restarts courier assignment for an order.
type OrderAssigner interface {
	Assign(ctx context.Context, orderID kernel.UUID) error
}

// Config holds the webhook settings.
type Config struct {
	// VerifyToken is the shared secret of the subscription handshake.
	VerifyToken string
	// DispatchTimeout bounds the processing of one event after the ack.
	DispatchTimeout time.Duration
	Limiter         LimiterConfig
}

// ServerDeps wires the Server.
type ServerDeps struct {
	Dispatcher    EventDispatcher
	Conversations ConversationCounter
	Assigner      OrderAssigner
	GetOrders     queries.GetOrdersQueryHandler
	GetOrder      queries.GetOrderQueryHandler
	Config        Config
	Now           func() time.Time
	Logger        *slog.Logger
}

// Server implements servers.ServerInterface. Webhook events are acknowledged
// before they are processed; Drain waits for the ones still in flight.
type Server struct {
	dispatcher    EventDispatcher
	conversations ConversationCounter
	assigner      OrderAssigner

	getOrdersHandler queries.GetOrdersQueryHandler
	getOrderHandler  queries.GetOrderQueryHandler

	envelope *openapi3.Schema
	limiter  *senderLimiter
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger

	inflight sync.WaitGroup
}

var _ servers.ServerInterface = (*Server)(nil)

// NewServer loads the webhook envelope schema from the embedded OpenAPI
// document and fails when it is missing or invalid.
func NewServer(deps ServerDeps) (*Server, error) {
	if deps.Dispatcher == nil {
		return nil, errs.NewValueIsRequiredError("dispatcher")
	}
	if deps.Conversations == nil {
		return nil, errs.NewValueIsRequiredError("conversations")
	}
	if deps.Assigner == nil {
		return nil, errs.NewValueIsRequiredError("assigner")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Config.DispatchTimeout <= 0 {
		deps.Config.DispatchTimeout = defaultDispatchTimeout
	}

	envelope, err := loadEnvelopeSchema()
	if err != nil {
		return nil, err
	}

	return &Server{
		dispatcher:       deps.Dispatcher,
		conversations:    deps.Conversations,
		assigner:         deps.Assigner,
		getOrdersHandler: deps.GetOrders,
		getOrderHandler:  deps.GetOrder,
		envelope:         envelope,
		limiter:          newSenderLimiter(deps.Config.Limiter, deps.Now),
		cfg:              deps.Config,
		now:              deps.Now,
		logger:           deps.Logger.With("component", "http"),
	}, nil
}

func loadEnvelopeSchema() (*openapi3.Schema, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(api.Spec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	if doc.Components == nil {
		return nil, errs.NewValueIsRequiredError("openapi components")
	}
	ref, ok := doc.Components.Schemas["WebhookEnvelope"]
	if !ok || ref.Value == nil {
		return nil, errs.NewValueIsRequiredError("WebhookEnvelope schema")
	}
	return ref.Value, nil
}

// Drain blocks until every acknowledged event has been processed or ctx ends.
func (s *Server) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(ctx echo.Context) error {
	status := "ok"
	count, err := s.conversations.Count(ctx.Request().Context())
	if err != nil {
		s.logger.WarnContext(ctx.Request().Context(), "count conversations", "error", err)
		status = "degraded"
	} else {
		observability.ActiveConversations.Set(float64(count))
	}
	return ctx.JSON(http.StatusOK, servers.Health{Status: status, ActiveConversations: count})
}

// ListOrders handles GET /admin/orders.
func (s *Server) ListOrders(ctx echo.Context, params servers.ListOrdersParams) error {
	var statuses []string
	if params.Status != nil {
		statuses = *params.Status
	}
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}

	query, err := queries.NewGetOrdersQuery(statuses, limit)
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}

	orders, err := s.getOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "list orders", "error", err)
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to retrieve orders")
	}

	response := make([]servers.Order, len(orders))
	for i, o := range orders {
		response[i] = toOrder(o)
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /admin/orders/{orderId}.
func (s *Server) GetOrder(ctx echo.Context, orderId openapi_types.UUID) error {
	o, err := s.loadOrder(ctx.Request().Context(), orderId)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return errorJSON(ctx, http.StatusNotFound, "Order not found")
	}
	if err != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "get order", "order", orderId.String(), "error", err)
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to retrieve order")
	}
	return ctx.JSON(http.StatusOK, toOrder(o))
}

// AssignOrder handles POST /admin/orders/{orderId}/assign. Only orders
// waiting for a courier without an open offer are restarted.
func (s *Server) AssignOrder(ctx echo.Context, orderId openapi_types.UUID) error {
	reqCtx := ctx.Request().Context()
	o, err := s.loadOrder(reqCtx, orderId)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return errorJSON(ctx, http.StatusNotFound, "Order not found")
	}
	if err != nil {
		s.logger.ErrorContext(reqCtx, "get order", "order", orderId.String(), "error", err)
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to retrieve order")
	}
	if o.Status != order.PendingCourier.String() {
		return errorJSON(ctx, http.StatusConflict, "Order is "+o.Status)
	}

	err = s.assigner.Assign(reqCtx, o.ID)
	switch {
	case errors.Is(err, commands.ErrNoCourierAvailable):
		return errorJSON(ctx, http.StatusConflict, "No courier available")
	case err != nil:
		s.logger.ErrorContext(reqCtx, "assign order", "order", orderId.String(), "error", err)
		return errorJSON(ctx, http.StatusInternalServerError, "Failed to assign order")
	}

	s.logger.InfoContext(reqCtx, "assignment restarted", "order", orderId.String())
	return ctx.NoContent(http.StatusAccepted)
}

func (s *Server) loadOrder(ctx context.Context, id openapi_types.UUID) (queries.GetOrdersQueryResponse, error) {
	orderID, err := kernel.UUIDFromString(id.String())
	if err != nil {
		return queries.GetOrdersQueryResponse{}, err
	}
	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return queries.GetOrdersQueryResponse{}, err
	}
	return s.getOrderHandler.Handle(ctx, query)
}

func toOrder(o queries.GetOrdersQueryResponse) servers.Order {
	res := servers.Order{
		Id:         o.ID.Bytes(),
		CustomerId: o.CustomerID,
		PharmacyId: o.PharmacyID.Bytes(),
		Status:     o.Status,
		Total:      o.Total,
		Attempts:   o.Attempts,
	}
	if o.CourierID != nil {
		courierID := o.CourierID.Bytes()
		res.CourierId = &courierID
	}
	return res
}

func errorJSON(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, servers.Error{Code: code, Message: message})
}
