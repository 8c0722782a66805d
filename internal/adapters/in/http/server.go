// Package http is the REST front door of the order pipeline, built on echo.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Use case ports of the server. The command and query handlers satisfy them.
type (
	OrderCreator interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error)
	}

	OrderGetter interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (queries.OrderView, error)
	}

	OrderLister interface {
		Handle(ctx context.Context, query queries.ListOrdersQuery) ([]queries.OrderView, error)
	}

	StatsReader interface {
		Handle(ctx context.Context, query queries.GetOrderStatsQuery) (queries.GetOrderStatsQueryResponse, error)
	}

	// Pinger reports whether a backing service is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Server implements ServerInterface on top of the application use cases.
type Server struct {
	// Command handlers
	createOrderHandler OrderCreator

	// Query handlers
	getOrderHandler   OrderGetter
	listOrdersHandler OrderLister
	statsHandler      StatsReader

	database Pinger
	redis    Pinger
	logger   *slog.Logger
}

var _ ServerInterface = (*Server)(nil)

func NewServer(
	createOrderHandler OrderCreator,
	getOrderHandler OrderGetter,
	listOrdersHandler OrderLister,
	statsHandler StatsReader,
	database Pinger,
	redis Pinger,
	logger *slog.Logger,
) *Server {
	return &Server{
		createOrderHandler: createOrderHandler,
		getOrderHandler:    getOrderHandler,
		listOrdersHandler:  listOrdersHandler,
		statsHandler:       statsHandler,
		database:           database,
		redis:              redis,
		logger:             logger.With("component", "http_server"),
	}
}

// GetRoot handles GET /.
func (s *Server) GetRoot(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Banner{
		Message: "Order Processing API",
		Status:  "running",
		Version: apiVersion,
	})
}

// GetHealth handles GET /health - pings the store and the queue.
func (s *Server) GetHealth(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	resp := Health{
		Status:   "healthy",
		Database: pingStatus(reqCtx, s.database),
		Redis:    pingStatus(reqCtx, s.redis),
	}
	if resp.Database != "connected" || resp.Redis != "connected" {
		resp.Status = "unhealthy"
		return ctx.JSON(http.StatusServiceUnavailable, resp)
	}

	return ctx.JSON(http.StatusOK, resp)
}

func pingStatus(ctx context.Context, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "connected"
}

// CreateOrder handles POST /orders - stores a pending order and dispatches it.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, Error{
			Code:    http.StatusUnprocessableEntity,
			Message: "Invalid request body",
			Fields:  map[string]string{"body": bindErrorMessage(err)},
		})
	}

	if err := ctx.Validate(&body); err != nil {
		return validationFailed(ctx, err)
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), *body.ItemName, *body.Quantity)
	if err != nil {
		return validationFailed(ctx, err)
	}

	reqCtx := ctx.Request().Context()
	created, err := s.createOrderHandler.Handle(reqCtx, cmd)
	if err != nil {
		if errs.IsValidation(err) {
			return validationFailed(ctx, err)
		}

		message := "Failed to create order"
		if errors.Is(err, commands.ErrEnqueueFailed) {
			message = "Order stored but could not be queued for processing"
		}
		s.logger.ErrorContext(reqCtx, message, "error", err, "order_id", cmd.OrderID().String())
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: message,
		})
	}

	s.logger.InfoContext(reqCtx, "Order created", "order_id", created.ID().String())
	return ctx.JSON(http.StatusCreated, orderFromDomain(created))
}

// ListOrders handles GET /orders - newest first, optional status filter.
func (s *Server) ListOrders(ctx echo.Context, params ListOrdersParams) error {
	var status *order.Status
	if params.Status != nil {
		parsed, err := order.ParseStatus(*params.Status)
		if err != nil {
			return validationFailed(ctx, err)
		}
		status = &parsed
	}

	limit := 0
	if params.Limit != nil {
		if *params.Limit < 1 {
			return validationFailed(ctx, errs.NewValueIsOutOfRangeError("limit", *params.Limit, 1, queries.MaxListLimit))
		}
		limit = *params.Limit
	}

	query, err := queries.NewListOrdersQuery(status, limit)
	if err != nil {
		return validationFailed(ctx, err)
	}

	reqCtx := ctx.Request().Context()
	views, err := s.listOrdersHandler.Handle(reqCtx, query)
	if err != nil {
		s.logger.ErrorContext(reqCtx, "Failed to list orders", "error", err)
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve orders",
		})
	}

	response := make([]Order, len(views))
	for i, view := range views {
		response[i] = orderFromView(view)
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /orders/{id}.
func (s *Server) GetOrder(ctx echo.Context, id string) error {
	orderID, err := kernel.UUIDFromString(id)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid order ID format",
		})
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return validationFailed(ctx, err)
	}

	reqCtx := ctx.Request().Context()
	view, err := s.getOrderHandler.Handle(reqCtx, query)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusNotFound, Error{
				Code:    http.StatusNotFound,
				Message: "Order not found",
			})
		}

		s.logger.ErrorContext(reqCtx, "Failed to get order", "error", err, "order_id", id)
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve order",
		})
	}

	return ctx.JSON(http.StatusOK, orderFromView(view))
}

// GetStats handles GET /stats.
func (s *Server) GetStats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	stats, err := s.statsHandler.Handle(reqCtx, queries.NewGetOrderStatsQuery())
	if err != nil {
		s.logger.ErrorContext(reqCtx, "Failed to get stats", "error", err)
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve stats",
		})
	}

	return ctx.JSON(http.StatusOK, Stats{
		Total:      stats.Total,
		Pending:    stats.Pending,
		Processing: stats.Processing,
		Completed:  stats.Completed,
		Failed:     stats.Failed,
	})
}

// validationFailed renders a 422 listing every offending field.
func validationFailed(ctx echo.Context, err error) error {
	var reqErr *RequestValidationError
	fields := errs.Fields(err)
	if errors.As(err, &reqErr) {
		fields = reqErr.Fields
	}

	return ctx.JSON(http.StatusUnprocessableEntity, Error{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Fields:  fields,
	})
}

func bindErrorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
