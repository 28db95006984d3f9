package review

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/creditdesk/internal/dto"
	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/filter"
	"github.com/Additional-Code/creditdesk/internal/presentation/http/request"
	"github.com/Additional-Code/creditdesk/internal/presentation/http/response"
	service "github.com/Additional-Code/creditdesk/internal/service/review"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/creditdesk/transport/http/review")

// Service is the part of the review service the HTTP layer drives.
type Service interface {
	ListForReview(ctx context.Context, q filter.Query) (*service.ReviewList, error)
	GetOrder(ctx context.Context, orderID string) (*entity.Order, error)
	Transition(ctx context.Context, orderID, target string) (*service.TransitionOutcome, error)
	MarkAsPaid(ctx context.Context, orderID string) (*service.SettlementOutcome, error)
	AttachInvoice(ctx context.Context, orderID, ref string) (*entity.Order, error)
	ListAccounts(ctx context.Context) ([]service.AccountBalance, error)
}

// Handler exposes the review desk over HTTP.
type Handler struct {
	svc Service
}

// NewHandler constructs a review Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	orders := e.Group("/orders")
	orders.GET("", h.list)
	orders.GET("/:id", h.get)
	orders.PATCH("/:id/review-status", h.transition)
	orders.POST("/:id/mark-paid", h.markPaid)
	orders.PUT("/:id/invoice", h.attachInvoice)

	e.GET("/accounts", h.accounts)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	var in dto.ListOrdersQuery
	if err := request.Bind(c, &in); err != nil {
		return b.WithError(err).Build()
	}
	q, err := in.ToQuery()
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	list, err := h.svc.ListForReview(ctx, q)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := dto.ReviewListResponse{
		Orders:  make([]dto.OrderResponse, 0, len(list.Orders)),
		Summary: dto.NewSummaryResponse(list.Summary),
	}
	for i := range list.Orders {
		out.Orders = append(out.Orders, dto.NewOrderResponse(&list.Orders[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.get", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.GetOrder(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) transition(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var in dto.TransitionRequest
	if err := request.Bind(c, &in); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.transition", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("review.target", in.Status),
	))
	defer span.End()

	out, err := h.svc.Transition(ctx, id, in.Status)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.
		WithMeta("result", out.Result).
		WithData(dto.TransitionResponse{
			Order:          dto.NewOrderResponse(out.Order),
			PreviousStatus: string(out.Previous),
		}).
		Build()
}

func (h *Handler) markPaid(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.markPaid", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	out, err := h.svc.MarkAsPaid(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.SettlementResponse{
		Order:   dto.NewOrderResponse(out.Order),
		Account: dto.NewAccountResponse(out.Account),
	}).Build()
}

func (h *Handler) attachInvoice(c echo.Context) error {
	b := response.New(c)
	id := c.Param("id")

	var in dto.AttachInvoiceRequest
	if err := request.Bind(c, &in); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.attachInvoice", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	order, err := h.svc.AttachInvoice(ctx, id, in.InvoicePDF)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewOrderResponse(order)).Build()
}

func (h *Handler) accounts(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "accounts.list")
	defer span.End()

	accounts, err := h.svc.ListAccounts(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	out := make([]dto.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, dto.NewAccountResponse(a.Account))
	}
	return b.WithStatus(http.StatusOK).WithData(out).Build()
}
