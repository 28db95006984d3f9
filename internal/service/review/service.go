package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/creditdesk/internal/cache"
	"github.com/Additional-Code/creditdesk/internal/config"
	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/filter"
	"github.com/Additional-Code/creditdesk/internal/ledger"
	"github.com/Additional-Code/creditdesk/internal/messaging"
	workflow "github.com/Additional-Code/creditdesk/internal/review"
	"github.com/Additional-Code/creditdesk/internal/store"
	"github.com/Additional-Code/creditdesk/pkg/errorbank"
)

const instrumentation = "github.com/Additional-Code/creditdesk/service/review"

var serviceTracer = otel.Tracer(instrumentation)

// Result tells the caller what a transition did.
type Result string

const (
	ResultUpdated   Result = "updated"
	ResultUnchanged Result = "unchanged"
	// ResultApprovedBalanceSettled marks an approval. The ledger was debited
	// when the order was placed, so approving touches no balance.
	ResultApprovedBalanceSettled Result = "approved_balance_settled"
)

// TransitionOutcome is returned by a successful Transition.
type TransitionOutcome struct {
	Order    *entity.Order
	Previous entity.ReviewStatus
	Result   Result
}

// SettlementOutcome is returned by a successful MarkAsPaid.
type SettlementOutcome struct {
	Order   *entity.Order
	Account entity.Account
}

// ReviewList is the filtered working set with its aggregates.
type ReviewList struct {
	Orders  []entity.Order
	Summary filter.Summary
}

// AccountBalance is an account with its derived ledger figures.
type AccountBalance struct {
	entity.Account
	Available decimal.Decimal
	OverLimit bool
}

// Service runs the review workflow against an order store.
type Service struct {
	store     store.Store
	cache     cache.Store
	cacheTTL  time.Duration
	policy    workflow.Policy
	engine    *filter.Engine
	strict    bool
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
	metrics   serviceMetrics
	now       func() time.Time
}

type messagingConfig struct {
	enabled bool
	topic   string
}

type serviceMetrics struct {
	transitions metric.Int64Counter
	settlements metric.Int64Counter
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store     store.Store
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
}

// NewService wires a review service. It fails when the configured terminal
// states are not review statuses.
func NewService(p Params) (*Service, error) {
	policy, err := workflow.PolicyFromStates(p.Config.Review.TerminalStates)
	if err != nil {
		return nil, err
	}

	meter := otel.Meter(instrumentation)
	transitions, err := meter.Int64Counter("creditdesk.review.transitions",
		metric.WithDescription("Review status changes by target status and result"))
	if err != nil {
		return nil, err
	}
	settlements, err := meter.Int64Counter("creditdesk.review.settlements",
		metric.WithDescription("Mark-as-paid attempts by outcome"))
	if err != nil {
		return nil, err
	}

	c := p.Cache
	if c == nil {
		c = cache.Noop()
	}

	return &Service{
		store:     p.Store,
		cache:     c,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		policy:    policy,
		engine:    filter.NewEngine(p.Config.Review.Location, decimal.NewFromFloat(p.Config.Review.CostRatio)),
		strict:    p.Config.Review.StrictLedger,
		logger:    p.Logger.Named("review"),
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		metrics: serviceMetrics{transitions: transitions, settlements: settlements},
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Engine exposes the filter engine so callers can build queries in the
// same time zone.
func (s *Service) Engine() *filter.Engine { return s.engine }

// Transition sets the order's review status. Only the status is patched;
// nothing is written when the order already has the target status.
func (s *Service) Transition(ctx context.Context, orderID, target string) (*TransitionOutcome, error) {
	ctx, span := serviceTracer.Start(ctx, "ReviewService.Transition", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("review.target", target),
	))
	defer span.End()

	to, err := workflow.ParseStatus(target)
	if err != nil {
		return nil, errorbank.Validation(err.Error(), errorbank.WithDetail("target", target))
	}

	current, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.fail(span, fromStore(err))
	}
	from := current.EffectiveReviewStatus()

	if err := s.policy.Allow(from, to); err != nil {
		return nil, errorbank.Validation(err.Error(),
			errorbank.WithDetail("from", from),
			errorbank.WithDetail("to", to),
		)
	}

	if from == to && current.ReviewStatus != "" {
		s.countTransition(ctx, to, ResultUnchanged)
		return &TransitionOutcome{Order: current, Previous: from, Result: ResultUnchanged}, nil
	}

	updated, err := s.store.PatchOrder(ctx, orderID, store.OrderPatch{ReviewStatus: &to})
	if err != nil {
		return nil, s.fail(span, fromStore(err))
	}

	result := ResultUpdated
	if to == entity.ReviewApproved {
		result = ResultApprovedBalanceSettled
	}

	s.storeInCache(ctx, updated)
	s.countTransition(ctx, to, result)

	event := newEvent(EventStatusChanged, orderID, s.now())
	event.From, event.To = from, to
	s.publish(ctx, event)

	s.logger.Info("review status changed",
		zap.String("order_id", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)

	return &TransitionOutcome{Order: updated, Previous: from, Result: result}, nil
}

// MarkAsPaid settles a credit order and credits its account back. The paid
// check runs on a fresh read and the store repeats it atomically with the
// write.
func (s *Service) MarkAsPaid(ctx context.Context, orderID string) (*SettlementOutcome, error) {
	ctx, span := serviceTracer.Start(ctx, "ReviewService.MarkAsPaid", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		s.countSettlement(ctx, "error")
		return nil, s.fail(span, fromStore(err))
	}
	if !order.IsCredit() {
		s.countSettlement(ctx, "rejected")
		return nil, errorbank.Validation("only credit orders can be marked as paid",
			errorbank.WithDetail("paymentMethod", order.Payment.Method))
	}
	if order.IsPaid() {
		s.countSettlement(ctx, "rejected")
		return nil, errorbank.Validation("order already paid")
	}

	account, err := s.store.ResolveAccount(ctx, order)
	if err != nil {
		s.countSettlement(ctx, "error")
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, errorbank.NotFound(msgAccountNotFound,
				errorbank.WithCause(err),
				errorbank.WithDetail("customer", order.Customer.Name))
		}
		return nil, s.fail(span, fromStore(err))
	}
	span.SetAttributes(attribute.String("account.id", account.ID))

	receipt, err := s.store.Settle(ctx, store.Settlement{
		OrderID:   order.ID,
		AccountID: account.ID,
		Amount:    order.Pricing.Total,
		PaidAt:    s.now(),
		Strict:    s.strict,
	})
	if err != nil {
		s.countSettlement(ctx, "error")
		return nil, s.fail(span, fromStore(err))
	}
	s.countSettlement(ctx, "settled")

	if ledger.IsOverLimit(receipt.Account) || receipt.Account.CurrentBalance.IsNegative() {
		s.logger.Warn("account outside its credit range after settlement",
			zap.String("account_id", receipt.Account.ID),
			zap.String("balance", receipt.Account.CurrentBalance.String()),
			zap.String("limit", receipt.Account.CreditLimit.String()),
		)
	}

	settled := s.refresh(ctx, &receipt.Order)

	event := newEvent(EventOrderSettled, order.ID, s.now())
	event.AccountID = receipt.Account.ID
	amount, balance := order.Pricing.Total, receipt.Account.CurrentBalance
	event.Amount, event.Balance = &amount, &balance
	s.publish(ctx, event)

	s.logger.Info("credit order settled",
		zap.String("order_id", order.ID),
		zap.String("account_id", receipt.Account.ID),
		zap.String("amount", amount.String()),
		zap.String("balance", balance.String()),
	)

	return &SettlementOutcome{Order: settled, Account: receipt.Account}, nil
}

// GetOrder returns an order detail, consulting the cache first.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "ReviewService.GetOrder", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	var cached entity.Order
	err := cache.GetJSON(ctx, s.cache, cache.OrderKey(orderID), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("order cache read failed", zap.String("order_id", orderID), zap.Error(err))
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.fail(span, fromStore(err))
	}
	s.storeInCache(ctx, order)
	return order, nil
}

// ListForReview loads a snapshot of orders and accounts and applies q.
func (s *Service) ListForReview(ctx context.Context, q filter.Query) (*ReviewList, error) {
	ctx, span := serviceTracer.Start(ctx, "ReviewService.ListForReview")
	defer span.End()

	var (
		orders   []entity.Order
		accounts []entity.Account
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var status *entity.ReviewStatus
		if st, ok := q.Status(); ok {
			status = &st
		}
		var err error
		orders, err = s.store.ListOrders(gctx, status)
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = s.store.ListAccounts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, fromStore(err))
	}

	matched := s.engine.Apply(orders, q)
	span.SetAttributes(
		attribute.Int("orders.snapshot", len(orders)),
		attribute.Int("orders.matched", len(matched)),
	)

	return &ReviewList{
		Orders:  matched,
		Summary: s.engine.Summarize(matched, accounts),
	}, nil
}

// ListAccounts returns every account with its available balance.
func (s *Service) ListAccounts(ctx context.Context) ([]AccountBalance, error) {
	ctx, span := serviceTracer.Start(ctx, "ReviewService.ListAccounts")
	defer span.End()

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, s.fail(span, fromStore(err))
	}
	out := make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountBalance{
			Account:   a,
			Available: ledger.Available(a),
			OverLimit: ledger.IsOverLimit(a),
		})
	}
	return out, nil
}

// AttachInvoice records the reference of an already stored invoice document.
// An empty reference detaches it.
func (s *Service) AttachInvoice(ctx context.Context, orderID, ref string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "ReviewService.AttachInvoice", trace.WithAttributes(
		attribute.String("order.id", orderID),
	))
	defer span.End()

	ref = strings.TrimSpace(ref)
	updated, err := s.store.PatchOrder(ctx, orderID, store.OrderPatch{InvoicePDF: &ref})
	if err != nil {
		return nil, s.fail(span, fromStore(err))
	}
	s.storeInCache(ctx, updated)
	s.publish(ctx, newEvent(EventInvoiceAttached, orderID, s.now()))
	return updated, nil
}

// InvalidateOrder drops a cached order detail. The worker calls it for
// events published by other instances.
func (s *Service) InvalidateOrder(ctx context.Context, orderID string) error {
	return s.cache.Delete(ctx, cache.OrderKey(orderID))
}

// refresh re-reads a mutated order so the cached detail reflects the
// store. The fallback is used when the re-read fails.
func (s *Service) refresh(ctx context.Context, fallback *entity.Order) *entity.Order {
	if err := s.InvalidateOrder(ctx, fallback.ID); err != nil {
		s.logger.Warn("order cache invalidation failed", zap.String("order_id", fallback.ID), zap.Error(err))
	}
	fresh, err := s.store.GetOrder(ctx, fallback.ID)
	if err != nil {
		s.logger.Warn("order refresh failed", zap.String("order_id", fallback.ID), zap.Error(err))
		return fallback
	}
	s.storeInCache(ctx, fresh)
	return fresh
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) {
	if order == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.cache, cache.OrderKey(order.ID), order, s.cacheTTL); err != nil {
		s.logger.Warn("order cache write failed", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *Service) fail(span trace.Span, appErr *errorbank.AppError) *errorbank.AppError {
	if appErr.Kind() == errorbank.KindNetwork || appErr.Kind() == errorbank.KindInternal {
		span.RecordError(appErr)
	}
	span.SetStatus(codes.Error, string(appErr.Kind()))
	return appErr
}

func (s *Service) countTransition(ctx context.Context, to entity.ReviewStatus, result Result) {
	s.metrics.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("to", string(to)),
		attribute.String("result", string(result)),
	))
}

func (s *Service) countSettlement(ctx context.Context, outcome string) {
	s.metrics.settlements.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
