// Package orderstore talks to an order store that lives behind an HTTP API.
package orderstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Additional-Code/creditdesk/internal/config"
	"github.com/Additional-Code/creditdesk/internal/entity"
	"github.com/Additional-Code/creditdesk/internal/ledger"
	"github.com/Additional-Code/creditdesk/internal/store"
)

const (
	pathOrders     = "/orders"
	pathOrder      = "/orders/{id}"
	pathSettlement = "/orders/{id}/settlement"
	pathAccounts   = "/accounts"

	codeAccountNotFound = "account_not_found"
)

// apiError is the error envelope returned by the remote store.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client implements store.Store over HTTP.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

var _ store.Store = (*Client)(nil)

// New builds a client from the store configuration.
func New(cfg config.Store, logger *zap.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Accept", "application/json")
	if cfg.APIToken != "" {
		rc.SetAuthToken(cfg.APIToken)
	}
	return &Client{http: rc, logger: logger.Named("orderstore")}
}

// ListOrders fetches orders, optionally restricted to one review status.
// PENDING_REVIEW also covers orders without a review status, which the
// remote filter cannot express, so that status is filtered here.
func (c *Client) ListOrders(ctx context.Context, status *entity.ReviewStatus) ([]entity.Order, error) {
	var orders []entity.Order
	req := c.http.R().SetContext(ctx).SetResult(&orders)
	if status != nil && *status != entity.ReviewPending {
		req.SetQueryParam("reviewStatus", string(*status))
	}
	if err := c.do(req, http.MethodGet, pathOrders, store.ErrNotFound); err != nil {
		return nil, err
	}
	if status == nil || *status != entity.ReviewPending {
		return orders, nil
	}

	pending := orders[:0]
	for _, o := range orders {
		if o.EffectiveReviewStatus() == entity.ReviewPending {
			pending = append(pending, o)
		}
	}
	return pending, nil
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	req := c.http.R().SetContext(ctx).SetPathParam("id", id).SetResult(&order)
	if err := c.do(req, http.MethodGet, pathOrder, store.ErrNotFound); err != nil {
		return nil, err
	}
	return &order, nil
}

// PatchOrder sends a partial update as a single PATCH request.
func (c *Client) PatchOrder(ctx context.Context, id string, patch store.OrderPatch) (*entity.Order, error) {
	var order entity.Order
	req := c.http.R().SetContext(ctx).SetPathParam("id", id).SetBody(patch).SetResult(&order)
	if err := c.do(req, http.MethodPatch, pathOrder, store.ErrNotFound); err != nil {
		return nil, err
	}
	return &order, nil
}

// Settle posts the settlement as one request; the remote store applies the
// payment update and the ledger credit together.
func (c *Client) Settle(ctx context.Context, s store.Settlement) (*store.SettlementReceipt, error) {
	var receipt store.SettlementReceipt
	req := c.http.R().SetContext(ctx).SetPathParam("id", s.OrderID).SetBody(s).SetResult(&receipt)
	if err := c.do(req, http.MethodPost, pathSettlement, store.ErrNotFound); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListAccounts fetches every account.
func (c *Client) ListAccounts(ctx context.Context) ([]entity.Account, error) {
	var accounts []entity.Account
	req := c.http.R().SetContext(ctx).SetResult(&accounts)
	if err := c.do(req, http.MethodGet, pathAccounts, store.ErrAccountNotFound); err != nil {
		return nil, err
	}
	return accounts, nil
}

// ResolveAccount lists accounts and matches the order's billed identity locally.
func (c *Client) ResolveAccount(ctx context.Context, order *entity.Order) (*entity.Account, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	account, err := ledger.Resolve(order, accounts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrAccountNotFound, err)
	}
	return account, nil
}

func (c *Client) do(req *resty.Request, method, path string, notFound error) error {
	op := method + " " + path
	apiErr := new(apiError)
	req.SetError(apiErr)

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("order store request failed", zap.String("op", op), zap.Error(err))
		return &store.NetworkError{Op: op, Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	msg := apiErr.Message
	if msg == "" {
		msg = strings.TrimSpace(resp.String())
	}
	if msg == "" {
		msg = resp.Status()
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		target := notFound
		if apiErr.Code == codeAccountNotFound {
			target = store.ErrAccountNotFound
		}
		return &store.RejectedError{Kind: target, Message: msg}
	case code == http.StatusConflict:
		return &store.RejectedError{Kind: store.ErrAlreadySettled, Message: msg}
	case code >= 400 && code < 500:
		return &store.ValidationError{Message: msg}
	default:
		return &store.NetworkError{Op: op, Err: errors.New(msg)}
	}
}
