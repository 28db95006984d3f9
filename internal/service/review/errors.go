package review

import (
	"context"
	"errors"

	"github.com/Additional-Code/creditdesk/internal/ledger"
	"github.com/Additional-Code/creditdesk/internal/store"
	"github.com/Additional-Code/creditdesk/pkg/errorbank"
)

const msgAccountNotFound = "account not found"

// fromStore classifies a store failure. The store's message is kept as is.
func fromStore(err error) *errorbank.AppError {
	if err == nil {
		return nil
	}
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	opt := errorbank.WithCause(err)
	switch {
	case errors.Is(err, store.ErrAccountNotFound):
		return errorbank.NotFound(msgAccountNotFound, opt)
	case errors.Is(err, store.ErrNotFound):
		return errorbank.NotFound(err.Error(), opt)
	case errors.Is(err, store.ErrAlreadySettled),
		errors.Is(err, store.ErrValidation),
		errors.Is(err, ledger.ErrInvalidAmount):
		return errorbank.Validation(err.Error(), opt)
	case errors.Is(err, ledger.ErrNegativeBalance):
		return errorbank.Invariant(err.Error(), opt)
	case errors.Is(err, store.ErrNetwork),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return errorbank.Network(err.Error(), opt)
	default:
		// Anything else came back from the store itself.
		return errorbank.Network(err.Error(), opt)
	}
}
