package cart

import (
	"errors"
	"fmt"
)

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpUpdate Op = "update"
)

// Failure kinds. Every error returned by a live Manager's mutation is an
// *OpError that matches exactly one of these with errors.Is.
var (
	ErrStockExhausted = errors.New("requested amount out of stock")
	ErrNotFound       = errors.New("product not in cart")
	ErrRemoteFailure  = errors.New("remote call failed")
)

// ErrRetired is returned by mutations on a Manager that Sessions evicted.
// The caller must fetch the session's Manager again; Sessions.Do does so.
var ErrRetired = errors.New("cart manager retired")

// User-facing notification messages.
const (
	MsgOutOfStock    = "Requested quantity is out of stock"
	MsgAddFailed     = "Failed to add product"
	MsgRemoveFailed  = "Failed to remove product"
	MsgUpdateFailed  = "Failed to update product amount"
	msgGenericFailed = "Cart operation failed"
)

type OpError struct {
	Op        Op
	ProductID int64
	Kind      error
	// Err is the root cause, if any. It is logged, never shown to the user.
	Err error
}

func newOpError(op Op, productID int64, kind, cause error) *OpError {
	return &OpError{Op: op, ProductID: productID, Kind: kind, Err: cause}
}

func (e *OpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cart %s product %d: %v: %v", e.Op, e.ProductID, e.Kind, e.Err)
	}
	return fmt.Sprintf("cart %s product %d: %v", e.Op, e.ProductID, e.Kind)
}

func (e *OpError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Message is the text shown to the user. Stock exhaustion has its own
// message; every other failure collapses into the per-operation one.
func (e *OpError) Message() string {
	if errors.Is(e.Kind, ErrStockExhausted) {
		return MsgOutOfStock
	}
	switch e.Op {
	case OpAdd:
		return MsgAddFailed
	case OpRemove:
		return MsgRemoveFailed
	case OpUpdate:
		return MsgUpdateFailed
	default:
		return msgGenericFailed
	}
}

// KindName is a stable label for err's kind, used in metrics and API errors.
func KindName(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStockExhausted):
		return "stock_exhausted"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRemoteFailure):
		return "remote_failure"
	default:
		return "unknown"
	}
}
