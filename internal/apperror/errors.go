// Package apperror defines the error taxonomy shared by the order core.
// Every failure is returned as a value; callers branch with errors.Is / errors.As.
package apperror

import (
	"errors"
	"fmt"
)

// Authorization failures. Never retried automatically.
var (
	ErrNoSession    = errors.New("no active session")
	ErrRoleMismatch = errors.New("role is not permitted to perform this action")
	ErrSuspended    = errors.New("account is suspended")
	ErrNotApproved  = errors.New("account is not approved yet")
	ErrNotOwner     = errors.New("resource belongs to another account")
)

// Validation failures.
var (
	ErrBelowMinimumOrder = errors.New("quantity is below the minimum order")
	ErrInsufficientStock = errors.New("quantity exceeds available stock")
	ErrInvalidInput      = errors.New("invalid input")
)

// State machine failures.
var (
	ErrInvalidTransition        = errors.New("already processed")
	ErrOrderNotApproved         = errors.New("order is not approved")
	ErrOrderTerminal            = errors.New("order no longer accepts tracking updates")
	ErrInvalidAccountTransition = errors.New("account status change not allowed")
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
)

// Transient failures. The only class eligible for caller-initiated retry.
var (
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrNetworkUnavailable = errors.New("network unavailable")
)

// QuantityError carries the bound an order quantity violated so it can be shown to the buyer.
type QuantityError struct {
	Err       error
	Requested int
	Bound     int
}

func (e *QuantityError) Error() string {
	if errors.Is(e.Err, ErrBelowMinimumOrder) {
		return fmt.Sprintf("%v: requested %d, minimum %d", e.Err, e.Requested, e.Bound)
	}
	return fmt.Sprintf("%v: requested %d, available %d", e.Err, e.Requested, e.Bound)
}

func (e *QuantityError) Unwrap() error { return e.Err }

// Invalid wraps a message as ErrInvalidInput.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Store wraps a persistence failure as ErrStoreUnavailable, keeping the cause.
func Store(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrNetworkUnavailable)
}

// IsDenied reports whether err is an authorization failure.
func IsDenied(err error) bool {
	for _, target := range []error{ErrNoSession, ErrRoleMismatch, ErrSuspended, ErrNotApproved, ErrNotOwner} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var codes = []struct {
	err  error
	code string
}{
	{ErrNoSession, "NoSession"},
	{ErrRoleMismatch, "RoleMismatch"},
	{ErrSuspended, "Suspended"},
	{ErrNotApproved, "NotApproved"},
	{ErrNotOwner, "NotOwner"},
	{ErrBelowMinimumOrder, "BelowMinimumOrder"},
	{ErrInsufficientStock, "InsufficientStock"},
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrOrderNotApproved, "OrderNotApproved"},
	{ErrOrderTerminal, "OrderTerminal"},
	{ErrInvalidAccountTransition, "InvalidAccountTransition"},
	{ErrInvalidInput, "InvalidInput"},
	{ErrNotFound, "NotFound"},
	{ErrAlreadyExists, "AlreadyExists"},
	{ErrNetworkUnavailable, "NetworkUnavailable"},
	{ErrStoreUnavailable, "StoreUnavailable"},
}

// Code returns the taxonomy name of err, or "Internal" when it is unclassified.
// NoSession is checked first so a fail-closed session error reports as unauthenticated.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "Internal"
}

// FromCode maps a taxonomy name back to its sentinel, used by API clients.
func FromCode(code string) (error, bool) {
	for _, c := range codes {
		if c.code == code {
			return c.err, true
		}
	}
	return nil, false
}
