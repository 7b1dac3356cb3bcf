// Package inventory gates order quantities against a product's stock figures.
package inventory

import "garment-tracker/internal/apperror"

// Validate checks requested against the inclusive range [minimum, available].
// It never touches stock; the figures are a snapshot supplied by the caller.
func Validate(requested, minimum, available int) error {
	if requested < minimum {
		return &apperror.QuantityError{Err: apperror.ErrBelowMinimumOrder, Requested: requested, Bound: minimum}
	}
	if requested > available {
		return &apperror.QuantityError{Err: apperror.ErrInsufficientStock, Requested: requested, Bound: available}
	}
	return nil
}
