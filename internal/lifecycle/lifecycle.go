// Package lifecycle is the order state machine and its tracking log.
//
//	pending --approve--> approved (tracking entries may be appended)
//	pending --reject---> rejected
//	pending --cancel---> cancelled
package lifecycle

import (
	"fmt"
	"time"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"
	"garment-tracker/internal/policy"
)

type Event string

const (
	EventApprove Event = "approve"
	EventReject  Event = "reject"
	EventCancel  Event = "cancel"
)

var transitions = map[model.OrderStatus]map[Event]model.OrderStatus{
	model.OrderPending: {
		EventApprove: model.OrderApproved,
		EventReject:  model.OrderRejected,
		EventCancel:  model.OrderCancelled,
	},
}

// capability each event requires of the actor
var eventCapability = map[Event]policy.Capability{
	EventApprove: policy.OrderApprove,
	EventReject:  policy.OrderApprove,
	EventCancel:  policy.OrderCancel,
}

// Next returns the status reached by applying ev in from.
func Next(from model.OrderStatus, ev Event) (model.OrderStatus, error) {
	if _, known := eventCapability[ev]; !known {
		return from, apperror.Invalid("unknown order event %q", ev)
	}
	if from.Valid() && from.Terminal() {
		return from, fmt.Errorf("%w: order is already %s", apperror.ErrInvalidTransition, from)
	}
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: cannot %s a %s order", apperror.ErrInvalidTransition, ev, from)
	}
	return to, nil
}

// EventFor maps a requested target status (as sent by PATCH /orders/:id) to its event.
func EventFor(target model.OrderStatus) (Event, error) {
	switch target {
	case model.OrderApproved:
		return EventApprove, nil
	case model.OrderRejected:
		return EventReject, nil
	case model.OrderCancelled:
		return EventCancel, nil
	}
	return "", apperror.Invalid("status %q cannot be requested", target)
}

// Authorize checks that actor may trigger ev on order. Cancellation is
// restricted to the order's own buyer.
func Authorize(actor *model.Account, order *model.Order, ev Event) error {
	c, ok := eventCapability[ev]
	if !ok {
		return apperror.Invalid("unknown order event %q", ev)
	}
	if err := policy.Check(actor, c).Err(); err != nil {
		return err
	}
	if ev == EventCancel && !order.PlacedBy(actor.ID) {
		return apperror.ErrNotOwner
	}
	return nil
}

// Apply moves order through ev. On error the order is left untouched.
func Apply(order *model.Order, ev Event, now time.Time) error {
	to, err := Next(order.Status, ev)
	if err != nil {
		return err
	}
	order.Status = to
	if to == model.OrderApproved {
		approvedAt := now
		order.ApprovedAt = &approvedAt
	}
	return nil
}
