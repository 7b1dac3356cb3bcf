// Package events fans out order and account changes to dashboards and brokers.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	OrderCreated         Type = "order_created"
	OrderApproved        Type = "order_approved"
	OrderRejected        Type = "order_rejected"
	OrderCancelled       Type = "order_cancelled"
	TrackingAdded        Type = "tracking_added"
	ProductCreated       Type = "product_created"
	ProductUpdated       Type = "product_updated"
	ProductDeleted       Type = "product_deleted"
	AccountRegistered    Type = "account_registered"
	AccountStatusChanged Type = "account_status_changed"
)

type Actor struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	Subject    uuid.UUID `json:"subject_id"` // order, product or account id
	Status     string    `json:"status,omitempty"`
	Actor      Actor     `json:"actor"`
	Message    string    `json:"message"`
	Data       any       `json:"data,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New stamps an event with an id and the current time.
func New(t Type, subject uuid.UUID, actor Actor, message string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		Subject:    subject,
		Actor:      actor,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
