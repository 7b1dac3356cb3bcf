package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/events"
	"garment-tracker/internal/inventory"
	"garment-tracker/internal/lifecycle"
	"garment-tracker/internal/model"
	"garment-tracker/internal/policy"
	"garment-tracker/internal/repository"
	"garment-tracker/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"uuid_required"`
	Quantity  int       `json:"quantity"`
	FirstName string    `json:"firstName" validate:"required"`
	LastName  string    `json:"lastName"`
	Contact   string    `json:"contact" validate:"required"`
	Address   string    `json:"address" validate:"required"`
	Notes     string    `json:"notes"`
}

type TrackingRequest struct {
	Status   string `json:"status" validate:"required"`
	Location string `json:"location" validate:"required"`
	Note     string `json:"note"`
	Date     string `json:"date" validate:"required"` // RFC 3339 or YYYY-MM-DD
}

type OrderService interface {
	Create(ctx context.Context, actor *model.Account, req *CreateOrderRequest) (*model.Order, error)
	// Transition moves the order to the requested status (approved, rejected or cancelled).
	Transition(ctx context.Context, actor *model.Account, id uuid.UUID, target model.OrderStatus) (*model.Order, error)
	AddTracking(ctx context.Context, actor *model.Account, id uuid.UUID, req *TrackingRequest) (*model.Order, error)
	Get(ctx context.Context, actor *model.Account, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, actor *model.Account, status model.OrderStatus) ([]model.Order, error)
}

type orderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	publisher events.Publisher
	log       logger.Logger
	now       func() time.Time
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, publisher events.Publisher, log logger.Logger) OrderService {
	return &orderService{
		orders:    orders,
		products:  products,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

var transitionEvents = map[lifecycle.Event]events.Type{
	lifecycle.EventApprove: events.OrderApproved,
	lifecycle.EventReject:  events.OrderRejected,
	lifecycle.EventCancel:  events.OrderCancelled,
}

// statuses staff work from: pending to approve or reject, approved to track
var staffStatuses = []model.OrderStatus{model.OrderPending, model.OrderApproved}

func (s *orderService) Create(ctx context.Context, actor *model.Account, req *CreateOrderRequest) (*model.Order, error) {
	// 1. Gate: approved buyers only
	if err := policy.Check(actor, policy.OrderCreate).Err(); err != nil {
		return nil, err
	}
	if req.ProductID == uuid.Nil {
		return nil, apperror.Invalid("productId is required")
	}

	// 2. Quantity bounds against the current stock figure
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if err := inventory.Validate(req.Quantity, product.MinimumOrder, product.Quantity); err != nil {
		return nil, err
	}

	// 3. Delivery details
	if err := validate(req); err != nil {
		return nil, err
	}

	// 4. Materialize with the price frozen
	order := &model.Order{
		ProductID:     product.ID,
		ProductName:   product.Name,
		UnitPrice:     product.Price,
		Quantity:      req.Quantity,
		TotalPrice:    product.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		BuyerID:       actor.ID,
		BuyerEmail:    actor.Email,
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Contact:       strings.TrimSpace(req.Contact),
		Address:       strings.TrimSpace(req.Address),
		Notes:         req.Notes,
		PaymentOption: product.PaymentOptions,
		Status:        model.OrderPending,
	}
	order.CreatedBy = auditID(actor)
	order.UpdatedBy = auditID(actor)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		logger.String("order_id", order.ID.String()),
		logger.String("product_id", product.ID.String()),
		logger.Int("quantity", order.Quantity),
		logger.String("total", order.TotalPrice.StringFixed(2)))

	ev := events.New(events.OrderCreated, order.ID, actorOf(actor),
		fmt.Sprintf("%s ordered %d x '%s'", actorOf(actor).Name, order.Quantity, order.ProductName))
	ev.Status = string(order.Status)
	ev.Data = orderPayload(order)
	publish(ctx, s.publisher, s.log, ev)
	return order, nil
}

func (s *orderService) Transition(ctx context.Context, actor *model.Account, id uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	ev, err := lifecycle.EventFor(target)
	if err != nil {
		return nil, err
	}

	var from model.OrderStatus
	order, err := s.orders.Mutate(ctx, id, func(o *model.Order) error {
		if err := lifecycle.Authorize(actor, o, ev); err != nil {
			return err
		}
		from = o.Status
		if err := lifecycle.Apply(o, ev, s.now()); err != nil {
			return err
		}
		o.UpdatedBy = auditID(actor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		logger.String("order_id", order.ID.String()),
		logger.String("from", string(from)),
		logger.String("to", string(order.Status)),
		logger.String("by", auditID(actor)))

	out := events.New(transitionEvents[ev], order.ID, actorOf(actor),
		fmt.Sprintf("%s %s order for '%s'", actorOf(actor).Name, order.Status, order.ProductName))
	out.Status = string(order.Status)
	out.Data = orderPayload(order)
	publish(ctx, s.publisher, s.log, out)
	return order, nil
}

func (s *orderService) AddTracking(ctx context.Context, actor *model.Account, id uuid.UUID, req *TrackingRequest) (*model.Order, error) {
	if err := lifecycle.AuthorizeTracking(actor); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	date, err := parseTrackingDate(req.Date)
	if err != nil {
		return nil, err
	}
	entry := model.TrackingEntry{
		Status:     strings.TrimSpace(req.Status),
		Location:   strings.TrimSpace(req.Location),
		Note:       req.Note,
		Date:       date,
		RecordedBy: actor.ID,
	}
	if err := lifecycle.ValidateEntry(entry); err != nil {
		return nil, err
	}

	var appended model.TrackingEntry
	order, err := s.orders.Mutate(ctx, id, func(o *model.Order) error {
		var err error
		appended, err = lifecycle.AppendTracking(o, entry)
		return err
	})
	if err != nil {
		return nil, err
	}

	ev := events.New(events.TrackingAdded, order.ID, actorOf(actor),
		fmt.Sprintf("%s: %s at %s", order.ProductName, appended.Status, appended.Location))
	ev.Status = appended.Status
	ev.Data = appended
	publish(ctx, s.publisher, s.log, ev)
	return order, nil
}

func (s *orderService) Get(ctx context.Context, actor *model.Account, id uuid.UUID) (*model.Order, error) {
	if actor == nil {
		return nil, apperror.ErrNoSession
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case model.RoleBuyer:
		if err := policy.Check(actor, policy.OrderViewOwn).Err(); err != nil {
			return nil, err
		}
		if !order.PlacedBy(actor.ID) {
			return nil, apperror.ErrNotOwner
		}
	case model.RoleManager:
		if err := policy.Check(actor, policy.OrderApprove).Err(); err != nil {
			return nil, err
		}
		if !containsStatus(staffStatuses, order.Status) {
			return nil, apperror.ErrOrderNotFound
		}
	default:
		if err := policy.Check(actor, policy.OrderViewAll).Err(); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// List is scoped by role: buyers see their own orders, managers see the
// orders they can still act on, admins see everything.
func (s *orderService) List(ctx context.Context, actor *model.Account, status model.OrderStatus) ([]model.Order, error) {
	if actor == nil {
		return nil, apperror.ErrNoSession
	}
	if status != "" && !status.Valid() {
		return nil, apperror.Invalid("unknown order status %q", status)
	}

	var filter repository.OrderFilter
	if status != "" {
		filter.Statuses = []model.OrderStatus{status}
	}

	switch actor.Role {
	case model.RoleBuyer:
		if err := policy.Check(actor, policy.OrderViewOwn).Err(); err != nil {
			return nil, err
		}
		filter.BuyerID = &actor.ID
	case model.RoleManager:
		if err := policy.Check(actor, policy.OrderApprove).Err(); err != nil {
			return nil, err
		}
		if status == "" {
			filter.Statuses = staffStatuses
		} else if !containsStatus(staffStatuses, status) {
			return []model.Order{}, nil
		}
	default:
		if err := policy.Check(actor, policy.OrderViewAll).Err(); err != nil {
			return nil, err
		}
	}
	return s.orders.FindAll(ctx, filter)
}

func parseTrackingDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.Invalid("date %q is not RFC 3339 or YYYY-MM-DD", raw)
}

func containsStatus(set []model.OrderStatus, s model.OrderStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func orderPayload(o *model.Order) map[string]interface{} {
	return map[string]interface{}{
		"id":           o.ID,
		"product_id":   o.ProductID,
		"product_name": o.ProductName,
		"quantity":     o.Quantity,
		"total_price":  o.TotalPrice,
		"buyer_id":     o.BuyerID,
		"status":       o.Status,
	}
}
