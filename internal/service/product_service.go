package service

import (
	"context"
	"fmt"
	"strings"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/events"
	"garment-tracker/internal/model"
	"garment-tracker/internal/policy"
	"garment-tracker/internal/repository"
	"garment-tracker/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name           string          `json:"name" validate:"required"`
	Description    string          `json:"description"`
	Category       string          `json:"category" validate:"required"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity" validate:"gte=0"`
	MinimumOrder   int             `json:"minimumOrder" validate:"gt=0"`
	PaymentOptions string          `json:"paymentOptions"`
}

// UpdateProductRequest is a partial update; nil fields are left alone.
type UpdateProductRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1"`
	Description    *string          `json:"description"`
	Category       *string          `json:"category" validate:"omitempty,min=1"`
	Price          *decimal.Decimal `json:"price"`
	Quantity       *int             `json:"quantity" validate:"omitempty,gte=0"`
	MinimumOrder   *int             `json:"minimumOrder" validate:"omitempty,gt=0"`
	PaymentOptions *string          `json:"paymentOptions"`
}

type ProductService interface {
	Create(ctx context.Context, actor *model.Account, req *CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, actor *model.Account, id uuid.UUID, req *UpdateProductRequest) (*model.Product, error)
	SetFeatured(ctx context.Context, actor *model.Account, id uuid.UUID, featured bool) (*model.Product, error)
	Delete(ctx context.Context, actor *model.Account, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
	Mine(ctx context.Context, actor *model.Account) ([]model.Product, error)
}

type productService struct {
	repo      repository.ProductRepository
	publisher events.Publisher
	log       logger.Logger
}

func NewProductService(repo repository.ProductRepository, publisher events.Publisher, log logger.Logger) ProductService {
	return &productService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

func (s *productService) Create(ctx context.Context, actor *model.Account, req *CreateProductRequest) (*model.Product, error) {
	// 1. Gate
	if err := policy.Check(actor, policy.ProductCreate).Err(); err != nil {
		return nil, err
	}

	// 2. Validate
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, apperror.Invalid("price must not be negative")
	}
	if req.MinimumOrder > req.Quantity {
		return nil, apperror.Invalid("minimum order %d exceeds available quantity %d", req.MinimumOrder, req.Quantity)
	}

	// 3. Persist
	product := &model.Product{
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Category:       strings.TrimSpace(req.Category),
		Price:          req.Price,
		Quantity:       req.Quantity,
		MinimumOrder:   req.MinimumOrder,
		PaymentOptions: req.PaymentOptions,
		ManagerID:      actor.ID,
	}
	product.CreatedBy = auditID(actor)
	product.UpdatedBy = auditID(actor)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	// 4. Notify
	ev := events.New(events.ProductCreated, product.ID, actorOf(actor),
		fmt.Sprintf("%s created product '%s'", actorOf(actor).Name, product.Name))
	ev.Data = productPayload(product)
	publish(ctx, s.publisher, s.log, ev)
	return product, nil
}

// loadForChange fetches the product and checks that actor may change it.
// Managers may only touch their own products; admins may touch any.
func (s *productService) loadForChange(ctx context.Context, actor *model.Account, id uuid.UUID, c policy.Capability) (*model.Product, error) {
	if err := policy.Check(actor, c).Err(); err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleManager && !product.OwnedBy(actor.ID) {
		return nil, apperror.ErrNotOwner
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, actor *model.Account, id uuid.UUID, req *UpdateProductRequest) (*model.Product, error) {
	product, err := s.loadForChange(ctx, actor, id, policy.ProductUpdate)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	oldQuantity := product.Quantity
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperror.Invalid("price must not be negative")
		}
		product.Price = *req.Price
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.PaymentOptions != nil {
		product.PaymentOptions = *req.PaymentOptions
	}
	// The minimum is checked against stock only when it is being set. Lowering
	// the stock alone may leave the product un-orderable until it is corrected.
	if req.MinimumOrder != nil {
		if *req.MinimumOrder > product.Quantity {
			return nil, apperror.Invalid("minimum order %d exceeds available quantity %d", *req.MinimumOrder, product.Quantity)
		}
		product.MinimumOrder = *req.MinimumOrder
	}
	product.UpdatedBy = auditID(actor)

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	if !product.Orderable() {
		s.log.Warn("product is not orderable",
			logger.String("product_id", product.ID.String()),
			logger.Int("quantity", product.Quantity),
			logger.Int("minimum_order", product.MinimumOrder))
	}

	ev := events.New(events.ProductUpdated, product.ID, actorOf(actor),
		fmt.Sprintf("%s updated product '%s'", actorOf(actor).Name, product.Name))
	payload := productPayload(product)
	payload["old_quantity"] = oldQuantity
	ev.Data = payload
	publish(ctx, s.publisher, s.log, ev)
	return product, nil
}

func (s *productService) SetFeatured(ctx context.Context, actor *model.Account, id uuid.UUID, featured bool) (*model.Product, error) {
	product, err := s.loadForChange(ctx, actor, id, policy.ProductFeature)
	if err != nil {
		return nil, err
	}
	if product.Featured == featured {
		return product, nil
	}
	product.Featured = featured
	product.UpdatedBy = auditID(actor)
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	ev := events.New(events.ProductUpdated, product.ID, actorOf(actor),
		fmt.Sprintf("%s set featured=%t on '%s'", actorOf(actor).Name, featured, product.Name))
	ev.Data = productPayload(product)
	publish(ctx, s.publisher, s.log, ev)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, actor *model.Account, id uuid.UUID) error {
	product, err := s.loadForChange(ctx, actor, id, policy.ProductDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, auditID(actor)); err != nil {
		return err
	}

	ev := events.New(events.ProductDeleted, product.ID, actorOf(actor),
		fmt.Sprintf("%s deleted product '%s'", actorOf(actor).Name, product.Name))
	publish(ctx, s.publisher, s.log, ev)
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *productService) Mine(ctx context.Context, actor *model.Account) ([]model.Product, error) {
	if err := policy.Check(actor, policy.ProductViewOwn).Err(); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx, repository.ProductFilter{ManagerID: &actor.ID})
}

func productPayload(p *model.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":            p.ID,
		"name":          p.Name,
		"price":         p.Price,
		"quantity":      p.Quantity,
		"minimum_order": p.MinimumOrder,
		"featured":      p.Featured,
	}
}
