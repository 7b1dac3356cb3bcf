package repository

import (
	"context"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderFilter struct {
	BuyerID  *uuid.UUID
	Statuses []model.OrderStatus
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	// Mutate locks the order document, hands it (with its tracking log) to fn and
	// persists the status fields plus any newly appended tracking entries in one
	// transaction. The status write is conditional on the status fn observed, so a
	// concurrent transition on the same order makes this call fail with
	// apperror.ErrInvalidTransition.
	Mutate(ctx context.Context, id uuid.UUID, fn func(*model.Order) error) (*model.Order, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func byInsertion(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return translate("create order", r.db.WithContext(ctx).Omit("Tracking").Create(order).Error, apperror.ErrOrderNotFound)
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("Tracking", byInsertion).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate("find order", err, apperror.ErrOrderNotFound)
	}
	return &order, nil
}

func (r *orderRepo) FindAll(ctx context.Context, filter OrderFilter) ([]model.Order, error) {
	q := r.db.WithContext(ctx).Preload("Tracking", byInsertion).Order("created_at DESC")
	if filter.BuyerID != nil {
		q = q.Where("buyer_id = ?", *filter.BuyerID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	var orders []model.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, translate("list orders", err, apperror.ErrOrderNotFound)
	}
	return orders, nil
}

func (r *orderRepo) Mutate(ctx context.Context, id uuid.UUID, fn func(*model.Order) error) (*model.Order, error) {
	var (
		order model.Order
		fnErr error
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Order("seq ASC").Find(&order.Tracking).Error; err != nil {
			return err
		}

		observed := order.Status
		known := len(order.Tracking)
		if fnErr = fn(&order); fnErr != nil {
			return fnErr
		}

		if order.Status != observed {
			res := tx.Model(&model.Order{}).
				Where("id = ? AND status = ?", id, observed).
				Updates(map[string]interface{}{
					"status":      order.Status,
					"approved_at": order.ApprovedAt,
					"updated_by":  order.UpdatedBy,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				fnErr = apperror.ErrInvalidTransition
				return fnErr
			}
		}

		for i := known; i < len(order.Tracking); i++ {
			if err := tx.Create(&order.Tracking[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, translate("update order", err, apperror.ErrOrderNotFound)
	}
	return &order, nil
}
