package repository

import (
	"context"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductFilter struct {
	ManagerID *uuid.UUID
	Featured  *bool
	Category  string
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translate("create product", r.db.WithContext(ctx).Create(product).Error, apperror.ErrProductNotFound)
}

func (r *productRepo) FindAll(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.ManagerID != nil {
		q = q.Where("manager_id = ?", *filter.ManagerID)
	}
	if filter.Featured != nil {
		q = q.Where("featured = ?", *filter.Featured)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	var products []model.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, translate("list products", err, apperror.ErrProductNotFound)
	}
	return products, nil
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate("find product", err, apperror.ErrProductNotFound)
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"name":            product.Name,
		"description":     product.Description,
		"category":        product.Category,
		"price":           product.Price,
		"quantity":        product.Quantity,
		"minimum_order":   product.MinimumOrder,
		"payment_options": product.PaymentOptions,
		"featured":        product.Featured,
		"updated_by":      product.UpdatedBy,
	})
	if res.Error != nil {
		return translate("update product", res.Error, apperror.ErrProductNotFound)
	}
	if res.RowsAffected == 0 {
		return apperror.ErrProductNotFound
	}
	return nil
}

// Delete is a soft delete; existing orders keep their snapshot.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate("delete product", err, apperror.ErrProductNotFound)
}
