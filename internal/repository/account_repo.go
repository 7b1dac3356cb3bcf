package repository

import (
	"context"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountFilter struct {
	Status model.AccountStatus
	Role   model.Role
}

type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindAll(ctx context.Context, filter AccountFilter) ([]model.Account, error)
	// Create fails with apperror.ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, account *model.Account) error
	// Update locks the account row, applies fn and persists status fields atomically.
	Update(ctx context.Context, id uuid.UUID, fn func(*model.Account) error) (*model.Account, error)
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db}
}

func (r *accountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		return nil, translate("find account by email", err, apperror.ErrAccountNotFound)
	}
	return &account, nil
}

func (r *accountRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		return nil, translate("find account", err, apperror.ErrAccountNotFound)
	}
	return &account, nil
}

func (r *accountRepo) FindAll(ctx context.Context, filter AccountFilter) ([]model.Account, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	var accounts []model.Account
	if err := q.Find(&accounts).Error; err != nil {
		return nil, translate("list accounts", err, apperror.ErrAccountNotFound)
	}
	return accounts, nil
}

func (r *accountRepo) Create(ctx context.Context, account *model.Account) error {
	return translate("create account", r.db.WithContext(ctx).Create(account).Error, apperror.ErrAccountNotFound)
}

func (r *accountRepo) Update(ctx context.Context, id uuid.UUID, fn func(*model.Account) error) (*model.Account, error) {
	var (
		updated model.Account
		fnErr   error
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&updated, "id = ?", id).Error; err != nil {
			return err
		}
		if fnErr = fn(&updated); fnErr != nil {
			return fnErr
		}
		return tx.Model(&model.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":         updated.Status,
			"suspend_reason": updated.SuspendReason,
			"updated_by":     updated.UpdatedBy,
		}).Error
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, translate("update account", err, apperror.ErrAccountNotFound)
	}
	return &updated, nil
}
