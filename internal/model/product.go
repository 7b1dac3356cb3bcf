package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name           string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Description    string          `gorm:"type:text" json:"description"`
	Category       string          `gorm:"type:varchar(100);index" json:"category" validate:"required"`
	Price          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity       int             `gorm:"not null;default:0" json:"quantity" validate:"gte=0"`
	MinimumOrder   int             `gorm:"not null;default:1" json:"minimum_order" validate:"gt=0"`
	PaymentOptions string          `gorm:"type:varchar(100)" json:"payment_options"`
	Featured       bool            `gorm:"default:false;index" json:"featured"`

	// Owning manager
	ManagerID uuid.UUID `gorm:"type:uuid;not null;index" json:"manager_id"`
	Manager   *Account  `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
}

// OwnedBy reports whether the account manages this product.
func (p *Product) OwnedBy(accountID uuid.UUID) bool {
	return p.ManagerID == accountID
}

// Orderable reports whether any quantity can satisfy both order bounds.
func (p *Product) Orderable() bool {
	return p.MinimumOrder > 0 && p.MinimumOrder <= p.Quantity
}
