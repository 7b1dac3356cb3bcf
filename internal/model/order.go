package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderApproved  OrderStatus = "approved"
	OrderRejected  OrderStatus = "rejected"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderApproved, OrderRejected, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no status transition leaves s.
// Approved is terminal for status but still accepts tracking entries.
func (s OrderStatus) Terminal() bool {
	return s != OrderPending
}

// Production milestones offered to staff when recording progress.
var TrackingStatuses = []string{
	"Cutting Completed",
	"Sewing Started",
	"Finishing",
	"QC Checked",
	"Packed",
	"Shipped",
	"Out for Delivery",
}

func IsTrackingStatus(s string) bool {
	for _, v := range TrackingStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Order struct {
	BaseModel
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"` // Snapshot
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`  // Snapshot, never re-read
	Quantity    int             `gorm:"not null" json:"quantity"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_price"` // Quantity * UnitPrice

	BuyerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"buyer_id"`
	BuyerEmail string    `gorm:"type:varchar(255)" json:"buyer_email"`

	// Delivery / contact
	FirstName     string `gorm:"type:varchar(100)" json:"first_name"`
	LastName      string `gorm:"type:varchar(100)" json:"last_name"`
	Contact       string `gorm:"type:varchar(50)" json:"contact"`
	Address       string `gorm:"type:text" json:"address"`
	Notes         string `gorm:"type:text" json:"notes,omitempty"`
	PaymentOption string `gorm:"type:varchar(100)" json:"payment_option"`

	Status     OrderStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ApprovedAt *time.Time  `json:"approved_at,omitempty"`

	Tracking []TrackingEntry `gorm:"foreignKey:OrderID" json:"tracking"`
}

// PlacedBy reports whether the account is the order's buyer.
func (o *Order) PlacedBy(accountID uuid.UUID) bool {
	return o.BuyerID == accountID
}

// TrackingEntry is one production progress event. Entries are ordered by
// Seq (insertion order), not by the caller-supplied Date.
type TrackingEntry struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tracking_order_seq" json:"-"`
	Seq        int       `gorm:"not null;uniqueIndex:idx_tracking_order_seq" json:"seq"`
	Status     string    `gorm:"type:varchar(50);not null" json:"status"`
	Location   string    `gorm:"type:varchar(255);not null" json:"location"`
	Note       string    `gorm:"type:text" json:"note,omitempty"`
	Date       time.Time `gorm:"not null" json:"date"`
	RecordedBy uuid.UUID `gorm:"type:uuid" json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

func (TrackingEntry) TableName() string {
	return "tracking_entries"
}
