package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is fixed when the account is created.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleBuyer   Role = "buyer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleBuyer:
		return true
	}
	return false
}

// SelfRegistrable reports whether an identity may claim this role on sign up.
func (r Role) SelfRegistrable() bool {
	return r == RoleBuyer || r == RoleManager
}

type AccountStatus string

const (
	AccountPending   AccountStatus = "pending"
	AccountApproved  AccountStatus = "approved"
	AccountSuspended AccountStatus = "suspended"
)

// There is no path back to pending.
var accountTransitions = map[AccountStatus][]AccountStatus{
	AccountPending:   {AccountApproved},
	AccountApproved:  {AccountSuspended},
	AccountSuspended: {AccountApproved},
}

func (s AccountStatus) Valid() bool {
	_, ok := accountTransitions[s]
	return ok
}

// CanTransitionTo reports whether an admin may move an account from s to next.
func (s AccountStatus) CanTransitionTo(next AccountStatus) bool {
	for _, allowed := range accountTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Account is the internal authorization record for an external identity.
type Account struct {
	BaseModel
	Email         string        `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	DisplayName   string        `gorm:"type:varchar(255)" json:"name"`
	PhotoURL      string        `gorm:"type:text" json:"photo_url,omitempty"`
	Role          Role          `gorm:"type:varchar(20);not null;<-:create" json:"role"` // write-once
	Status        AccountStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SuspendReason string        `gorm:"type:text" json:"suspend_reason,omitempty"`
}

func (a *Account) IsApproved() bool  { return a.Status == AccountApproved }
func (a *Account) IsSuspended() bool { return a.Status == AccountSuspended }

// Clone returns a detached copy so cached sessions cannot be mutated by callers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// AccountResponse is used for API responses
type AccountResponse struct {
	ID            uuid.UUID     `json:"id"`
	Email         string        `json:"email"`
	Name          string        `json:"name"`
	PhotoURL      string        `json:"photo_url,omitempty"`
	Role          Role          `json:"role"`
	Status        AccountStatus `json:"status"`
	SuspendReason string        `json:"suspend_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ToResponse converts Account to AccountResponse
func (a *Account) ToResponse() AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		Email:         a.Email,
		Name:          a.DisplayName,
		PhotoURL:      a.PhotoURL,
		Role:          a.Role,
		Status:        a.Status,
		SuspendReason: a.SuspendReason,
		CreatedAt:     a.CreatedAt,
	}
}
