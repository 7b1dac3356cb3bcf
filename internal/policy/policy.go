// Package policy decides whether an account may perform a gated action.
//
// Every role check in the service goes through CanPerform so the precedence
// below is applied uniformly:
//
//  1. no account            -> NoSession
//  2. role not in the set   -> RoleMismatch
//  3. account suspended     -> Suspended (independent of requireApproved)
//  4. approval required but account not approved -> NotApproved
//  5. allow
package policy

import (
	"garment-tracker/internal/apperror"
	"garment-tracker/internal/model"
)

// Decision is the outcome of an authorization check. Reason is nil when Allowed.
type Decision struct {
	Allowed bool
	Reason  error
}

// Err returns nil for an allow decision and the deny reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

func allow() Decision            { return Decision{Allowed: true} }
func deny(reason error) Decision { return Decision{Reason: reason} }

func CanPerform(account *model.Account, requiredRoles []model.Role, requireApproved bool) Decision {
	if account == nil {
		return deny(apperror.ErrNoSession)
	}
	if !hasRole(requiredRoles, account.Role) {
		return deny(apperror.ErrRoleMismatch)
	}
	if account.IsSuspended() {
		return deny(apperror.ErrSuspended)
	}
	if requireApproved && !account.IsApproved() {
		return deny(apperror.ErrNotApproved)
	}
	return allow()
}

func hasRole(roles []model.Role, role model.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
