package policy

import "garment-tracker/internal/model"

// Capability is a named permission. RequireApproved is per action, not per role:
// a manager may list their products while pending but may not add one.
type Capability struct {
	Code            string
	Name            string
	Roles           []model.Role
	RequireApproved bool
}

var (
	ProductViewOwn = Capability{Code: "product:view_own", Name: "View Own Products", Roles: roles(model.RoleManager)}
	ProductCreate  = Capability{Code: "product:create", Name: "Add Product", Roles: roles(model.RoleManager), RequireApproved: true}
	ProductUpdate  = Capability{Code: "product:update", Name: "Update Product", Roles: roles(model.RoleManager, model.RoleAdmin)}
	ProductDelete  = Capability{Code: "product:delete", Name: "Delete Product", Roles: roles(model.RoleManager, model.RoleAdmin)}
	ProductFeature = Capability{Code: "product:feature", Name: "Feature Product On Home", Roles: roles(model.RoleAdmin)}

	OrderCreate  = Capability{Code: "order:create", Name: "Place Order", Roles: roles(model.RoleBuyer), RequireApproved: true}
	OrderViewOwn = Capability{Code: "order:view_own", Name: "View Own Orders", Roles: roles(model.RoleBuyer)}
	OrderCancel  = Capability{Code: "order:cancel", Name: "Cancel Own Order", Roles: roles(model.RoleBuyer)}
	OrderApprove = Capability{Code: "order:approve", Name: "Approve Or Reject Order", Roles: roles(model.RoleManager), RequireApproved: true}
	OrderTrack   = Capability{Code: "order:track", Name: "Add Tracking Update", Roles: roles(model.RoleManager), RequireApproved: true}
	OrderViewAll = Capability{Code: "order:view_all", Name: "View All Orders", Roles: roles(model.RoleAdmin)}

	UserView         = Capability{Code: "user:view", Name: "View Users", Roles: roles(model.RoleAdmin)}
	UserUpdateStatus = Capability{Code: "user:update_status", Name: "Change Account Status", Roles: roles(model.RoleAdmin)}
)

// Capabilities lists every named permission, used for introspection endpoints.
var Capabilities = []Capability{
	ProductViewOwn, ProductCreate, ProductUpdate, ProductDelete, ProductFeature,
	OrderCreate, OrderViewOwn, OrderCancel, OrderApprove, OrderTrack, OrderViewAll,
	UserView, UserUpdateStatus,
}

// Check evaluates a capability for an account.
func Check(account *model.Account, c Capability) Decision {
	return CanPerform(account, c.Roles, c.RequireApproved)
}

// Allowed lists the capability codes the account currently holds.
func Allowed(account *model.Account) []string {
	codes := make([]string, 0, len(Capabilities))
	for _, c := range Capabilities {
		if Check(account, c).Allowed {
			codes = append(codes, c.Code)
		}
	}
	return codes
}

func roles(r ...model.Role) []model.Role { return r }
