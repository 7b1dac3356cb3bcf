package handler

import (
	"garment-tracker/internal/middleware"
	"garment-tracker/internal/policy"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth    *AuthHandler
	User    *UserHandler
	Product *ProductHandler
	Order   *OrderHandler

	// Dashboard serves an upgraded websocket connection.
	Dashboard fiber.Handler
}

type capabilityView struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	Roles           []string `json:"roles"`
	RequireApproved bool     `json:"require_approved"`
}

// Routes mounts the API under /api/v1. sessions resolves the session cookie
// on every request.
func Routes(app *fiber.App, h Handlers, sessions middleware.SessionReader, cookieName string) {
	api := app.Group("/api/v1", middleware.Session(sessions, cookieName))

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", h.Auth.Logout)

	api.Get("/products", h.Product.GetProducts)
	api.Get("/products/mine", middleware.RequireCapability(policy.ProductViewOwn), h.Product.GetMine)
	api.Get("/products/:id", h.Product.GetProduct)

	api.Get("/capabilities", func(c *fiber.Ctx) error {
		out := make([]capabilityView, len(policy.Capabilities))
		for i, cp := range policy.Capabilities {
			roles := make([]string, len(cp.Roles))
			for j, r := range cp.Roles {
				roles[j] = string(r)
			}
			out[i] = capabilityView{Code: cp.Code, Name: cp.Name, Roles: roles, RequireApproved: cp.RequireApproved}
		}
		return c.JSON(out)
	})

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireSession())

	protected.Get("/users/me", h.Auth.Me)
	protected.Get("/users", middleware.RequireCapability(policy.UserView), h.User.GetUsers)
	protected.Patch("/users/:id", middleware.RequireCapability(policy.UserUpdateStatus), h.User.UpdateStatus)

	protected.Post("/products", middleware.RequireCapability(policy.ProductCreate), h.Product.CreateProduct)
	protected.Patch("/products/:id/featured", middleware.RequireCapability(policy.ProductFeature), h.Product.SetFeatured)
	protected.Patch("/products/:id", middleware.RequireCapability(policy.ProductUpdate), h.Product.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequireCapability(policy.ProductDelete), h.Product.DeleteProduct)

	// order routes are gated per action inside the service: the capability
	// depends on the requested status and, for cancel, on ownership
	protected.Post("/orders", middleware.RequireCapability(policy.OrderCreate), h.Order.CreateOrder)
	protected.Get("/orders", h.Order.GetOrders)
	protected.Get("/orders/:id", h.Order.GetOrder)
	protected.Patch("/orders/:id", h.Order.UpdateStatus)
	protected.Patch("/orders/:id/tracking", middleware.RequireCapability(policy.OrderTrack), h.Order.AddTracking)

	// ============ DASHBOARD FEED ============
	// staff only: events carry buyer emails and order totals
	app.Get("/ws",
		middleware.Session(sessions, cookieName),
		middleware.RequireSession(),
		middleware.RequireAnyCapability(policy.OrderApprove, policy.OrderViewAll),
		requireUpgrade,
		h.Dashboard,
	)
}

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
