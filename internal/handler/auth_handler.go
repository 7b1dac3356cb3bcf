package handler

import (
	"time"

	"garment-tracker/internal/middleware"
	"garment-tracker/internal/model"
	"garment-tracker/internal/service"
	"garment-tracker/internal/session"
	"garment-tracker/pkg/identity"

	"github.com/gofiber/fiber/v2"
)

type CookieOptions struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	authService service.AuthService
	cookie      CookieOptions
}

func NewAuthHandler(authService service.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// RegisterRequest represents the register request body
type RegisterRequest struct {
	Role model.Role `json:"role"`
}

// Register provisions a pending account for the verified identity
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON()
	}

	account, err := h.authService.Register(c.UserContext(), bearer(c), req.Role)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Account registered", "data": account.ToResponse()})
}

// Login binds a new session cookie to the account of the verified identity
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON()
	}

	// a fresh id per login; the previous session, if any, is dropped
	if old := middleware.SessionID(c); old != "" {
		h.authService.Logout(old)
	}
	sid := session.NewSessionID()

	response, err := h.authService.Login(c.UserContext(), sid, bearer(c), &req)
	if err != nil {
		c.ClearCookie(h.cookie.Name)
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(h.cookie.MaxAge),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(response)
}

// Logout drops the cached session
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := middleware.SessionID(c); sid != "" {
		h.authService.Logout(sid)
	}
	c.ClearCookie(h.cookie.Name)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me returns the session account without a store round trip
// GET /api/v1/users/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	response, err := h.authService.Me(middleware.SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(response)
}

func bearer(c *fiber.Ctx) string {
	token, _ := identity.BearerToken(c.Get(fiber.HeaderAuthorization))
	return token
}
