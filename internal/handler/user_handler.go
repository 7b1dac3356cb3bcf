package handler

import (
	"garment-tracker/internal/apperror"
	"garment-tracker/internal/middleware"
	"garment-tracker/internal/model"
	"garment-tracker/internal/repository"
	"garment-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	accountService service.AccountService
}

func NewUserHandler(accountService service.AccountService) *UserHandler {
	return &UserHandler{accountService: accountService}
}

// GetUsers lists accounts, optionally filtered by ?status= and ?role=
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	filter := repository.AccountFilter{
		Status: model.AccountStatus(c.Query("status")),
		Role:   model.Role(c.Query("role")),
	}
	users, err := h.accountService.List(c.UserContext(), middleware.Account(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// UpdateStatus approves, suspends or reinstates an account
// PATCH /api/v1/users/:id
func (h *UserHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "user")
	if err != nil {
		return err
	}

	var req service.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON()
	}

	account, err := h.accountService.UpdateStatus(c.UserContext(), middleware.Account(c), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Account updated", "data": account.ToResponse()})
}

// paramID parses the :id route parameter.
func paramID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Invalid("invalid %s ID", what)
	}
	return id, nil
}
