package handler

import (
	"garment-tracker/internal/middleware"
	"garment-tracker/internal/model"
	"garment-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// CreateOrder places an order for the session buyer
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON()
	}

	order, err := h.service.Create(c.UserContext(), middleware.Account(c), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Order placed", "data": order})
}

// GetOrders lists the orders visible to the session account
// GET /api/v1/orders?status=
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	orders, err := h.service.List(c.UserContext(), middleware.Account(c), model.OrderStatus(c.Query("status")))
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "order")
	if err != nil {
		return err
	}
	order, err := h.service.Get(c.UserContext(), middleware.Account(c), id)
	if err != nil {
		return err
	}
	return c.JSON(order)
}

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

// UpdateStatus approves, rejects or cancels an order
// PATCH /api/v1/orders/:id
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "order")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON()
	}

	order, err := h.service.Transition(c.UserContext(), middleware.Account(c), id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Order " + string(order.Status), "data": order})
}

// AddTracking appends a production progress entry
// PATCH /api/v1/orders/:id/tracking
func (h *OrderHandler) AddTracking(c *fiber.Ctx) error {
	id, err := paramID(c, "order")
	if err != nil {
		return err
	}
	var req service.TrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON()
	}

	order, err := h.service.AddTracking(c.UserContext(), middleware.Account(c), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Tracking updated", "data": order})
}
