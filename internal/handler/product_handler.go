package handler

import (
	"strconv"

	"garment-tracker/internal/apperror"
	"garment-tracker/internal/middleware"
	"garment-tracker/internal/repository"
	"garment-tracker/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.ProductService
}

func NewProductHandler(s service.ProductService) *ProductHandler {
	return &ProductHandler{service: s}
}

// GetProducts is public. Supports ?featured=true and ?category=
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	filter := repository.ProductFilter{Category: c.Query("category")}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return apperror.Invalid("featured must be true or false")
		}
		filter.Featured = &featured
	}

	products, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(products)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "product")
	if err != nil {
		return err
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

func (h *ProductHandler) GetMine(c *fiber.Ctx) error {
	products, err := h.service.Mine(c.UserContext(), middleware.Account(c))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON()
	}

	product, err := h.service.Create(c.UserContext(), middleware.Account(c), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "product")
	if err != nil {
		return err
	}
	var req service.UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON()
	}

	updated, err := h.service.Update(c.UserContext(), middleware.Account(c), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

type featuredRequest struct {
	Featured *bool `json:"featured"`
}

func (h *ProductHandler) SetFeatured(c *fiber.Ctx) error {
	id, err := paramID(c, "product")
	if err != nil {
		return err
	}
	var req featuredRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON()
	}
	if req.Featured == nil {
		return apperror.Invalid("featured is required")
	}

	updated, err := h.service.SetFeatured(c.UserContext(), middleware.Account(c), id, *req.Featured)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "product")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), middleware.Account(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}
