package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"stylehub/internal/middleware"
	"stylehub/internal/models"
	"stylehub/internal/repositories"
	"stylehub/internal/services"
)

// CouponHandler handles HTTP requests for coupons.
type CouponHandler struct {
	service  *services.CouponService
	validate *validator.Validate
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(service *services.CouponService) *CouponHandler {
	return &CouponHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the coupon routes with the Fiber app.
// Coupon management requires the super admin role.
func (h *CouponHandler) RegisterRoutes(router fiber.Router) {
	couponRoutes := router.Group("/coupons", middleware.RoleRequired(models.RoleSuperAdmin))
	couponRoutes.Post("/create-coupons", h.HandleCreateCoupon)
	couponRoutes.Get("/fetch-all-coupons", h.HandleFetchAllCoupons)
	couponRoutes.Delete("/:id", h.HandleDeleteCoupon)
}

// HandleCreateCoupon creates a new coupon.
func (h *CouponHandler) HandleCreateCoupon(c *fiber.Ctx) error {
	var coupon models.Coupon
	if err := c.BodyParser(&coupon); err != nil {
		log.Printf("Error parsing create coupon request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if err := h.validate.Struct(coupon); err != nil {
		return validationErrorResponse(c, err)
	}

	if err := h.service.CreateCoupon(&coupon); err != nil {
		log.Printf("Error creating coupon: %v", err)
		return serverErrorResponse(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"coupon":  coupon,
	})
}

// HandleFetchAllCoupons returns the full coupon list.
func (h *CouponHandler) HandleFetchAllCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.GetAllCoupons()
	if err != nil {
		log.Printf("Error fetching all coupons: %v", err)
		return serverErrorResponse(c)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"coupons": coupons,
	})
}

// HandleDeleteCoupon deletes a coupon by its ID.
func (h *CouponHandler) HandleDeleteCoupon(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteCoupon(id); err != nil {
		if errors.Is(err, repositories.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "Coupon not found",
			})
		}
		log.Printf("Error deleting coupon %s: %v", id, err)
		return serverErrorResponse(c)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Coupon deleted successfully",
	})
}
