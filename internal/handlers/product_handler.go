package handlers

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"stylehub/internal/middleware"
	"stylehub/internal/models"
	"stylehub/internal/repositories"
	"stylehub/internal/services"
)

// filesField is the multipart field carrying the attached image files.
const filesField = "files"

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service   *services.ProductService
	validate  *validator.Validate
	uploadDir string
}

// NewProductHandler creates a new ProductHandler. uploadDir is where
// multipart files are buffered before being sent to the media host.
func NewProductHandler(service *services.ProductService, uploadDir string) *ProductHandler {
	return &ProductHandler{
		service:   service,
		validate:  validator.New(),
		uploadDir: uploadDir,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
// All product routes require an admin role.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products", middleware.RoleRequired(models.RoleAdmin, models.RoleSuperAdmin))
	productRoutes.Post("/create", h.HandleCreateProduct)
	productRoutes.Get("/fetch-all", h.HandleFetchAllProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// ProductForm represents the multipart text fields for a product create.
// Every field is required; numeric fields are parsed by the service.
type ProductForm struct {
	Name        string `form:"name" validate:"required"`
	Brand       string `form:"brand" validate:"required"`
	Description string `form:"description" validate:"required"`
	Colors      string `form:"colors" validate:"required"`
	Sizes       string `form:"sizes" validate:"required"`
	Gender      string `form:"gender" validate:"required"`
	Price       string `form:"price" validate:"required"`
	Category    string `form:"category" validate:"required"`
	Stock       string `form:"stock" validate:"required"`
}

// ProductUpdateForm represents the multipart text fields for a product
// update. Update is a deliberate full-overwrite contract: every field is
// required on every call, files stay optional.
type ProductUpdateForm struct {
	Name        string `form:"name" validate:"required"`
	Brand       string `form:"brand" validate:"required"`
	Description string `form:"description" validate:"required"`
	Colors      string `form:"colors" validate:"required"`
	Sizes       string `form:"sizes" validate:"required"`
	Gender      string `form:"gender" validate:"required"`
	Price       string `form:"price" validate:"required"`
	Category    string `form:"category" validate:"required"`
	Stock       string `form:"stock" validate:"required"`
	SoldCount   string `form:"soldCount" validate:"required"`
	Rating      string `form:"rating" validate:"required"`
}

// HandleCreateProduct creates a new product from a multipart request with
// one or more attached image files.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid multipart form",
		})
	}

	files := form.File[filesField]
	if len(files) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "At least one image is required",
		})
	}

	var req ProductForm
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	paths, err := h.saveUploads(c, files)
	if err != nil {
		log.Printf("Error buffering uploads: %v", err)
		return serverErrorResponse(c)
	}
	// Local temp files are best-effort garbage: removing them must never
	// fail the request once the product is durably persisted.
	defer cleanupUploads(paths)

	product, err := h.service.CreateProduct(c.UserContext(), services.ProductInput{
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
		Gender:      req.Gender,
		Category:    req.Category,
		Colors:      req.Colors,
		Sizes:       req.Sizes,
		Price:       req.Price,
		Stock:       req.Stock,
		FilePaths:   paths,
	})
	if err != nil {
		log.Printf("Error creating product: %v", err)
		return serverErrorResponse(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleFetchAllProducts returns the full unfiltered product list.
func (h *ProductHandler) HandleFetchAllProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error fetching all products: %v", err)
		return serverErrorResponse(c)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.service.GetProductByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return productNotFoundResponse(c)
		}
		log.Printf("Error getting product by ID %s: %v", id, err)
		return serverErrorResponse(c)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleUpdateProduct overwrites every field of an existing product. Newly
// attached files replace the images; without files the stored images are
// retained.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid multipart form",
		})
	}
	files := form.File[filesField]

	var req ProductUpdateForm
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return validationErrorResponse(c, err)
	}

	var paths []string
	if len(files) > 0 {
		paths, err = h.saveUploads(c, files)
		if err != nil {
			log.Printf("Error buffering uploads: %v", err)
			return serverErrorResponse(c)
		}
		defer cleanupUploads(paths)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, services.ProductUpdateInput{
		ProductInput: services.ProductInput{
			Name:        req.Name,
			Brand:       req.Brand,
			Description: req.Description,
			Gender:      req.Gender,
			Category:    req.Category,
			Colors:      req.Colors,
			Sizes:       req.Sizes,
			Price:       req.Price,
			Stock:       req.Stock,
			FilePaths:   paths,
		},
		SoldCount: req.SoldCount,
		Rating:    req.Rating,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return productNotFoundResponse(c)
		}
		log.Printf("Error updating product %s: %v", id, err)
		return serverErrorResponse(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleDeleteProduct deletes a product by its ID. Remotely hosted images
// are left in place on the media host.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(id); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return productNotFoundResponse(c)
		}
		log.Printf("Error deleting product %s: %v", id, err)
		return serverErrorResponse(c)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}

// saveUploads buffers every attached file under the handler's upload
// directory, keeping the original base name for traceability. On failure the
// already-buffered files are removed.
func (h *ProductHandler) saveUploads(c *fiber.Ctx, files []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, file := range files {
		path := filepath.Join(h.uploadDir, uuid.New().String()+"-"+filepath.Base(file.Filename))
		if err := c.SaveFile(file, path); err != nil {
			cleanupUploads(paths)
			return nil, fmt.Errorf("failed to buffer upload %s: %w", file.Filename, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// cleanupUploads best-effort removes buffered upload files. Failures are
// logged and never propagate.
func cleanupUploads(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			log.Printf("Warning: failed to remove buffered upload %s: %v", p, err)
		}
	}
}

func productNotFoundResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error":   "Product not found",
	})
}

func serverErrorResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   "Server error",
	})
}

func validationErrorResponse(c *fiber.Ctx, err error) error {
	errorMessages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   "Validation failed",
		"fields":  errorMessages,
	})
}
