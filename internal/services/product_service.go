package services

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"stylehub/internal/media"
	"stylehub/internal/models"
	"stylehub/internal/repositories"
	"stylehub/pkg/rabbitmq"
)

// uploadFolder is the logical folder on the media host for product images.
const uploadFolder = "ecommerce"

// ProductInput carries the raw form fields for a product create request.
// Numeric fields arrive as text and are parsed by the service.
type ProductInput struct {
	Name        string
	Brand       string
	Description string
	Gender      string
	Category    string
	Colors      string
	Sizes       string
	Price       string
	Stock       string
	FilePaths   []string
}

// ProductUpdateInput carries the raw form fields for a product update.
// Update is a full overwrite: every field is required on every call, except
// files, which are optional and replace the images only when present.
type ProductUpdateInput struct {
	ProductInput
	SoldCount string
	Rating    string
}

// ProductService handles business logic related to products: the image
// upload pipeline, field parsing and persistence.
type ProductService struct {
	repo     repositories.ProductRepository
	uploader media.Uploader
	mqClient *rabbitmq.Client
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, uploader media.Uploader, mqClient *rabbitmq.Client) *ProductService {
	return &ProductService{
		repo:     repo,
		uploader: uploader,
		mqClient: mqClient,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct uploads all attached files concurrently, then persists a new
// product with the returned image URLs in upload order. If any upload fails,
// already-uploaded assets are removed best-effort and nothing is persisted.
func (s *ProductService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	price, err := parseNonNegativeFloat("price", input.Price)
	if err != nil {
		return nil, err
	}
	stock, err := parseNonNegativeInt("stock", input.Stock)
	if err != nil {
		return nil, err
	}

	urls, publicIDs, err := s.uploadAll(ctx, input.FilePaths)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        input.Name,
		Brand:       input.Brand,
		Category:    input.Category,
		Description: input.Description,
		Gender:      input.Gender,
		Sizes:       splitTokens(input.Sizes),
		Colors:      splitTokens(input.Colors),
		Price:       price,
		Stock:       stock,
		SoldCount:   0,
		Rating:      0,
		Images:      urls,
	}

	if err := s.repo.Create(product); err != nil {
		s.retractUploads(publicIDs)
		return nil, fmt.Errorf("failed to create product in repository: %w", err)
	}

	s.publishEvent("product.created", product)
	return product, nil
}

// UpdateProduct overwrites every field of an existing product. Newly attached
// files replace the images; without files the previous images are carried
// over unchanged.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input ProductUpdateInput) (*models.Product, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	price, err := parseNonNegativeFloat("price", input.Price)
	if err != nil {
		return nil, err
	}
	stock, err := parseNonNegativeInt("stock", input.Stock)
	if err != nil {
		return nil, err
	}
	soldCount, err := parseNonNegativeInt("soldCount", input.SoldCount)
	if err != nil {
		return nil, err
	}
	rating, err := parseNonNegativeFloat("rating", input.Rating)
	if err != nil {
		return nil, err
	}

	images := existing.Images
	var publicIDs []string
	if len(input.FilePaths) > 0 {
		images, publicIDs, err = s.uploadAll(ctx, input.FilePaths)
		if err != nil {
			return nil, err
		}
	}

	updated := &models.Product{
		ID:          existing.ID,
		Name:        input.Name,
		Brand:       input.Brand,
		Category:    input.Category,
		Description: input.Description,
		Gender:      input.Gender,
		Sizes:       splitTokens(input.Sizes),
		Colors:      splitTokens(input.Colors),
		Price:       price,
		Stock:       stock,
		SoldCount:   soldCount,
		Rating:      rating,
		Images:      images,
		Model:       existing.Model,
	}

	if err := s.repo.Update(updated); err != nil {
		s.retractUploads(publicIDs)
		return nil, fmt.Errorf("failed to update product in repository: %w", err)
	}

	s.publishEvent("product.updated", updated)
	return updated, nil
}

// DeleteProduct deletes a product by its ID. Remotely hosted images are not
// cleaned up and remain orphaned on the media host.
func (s *ProductService) DeleteProduct(id string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.publishEvent("product.deleted", &models.Product{ID: id})
	return nil
}

// uploadAll uploads every file concurrently and fail-fast: the first error
// cancels the join, already-uploaded assets are removed best-effort, and no
// partial result is returned. Result order matches input order.
func (s *ProductService) uploadAll(ctx context.Context, paths []string) (models.StringList, []string, error) {
	urls := make([]string, len(paths))
	publicIDs := make([]string, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := s.uploader.Upload(ctx, path, uploadFolder)
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", filepath.Base(path), err)
			}
			urls[i] = res.URL
			publicIDs[i] = res.PublicID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.retractUploads(publicIDs)
		return nil, nil, err
	}

	return models.StringList(urls), publicIDs, nil
}

// retractUploads best-effort deletes remote assets after an aborted
// operation so they don't linger unreferenced on the media host.
func (s *ProductService) retractUploads(publicIDs []string) {
	for _, id := range publicIDs {
		if id == "" {
			continue
		}
		if err := s.uploader.Delete(context.Background(), id); err != nil {
			log.Printf("Warning: failed to remove orphaned upload %s: %v", id, err)
		}
	}
}

// publishEvent best-effort publishes a product lifecycle event. Publishing
// failures are logged and never fail the operation.
func (s *ProductService) publishEvent(event string, product *models.Product) {
	if s.mqClient == nil {
		return
	}
	payload := map[string]interface{}{
		"productID": product.ID,
		"name":      product.Name,
	}
	if err := s.mqClient.PublishProductEvent(event, payload); err != nil {
		log.Printf("Warning: failed to publish %s event for product %s: %v", event, product.ID, err)
	}
}

// splitTokens tokenizes a comma-delimited string: tokens are trimmed, empty
// tokens are dropped and duplicates keep their first occurrence.
func splitTokens(s string) models.StringList {
	seen := make(map[string]struct{})
	tokens := models.StringList{}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

func parseNonNegativeFloat(field, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s %q: %w", field, value, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %v", field, v)
	}
	return v, nil
}

func parseNonNegativeInt(field, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s %q: %w", field, value, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", field, v)
	}
	return v, nil
}
