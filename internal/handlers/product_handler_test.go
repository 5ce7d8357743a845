package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stylehub/internal/handlers"
	"stylehub/internal/media"
	"stylehub/internal/middleware"
	"stylehub/internal/models"
	"stylehub/internal/repositories"
	"stylehub/internal/services"
)

const testJWTSecret = "test_jwt_secret"

// testApp bundles the app under test with the doubles the tests assert on.
type testApp struct {
	app       *fiber.App
	uploader  *media.MemoryUploader
	uploadDir string
	users     *repositories.GORMUserRepository
}

// setupApp sets up a Fiber app for testing with an in-memory SQLite database
// and an in-memory media uploader.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// A unique DSN per test keeps the shared-cache databases isolated.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Coupon{}, &models.User{}); err != nil {
		t.Fatalf("Failed to auto-migrate database: %v", err)
	}

	uploader := media.NewMemoryUploader("https://media.test")
	uploadDir := t.TempDir()

	productRepo := repositories.NewGORMProductRepository(db)
	couponRepo := repositories.NewGORMCouponRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	productService := services.NewProductService(productRepo, uploader, nil) // nil for RabbitMQ client
	couponService := services.NewCouponService(couponRepo)
	authService := services.NewAuthService(userRepo, testJWTSecret)

	productHandler := handlers.NewProductHandler(productService, uploadDir)
	couponHandler := handlers.NewCouponHandler(couponService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterRoutes(protectedRoutes)
	couponHandler.RegisterRoutes(protectedRoutes)

	return &testApp{
		app:       app,
		uploader:  uploader,
		uploadDir: uploadDir,
		users:     userRepo,
	}
}

// provisionUserAndLogin creates a user with the given role directly in the
// store (registration never accepts a role) and returns a JWT for it.
func provisionUserAndLogin(t *testing.T, ta *testApp, username, role string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	assert.NoError(t, err)
	assert.NoError(t, ta.users.Create(&models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		Role:     role,
	}))

	return login(t, ta, username, "password123")
}

// login logs a user in through the public endpoint and returns the JWT.
func login(t *testing.T, ta *testApp, username, password string) string {
	t.Helper()

	loginBody, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(loginBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ta.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	resp.Body.Close()
	assert.True(t, loginResp.Success)
	assert.NotEmpty(t, loginResp.Token)
	return loginResp.Token
}

// defaultProductFields returns a complete set of create form fields.
func defaultProductFields() map[string]string {
	return map[string]string{
		"name":        "Shirt",
		"brand":       "Acme",
		"description": "A comfy shirt",
		"colors":      "red,blue",
		"sizes":       "S,M",
		"gender":      "men",
		"price":       "19.99",
		"category":    "tops",
		"stock":       "5",
	}
}

// newMultipartRequest builds a multipart request with the given text fields
// and fake image files attached under the "files" field.
func newMultipartRequest(t *testing.T, method, target, token string, fields map[string]string, fileNames []string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write form field %s: %v", k, err)
		}
	}
	for _, name := range fileNames {
		fw, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("Failed to create form file %s: %v", name, err)
		}
		if _, err := fw.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("Failed to write form file %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

type productEnvelope struct {
	Success bool           `json:"success"`
	Product models.Product `json:"product"`
	Error   string         `json:"error"`
}

type productListEnvelope struct {
	Success  bool             `json:"success"`
	Products []models.Product `json:"products"`
}

func decodeInto(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	resp.Body.Close()
	assert.NoError(t, json.Unmarshal(data, v))
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func TestProductEndpointsWithoutAuth(t *testing.T) {
	app := setupApp(t).app

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/fetch-all", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestProductEndpointsForbiddenForNonAdmin(t *testing.T) {
	ta := setupApp(t)
	app := ta.app
	token := provisionUserAndLogin(t, ta, "regularuser", models.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/fetch-all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateProductWithoutFiles(t *testing.T) {
	ta := setupApp(t)
	app, uploader := ta.app, ta.uploader
	token := provisionUserAndLogin(t, ta, "admin1", models.RoleAdmin)

	req := newMultipartRequest(t, http.MethodPost, "/api/v1/products/create", token, defaultProductFields(), nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var env productEnvelope
	decodeInto(t, resp, &env)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "image is required")
	assert.Equal(t, 0, uploader.UploadCalls())

	// No record was created.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/fetch-all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	var list productListEnvelope
	decodeInto(t, resp, &list)
	assert.True(t, list.Success)
	assert.Empty(t, list.Products)
}

func TestCreateProductMissingFields(t *testing.T) {
	ta := setupApp(t)
	app := ta.app
	token := provisionUserAndLogin(t, ta, "admin2", models.RoleAdmin)

	fields := defaultProductFields()
	delete(fields, "brand")
	req := newMultipartRequest(t, http.MethodPost, "/api/v1/products/create", token, fields, []string{"a.png"})
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var env productEnvelope
	decodeInto(t, resp, &env)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "Validation failed")
}

func TestCreateProductMalformedPrice(t *testing.T) {
	ta := setupApp(t)
	app := ta.app
	token := provisionUserAndLogin(t, ta, "admin3", models.RoleAdmin)

	fields := defaultProductFields()
	fields["price"] = "not-a-number"
	req := newMultipartRequest(t, http.MethodPost, "/api/v1/products/create", token, fields, []string{"a.png"})
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var env productEnvelope
	decodeInto(t, resp, &env)
	assert.False(t, env.Success)
	// Internal detail stays server-side; the client sees a fixed message.
	assert.Equal(t, "Server error", env.Error)
}

func TestProductLifecycle(t *testing.T) {
	ta := setupApp(t)
	app, uploader, uploadDir := ta.app, ta.uploader, ta.uploadDir
	token := provisionUserAndLogin(t, ta, "admin4", models.RoleAdmin)

	// --- Create with two files ---
	req := newMultipartRequest(t, http.MethodPost, "/api/v1/products/create", token, defaultProductFields(), []string{"a.png", "b.png"})
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created productEnvelope
	decodeInto(t, resp, &created)
	assert.True(t, created.Success)
	assert.NotEmpty(t, created.Product.ID)
	assert.Equal(t, 19.99, created.Product.Price)
	assert.Equal(t, 5, created.Product.Stock)
	assert.Equal(t, 0, created.Product.SoldCount)
	assert.Equal(t, float64(0), created.Product.Rating)
	assert.Len(t, created.Product.Images, 2)
	assert.True(t, strings.HasSuffix(created.Product.Images[0], "a.png"))
	assert.True(t, strings.HasSuffix(created.Product.Images[1], "b.png"))
	assert.Equal(t, 2, uploader.UploadCalls())

	// Buffered upload files are gone once the response is out.
	entries, err := os.ReadDir(uploadDir)
	assert.NoError(t, err)
	assert.Empty(t, entries)

	// --- Get by ID round-trips the tokenized lists ---
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/"+created.Product.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched productEnvelope
	decodeInto(t, resp, &fetched)
	assert.Equal(t, models.StringList{"red", "blue"}, fetched.Product.Colors)
	assert.Equal(t, models.StringList{"S", "M"}, fetched.Product.Sizes)

	// --- Update without files keeps the images, overwrites the rest ---
	updateFields := defaultProductFields()
	updateFields["name"] = "Shirt Deluxe"
	updateFields["price"] = "24.99"
	updateFields["colors"] = "green"
	updateFields["soldCount"] = "3"
	updateFields["rating"] = "4.5"
	req = newMultipartRequest(t, http.MethodPut, "/api/v1/products/"+created.Product.ID, token, updateFields, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated productEnvelope
	decodeInto(t, resp, &updated)
	assert.True(t, updated.Success)
	assert.Equal(t, "Shirt Deluxe", updated.Product.Name)
	assert.Equal(t, 24.99, updated.Product.Price)
	assert.Equal(t, 3, updated.Product.SoldCount)
	assert.Equal(t, 4.5, updated.Product.Rating)
	assert.Equal(t, models.StringList{"green"}, updated.Product.Colors)
	assert.Equal(t, created.Product.Images, updated.Product.Images)
	assert.Equal(t, 2, uploader.UploadCalls()) // no new uploads

	// --- Update with a file replaces the images ---
	req = newMultipartRequest(t, http.MethodPut, "/api/v1/products/"+created.Product.ID, token, updateFields, []string{"c.png"})
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var reimaged productEnvelope
	decodeInto(t, resp, &reimaged)
	assert.Len(t, reimaged.Product.Images, 1)
	assert.True(t, strings.HasSuffix(reimaged.Product.Images[0], "c.png"))

	// --- Delete is idempotent in outcome: first 200, second 404 ---
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+created.Product.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+created.Product.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// --- Reads after deletion report not found ---
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/"+created.Product.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUpdateMissingProduct(t *testing.T) {
	ta := setupApp(t)
	app, uploader := ta.app, ta.uploader
	token := provisionUserAndLogin(t, ta, "admin5", models.RoleAdmin)

	fields := defaultProductFields()
	fields["soldCount"] = "0"
	fields["rating"] = "0"
	req := newMultipartRequest(t, http.MethodPut, "/api/v1/products/no-such-id", token, fields, []string{"a.png"})
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var env productEnvelope
	decodeInto(t, resp, &env)
	assert.False(t, env.Success)
	assert.Equal(t, "Product not found", env.Error)
	assert.Equal(t, 0, uploader.UploadCalls())
}

func TestGetMissingProduct(t *testing.T) {
	ta := setupApp(t)
	app := ta.app
	token := provisionUserAndLogin(t, ta, "admin6", models.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/no-such-id", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var env productEnvelope
	decodeInto(t, resp, &env)
	assert.False(t, env.Success)
	assert.Equal(t, "Product not found", env.Error)
}
