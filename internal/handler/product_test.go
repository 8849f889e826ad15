package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/nkorolev/catalog-service/internal/catalog"
)

type mockCatalogService struct {
	listProductsFunc  func(ctx context.Context) ([]catalog.Product, error)
	createProductFunc func(ctx context.Context, input *catalog.Product) (*catalog.Product, error)
	updateProductFunc func(ctx context.Context, id int64, input *catalog.Product) (*catalog.Product, error)
}

func (m *mockCatalogService) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return m.listProductsFunc(ctx)
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, input *catalog.Product) (*catalog.Product, error) {
	return m.createProductFunc(ctx, input)
}

func (m *mockCatalogService) UpdateProduct(ctx context.Context, id int64, input *catalog.Product) (*catalog.Product, error) {
	return m.updateProductFunc(ctx, id, input)
}

func testProductWithPrice() *catalog.Product {
	product := &catalog.Product{ID: 1, Name: "Widget"}
	product.CurrentPrice = &catalog.Price{
		ID:        5,
		Product:   product,
		Amount:    mustDecimal("20.20"),
		Currency:  "GBP",
		CreatedAt: time.Date(2025, 4, 16, 12, 0, 0, 0, time.UTC),
	}
	return product
}

func TestProductHandler_ListProducts(t *testing.T) {
	mockSvc := &mockCatalogService{
		listProductsFunc: func(ctx context.Context) ([]catalog.Product, error) {
			return []catalog.Product{*testProductWithPrice(), {ID: 2, Name: "Gadget"}}, nil
		},
	}

	r := chi.NewRouter()
	NewProductHandler(mockSvc).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[
		{"id":1,"name":"Widget","current_price":{"id":5,"amount":"20.20","currency":"GBP","created_at":"2025-04-16T12:00:00Z"}},
		{"id":2,"name":"Gadget"}
	]`, w.Body.String())
}

func TestProductHandler_CreateProduct(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		createProduct  func(ctx context.Context, input *catalog.Product) (*catalog.Product, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: `{"name":"Widget","current_price":{"amount":"20.20","currency":"GBP"}}`,
			createProduct: func(ctx context.Context, input *catalog.Product) (*catalog.Product, error) {
				return testProductWithPrice(), nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "without_price",
			body: `{"name":"Widget"}`,
			createProduct: func(ctx context.Context, input *catalog.Product) (*catalog.Product, error) {
				return &catalog.Product{ID: 1, Name: "Widget"}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid_json",
			body:           `{invalid json}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing_name",
			body:           `{"current_price":{"amount":"20.20","currency":"GBP"}}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown_currency",
			body:           `{"name":"Widget","current_price":{"amount":"20.20","currency":"Broken"}}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed_amount",
			body:           `{"name":"Widget","current_price":{"amount":"twenty","currency":"GBP"}}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockCatalogService{createProductFunc: tt.createProduct}

			r := chi.NewRouter()
			NewProductHandler(mockSvc).RegisterRoutes(r)

			req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestProductHandler_UpdateProduct(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		body           string
		updateProduct  func(ctx context.Context, id int64, input *catalog.Product) (*catalog.Product, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "success",
			target: "/products/1",
			body:   `{"name":"Widget","current_price":{"amount":"20.20","currency":"GBP"}}`,
			updateProduct: func(ctx context.Context, id int64, input *catalog.Product) (*catalog.Product, error) {
				return testProductWithPrice(), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"id":1,"name":"Widget","current_price":{"id":5,"amount":"20.20","currency":"GBP","created_at":"2025-04-16T12:00:00Z"}}`,
		},
		{
			name:   "not_found",
			target: "/products/99",
			body:   `{"name":"Widget"}`,
			updateProduct: func(ctx context.Context, id int64, input *catalog.Product) (*catalog.Product, error) {
				return nil, catalog.ErrProductNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"Product not found"}`,
		},
		{
			name:           "invalid_id",
			target:         "/products/abc",
			body:           `{"name":"Widget"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid product id"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockCatalogService{updateProductFunc: tt.updateProduct}

			r := chi.NewRouter()
			NewProductHandler(mockSvc).RegisterRoutes(r)

			req := httptest.NewRequest(http.MethodPut, tt.target, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
