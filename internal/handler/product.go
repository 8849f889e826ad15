package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/nkorolev/catalog-service/internal/catalog"
)

// PriceRequest carries a submitted price. Amount is a pointer on purpose:
// an absent amount means "reference by id only", which is distinct from an
// amount of zero and must be resolved against stored prices.
type PriceRequest struct {
	ID       int64   `json:"id"`
	Amount   *string `json:"amount,omitempty"`
	Currency string  `json:"currency,omitempty" validate:"omitempty,len=3"`
}

type CreateProductRequest struct {
	Name         string        `json:"name" validate:"required"`
	CurrentPrice *PriceRequest `json:"current_price,omitempty"`
}

type PriceResponse struct {
	ID        int64     `json:"id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductResponse never embeds prices' product back-reference, so the JSON
// shape cannot cycle.
type ProductResponse struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	CurrentPrice *PriceResponse `json:"current_price,omitempty"`
}

func (pr *PriceRequest) toDomain(product *catalog.Product) (*catalog.Price, error) {
	if pr == nil {
		return nil, nil
	}
	if pr.Amount == nil {
		return catalog.UnsetPriceRef(pr.ID), nil
	}
	price, err := catalog.NewPrice(product, *pr.Amount, pr.Currency)
	if err != nil {
		return nil, err
	}
	price.ID = pr.ID
	return &price, nil
}

func toPriceResponse(price *catalog.Price) *PriceResponse {
	if price == nil {
		return nil
	}
	return &PriceResponse{
		ID:        price.ID,
		Amount:    price.Amount.StringFixed(2),
		Currency:  price.Currency,
		CreatedAt: price.CreatedAt,
	}
}

func toProductResponse(product catalog.Product) ProductResponse {
	return ProductResponse{
		ID:           product.ID,
		Name:         product.Name,
		CurrentPrice: toPriceResponse(product.CurrentPrice),
	}
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	svc      catalog.Service
	validate *validator.Validate
}

func NewProductHandler(svc catalog.Service) *ProductHandler {
	return &ProductHandler{svc: svc, validate: validator.New()}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Get("/products", h.handleListProducts)
	router.Post("/products", h.handleCreateProduct)
	router.Put("/products/{id}", h.handleUpdateProduct)
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		respondWithError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	response := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		response = append(response, toProductResponse(product))
	}
	respondWithJSON(w, http.StatusOK, response)
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var payload CreateProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		respondValidationError(w, err)
		return
	}

	input := catalog.Product{Name: payload.Name}
	price, err := payload.CurrentPrice.toDomain(&input)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.CurrentPrice = price

	created, err := h.svc.CreateProduct(r.Context(), &input)
	if err != nil {
		log.Error().Err(err).Str("name", payload.Name).Msg("Failed to create product")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, toProductResponse(*created))
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var payload CreateProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		respondValidationError(w, err)
		return
	}

	input := catalog.Product{Name: payload.Name}
	price, err := payload.CurrentPrice.toDomain(&input)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	input.CurrentPrice = price

	updated, err := h.svc.UpdateProduct(r.Context(), id, &input)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to update product")
		respondWithError(w, mapErrorToStatusCode(err), "Failed to update product")
		return
	}

	respondWithJSON(w, http.StatusOK, toProductResponse(*updated))
}
