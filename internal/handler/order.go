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
	"github.com/nkorolev/catalog-service/internal/order"
)

type ProductRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type OrderItemRequest struct {
	Price    *PriceRequest `json:"price" validate:"required"`
	Product  *ProductRef   `json:"product"`
	Quantity *int          `json:"quantity"`
}

// CreateOrderRequest accepts a created_at field but never maps it: the
// server clock decides when an order was created.
type CreateOrderRequest struct {
	BuyersEmail string             `json:"buyers_email" validate:"required,email"`
	CreatedAt   *time.Time         `json:"created_at"`
	OrderItems  []OrderItemRequest `json:"order_items" validate:"dive"`
}

type OrderItemResponse struct {
	ID       int64          `json:"id"`
	Price    *PriceResponse `json:"price"`
	Product  *ProductRef    `json:"product"`
	Quantity int            `json:"quantity"`
}

type OrderResponse struct {
	ID          int64               `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	BuyersEmail string              `json:"buyers_email"`
	OrderItems  []OrderItemResponse `json:"order_items"`
	TotalAmount string              `json:"total_amount"`
}

func toOrderResponse(o order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		var productRef *ProductRef
		if item.Product != nil {
			productRef = &ProductRef{ID: item.Product.ID, Name: item.Product.Name}
		}
		items = append(items, OrderItemResponse{
			ID:       item.ID,
			Price:    toPriceResponse(item.Price),
			Product:  productRef,
			Quantity: item.Quantity,
		})
	}
	return OrderResponse{
		ID:          o.ID,
		CreatedAt:   o.CreatedAt,
		BuyersEmail: o.BuyersEmail,
		OrderItems:  items,
		TotalAmount: o.TotalAmount.StringFixed(2),
	}
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	svc      order.Service
	validate *validator.Validate
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc, validate: validator.New()}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Get("/orders", h.handleListOrders)
	router.Post("/orders", h.handleCreateOrder)
	router.Get("/orders/{id}", h.handleGetOrderByID)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	after, err := time.Parse(time.RFC3339, r.URL.Query().Get("after"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query param 'after' must be an RFC3339 timestamp")
		return
	}
	before, err := time.Parse(time.RFC3339, r.URL.Query().Get("before"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Query param 'before' must be an RFC3339 timestamp")
		return
	}

	orders, err := h.svc.ListOrdersBetween(r.Context(), after, before)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list orders")
		respondWithError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}

	response := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	respondWithJSON(w, http.StatusOK, response)
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var payload CreateOrderRequest

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

	submitted := order.Order{BuyersEmail: payload.BuyersEmail}
	for _, itemPayload := range payload.OrderItems {
		price, err := itemPayload.Price.toDomain(nil)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		var product *catalog.Product
		if itemPayload.Product != nil {
			product = &catalog.Product{ID: itemPayload.Product.ID, Name: itemPayload.Product.Name}
			if price != nil {
				price.Product = product
			}
		}

		quantity := order.UnsetQuantity
		if itemPayload.Quantity != nil {
			quantity = *itemPayload.Quantity
		}

		submitted.Items = append(submitted.Items, order.OrderItem{
			Price:    price,
			Product:  product,
			Quantity: quantity,
		})
	}

	created, err := h.svc.CreateOrder(r.Context(), &submitted)
	if err != nil {
		if errors.Is(err, catalog.ErrPriceNotFound) {
			respondWithError(w, http.StatusBadRequest, "Order references an unknown price")
			return
		}
		log.Error().Err(err).Msg("Failed to create order")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, toOrderResponse(*created))
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	found, err := h.svc.GetOrderByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Int64("order_id", id).Msg("Failed to get order")
		respondWithError(w, http.StatusInternalServerError, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, toOrderResponse(*found))
}
