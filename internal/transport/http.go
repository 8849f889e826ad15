package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkorolev/catalog-service/internal/catalog"
	"github.com/nkorolev/catalog-service/internal/handler"
	"github.com/nkorolev/catalog-service/internal/order"
)

func NewRouter(db *pgxpool.Pool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	productRepo := catalog.NewProductRepository(db)
	priceRepo := catalog.NewPriceRepository(db)
	pricing := catalog.NewPriceManager(priceRepo)
	productSvc := catalog.NewService(productRepo, pricing)

	orderRepo := order.NewRepository(db)
	orderSvc := order.NewService(orderRepo, priceRepo)

	handler.NewProductHandler(productSvc).RegisterRoutes(r)
	handler.NewOrderHandler(orderSvc).RegisterRoutes(r)

	return r
}
