package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Service interface {
	ListProducts(ctx context.Context) ([]Product, error)
	CreateProduct(ctx context.Context, input *Product) (*Product, error)
	UpdateProduct(ctx context.Context, id int64, input *Product) (*Product, error)
}

type service struct {
	products ProductRepository
	pricing  *PriceManager
}

func NewService(products ProductRepository, pricing *PriceManager) Service {
	return &service{products: products, pricing: pricing}
}

func (s *service) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.products.FindAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list products")
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

func (s *service) CreateProduct(ctx context.Context, input *Product) (*Product, error) {
	if input.Name == "" {
		return nil, errors.New("service: product name is required")
	}

	candidate := input.CurrentPrice

	saved, err := s.products.Save(ctx, &Product{Name: input.Name})
	if err != nil {
		log.Error().Err(err).Str("name", input.Name).Msg("service: failed to create product")
		return nil, fmt.Errorf("service: failed to create product: %w", err)
	}

	price, err := s.pricing.SaveNewProductPrice(ctx, &Product{ID: saved.ID, Name: saved.Name, CurrentPrice: candidate})
	if err != nil {
		return nil, fmt.Errorf("service: failed to save price for new product: %w", err)
	}

	log.Info().Int64("product_id", saved.ID).Str("name", saved.Name).Msg("service: product created")
	return &Product{ID: saved.ID, Name: saved.Name, CurrentPrice: price}, nil
}

func (s *service) UpdateProduct(ctx context.Context, id int64, input *Product) (*Product, error) {
	stored, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			log.Warn().Int64("product_id", id).Msg("service: update targets a missing product")
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch product %d: %w", id, err)
	}

	resolved, err := s.pricing.ResolvePriceForUpdate(ctx, input, stored)
	if err != nil {
		return nil, fmt.Errorf("service: failed to resolve price for product %d: %w", id, err)
	}

	renamed := &Product{ID: id, Name: input.Name, CurrentPrice: resolved}
	if _, err := s.products.Save(ctx, renamed); err != nil {
		log.Error().Err(err).Int64("product_id", id).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product %d: %w", id, err)
	}

	return renamed, nil
}
