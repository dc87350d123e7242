// Package catalog serves the pharmacy product list.
package catalog

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// Source fetches the full product list.
type Source interface {
	ListProducts(ctx context.Context) ([]types.Product, error)
}

type Service struct {
	source Source
	cache  Cache
	logg   *logger.Logger
}

// NewService builds the catalog. A nil cache fetches from source on every
// call.
func NewService(source Source, cache Cache, logg *logger.Logger) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{source: source, cache: cache, logg: logg}, nil
}

// List returns the catalog. A failing source is logged and yields an empty
// list so the dashboard still renders.
func (s *Service) List(ctx context.Context) []types.Product {
	products, err := s.products(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "catalog.fetch_failed")
		return []types.Product{}
	}
	if products == nil {
		return []types.Product{}
	}
	return products
}

// Find resolves one product by id. Unlike List it reports source failures,
// since adding an unknown product to the cart must not succeed silently.
func (s *Service) Find(ctx context.Context, id string) (types.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return types.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	products, err := s.products(ctx)
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog unavailable")
		}
		return types.Product{}, err
	}
	for _, p := range products {
		if string(p.ID) == id {
			return p, nil
		}
	}
	return types.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
		WithDetails(map[string]any{"product_id": id})
}

// products serves from the cache when it holds a live entry. Cache failures
// are logged and fall through to the source.
func (s *Service) products(ctx context.Context) ([]types.Product, error) {
	if s.cache != nil {
		cached, found, err := s.cache.Load(ctx)
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "catalog.cache_load_failed")
		}
		if found {
			return cached, nil
		}
	}

	products, err := s.source.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && len(products) > 0 {
		if err := s.cache.Store(ctx, products); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "catalog.cache_store_failed")
		}
	}
	return products, nil
}
