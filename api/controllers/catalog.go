package controllers

import (
	"context"
	"net/http"

	"github.com/pshiva123/Intelligent-Diagnosis-System/api/responses"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// CatalogService lists and resolves pharmacy products.
type CatalogService interface {
	List(ctx context.Context) []types.Product
	Find(ctx context.Context, id string) (types.Product, error)
}

// CatalogList returns the product list. It never fails; an unreachable
// backend yields an empty list.
func CatalogList(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products := []types.Product{}
		if svc != nil {
			products = svc.List(r.Context())
		}
		responses.WriteSuccess(w, map[string]any{"products": products})
	}
}
