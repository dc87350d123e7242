package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pshiva123/Intelligent-Diagnosis-System/api/responses"
	"github.com/pshiva123/Intelligent-Diagnosis-System/api/validators"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/cart"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/patients"
	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/pricing"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

type adjustCartItemRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

type cartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Desc      string `json:"desc,omitempty"`
	Image     string `json:"image,omitempty"`
	Price     string `json:"price"`
	UnitPrice int64  `json:"unit_price"`
	Qty       int    `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
}

type cartResponse struct {
	Items        []cartLineResponse `json:"items"`
	Count        int                `json:"count"`
	Total        int64              `json:"total"`
	TotalDisplay string             `json:"total_display"`
	Locked       bool               `json:"locked"`
}

type cartMutationResponse struct {
	Line cartLineResponse `json:"line"`
	Cart cartResponse     `json:"cart"`
}

func newCartLineResponse(line cart.Line) cartLineResponse {
	return cartLineResponse{
		ProductID: string(line.ID),
		Name:      line.Name,
		Desc:      line.Desc,
		Image:     line.Image,
		Price:     string(line.Price),
		UnitPrice: line.UnitPrice(),
		Qty:       line.Qty,
		Subtotal:  line.Subtotal(),
	}
}

func newCartResponse(ws *patients.Workspace) cartResponse {
	snap := ws.Cart()
	items := make([]cartLineResponse, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		items = append(items, newCartLineResponse(line))
	}
	return cartResponse{
		Items:        items,
		Count:        snap.Count,
		Total:        snap.Total,
		TotalDisplay: pricing.Format(snap.Total),
		Locked:       ws.CartLocked(),
	}
}

// CartGet returns the patient's cart.
func CartGet(registry WorkspaceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, newCartResponse(ws))
	}
}

// CartAddItem adds one unit of a catalog product.
func CartAddItem(registry WorkspaceResolver, catalog CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := catalog.Find(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := ws.AddToCart(r.Context(), product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartMutationResponse{Line: newCartLineResponse(line), Cart: newCartResponse(ws)})
	}
}

// CartAdjustItem changes a line's quantity by a signed delta.
func CartAdjustItem(registry WorkspaceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}

		var payload adjustCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := ws.AdjustQty(r.Context(), chi.URLParam(r, "productId"), payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartMutationResponse{Line: newCartLineResponse(line), Cart: newCartResponse(ws)})
	}
}

// CartClear empties the cart.
func CartClear(registry WorkspaceResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := workspaceFor(w, r, registry, logg)
		if !ok {
			return
		}
		if err := ws.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(ws))
	}
}
