package backend

import (
	"context"
	"net/http"

	pkgerrors "github.com/pshiva123/Intelligent-Diagnosis-System/pkg/errors"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/types"
)

// ListProducts fetches the pharmacy catalog. Entries missing an id or name are
// dropped rather than failing the whole list.
func (c *Client) ListProducts(ctx context.Context) ([]types.Product, error) {
	const op = "list_medicines"
	c.log(ctx, "request", op, nil)

	var resp medicinesResponse
	if err := c.do(ctx, op, http.MethodGet, "/medicines", nil, &resp); err != nil {
		return nil, c.mapError(err, pkgerrors.CodeDependency, op)
	}

	products := make([]types.Product, 0, len(resp.Products))
	dropped := 0
	for _, p := range resp.Products {
		if err := c.validate.Struct(p); err != nil {
			dropped++
			continue
		}
		products = append(products, p)
	}

	c.log(ctx, "response", op, map[string]any{"products": len(products), "dropped": dropped})
	return products, nil
}
