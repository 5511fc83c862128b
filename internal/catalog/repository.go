// Package catalog resolves products for the billing screen: by ID when
// picked from a list, by barcode when scanned.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rengaa-pos/rengaa-pos/internal/billing"
)

// ErrProductNotFound indicates no product matched the lookup.
var ErrProductNotFound = errors.New("product not found")

// Repository reads products and branch price lists from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `p.id, p.name, p.barcode,
COALESCE(bp.sale_price, p.sale_price, 0), p.mrp, COALESCE(p.discount_pct, 0),
COALESCE(p.cgst_rate, 0), COALESCE(p.sgst_rate, 0)`

// GetByID fetches one product with the branch price overlay applied.
func (r *Repository) GetByID(ctx context.Context, branch billing.BranchRef, productID string) (billing.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+`
FROM products p
LEFT JOIN branch_prices bp ON bp.product_id = p.id AND bp.branch_id = $2
WHERE p.id = $1 AND p.is_active`, productID, branch.BranchID)
	return scanProduct(row, productID)
}

// GetByBarcode resolves a scanned barcode to a product.
func (r *Repository) GetByBarcode(ctx context.Context, branch billing.BranchRef, barcode string) (billing.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+`
FROM products p
LEFT JOIN branch_prices bp ON bp.product_id = p.id AND bp.branch_id = $2
WHERE p.barcode = $1 AND p.is_active`, barcode, branch.BranchID)
	return scanProduct(row, barcode)
}

func scanProduct(row pgx.Row, ref string) (billing.Product, error) {
	var p billing.Product
	if err := row.Scan(&p.ProductID, &p.ProductName, &p.Barcode, &p.SalePrice, &p.MRP,
		&p.DiscountPct, &p.CGSTRate, &p.SGSTRate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.Product{}, fmt.Errorf("%q: %w", ref, ErrProductNotFound)
		}
		return billing.Product{}, err
	}
	return p, nil
}
