// Package directory is the customer lookup behind the billing screen's
// client picker.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rengaa-pos/rengaa-pos/internal/billing"
)

// Repository reads clients from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a search term and strips combining accents, so
// "José" and "jose" hit the same name_folded index.
func Fold(term string) string {
	out, _, err := transform.String(foldChain, term)
	if err != nil {
		out = term
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Search matches clients by folded name or phone prefix, most recently
// updated first.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]billing.Client, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	folded := Fold(term)
	if folded == "" {
		return []billing.Client{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(phone,''), COALESCE(email,''),
COALESCE(billing_address,''), COALESCE(delivery_address,''), is_igst
FROM clients
WHERE is_active AND (name_folded LIKE $1 || '%' OR phone LIKE $2 || '%')
ORDER BY updated_at DESC
LIMIT $3`, folded, strings.TrimSpace(term), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	clients := []billing.Client{}
	for rows.Next() {
		var c billing.Client
		if err := rows.Scan(&c.ClientID, &c.Name, &c.Phone, &c.Email,
			&c.BillingAddress, &c.DeliveryAddress, &c.IsIGST); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return clients, nil
}

// Get fetches one client by ID.
func (r *Repository) Get(ctx context.Context, clientID string) (billing.Client, error) {
	var c billing.Client
	err := r.pool.QueryRow(ctx, `SELECT id, name, COALESCE(phone,''), COALESCE(email,''),
COALESCE(billing_address,''), COALESCE(delivery_address,''), is_igst
FROM clients WHERE id=$1 AND is_active`, clientID).
		Scan(&c.ClientID, &c.Name, &c.Phone, &c.Email, &c.BillingAddress, &c.DeliveryAddress, &c.IsIGST)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.Client{}, fmt.Errorf("client %s: %w", clientID, billing.ErrNotFound)
		}
		return billing.Client{}, err
	}
	return c, nil
}
