package invoicestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rengaa-pos/rengaa-pos/internal/billing"
)

// Numbering issues sequential invoice numbers from a per-branch-per-date
// counter row. Numbers follow YYMMDD + zero-padded sequence, matching
// the engine's local fallback so a remote number and a fallback number
// never look different to the operator.
type Numbering struct {
	pool *pgxpool.Pool
}

// NewNumbering constructs the numbering service.
func NewNumbering(pool *pgxpool.Pool) *Numbering {
	return &Numbering{pool: pool}
}

// NextInvoiceNo bumps the counter for (branch, date) and formats the
// number. The upsert keeps concurrent terminals from ever seeing the
// same sequence value.
func (n *Numbering) NextInvoiceNo(ctx context.Context, branch billing.BranchRef, invoiceDate string) (string, error) {
	var seq int
	err := n.pool.QueryRow(ctx, `INSERT INTO invoice_counters (company_id, state_id, branch_id, invoice_date, last_seq)
VALUES ($1,$2,$3,$4,1)
ON CONFLICT (company_id, state_id, branch_id, invoice_date)
DO UPDATE SET last_seq = invoice_counters.last_seq + 1
RETURNING last_seq`,
		branch.CompanyID, branch.StateID, branch.BranchID, invoiceDate).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("invoicestore: next number: %w", err)
	}
	digits := strings.ReplaceAll(invoiceDate, "-", "")
	if len(digits) != 8 {
		return "", fmt.Errorf("invoicestore: bad invoice date %q", invoiceDate)
	}
	return fmt.Sprintf("%s%03d", digits[2:], seq), nil
}
