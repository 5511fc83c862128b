// Package invoicestore persists invoices in PostgreSQL and implements
// the billing engine's remote store and numbering ports.
package invoicestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rengaa-pos/rengaa-pos/internal/billing"
	"github.com/rengaa-pos/rengaa-pos/internal/platform/db"
)

const uniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateInvoice inserts the header and its items in one transaction and
// returns the generated invoice ID.
func (r *Repository) CreateInvoice(ctx context.Context, p billing.InvoicePayload) (string, error) {
	var id string
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `INSERT INTO invoices
(company_id, state_id, branch_id, invoice_date, invoice_no, status, is_igst, discount_pct_override,
 client_id, customer_name, customer_phone, customer_email, billing_address, delivery_address,
 payment_mode, remarks, gross_amount, discount_amount, taxable_amount, cgst_amount, sgst_amount,
 igst_amount, gst_amount, net_amount, paid_amount, balance_amount, created_by, updated_by)
VALUES ($1,$2,$3,$4,$5,'ACTIVE',$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$26)
RETURNING id`,
			p.Branch.CompanyID, p.Branch.StateID, p.Branch.BranchID, p.InvoiceDate, p.InvoiceNo,
			p.IsIGST, p.DiscountPctOverride,
			nullStr(p.ClientID), p.CustomerName, nullStr(p.CustomerPhone), nullStr(p.CustomerEmail),
			nullStr(p.BillingAddress), nullStr(p.DeliveryAddress),
			p.PaymentMode, nullStr(p.Remarks),
			p.Totals.Gross, p.Totals.Discount, p.Totals.Taxable, p.Totals.CGST, p.Totals.SGST,
			p.Totals.IGST, p.Totals.GST, p.Totals.Net, p.PaidAmount, p.BalanceAmount,
			p.UpdatedBy).Scan(&id); err != nil {
			return mapPgError(err)
		}
		return insertItems(ctx, tx, id, p.Lines)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateInvoice rewrites the header and replaces every item.
func (r *Repository) UpdateInvoice(ctx context.Context, invoiceID string, p billing.InvoicePayload) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE invoices SET
invoice_date=$2, invoice_no=$3, is_igst=$4, discount_pct_override=$5,
client_id=$6, customer_name=$7, customer_phone=$8, customer_email=$9,
billing_address=$10, delivery_address=$11, payment_mode=$12, remarks=$13,
gross_amount=$14, discount_amount=$15, taxable_amount=$16, cgst_amount=$17, sgst_amount=$18,
igst_amount=$19, gst_amount=$20, net_amount=$21, paid_amount=$22, balance_amount=$23,
updated_by=$24, updated_at=NOW()
WHERE id=$1 AND status='ACTIVE'`,
			invoiceID, p.InvoiceDate, p.InvoiceNo, p.IsIGST, p.DiscountPctOverride,
			nullStr(p.ClientID), p.CustomerName, nullStr(p.CustomerPhone), nullStr(p.CustomerEmail),
			nullStr(p.BillingAddress), nullStr(p.DeliveryAddress), p.PaymentMode, nullStr(p.Remarks),
			p.Totals.Gross, p.Totals.Discount, p.Totals.Taxable, p.Totals.CGST, p.Totals.SGST,
			p.Totals.IGST, p.Totals.GST, p.Totals.Net, p.PaidAmount, p.BalanceAmount,
			p.UpdatedBy)
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("invoice %s: %w", invoiceID, billing.ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id=$1`, invoiceID); err != nil {
			return err
		}
		return insertItems(ctx, tx, invoiceID, p.Lines)
	})
}

// DeleteInvoiceByNumber soft-deletes the active invoice matching the
// compound key. Items stay on the record for later inspection.
func (r *Repository) DeleteInvoiceByNumber(ctx context.Context, key billing.InvoiceKey, updatedBy string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET status='DELETED', updated_by=$6, updated_at=NOW()
WHERE company_id=$1 AND state_id=$2 AND branch_id=$3 AND invoice_date=$4 AND invoice_no=$5 AND status='ACTIVE'`,
		key.Branch.CompanyID, key.Branch.StateID, key.Branch.BranchID, key.InvoiceDate, key.InvoiceNo, updatedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s on %s: %w", key.InvoiceNo, key.InvoiceDate, billing.ErrNotFound)
	}
	return nil
}

// GetInvoiceByNumber fetches one invoice with its items by compound key
// and status filter.
func (r *Repository) GetInvoiceByNumber(ctx context.Context, key billing.InvoiceKey, status billing.LoadStatus) (*billing.StoredInvoice, error) {
	inv := billing.StoredInvoice{}
	var (
		clientID, phone, email, billAddr, delivAddr, remarks *string
		st                                                   string
	)
	err := r.pool.QueryRow(ctx, `SELECT id, invoice_date::text, invoice_no, status, is_igst, discount_pct_override,
client_id, customer_name, customer_phone, customer_email, billing_address, delivery_address,
payment_mode, remarks, paid_amount
FROM invoices
WHERE company_id=$1 AND state_id=$2 AND branch_id=$3 AND invoice_date=$4 AND invoice_no=$5 AND status=$6`,
		key.Branch.CompanyID, key.Branch.StateID, key.Branch.BranchID, key.InvoiceDate, key.InvoiceNo, string(status)).
		Scan(&inv.InvoiceID, &inv.InvoiceDate, &inv.InvoiceNo, &st, &inv.IsIGST, &inv.DiscountPctOverride,
			&clientID, &inv.CustomerName, &phone, &email, &billAddr, &delivAddr,
			&inv.PaymentMode, &remarks, &inv.PaidAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s on %s: %w", key.InvoiceNo, key.InvoiceDate, billing.ErrNotFound)
		}
		return nil, err
	}
	inv.Status = billing.LoadStatus(st)
	inv.ClientID = deref(clientID)
	inv.CustomerPhone = deref(phone)
	inv.CustomerEmail = deref(email)
	inv.BillingAddress = deref(billAddr)
	inv.DeliveryAddress = deref(delivAddr)
	inv.Remarks = deref(remarks)

	rows, err := r.pool.Query(ctx, `SELECT line_id, product_id, product_name, barcode, quantity, uom,
unit_price, mrp, discount_pct, cgst_rate, sgst_rate
FROM invoice_items WHERE invoice_id=$1 ORDER BY id ASC`, inv.InvoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l billing.LineItem
		if err := rows.Scan(&l.ID, &l.ProductID, &l.ProductName, &l.Barcode, &l.Quantity, &l.UOM,
			&l.UnitPrice, &l.MRP, &l.DiscountPct, &l.CGSTRate, &l.SGSTRate); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &inv, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, invoiceID string, lines []billing.LineItem) error {
	for _, l := range lines {
		if _, err := tx.Exec(ctx, `INSERT INTO invoice_items
(invoice_id, line_id, product_id, product_name, barcode, quantity, uom, unit_price, mrp,
 discount_pct, cgst_rate, sgst_rate, gross_amount, discount_amount, taxable_amount,
 cgst_amount, sgst_amount, igst_amount, tax_amount, line_total)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
			invoiceID, l.ID, l.ProductID, l.ProductName, l.Barcode, l.Quantity, l.UOM, l.UnitPrice, l.MRP,
			l.DiscountPct, l.CGSTRate, l.SGSTRate, l.GrossAmount, l.DiscountAmount, l.TaxableAmount,
			l.CGSTAmount, l.SGSTAmount, l.IGSTAmount, l.TaxAmount, l.LineTotal); err != nil {
			return err
		}
	}
	return nil
}

// mapPgError folds duplicate-number violations into the guard error so
// a retried save surfaces as a conflict, not a server fault.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: invoice number already used for this branch and date", billing.ErrGuard)
	}
	return err
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
