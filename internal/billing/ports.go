package billing

import "context"

// InvoiceKey is the compound key the remote store addresses invoices by.
type InvoiceKey struct {
	Branch      BranchRef
	InvoiceDate string
	InvoiceNo   string
}

// InvoicePayload is the create/update body handed to the remote store:
// header fields, header totals and the normalized line list.
type InvoicePayload struct {
	Branch              BranchRef  `json:"branch"`
	InvoiceDate         string     `json:"invoice_date"`
	InvoiceNo           string     `json:"invoice_no"`
	IsIGST              bool       `json:"is_igst"`
	DiscountPctOverride *float64   `json:"invoice_discount_pct,omitempty"`
	ClientID            string     `json:"client_id,omitempty"`
	CustomerName        string     `json:"customer_name,omitempty"`
	CustomerPhone       string     `json:"customer_phone,omitempty"`
	CustomerEmail       string     `json:"customer_email,omitempty"`
	BillingAddress      string     `json:"billing_address,omitempty"`
	DeliveryAddress     string     `json:"delivery_address,omitempty"`
	PaymentMode         string     `json:"payment_mode"`
	Remarks             string     `json:"remarks,omitempty"`
	Totals              Totals     `json:"totals"`
	PaidAmount          float64    `json:"paid_amount"`
	BalanceAmount       float64    `json:"balance_amount"`
	UpdatedBy           string     `json:"updated_by"`
	Lines               []LineItem `json:"lines"`
}

// StoredInvoice is the load response from the remote store.
type StoredInvoice struct {
	InvoiceID           string
	InvoiceDate         string
	InvoiceNo           string
	Status              LoadStatus
	IsIGST              bool
	DiscountPctOverride *float64
	ClientID            string
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       string
	BillingAddress      string
	DeliveryAddress     string
	PaymentMode         string
	Remarks             string
	PaidAmount          float64
	Lines               []LineItem
}

// InvoiceStore is the remote invoice store collaborator.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, p InvoicePayload) (invoiceID string, err error)
	UpdateInvoice(ctx context.Context, invoiceID string, p InvoicePayload) error
	DeleteInvoiceByNumber(ctx context.Context, key InvoiceKey, updatedBy string) error
	GetInvoiceByNumber(ctx context.Context, key InvoiceKey, status LoadStatus) (*StoredInvoice, error)
}

// NumberingService issues the next sequential invoice number for a
// branch/date. Implementations may fail; the engine's adapter falls back
// locally so ENTRY mode is never blocked.
type NumberingService interface {
	NextInvoiceNo(ctx context.Context, branch BranchRef, invoiceDate string) (string, error)
}

// Product is the product/barcode lookup result that seeds a new line.
type Product struct {
	ProductID   string
	ProductName string
	Barcode     *string
	SalePrice   float64
	MRP         *float64
	DiscountPct float64
	CGSTRate    float64
	SGSTRate    float64
}

// Client is a customer directory record. Selecting one overwrites the
// draft's customer fields and can force the tax regime.
type Client struct {
	ClientID        string
	Name            string
	Phone           string
	Email           string
	BillingAddress  string
	DeliveryAddress string
	IsIGST          bool
}
