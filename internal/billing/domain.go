package billing

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects which store operation the draft is being prepared for.
type Mode string

const (
	ModeEntry  Mode = "ENTRY"
	ModeEdit   Mode = "EDIT"
	ModeDelete Mode = "DELETE"
)

// LoadStatus is the persisted lifecycle state of a stored invoice.
type LoadStatus string

const (
	StatusActive  LoadStatus = "ACTIVE"
	StatusDeleted LoadStatus = "DELETED"
)

// BranchRef identifies the branch context an operator is billing under.
// It is immutable for the life of a draft except on session change.
type BranchRef struct {
	CompanyID string `json:"company_id"`
	StateID   string `json:"state_id"`
	BranchID  string `json:"branch_id"`
}

// Empty reports whether any part of the branch identity is missing.
func (b BranchRef) Empty() bool {
	return b.CompanyID == "" || b.StateID == "" || b.BranchID == ""
}

// SavedLock marks that the visible draft is byte-identical to a persisted
// record. Export-class operations are gated on it being present.
type SavedLock struct {
	InvoiceID   string     `json:"invoice_id"`
	InvoiceNo   string     `json:"invoice_no"`
	InvoiceDate string     `json:"invoice_date"`
	Status      LoadStatus `json:"status"`
	SavedAt     time.Time  `json:"saved_at"`
}

// LineItem is one invoice row. The amount fields below the rates are
// derived: they are produced only by ComputeLine and never set by callers.
type LineItem struct {
	ID          string   `json:"id"`
	ProductID   string   `json:"product_id"`
	ProductName string   `json:"product_name"`
	Barcode     *string  `json:"barcode,omitempty"`
	Quantity    int      `json:"quantity"`
	UOM         string   `json:"uom"`
	UnitPrice   float64  `json:"unit_price"`
	MRP         *float64 `json:"mrp,omitempty"`
	DiscountPct float64  `json:"discount_pct"`
	CGSTRate    float64  `json:"cgst_rate"`
	SGSTRate    float64  `json:"sgst_rate"`

	GrossAmount    float64 `json:"gross_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxableAmount  float64 `json:"taxable_amount"`
	CGSTAmount     float64 `json:"cgst_amount"`
	SGSTAmount     float64 `json:"sgst_amount"`
	IGSTAmount     float64 `json:"igst_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	LineTotal      float64 `json:"line_total"`
}

// Draft is the header plus its ordered line list. It is a plain value;
// the Engine owns all mutation.
type Draft struct {
	Branch      BranchRef `json:"branch"`
	InvoiceDate string    `json:"invoice_date"`
	InvoiceNo   string    `json:"invoice_no"`

	IsIGST              bool     `json:"is_igst"`
	DiscountPctOverride *float64 `json:"invoice_discount_pct,omitempty"`

	ClientID        string  `json:"client_id"`
	CustomerName    string  `json:"customer_name"`
	CustomerPhone   string  `json:"customer_phone"`
	CustomerEmail   string  `json:"customer_email"`
	BillingAddress  string  `json:"billing_address"`
	DeliveryAddress string  `json:"delivery_address"`
	PaymentMode     string  `json:"payment_mode"`
	Remarks         string  `json:"remarks"`
	PaidAmount      float64 `json:"paid_amount"`

	Mode            Mode       `json:"mode"`
	LoadedInvoiceID string     `json:"loaded_invoice_id,omitempty"`
	LoadedStatus    LoadStatus `json:"loaded_status,omitempty"`
	SavedLock       *SavedLock `json:"saved_lock,omitempty"`

	Lines []LineItem `json:"lines"`
}

const (
	defaultCustomerName = "Walk-in"
	defaultPaymentMode  = "CASH"
	defaultUOM          = "PCS"
)

// NewDraft returns a blank ENTRY draft for the given branch and date.
func NewDraft(branch BranchRef, invoiceDate string) Draft {
	return Draft{
		Branch:       branch,
		InvoiceDate:  invoiceDate,
		Mode:         ModeEntry,
		CustomerName: defaultCustomerName,
		PaymentMode:  defaultPaymentMode,
		Lines:        []LineItem{},
	}
}

// Clone returns a deep, independent copy of the draft. Ring slots hold
// clones so mutating the live draft never retroactively changes a parked
// snapshot.
func (d Draft) Clone() Draft {
	c := d
	c.Lines = make([]LineItem, len(d.Lines))
	for i, ln := range d.Lines {
		c.Lines[i] = ln.clone()
	}
	if d.DiscountPctOverride != nil {
		v := *d.DiscountPctOverride
		c.DiscountPctOverride = &v
	}
	if d.SavedLock != nil {
		l := *d.SavedLock
		c.SavedLock = &l
	}
	return c
}

func (l LineItem) clone() LineItem {
	c := l
	if l.Barcode != nil {
		v := *l.Barcode
		c.Barcode = &v
	}
	if l.MRP != nil {
		v := *l.MRP
		c.MRP = &v
	}
	return c
}

// LineByID returns the index of the line with the given ID, or -1.
func (d *Draft) LineByID(lineID string) int {
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func newLineID() string {
	return uuid.New().String()
}
