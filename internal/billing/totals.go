package billing

// Totals are the header-level sums over a computed line list. Each field
// is summed from the corresponding per-line field and rounded once at the
// header level; nothing here re-derives from raw inputs.
type Totals struct {
	Gross    float64 `json:"gross_amount"`
	Discount float64 `json:"discount_amount"`
	Taxable  float64 `json:"taxable_amount"`
	CGST     float64 `json:"cgst_amount"`
	SGST     float64 `json:"sgst_amount"`
	IGST     float64 `json:"igst_amount"`
	GST      float64 `json:"tax_amount"`
	Net      float64 `json:"net_amount"`
}

// Aggregate sums a computed line list into header totals.
func Aggregate(lines []LineItem) Totals {
	var gross, discount, cgst, sgst, igst float64
	for _, l := range lines {
		gross += l.GrossAmount
		discount += l.DiscountAmount
		cgst += l.CGSTAmount
		sgst += l.SGSTAmount
		igst += l.IGSTAmount
	}
	taxable := gross - discount
	gst := cgst + sgst + igst
	return Totals{
		Gross:    Round2(gross),
		Discount: Round2(discount),
		Taxable:  Round2(taxable),
		CGST:     Round2(cgst),
		SGST:     Round2(sgst),
		IGST:     Round2(igst),
		GST:      Round2(gst),
		Net:      Round2(taxable + gst),
	}
}

// Balance is net minus paid. A negative balance (overpayment) is valid
// and is not clamped.
func Balance(net, paid float64) float64 {
	return Round2(net - paid)
}
