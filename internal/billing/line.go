package billing

// ComputeLine derives all computed fields of a line from its raw inputs
// and the invoice-level policy. It is pure: safe to re-run over the whole
// line list whenever the discount override or tax regime changes, and over
// a single line whenever that line's own fields change.
//
// Each step is rounded as it is produced. When the invoice-level override
// is present it replaces the line's stored discount percent, so the
// persisted payload reflects what was actually applied.
func ComputeLine(l LineItem, discountPctOverride *float64, isIGST bool) LineItem {
	effectivePct := l.DiscountPct
	if discountPctOverride != nil {
		effectivePct = *discountPctOverride
	}

	gstRate := Round2(l.CGSTRate + l.SGSTRate)

	gross := Round2(float64(l.Quantity) * l.UnitPrice)
	discount := Round2(gross * effectivePct / 100)
	taxable := Round2(gross - discount)
	tax := Round2(taxable * gstRate / 100)

	// Intra-state regime splits the tax in half; SGST absorbs the rounding
	// remainder so the two halves always sum exactly to the tax amount.
	var cgst, sgst, igst float64
	if isIGST {
		igst = tax
	} else {
		cgst = Round2(tax / 2)
		sgst = Round2(tax - cgst)
	}

	l.DiscountPct = effectivePct
	l.GrossAmount = gross
	l.DiscountAmount = discount
	l.TaxableAmount = taxable
	l.CGSTAmount = cgst
	l.SGSTAmount = sgst
	l.IGSTAmount = igst
	l.TaxAmount = tax
	l.LineTotal = Round2(taxable + tax)
	return l
}

// recomputeLines re-runs ComputeLine over every line under the draft's
// current policy. Called after any policy change (override, tax regime)
// and after loading stored lines.
func (d *Draft) recomputeLines() {
	for i := range d.Lines {
		d.Lines[i] = ComputeLine(d.Lines[i], d.DiscountPctOverride, d.IsIGST)
	}
}
