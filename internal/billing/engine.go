package billing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Engine is the invoice composition engine for one terminal: the active
// working draft, its hold ring, and the mode/saved-lock state machine.
// One draft is active at any instant; the engine performs no background
// work. Remote store calls are guarded by a busy latch so a second
// Save/Update/Delete/Load cannot start while one is outstanding.
type Engine struct {
	mu   sync.Mutex
	busy bool

	draft   Draft
	ring    []Draft
	ringIdx int

	store     InvoiceStore
	numbering *NumberingAdapter
	logger    *slog.Logger

	now func() time.Time
}

// State is the serializable snapshot of an engine: what holdstore parks
// in Redis between requests.
type State struct {
	Draft     Draft     `json:"draft"`
	Ring      []Draft   `json:"ring"`
	RingIndex int       `json:"ring_index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEngine builds an engine for a branch with a fresh blank ENTRY draft.
func NewEngine(branch BranchRef, store InvoiceStore, numbering *NumberingAdapter, logger *slog.Logger) *Engine {
	e := &Engine{
		store:     store,
		numbering: numbering,
		logger:    orDefault(logger),
		ringIdx:   -1,
		now:       time.Now,
	}
	e.draft = e.blankDraft(context.Background(), branch, today())
	return e
}

// Restore rebuilds an engine from a parked state.
func Restore(st State, store InvoiceStore, numbering *NumberingAdapter, logger *slog.Logger) *Engine {
	ring := make([]Draft, len(st.Ring))
	for i, d := range st.Ring {
		ring[i] = d.Clone()
	}
	return &Engine{
		draft:     st.Draft.Clone(),
		ring:      ring,
		ringIdx:   st.RingIndex,
		store:     store,
		numbering: numbering,
		logger:    orDefault(logger),
		now:       time.Now,
	}
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// State returns a deep copy of the engine state for persistence.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	ring := make([]Draft, len(e.ring))
	for i, d := range e.ring {
		ring[i] = d.Clone()
	}
	return State{
		Draft:     e.draft.Clone(),
		Ring:      ring,
		RingIndex: e.ringIdx,
		UpdatedAt: e.now(),
	}
}

// Draft returns a copy of the active working draft.
func (e *Engine) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Clone()
}

// Totals aggregates the active draft's lines into header totals.
func (e *Engine) Totals() Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Aggregate(e.draft.Lines)
}

// RingPosition reports {currentIndex, size} for display.
func (e *Engine) RingPosition() (index, size int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ringIdx, len(e.ring)
}

// dirty clears the saved lock on an ENTRY draft. It is the single
// mutation-observer hook: every canonical-field setter funnels through it
// so the lock invariant holds for every current and future field.
func (e *Engine) dirty() {
	if e.draft.Mode == ModeEntry {
		e.draft.SavedLock = nil
	}
}

// guardMutable rejects caller mutation in DELETE mode, where only the
// identity used to locate the record may change.
func (e *Engine) guardMutable() error {
	if e.draft.Mode == ModeDelete {
		return fmt.Errorf("%w: draft is read-only in DELETE mode", ErrGuard)
	}
	return nil
}

func (e *Engine) blankDraft(ctx context.Context, branch BranchRef, invoiceDate string) Draft {
	d := NewDraft(branch, invoiceDate)
	if e.numbering != nil {
		d.InvoiceNo = e.numbering.NextInvoiceNo(ctx, branch, invoiceDate)
	}
	return d
}

// resetToBlank replaces the working draft with a fresh blank ENTRY draft
// and a newly fetched invoice number. Save and Update preserve the saved
// lock across the reset so the just-persisted invoice stays exportable.
func (e *Engine) resetToBlank(ctx context.Context, preserveLock bool) {
	var lock *SavedLock
	if preserveLock {
		lock = e.draft.SavedLock
	}
	e.draft = e.blankDraft(ctx, e.draft.Branch, today())
	e.draft.SavedLock = lock
}

// ============================================================================
// MODE TRANSITIONS
// ============================================================================

// SetMode switches between ENTRY, EDIT and DELETE. Selecting a mode
// always drops the loaded identity and the saved lock; entering ENTRY
// additionally fetches a fresh invoice number.
func (e *Engine) SetMode(ctx context.Context, mode Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch mode {
	case ModeEntry, ModeEdit, ModeDelete:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrValidation, mode)
	}

	e.draft.Mode = mode
	e.draft.LoadedInvoiceID = ""
	e.draft.LoadedStatus = ""
	e.draft.SavedLock = nil
	if mode == ModeEntry {
		e.draft.InvoiceNo = e.numbering.NextInvoiceNo(ctx, e.draft.Branch, e.draft.InvoiceDate)
	}
	return nil
}

// ============================================================================
// DRAFT MUTATIONS
// ============================================================================

// AddProduct adds a lookup result as a line, or merges into an existing
// line for the same product by bumping its quantity. A product without a
// positive sale price is rejected; MRP stands in when the sale price is
// absent but MRP is set.
func (e *Engine) AddProduct(p Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardMutable(); err != nil {
		return err
	}
	if p.ProductID == "" {
		return fmt.Errorf("%w: product id is required", ErrValidation)
	}
	price := p.SalePrice
	if price <= 0 && p.MRP != nil {
		price = *p.MRP
	}
	if price <= 0 {
		return fmt.Errorf("%w: no sale price or MRP set for product %s at this branch", ErrValidation, p.ProductID)
	}

	for i := range e.draft.Lines {
		if e.draft.Lines[i].ProductID == p.ProductID {
			e.draft.Lines[i].Quantity++
			e.draft.Lines[i] = ComputeLine(e.draft.Lines[i], e.draft.DiscountPctOverride, e.draft.IsIGST)
			e.dirty()
			return nil
		}
	}

	line := LineItem{
		ID:          newLineID(),
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
		Barcode:     p.Barcode,
		Quantity:    1,
		UOM:         defaultUOM,
		UnitPrice:   price,
		MRP:         p.MRP,
		DiscountPct: p.DiscountPct,
		CGSTRate:    p.CGSTRate,
		SGSTRate:    p.SGSTRate,
	}
	e.draft.Lines = append(e.draft.Lines, ComputeLine(line, e.draft.DiscountPctOverride, e.draft.IsIGST))
	e.dirty()
	return nil
}

// LinePatch carries an edit to one line. Edits always trigger a full
// recomputation of that line, never partial field writes.
type LinePatch struct {
	Quantity    *int
	UnitPrice   *float64
	DiscountPct *float64
}

// UpdateLine applies a patch to the identified line and recomputes it.
// Per-line discount edits are refused while the invoice-level override is
// active.
func (e *Engine) UpdateLine(lineID string, patch LinePatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardMutable(); err != nil {
		return err
	}
	i := e.draft.LineByID(lineID)
	if i < 0 {
		return fmt.Errorf("%w: line %s not on draft", ErrValidation, lineID)
	}
	if patch.DiscountPct != nil {
		if e.draft.DiscountPctOverride != nil {
			return fmt.Errorf("%w: invoice-level discount override is active", ErrGuard)
		}
		if *patch.DiscountPct < 0 || *patch.DiscountPct > 100 {
			return fmt.Errorf("%w: discount percent must be between 0 and 100", ErrValidation)
		}
		e.draft.Lines[i].DiscountPct = *patch.DiscountPct
	}
	if patch.Quantity != nil {
		e.draft.Lines[i].Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		e.draft.Lines[i].UnitPrice = *patch.UnitPrice
	}
	e.draft.Lines[i] = ComputeLine(e.draft.Lines[i], e.draft.DiscountPctOverride, e.draft.IsIGST)
	e.dirty()
	return nil
}

// RemoveLine deletes the identified line from the draft.
func (e *Engine) RemoveLine(lineID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardMutable(); err != nil {
		return err
	}
	i := e.draft.LineByID(lineID)
	if i < 0 {
		return fmt.Errorf("%w: line %s not on draft", ErrValidation, lineID)
	}
	e.draft.Lines = append(e.draft.Lines[:i], e.draft.Lines[i+1:]...)
	e.dirty()
	return nil
}

// SetIGST switches the tax regime and recomputes every line.
func (e *Engine) SetIGST(isIGST bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardMutable(); err != nil {
		return err
	}
	e.draft.IsIGST = isIGST
	e.draft.recomputeLines()
	e.dirty()
	return nil
}

// SetDiscountOverride sets or clears the invoice-level discount override
// and recomputes every line. While set, the override value replaces each
// line's stored discount percent at calculation time.
func (e *Engine) SetDiscountOverride(pct *float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardMutable(); err != nil {
		return err
	}
	if pct != nil && (*pct < 0 || *pct > 100) {
		return fmt.Errorf("%w: discount percent must be between 0 and 100", ErrValidation)
	}
	e.draft.DiscountPctOverride = pct
	e.draft.recomputeLines()
	e.dirty()
	return nil
}

// SetClient overwrites the draft's customer fields from a directory
// record. The client can force the tax regime, so all lines recompute.
func (e *Engine) SetClient(c Client) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardMutable(); err != nil {
		return err
	}
	e.draft.ClientID = c.ClientID
	e.draft.CustomerName = c.Name
	if e.draft.CustomerName == "" {
		e.draft.CustomerName = defaultCustomerName
	}
	e.draft.CustomerPhone = c.Phone
	e.draft.CustomerEmail = c.Email
	e.draft.BillingAddress = c.BillingAddress
	e.draft.DeliveryAddress = c.DeliveryAddress
	if e.draft.DeliveryAddress == "" {
		e.draft.DeliveryAddress = c.BillingAddress
	}
	e.draft.IsIGST = c.IsIGST
	e.draft.recomputeLines()
	e.dirty()
	return nil
}

// HeaderPatch carries edits to header business fields.
type HeaderPatch struct {
	InvoiceDate     *string
	PaymentMode     *string
	Remarks         *string
	DeliveryAddress *string
	PaidAmount      *float64
}

// UpdateHeader applies header edits. Changing the invoice date in ENTRY
// mode refetches the invoice number, since numbering is per date.
func (e *Engine) UpdateHeader(ctx context.Context, patch HeaderPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guardMutable(); err != nil {
		return err
	}
	if patch.InvoiceDate != nil {
		if _, err := time.Parse("2006-01-02", *patch.InvoiceDate); err != nil {
			return fmt.Errorf("%w: invoice date must be YYYY-MM-DD", ErrValidation)
		}
		e.draft.InvoiceDate = *patch.InvoiceDate
		if e.draft.Mode == ModeEntry {
			e.draft.InvoiceNo = e.numbering.NextInvoiceNo(ctx, e.draft.Branch, e.draft.InvoiceDate)
		}
	}
	if patch.PaymentMode != nil {
		e.draft.PaymentMode = *patch.PaymentMode
	}
	if patch.Remarks != nil {
		e.draft.Remarks = *patch.Remarks
	}
	if patch.DeliveryAddress != nil {
		e.draft.DeliveryAddress = *patch.DeliveryAddress
	}
	if patch.PaidAmount != nil {
		e.draft.PaidAmount = *patch.PaidAmount
	}
	e.dirty()
	return nil
}

// ============================================================================
// STORE OPERATIONS
// ============================================================================

// acquire sets the busy latch, rejecting a second in-flight store call.
// The mutex is released while the collaborator call runs, so the latch is
// what keeps a second Save/Update/Delete/Load out.
func (e *Engine) acquire() error {
	if e.busy {
		return ErrBusy
	}
	e.busy = true
	return nil
}

func (e *Engine) release() {
	e.busy = false
}

// Busy reports whether a store call is outstanding.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Load fetches the invoice matching the compound key from the remote
// store and binds it to the draft. Valid only in EDIT or DELETE. A loaded
// invoice is by definition already persisted, so the saved lock is set
// immediately regardless of mode. On any failure the draft is unchanged.
func (e *Engine) Load(ctx context.Context, invoiceDate, invoiceNo string, statusFilter LoadStatus) error {
	e.mu.Lock()
	if e.draft.Mode != ModeEdit && e.draft.Mode != ModeDelete {
		e.mu.Unlock()
		return fmt.Errorf("%w: load is valid only in EDIT or DELETE mode", ErrGuard)
	}
	if e.draft.Branch.Empty() {
		e.mu.Unlock()
		return fmt.Errorf("%w: branch context missing", ErrValidation)
	}
	if invoiceDate == "" || invoiceNo == "" {
		e.mu.Unlock()
		return fmt.Errorf("%w: invoice date and number are required", ErrValidation)
	}
	if err := e.acquire(); err != nil {
		e.mu.Unlock()
		return err
	}
	key := InvoiceKey{Branch: e.draft.Branch, InvoiceDate: invoiceDate, InvoiceNo: invoiceNo}
	e.mu.Unlock()

	stored, err := e.store.GetInvoiceByNumber(ctx, key, statusFilter)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.release()
	if err != nil {
		return fmt.Errorf("load invoice: %w", err)
	}

	d := &e.draft
	d.InvoiceDate = stored.InvoiceDate
	d.InvoiceNo = stored.InvoiceNo
	d.IsIGST = stored.IsIGST
	d.DiscountPctOverride = stored.DiscountPctOverride
	d.ClientID = stored.ClientID
	d.CustomerName = stored.CustomerName
	if d.CustomerName == "" {
		d.CustomerName = defaultCustomerName
	}
	d.CustomerPhone = stored.CustomerPhone
	d.CustomerEmail = stored.CustomerEmail
	d.BillingAddress = stored.BillingAddress
	d.DeliveryAddress = stored.DeliveryAddress
	d.PaymentMode = stored.PaymentMode
	if d.PaymentMode == "" {
		d.PaymentMode = defaultPaymentMode
	}
	d.Remarks = stored.Remarks
	d.PaidAmount = stored.PaidAmount

	d.Lines = make([]LineItem, len(stored.Lines))
	for i, l := range stored.Lines {
		if l.ID == "" {
			l.ID = newLineID()
		}
		if l.UOM == "" {
			l.UOM = defaultUOM
		}
		d.Lines[i] = l
	}
	d.recomputeLines()

	d.LoadedInvoiceID = stored.InvoiceID
	d.LoadedStatus = stored.Status
	if stored.InvoiceID != "" {
		d.SavedLock = &SavedLock{
			InvoiceID:   stored.InvoiceID,
			InvoiceNo:   stored.InvoiceNo,
			InvoiceDate: stored.InvoiceDate,
			Status:      stored.Status,
			SavedAt:     e.now(),
		}
	} else {
		d.SavedLock = nil
	}
	return nil
}

func (e *Engine) buildPayload(updatedBy string) InvoicePayload {
	totals := Aggregate(e.draft.Lines)
	lines := make([]LineItem, len(e.draft.Lines))
	copy(lines, e.draft.Lines)
	return InvoicePayload{
		Branch:              e.draft.Branch,
		InvoiceDate:         e.draft.InvoiceDate,
		InvoiceNo:           e.draft.InvoiceNo,
		IsIGST:              e.draft.IsIGST,
		DiscountPctOverride: e.draft.DiscountPctOverride,
		ClientID:            e.draft.ClientID,
		CustomerName:        e.draft.CustomerName,
		CustomerPhone:       e.draft.CustomerPhone,
		CustomerEmail:       e.draft.CustomerEmail,
		BillingAddress:      e.draft.BillingAddress,
		DeliveryAddress:     e.draft.DeliveryAddress,
		PaymentMode:         e.draft.PaymentMode,
		Remarks:             e.draft.Remarks,
		Totals:              totals,
		PaidAmount:          e.draft.PaidAmount,
		BalanceAmount:       Balance(totals.Net, e.draft.PaidAmount),
		UpdatedBy:           updatedBy,
		Lines:               lines,
	}
}

// Save persists the draft as a new invoice. Valid only in ENTRY with at
// least one line and a full identity. On success the saved lock is set
// from the returned identity and the form resets to a fresh blank ENTRY
// draft; save always clears the working form.
func (e *Engine) Save(ctx context.Context, savedBy string) (invoiceID string, err error) {
	e.mu.Lock()
	if e.draft.Mode != ModeEntry {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: save is valid only in ENTRY mode", ErrGuard)
	}
	if len(e.draft.Lines) == 0 {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: no items to save", ErrValidation)
	}
	if e.draft.Branch.Empty() {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: branch context missing", ErrValidation)
	}
	if e.draft.InvoiceNo == "" {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: invoice number is empty", ErrValidation)
	}
	if e.draft.InvoiceDate == "" {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: invoice date is empty", ErrValidation)
	}
	if err := e.acquire(); err != nil {
		e.mu.Unlock()
		return "", err
	}
	payload := e.buildPayload(savedBy)
	e.mu.Unlock()

	id, err := e.store.CreateInvoice(ctx, payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.release()
	if err != nil {
		return "", fmt.Errorf("save invoice: %w", err)
	}

	e.draft.SavedLock = &SavedLock{
		InvoiceID:   id,
		InvoiceNo:   e.draft.InvoiceNo,
		InvoiceDate: e.draft.InvoiceDate,
		Status:      StatusActive,
		SavedAt:     e.now(),
	}
	e.logger.Info("invoice saved",
		slog.String("invoice_id", id), slog.String("invoice_no", e.draft.InvoiceNo))
	e.resetToBlank(ctx, true)
	return id, nil
}

// Update rewrites the loaded invoice. Valid only in EDIT with a loaded
// invoice whose status is not DELETED.
func (e *Engine) Update(ctx context.Context, updatedBy string) error {
	e.mu.Lock()
	if e.draft.Mode != ModeEdit {
		e.mu.Unlock()
		return fmt.Errorf("%w: update is valid only in EDIT mode", ErrGuard)
	}
	if e.draft.LoadedInvoiceID == "" {
		e.mu.Unlock()
		return fmt.Errorf("%w: no loaded invoice, load one first", ErrGuard)
	}
	if e.draft.LoadedStatus == StatusDeleted {
		e.mu.Unlock()
		return fmt.Errorf("%w: deleted invoices cannot be updated", ErrGuard)
	}
	if len(e.draft.Lines) == 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: no items to update", ErrValidation)
	}
	if err := e.acquire(); err != nil {
		e.mu.Unlock()
		return err
	}
	loadedID := e.draft.LoadedInvoiceID
	payload := e.buildPayload(updatedBy)
	e.mu.Unlock()

	err := e.store.UpdateInvoice(ctx, loadedID, payload)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.release()
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}

	e.draft.SavedLock = &SavedLock{
		InvoiceID:   loadedID,
		InvoiceNo:   e.draft.InvoiceNo,
		InvoiceDate: e.draft.InvoiceDate,
		Status:      StatusActive,
		SavedAt:     e.now(),
	}
	e.logger.Info("invoice updated",
		slog.String("invoice_id", loadedID), slog.String("invoice_no", e.draft.InvoiceNo))
	e.resetToBlank(ctx, true)
	return nil
}

// DeleteWouldBeNoOp reports whether Delete would be refused because the
// loaded record is already deleted. Confirmation UIs consult this before
// asking the operator.
func (e *Engine) DeleteWouldBeNoOp() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.LoadedStatus == StatusDeleted
}

// Delete removes the invoice addressed by the draft's compound key.
// Valid only in DELETE mode; refused when the loaded record is already
// deleted. On success the form resets to a fresh blank ENTRY draft.
func (e *Engine) Delete(ctx context.Context, deletedBy string) error {
	e.mu.Lock()
	if e.draft.Mode != ModeDelete {
		e.mu.Unlock()
		return fmt.Errorf("%w: delete is valid only in DELETE mode", ErrGuard)
	}
	if e.draft.Branch.Empty() {
		e.mu.Unlock()
		return fmt.Errorf("%w: branch context missing", ErrValidation)
	}
	if e.draft.InvoiceDate == "" || e.draft.InvoiceNo == "" {
		e.mu.Unlock()
		return fmt.Errorf("%w: invoice date and number are required", ErrValidation)
	}
	if e.draft.LoadedStatus == StatusDeleted {
		e.mu.Unlock()
		return fmt.Errorf("%w: invoice already deleted", ErrGuard)
	}
	if err := e.acquire(); err != nil {
		e.mu.Unlock()
		return err
	}
	key := InvoiceKey{Branch: e.draft.Branch, InvoiceDate: e.draft.InvoiceDate, InvoiceNo: e.draft.InvoiceNo}
	e.mu.Unlock()

	err := e.store.DeleteInvoiceByNumber(ctx, key, deletedBy)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.release()
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	e.logger.Info("invoice deleted", slog.String("invoice_no", key.InvoiceNo))
	e.resetToBlank(ctx, false)
	return nil
}

// Duplicate prepares an unsaved copy of the loaded invoice: new invoice
// number, ENTRY mode, loaded identity and saved lock cleared, header and
// lines kept intact. No persistence call is made; the operator must Save
// to materialize it.
func (e *Engine) Duplicate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.draft.LoadedInvoiceID == "" {
		return fmt.Errorf("%w: load an invoice first to duplicate", ErrGuard)
	}
	if len(e.draft.Lines) == 0 {
		return fmt.Errorf("%w: loaded invoice has no items to duplicate", ErrGuard)
	}

	nextNo := e.numbering.NextInvoiceNo(ctx, e.draft.Branch, e.draft.InvoiceDate)
	if nextNo == "" {
		return fmt.Errorf("%w: could not generate next invoice number", ErrValidation)
	}

	e.draft.Mode = ModeEntry
	e.draft.LoadedInvoiceID = ""
	e.draft.LoadedStatus = ""
	e.draft.SavedLock = nil
	e.draft.InvoiceNo = nextNo
	return nil
}

// ============================================================================
// EXPORT GUARD
// ============================================================================

// ExportCheck is the result of the export-class policy guard.
type ExportCheck struct {
	Allowed bool `json:"allowed"`
	// Deleted flags an export that refers to a deleted record; such
	// exports are permitted but must carry the flag.
	Deleted bool `json:"deleted"`
}

// EnsureExportAllowed gates preview/download/print/share/email. Export is
// allowed iff the saved lock is present; otherwise the fixed policy error
// is returned and no export should run.
func (e *Engine) EnsureExportAllowed() (ExportCheck, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.draft.SavedLock == nil {
		return ExportCheck{}, ErrExportNotAllowed
	}
	return ExportCheck{
		Allowed: true,
		Deleted: e.draft.SavedLock.Status == StatusDeleted,
	}, nil
}
