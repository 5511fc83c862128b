package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockStore struct {
	mu      sync.Mutex
	created []InvoicePayload
	updated map[string]InvoicePayload
	deleted []InvoiceKey
	stored  map[string]*StoredInvoice
	nextID  int

	createErr error
	updateErr error
	deleteErr error
	getErr    error

	// blockCreate, when set, is closed by the test to let CreateInvoice
	// return; used to observe the busy latch.
	blockCreate chan struct{}
}

func newMockStore() *mockStore {
	return &mockStore{
		updated: make(map[string]InvoicePayload),
		stored:  make(map[string]*StoredInvoice),
		nextID:  1,
	}
}

func storedKey(key InvoiceKey, status LoadStatus) string {
	return fmt.Sprintf("%s|%s|%s", key.InvoiceDate, key.InvoiceNo, status)
}

func (m *mockStore) CreateInvoice(ctx context.Context, p InvoicePayload) (string, error) {
	if m.blockCreate != nil {
		<-m.blockCreate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, p)
	id := fmt.Sprintf("inv-%d", m.nextID)
	m.nextID++
	return id, nil
}

func (m *mockStore) UpdateInvoice(ctx context.Context, invoiceID string, p InvoicePayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated[invoiceID] = p
	return nil
}

func (m *mockStore) DeleteInvoiceByNumber(ctx context.Context, key InvoiceKey, updatedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockStore) GetInvoiceByNumber(ctx context.Context, key InvoiceKey, status LoadStatus) (*StoredInvoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	inv, ok := m.stored[storedKey(key, status)]
	if !ok {
		return nil, ErrNotFound
	}
	return inv, nil
}

type mockNumbering struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockNumbering) NextInvoiceNo(ctx context.Context, branch BranchRef, invoiceDate string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.calls++
	return fmt.Sprintf("NO-%03d", m.calls), nil
}

var testBranch = BranchRef{CompanyID: "C01", StateID: "TN", BranchID: "B01"}

func newTestEngine(t *testing.T) (*Engine, *mockStore, *mockNumbering) {
	t.Helper()
	store := newMockStore()
	numbering := &mockNumbering{}
	adapter := NewNumberingAdapter(numbering, slog.Default())
	return NewEngine(testBranch, store, adapter, slog.Default()), store, numbering
}

func addTestLine(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.AddProduct(Product{
		ProductID:   "P-100",
		ProductName: "Widget",
		SalePrice:   100,
		DiscountPct: 10,
		CGSTRate:    9,
		SGSTRate:    9,
	}))
}

// ============================================================================
// DRAFT MUTATIONS
// ============================================================================

func TestNewEngineStartsBlankEntry(t *testing.T) {
	e, _, _ := newTestEngine(t)
	d := e.Draft()

	assert.Equal(t, ModeEntry, d.Mode)
	assert.Equal(t, "NO-001", d.InvoiceNo)
	assert.Equal(t, "Walk-in", d.CustomerName)
	assert.Equal(t, "CASH", d.PaymentMode)
	assert.Empty(t, d.Lines)
	assert.Nil(t, d.SavedLock)
}

func TestAddProductMergesQuantity(t *testing.T) {
	e, _, _ := newTestEngine(t)
	addTestLine(t, e)
	addTestLine(t, e)

	d := e.Draft()
	require.Len(t, d.Lines, 1)
	assert.Equal(t, 2, d.Lines[0].Quantity)
	assert.Equal(t, 200.0, d.Lines[0].GrossAmount)
}

func TestAddProductRejectsZeroPrice(t *testing.T) {
	e, _, _ := newTestEngine(t)
	err := e.AddProduct(Product{ProductID: "P-1", ProductName: "Freebie"})

	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, e.Draft().Lines)
}

func TestAddProductFallsBackToMRP(t *testing.T) {
	e, _, _ := newTestEngine(t)
	mrp := 49.5
	require.NoError(t, e.AddProduct(Product{ProductID: "P-1", ProductName: "No price", MRP: &mrp}))

	d := e.Draft()
	require.Len(t, d.Lines, 1)
	assert.Equal(t, 49.5, d.Lines[0].UnitPrice)
}

func TestUpdateLineRecomputes(t *testing.T) {
	e, _, _ := newTestEngine(t)
	addTestLine(t, e)
	lineID := e.Draft().Lines[0].ID

	qty := 3
	require.NoError(t, e.UpdateLine(lineID, LinePatch{Quantity: &qty}))

	d := e.Draft()
	assert.Equal(t, 300.0, d.Lines[0].GrossAmount)
	assert.Equal(t, 318.6, d.Lines[0].LineTotal)
}

func TestUpdateLineDiscountBlockedByOverride(t *testing.T) {
	e, _, _ := newTestEngine(t)
	addTestLine(t, e)
	override := 5.0
	require.NoError(t, e.SetDiscountOverride(&override))

	pct := 20.0
	err := e.UpdateLine(e.Draft().Lines[0].ID, LinePatch{DiscountPct: &pct})
	require.ErrorIs(t, err, ErrGuard)
}

func TestDiscountOverrideAppliesToEveryLine(t *testing.T) {
	e, _, _ := newTestEngine(t)
	addTestLine(t, e)
	require.NoError(t, e.AddProduct(Product{ProductID: "P-2", ProductName: "Gadget", SalePrice: 50, DiscountPct: 2}))

	override := 15.0
	require.NoError(t, e.SetDiscountOverride(&override))

	for _, l := range e.Draft().Lines {
		assert.Equal(t, 15.0, l.DiscountPct)
	}
}

func TestSetIGSTRecomputesSplit(t *testing.T) {
	e, _, _ := newTestEngine(t)
	addTestLine(t, e)
	require.NoError(t, e.SetIGST(true))

	l := e.Draft().Lines[0]
	assert.Equal(t, 0.0, l.CGSTAmount)
	assert.Equal(t, 0.0, l.SGSTAmount)
	assert.Equal(t, l.TaxAmount, l.IGSTAmount)
}

func TestSetClientForcesRegime(t *testing.T) {
	e, _, _ := newTestEngine(t)
	addTestLine(t, e)

	require.NoError(t, e.SetClient(Client{
		ClientID:       "CL-7",
		Name:           "Acme Traders",
		Phone:          "9876543210",
		BillingAddress: "12 Main St, Salem",
		IsIGST:         true,
	}))

	d := e.Draft()
	assert.Equal(t, "CL-7", d.ClientID)
	assert.Equal(t, "Acme Traders", d.CustomerName)
	// Delivery address falls back to the billing address.
	assert.Equal(t, "12 Main St, Salem", d.DeliveryAddress)
	assert.True(t, d.IsIGST)
	assert.Equal(t, d.Lines[0].TaxAmount, d.Lines[0].IGSTAmount)
}

// ============================================================================
// SAVED LOCK
// ============================================================================

func saveAndReload(t *testing.T, e *Engine) {
	t.Helper()
	addTestLine(t, e)
	_, err := e.Save(context.Background(), "user1")
	require.NoError(t, err)
	require.NotNil(t, e.Draft().SavedLock)
}

func TestMutationClearsSavedLock(t *testing.T) {
	mutations := map[string]func(e *Engine) error{
		"add product": func(e *Engine) error {
			return e.AddProduct(Product{ProductID: "P-9", ProductName: "X", SalePrice: 5})
		},
		"set igst":    func(e *Engine) error { return e.SetIGST(true) },
		"set client":  func(e *Engine) error { return e.SetClient(Client{ClientID: "c", Name: "n"}) },
		"set remarks": func(e *Engine) error { r := "note"; return e.UpdateHeader(context.Background(), HeaderPatch{Remarks: &r}) },
		"set paid":    func(e *Engine) error { p := 10.0; return e.UpdateHeader(context.Background(), HeaderPatch{PaidAmount: &p}) },
		"set override": func(e *Engine) error {
			o := 5.0
			return e.SetDiscountOverride(&o)
		},
		"clear items": func(e *Engine) error { e.ClearItems(); return nil },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			e, _, _ := newTestEngine(t)
			saveAndReload(t, e)

			require.NoError(t, mutate(e))
			assert.Nil(t, e.Draft().SavedLock, "mutation %q must clear the saved lock", name)
		})
	}
}

func TestExportDeniedWithoutLock(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.EnsureExportAllowed()
	require.ErrorIs(t, err, ErrExportNotAllowed)
}

func TestExportAllowedAfterSave(t *testing.T) {
	e, _, _ := newTestEngine(t)
	saveAndReload(t, e)

	check, err := e.EnsureExportAllowed()
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.False(t, check.Deleted)
}

func TestExportFlagsDeletedRecord(t *testing.T) {
	e, store, _ := newTestEngine(t)
	store.stored[storedKey(InvoiceKey{Branch: testBranch, InvoiceDate: "2026-08-27", InvoiceNo: "260827001"}, StatusDeleted)] = &StoredInvoice{
		InvoiceID:   "inv-9",
		InvoiceDate: "2026-08-27",
		InvoiceNo:   "260827001",
		Status:      StatusDeleted,
		Lines:       []LineItem{{ProductID: "P-1", Quantity: 1, UnitPrice: 10}},
	}
	require.NoError(t, e.SetMode(context.Background(), ModeEdit))
	require.NoError(t, e.Load(context.Background(), "2026-08-27", "260827001", StatusDeleted))

	check, err := e.EnsureExportAllowed()
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.True(t, check.Deleted)
}

// ============================================================================
// MODE & STORE OPERATIONS
// ============================================================================

func TestSetModeClearsLoadedStateAndFetchesNumber(t *testing.T) {
	e, _, numbering := newTestEngine(t)
	saveAndReload(t, e)

	before := numbering.calls
	require.NoError(t, e.SetMode(context.Background(), ModeEntry))

	d := e.Draft()
	assert.Nil(t, d.SavedLock)
	assert.Empty(t, d.LoadedInvoiceID)
	assert.Equal(t, before+1, numbering.calls)
}

func TestSaveRequiresLines(t *testing.T) {
	e, store, _ := newTestEngine(t)
	_, err := e.Save(context.Background(), "user1")
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, store.created)
}

func TestSaveOnlyInEntry(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.SetMode(context.Background(), ModeEdit))
	_, err := e.Save(context.Background(), "user1")
	require.ErrorIs(t, err, ErrGuard)
}

func TestSaveResetsFormAndKeepsLock(t *testing.T) {
	e, store, _ := newTestEngine(t)
	addTestLine(t, e)
	savedNo := e.Draft().InvoiceNo

	id, err := e.Save(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", id)
	require.Len(t, store.created, 1)
	assert.Equal(t, savedNo, store.created[0].InvoiceNo)
	assert.Equal(t, 106.2, store.created[0].Totals.Net)

	d := e.Draft()
	assert.Empty(t, d.Lines)
	assert.Equal(t, ModeEntry, d.Mode)
	assert.NotEqual(t, savedNo, d.InvoiceNo)
	// The lock survives the post-save reset so the saved bill stays
	// exportable.
	require.NotNil(t, d.SavedLock)
	assert.Equal(t, "inv-1", d.SavedLock.InvoiceID)
	assert.Equal(t, savedNo, d.SavedLock.InvoiceNo)
}

func TestSaveFailureLeavesDraft(t *testing.T) {
	e, store, _ := newTestEngine(t)
	addTestLine(t, e)
	store.createErr = errors.New("store unavailable")

	_, err := e.Save(context.Background(), "user1")
	require.Error(t, err)

	d := e.Draft()
	assert.Len(t, d.Lines, 1)
	assert.Nil(t, d.SavedLock)
	assert.False(t, e.Busy())
}

func TestLoadOnlyInEditOrDelete(t *testing.T) {
	e, _, _ := newTestEngine(t)
	err := e.Load(context.Background(), "2026-08-27", "260827001", StatusActive)
	require.ErrorIs(t, err, ErrGuard)
}

func TestLoadBindsInvoiceAndSetsLock(t *testing.T) {
	e, store, _ := newTestEngine(t)
	override := 5.0
	store.stored[storedKey(InvoiceKey{Branch: testBranch, InvoiceDate: "2026-08-27", InvoiceNo: "260827001"}, StatusActive)] = &StoredInvoice{
		InvoiceID:           "inv-42",
		InvoiceDate:         "2026-08-27",
		InvoiceNo:           "260827001",
		Status:              StatusActive,
		DiscountPctOverride: &override,
		CustomerName:        "Acme Traders",
		PaidAmount:          100,
		Lines: []LineItem{
			{ProductID: "P-1", Quantity: 2, UnitPrice: 100, CGSTRate: 9, SGSTRate: 9},
		},
	}
	require.NoError(t, e.SetMode(context.Background(), ModeEdit))
	require.NoError(t, e.Load(context.Background(), "2026-08-27", "260827001", StatusActive))

	d := e.Draft()
	assert.Equal(t, "inv-42", d.LoadedInvoiceID)
	assert.Equal(t, StatusActive, d.LoadedStatus)
	require.NotNil(t, d.SavedLock)
	assert.Equal(t, "inv-42", d.SavedLock.InvoiceID)
	require.Len(t, d.Lines, 1)
	// Lines recompute under the loaded policy: 200 gross, 5% override.
	assert.Equal(t, 5.0, d.Lines[0].DiscountPct)
	assert.Equal(t, 190.0, d.Lines[0].TaxableAmount)
}

func TestLoadFailureLeavesDraftUnchanged(t *testing.T) {
	e, store, _ := newTestEngine(t)
	require.NoError(t, e.SetMode(context.Background(), ModeEdit))
	store.getErr = errors.New("connection refused")
	before := e.Draft()

	err := e.Load(context.Background(), "2026-08-27", "260827001", StatusActive)
	require.Error(t, err)
	assert.Equal(t, before, e.Draft())
	assert.False(t, e.Busy())
}

func setupLoadedInvoice(t *testing.T, e *Engine, store *mockStore, status LoadStatus) {
	t.Helper()
	store.stored[storedKey(InvoiceKey{Branch: testBranch, InvoiceDate: "2026-08-27", InvoiceNo: "260827001"}, status)] = &StoredInvoice{
		InvoiceID:   "inv-42",
		InvoiceDate: "2026-08-27",
		InvoiceNo:   "260827001",
		Status:      status,
		Lines: []LineItem{
			{ProductID: "P-1", Quantity: 2, UnitPrice: 100, CGSTRate: 9, SGSTRate: 9},
		},
	}
	require.NoError(t, e.Load(context.Background(), "2026-08-27", "260827001", status))
}

func TestUpdateHappyPath(t *testing.T) {
	e, store, _ := newTestEngine(t)
	require.NoError(t, e.SetMode(context.Background(), ModeEdit))
	setupLoadedInvoice(t, e, store, StatusActive)

	require.NoError(t, e.Update(context.Background(), "user1"))
	_, ok := store.updated["inv-42"]
	assert.True(t, ok)

	d := e.Draft()
	assert.Equal(t, ModeEntry, d.Mode)
	assert.Empty(t, d.Lines)
	require.NotNil(t, d.SavedLock)
	assert.Equal(t, "inv-42", d.SavedLock.InvoiceID)
}

func TestUpdateRefusedOnDeletedInvoice(t *testing.T) {
	e, store, _ := newTestEngine(t)
	require.NoError(t, e.SetMode(context.Background(), ModeEdit))
	setupLoadedInvoice(t, e, store, StatusDeleted)
	before := e.Draft()

	err := e.Update(context.Background(), "user1")
	require.ErrorIs(t, err, ErrGuard)
	assert.Empty(t, store.updated)
	assert.Equal(t, before, e.Draft())
}

func TestUpdateRequiresLoadedInvoice(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.SetMode(context.Background(), ModeEdit))
	err := e.Update(context.Background(), "user1")
	require.ErrorIs(t, err, ErrGuard)
}

func TestDeleteRefusedWhenAlreadyDeleted(t *testing.T) {
	e, store, _ := newTestEngine(t)
	require.NoError(t, e.SetMode(context.Background(), ModeDelete))
	setupLoadedInvoice(t, e, store, StatusDeleted)

	assert.True(t, e.DeleteWouldBeNoOp())
	err := e.Delete(context.Background(), "user1")
	require.ErrorIs(t, err, ErrGuard)
	assert.Empty(t, store.deleted)
}

func TestDeleteHappyPath(t *testing.T) {
	e, store, _ := newTestEngine(t)
	require.NoError(t, e.SetMode(context.Background(), ModeDelete))
	setupLoadedInvoice(t, e, store, StatusActive)

	assert.False(t, e.DeleteWouldBeNoOp())
	require.NoError(t, e.Delete(context.Background(), "user1"))
	require.Len(t, store.deleted, 1)
	assert.Equal(t, "260827001", store.deleted[0].InvoiceNo)

	d := e.Draft()
	assert.Equal(t, ModeEntry, d.Mode)
	assert.Nil(t, d.SavedLock)
	assert.Empty(t, d.Lines)
}

func TestDuplicatePreparesUnsavedCopy(t *testing.T) {
	e, store, _ := newTestEngine(t)
	require.NoError(t, e.SetMode(context.Background(), ModeEdit))
	setupLoadedInvoice(t, e, store, StatusActive)
	require.NoError(t, e.AddProduct(Product{ProductID: "P-2", ProductName: "Gadget", SalePrice: 50}))
	loadedNo := e.Draft().InvoiceNo

	require.NoError(t, e.Duplicate(context.Background()))

	d := e.Draft()
	assert.Equal(t, ModeEntry, d.Mode)
	assert.Len(t, d.Lines, 2)
	assert.NotEqual(t, loadedNo, d.InvoiceNo)
	assert.Empty(t, d.LoadedInvoiceID)
	assert.Empty(t, d.LoadedStatus)
	assert.Nil(t, d.SavedLock)
	// Prepare-only: nothing was persisted.
	assert.Empty(t, store.created)
}

func TestDuplicateRequiresLoadedInvoice(t *testing.T) {
	e, _, _ := newTestEngine(t)
	addTestLine(t, e)
	err := e.Duplicate(context.Background())
	require.ErrorIs(t, err, ErrGuard)
}

func TestBusyLatchRejectsConcurrentStoreCalls(t *testing.T) {
	e, store, _ := newTestEngine(t)
	addTestLine(t, e)
	store.blockCreate = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := e.Save(context.Background(), "user1")
		done <- err
	}()

	// Wait for the first save to take the latch.
	require.Eventually(t, e.Busy, time.Second, time.Millisecond)

	_, err := e.Save(context.Background(), "user2")
	require.ErrorIs(t, err, ErrBusy)

	close(store.blockCreate)
	require.NoError(t, <-done)
	assert.False(t, e.Busy())
}

func TestDeleteModeDraftIsReadOnly(t *testing.T) {
	e, _, _ := newTestEngine(t)
	addTestLine(t, e)
	require.NoError(t, e.SetMode(context.Background(), ModeDelete))

	require.ErrorIs(t, e.AddProduct(Product{ProductID: "P-3", SalePrice: 5}), ErrGuard)
	require.ErrorIs(t, e.SetIGST(true), ErrGuard)
	r := "x"
	require.ErrorIs(t, e.UpdateHeader(context.Background(), HeaderPatch{Remarks: &r}), ErrGuard)
}
