// Package billinghttp exposes the billing engine as a JSON API. Each
// POS terminal addresses its own engine under /terminals/{terminalID}.
package billinghttp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rengaa-pos/rengaa-pos/internal/billing"
	"github.com/rengaa-pos/rengaa-pos/internal/catalog"
	"github.com/rengaa-pos/rengaa-pos/internal/platform/httpx"
)

// ProductLookup resolves products for line entry.
type ProductLookup interface {
	GetByID(ctx context.Context, branch billing.BranchRef, productID string) (billing.Product, error)
	GetByBarcode(ctx context.Context, branch billing.BranchRef, barcode string) (billing.Product, error)
}

// ClientDirectory searches and fetches customer records.
type ClientDirectory interface {
	Search(ctx context.Context, term string, limit int) ([]billing.Client, error)
	Get(ctx context.Context, clientID string) (billing.Client, error)
}

// Handler wires the billing engine endpoints.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	branch    billing.BranchRef
	products  ProductLookup
	clients   ClientDirectory
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, registry *Registry, branch billing.BranchRef, products ProductLookup, clients ClientDirectory) *Handler {
	return &Handler{
		logger:    logger,
		registry:  registry,
		branch:    branch,
		products:  products,
		clients:   clients,
		validator: validator.New(),
	}
}

// MountRoutes registers billing routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/clients", h.searchClients)
	r.Route("/terminals/{terminalID}", func(r chi.Router) {
		r.Get("/state", h.getState)
		r.Post("/mode", h.setMode)
		r.Post("/lines/scan", h.scanBarcode)
		r.Post("/lines", h.addLine)
		r.Patch("/lines/{lineID}", h.updateLine)
		r.Delete("/lines/{lineID}", h.removeLine)
		r.Post("/header", h.updateHeader)
		r.Post("/client", h.selectClient)
		r.Post("/load", h.loadInvoice)
		r.Post("/save", h.saveInvoice)
		r.Post("/update", h.updateInvoice)
		r.Post("/delete", h.deleteInvoice)
		r.Post("/duplicate", h.duplicateInvoice)
		r.Post("/export-check", h.exportCheck)
		r.Post("/holds/advance", h.advanceHold)
		r.Post("/holds/retreat", h.retreatHold)
		r.Post("/holds/close", h.closeHold)
		r.Post("/holds/clear-items", h.clearItems)
	})
}

// stateResponse is what every mutating endpoint returns: the terminal's
// full view after the operation.
type stateResponse struct {
	Draft     billing.Draft  `json:"draft"`
	Totals    billing.Totals `json:"totals"`
	RingIndex int            `json:"ring_index"`
	RingSize  int            `json:"ring_size"`
	Busy      bool           `json:"busy"`
}

func snapshot(e *billing.Engine) stateResponse {
	idx, size := e.RingPosition()
	return stateResponse{
		Draft:     e.Draft(),
		Totals:    e.Totals(),
		RingIndex: idx,
		RingSize:  size,
		Busy:      e.Busy(),
	}
}

// engineFor resolves the terminal's engine or writes the error itself.
func (h *Handler) engineFor(w http.ResponseWriter, r *http.Request) (*billing.Engine, string, bool) {
	terminalID := chi.URLParam(r, "terminalID")
	if terminalID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "terminal id is required")
		return nil, "", false
	}
	e, err := h.registry.Engine(r.Context(), terminalID)
	if err != nil {
		h.respondError(w, err)
		return nil, "", false
	}
	return e, terminalID, true
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, terminalID string, e *billing.Engine) {
	h.registry.Checkpoint(r.Context(), terminalID, e)
	httpx.JSON(w, http.StatusOK, snapshot(e))
}

func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	e, _, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, snapshot(e))
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=ENTRY EDIT DELETE"`
}

func (h *Handler) setMode(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req modeRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := e.SetMode(r.Context(), billing.Mode(req.Mode)); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

type scanRequest struct {
	Barcode string `json:"barcode" validate:"required"`
}

func (h *Handler) scanBarcode(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req scanRequest
	if !h.decode(w, r, &req) {
		return
	}
	product, err := h.products.GetByBarcode(r.Context(), h.branch, req.Barcode)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := e.AddProduct(product); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

type addLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req addLineRequest
	if !h.decode(w, r, &req) {
		return
	}
	product, err := h.products.GetByID(r.Context(), h.branch, req.ProductID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := e.AddProduct(product); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

type linePatchRequest struct {
	Quantity    *int     `json:"quantity" validate:"omitempty,min=0"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,min=0"`
	DiscountPct *float64 `json:"discount_pct" validate:"omitempty,min=0,max=100"`
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req linePatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch := billing.LinePatch{
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		DiscountPct: req.DiscountPct,
	}
	if err := e.UpdateLine(chi.URLParam(r, "lineID"), patch); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	if err := e.RemoveLine(chi.URLParam(r, "lineID")); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

type headerRequest struct {
	InvoiceDate     *string  `json:"invoice_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMode     *string  `json:"payment_mode" validate:"omitempty,oneof=CASH CARD UPI CREDIT"`
	Remarks         *string  `json:"remarks"`
	DeliveryAddress *string  `json:"delivery_address"`
	PaidAmount      *float64 `json:"paid_amount" validate:"omitempty,min=0"`
	DiscountPct     *float64 `json:"invoice_discount_pct" validate:"omitempty,min=0,max=100"`
	ClearDiscount   bool     `json:"clear_invoice_discount"`
	IsIGST          *bool    `json:"is_igst"`
}

func (h *Handler) updateHeader(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req headerRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := e.UpdateHeader(r.Context(), billing.HeaderPatch{
		InvoiceDate:     req.InvoiceDate,
		PaymentMode:     req.PaymentMode,
		Remarks:         req.Remarks,
		DeliveryAddress: req.DeliveryAddress,
		PaidAmount:      req.PaidAmount,
	}); err != nil {
		h.respondError(w, err)
		return
	}
	if req.DiscountPct != nil || req.ClearDiscount {
		var pct *float64
		if !req.ClearDiscount {
			pct = req.DiscountPct
		}
		if err := e.SetDiscountOverride(pct); err != nil {
			h.respondError(w, err)
			return
		}
	}
	if req.IsIGST != nil {
		if err := e.SetIGST(*req.IsIGST); err != nil {
			h.respondError(w, err)
			return
		}
	}
	h.finish(w, r, terminalID, e)
}

type clientRequest struct {
	ClientID string `json:"client_id" validate:"required"`
}

func (h *Handler) selectClient(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req clientRequest
	if !h.decode(w, r, &req) {
		return
	}
	client, err := h.clients.Get(r.Context(), req.ClientID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := e.SetClient(client); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

func (h *Handler) searchClients(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		httpx.JSON(w, http.StatusOK, []billing.Client{})
		return
	}
	clients, err := h.clients.Search(r.Context(), term, 20)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

type loadRequest struct {
	InvoiceDate string `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	InvoiceNo   string `json:"invoice_no" validate:"required"`
	Status      string `json:"status" validate:"omitempty,oneof=ACTIVE DELETED"`
}

func (h *Handler) loadInvoice(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req loadRequest
	if !h.decode(w, r, &req) {
		return
	}
	status := billing.StatusActive
	if req.Status != "" {
		status = billing.LoadStatus(req.Status)
	}
	if err := e.Load(r.Context(), req.InvoiceDate, req.InvoiceNo, status); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

type operatorRequest struct {
	Operator string `json:"operator"`
}

func (req operatorRequest) name() string {
	if req.Operator == "" {
		return "pos"
	}
	return req.Operator
}

func (h *Handler) saveInvoice(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req operatorRequest
	if !h.decode(w, r, &req) {
		return
	}
	invoiceID, err := e.Save(r.Context(), req.name())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.registry.Checkpoint(r.Context(), terminalID, e)
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"invoice_id": invoiceID,
		"state":      snapshot(e),
	})
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req operatorRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := e.Update(r.Context(), req.name()); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	var req operatorRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := e.Delete(r.Context(), req.name()); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

func (h *Handler) duplicateInvoice(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	if err := e.Duplicate(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

func (h *Handler) exportCheck(w http.ResponseWriter, r *http.Request) {
	e, _, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	check, err := e.EnsureExportAllowed()
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, check)
}

func (h *Handler) advanceHold(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	if err := e.Advance(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

func (h *Handler) retreatHold(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	if err := e.Retreat(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

func (h *Handler) closeHold(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	if err := e.CloseHold(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	h.finish(w, r, terminalID, e)
}

func (h *Handler) clearItems(w http.ResponseWriter, r *http.Request) {
	e, terminalID, ok := h.engineFor(w, r)
	if !ok {
		return
	}
	e.ClearItems()
	h.finish(w, r, terminalID, e)
}

// decode parses and validates a JSON body, writing the 400 itself. An
// empty body is accepted so bodiless POSTs stay convenient.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", fieldErrs[0].Error())
		} else {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		}
		return false
	}
	return true
}

// respondError maps engine and collaborator errors onto problem
// responses. Anything unrecognised came from a collaborator and is
// reported as an upstream failure.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, billing.ErrExportNotAllowed):
		httpx.Problem(w, http.StatusPreconditionFailed, "Export Not Allowed", err.Error())
	case errors.Is(err, billing.ErrBusy):
		httpx.Problem(w, http.StatusConflict, "Busy", "another operation is in progress for this terminal")
	case errors.Is(err, billing.ErrGuard):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, catalog.ErrProductNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("collaborator call failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "a backing service failed, try again")
	}
}
