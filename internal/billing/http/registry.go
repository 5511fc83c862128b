package billinghttp

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rengaa-pos/rengaa-pos/internal/billing"
)

// Registry owns one live engine per terminal. Engines stay cached in
// memory so the busy latch spans concurrent requests; every successful
// mutation is checkpointed to the hold store, which is authoritative
// across restarts.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*billing.Engine

	branch    billing.BranchRef
	store     billing.InvoiceStore
	numbering *billing.NumberingAdapter
	holds     *billing.HoldStore
	logger    *slog.Logger
}

// NewRegistry constructs a registry for one branch.
func NewRegistry(branch billing.BranchRef, store billing.InvoiceStore, numbering *billing.NumberingAdapter, holds *billing.HoldStore, logger *slog.Logger) *Registry {
	return &Registry{
		engines:   make(map[string]*billing.Engine),
		branch:    branch,
		store:     store,
		numbering: numbering,
		holds:     holds,
		logger:    logger,
	}
}

// Engine returns the terminal's engine, restoring a parked state from
// the hold store on first touch.
func (r *Registry) Engine(ctx context.Context, terminalID string) (*billing.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[terminalID]; ok {
		return e, nil
	}
	var e *billing.Engine
	if r.holds != nil {
		st, err := r.holds.Load(ctx, terminalID)
		if err != nil {
			return nil, err
		}
		if st != nil {
			e = billing.Restore(*st, r.store, r.numbering, r.logger)
		}
	}
	if e == nil {
		e = billing.NewEngine(r.branch, r.store, r.numbering, r.logger)
	}
	r.engines[terminalID] = e
	return e, nil
}

// Checkpoint parks the terminal's current state in the hold store. A
// failed checkpoint is logged, not surfaced: the in-memory engine is
// still correct and the next mutation retries the write.
func (r *Registry) Checkpoint(ctx context.Context, terminalID string, e *billing.Engine) {
	if r.holds == nil {
		return
	}
	if err := r.holds.Save(ctx, terminalID, e.State()); err != nil {
		r.logger.Warn("terminal state checkpoint failed",
			slog.String("terminal_id", terminalID), slog.Any("error", err))
	}
}
