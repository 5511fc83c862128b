package billing

import "context"

// Hold ring: an ordered, cyclically navigable set of parked drafts, like
// browser tabs for unfinished bills. The ring exclusively owns its
// snapshots; the active draft is a working copy written back into the
// current slot before any navigation and read out of the target slot
// after it. Index -1 means no ring has materialized yet and only the
// single working draft exists.

// Advance parks the working draft and moves to the next slot. The first
// ever call materializes the ring with one slot holding the current draft
// and does nothing further. Advancing past the last slot appends a fresh
// blank ENTRY draft as a new slot and makes it current.
func (e *Engine) Advance(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ringIdx < 0 || len(e.ring) == 0 {
		e.ring = []Draft{e.draft.Clone()}
		e.ringIdx = 0
		return nil
	}

	e.ring[e.ringIdx] = e.draft.Clone()

	next := e.ringIdx + 1
	if next < len(e.ring) {
		e.ringIdx = next
		e.draft = e.ring[next].Clone()
		e.draft.recomputeLines()
		return nil
	}

	blank := e.blankDraft(ctx, e.draft.Branch, today())
	e.ring = append(e.ring, blank.Clone())
	e.ringIdx = next
	e.draft = blank
	return nil
}

// Retreat parks the working draft and moves one slot back. Retreating
// from slot 0 stays at slot 0; with no ring materialized it is a no-op.
func (e *Engine) Retreat(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ringIdx < 0 {
		return nil
	}
	e.ring[e.ringIdx] = e.draft.Clone()

	prev := e.ringIdx - 1
	if prev < 0 {
		prev = 0
	}
	e.ringIdx = prev
	e.draft = e.ring[prev].Clone()
	e.draft.recomputeLines()
	return nil
}

// CloseHold removes the current slot. Closing the last slot empties the
// ring back to the unmaterialized state with a fresh blank ENTRY draft;
// otherwise the index clamps to the slot before and that snapshot becomes
// current.
func (e *Engine) CloseHold(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ringIdx < 0 || len(e.ring) == 0 {
		return nil
	}

	e.ring = append(e.ring[:e.ringIdx], e.ring[e.ringIdx+1:]...)

	if len(e.ring) == 0 {
		e.ringIdx = -1
		e.draft = e.blankDraft(ctx, e.draft.Branch, today())
		return nil
	}

	idx := e.ringIdx - 1
	if idx < 0 {
		idx = 0
	}
	e.ringIdx = idx
	e.draft = e.ring[idx].Clone()
	e.draft.recomputeLines()
	return nil
}

// ClearItems empties the working draft's line list, keeping every header
// field. In ENTRY mode this dirties the saved lock. Ring slots are
// untouched until the next Advance or Retreat writes the change back.
func (e *Engine) ClearItems() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.draft.Lines = []LineItem{}
	e.dirty()
}
