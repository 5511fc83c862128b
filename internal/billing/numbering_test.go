package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNumbering struct {
	mu    sync.Mutex
	calls int
	no    string
	err   error
	gate  chan struct{}
}

func (s *stubNumbering) NextInvoiceNo(ctx context.Context, branch BranchRef, invoiceDate string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.no, s.err
}

func TestFallbackInvoiceNo(t *testing.T) {
	assert.Equal(t, "260827001", FallbackInvoiceNo("2026-08-27"))
	assert.Equal(t, "991231001", FallbackInvoiceNo("1999-12-31"))
	assert.Equal(t, "", FallbackInvoiceNo("not-a-date"))
	assert.Equal(t, "", FallbackInvoiceNo(""))
}

func TestNextInvoiceNoPassesThrough(t *testing.T) {
	a := NewNumberingAdapter(&stubNumbering{no: "INV-0042"}, nil)
	got := a.NextInvoiceNo(context.Background(), testBranch, "2026-08-27")
	assert.Equal(t, "INV-0042", got)
}

func TestNextInvoiceNoFallsBackOnError(t *testing.T) {
	a := NewNumberingAdapter(&stubNumbering{err: errors.New("timeout")}, nil)
	got := a.NextInvoiceNo(context.Background(), testBranch, "2026-08-27")
	assert.Equal(t, "260827001", got)
}

func TestNextInvoiceNoFallsBackOnEmptyAnswer(t *testing.T) {
	a := NewNumberingAdapter(&stubNumbering{}, nil)
	got := a.NextInvoiceNo(context.Background(), testBranch, "2026-08-27")
	assert.Equal(t, "260827001", got)
}

func TestNextInvoiceNoNilService(t *testing.T) {
	a := NewNumberingAdapter(nil, nil)
	got := a.NextInvoiceNo(context.Background(), testBranch, "2026-08-27")
	assert.Equal(t, "260827001", got)
}

func TestNextInvoiceNoCollapsesConcurrentFetches(t *testing.T) {
	stub := &stubNumbering{no: "INV-7", gate: make(chan struct{})}
	a := NewNumberingAdapter(stub, nil)

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.NextInvoiceNo(context.Background(), testBranch, "2026-08-27")
		}(i)
	}
	// Let the leader reach the stub and the rest pile up behind it before
	// releasing the gate.
	require.Eventually(t, func() bool {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		return stub.calls == 1
	}, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(stub.gate)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "INV-7", r)
	}
	stub.mu.Lock()
	calls := stub.calls
	stub.mu.Unlock()
	assert.Less(t, calls, n)
}
