package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"
)

// NumberingAdapter wraps the numbering collaborator with a deterministic
// local fallback and collapses concurrent fetches for the same
// branch/date key, so two terminals opening a blank draft at the same
// moment hit the service once.
type NumberingAdapter struct {
	service NumberingService
	logger  *slog.Logger
	group   singleflight.Group
}

// NewNumberingAdapter constructs a NumberingAdapter. A nil service always
// falls back.
func NewNumberingAdapter(service NumberingService, logger *slog.Logger) *NumberingAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &NumberingAdapter{service: service, logger: logger}
}

// NextInvoiceNo returns the next invoice number for the branch and date.
// It never fails: on any collaborator error it derives the YYMMDD001
// fallback so ENTRY mode is never blocked.
func (n *NumberingAdapter) NextInvoiceNo(ctx context.Context, branch BranchRef, invoiceDate string) string {
	if n.service == nil {
		return FallbackInvoiceNo(invoiceDate)
	}
	key := fmt.Sprintf("%s|%s|%s|%s", branch.CompanyID, branch.StateID, branch.BranchID, invoiceDate)
	v, err, _ := n.group.Do(key, func() (any, error) {
		return n.service.NextInvoiceNo(ctx, branch, invoiceDate)
	})
	no, _ := v.(string)
	if err != nil || no == "" {
		if err != nil {
			n.logger.Warn("invoice numbering fetch failed, using fallback",
				slog.String("branch", branch.BranchID), slog.Any("error", err))
		}
		return FallbackInvoiceNo(invoiceDate)
	}
	return no
}

// FallbackInvoiceNo derives the local default number from a YYYY-MM-DD
// invoice date: the date's YYMMDD digits followed by "001". An
// unparseable date yields an empty number.
func FallbackInvoiceNo(invoiceDate string) string {
	digits := strings.ReplaceAll(invoiceDate, "-", "")
	if len(digits) != 8 {
		return ""
	}
	return digits[2:] + "001"
}
