package billing

import "errors"

// Error taxonomy. Every failure leaves the draft in its last good state;
// nothing in this package is fatal.
var (
	// ErrValidation covers missing branch context, missing invoice
	// number/date, empty line lists and non-positive sale prices. No
	// collaborator call is made.
	ErrValidation = errors.New("validation failed")
	// ErrGuard covers illegal transitions such as updating a deleted
	// invoice or duplicating without a loaded one.
	ErrGuard = errors.New("operation not allowed")
	// ErrBusy is returned while a store call for this draft is in flight.
	ErrBusy = errors.New("another operation is in progress")
	// ErrExportNotAllowed is the policy denial for export-class actions on
	// an unsaved draft. The message is the fixed operator instruction.
	ErrExportNotAllowed = errors.New("save the invoice first: only saved invoices can be previewed, downloaded, printed or shared")
	// ErrNotFound is reported when the store has no invoice for the
	// compound key.
	ErrNotFound = errors.New("invoice not found")
)
