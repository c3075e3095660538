package envelope

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNoBudgetAccounts is recorded when no budget account directives exist
	ErrNoBudgetAccounts = errors.New("no budget accounts configured")

	// ErrInvalidCurrency is recorded for a malformed operating currency
	ErrInvalidCurrency = errors.New("invalid operating currency")

	// ErrInvalidDirective is recorded for a directive that cannot be parsed
	ErrInvalidDirective = errors.New("invalid directive")

	// ErrInvalidAmount is recorded for an unparsable amount argument
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnreconciledPosting is recorded when a posting cannot be converted
	// to the operating currency
	ErrUnreconciledPosting = errors.New("posting cannot be reconciled to operating currency")

	// ErrMonthOutOfRange is returned when a requested display month is not
	// covered by the computed tables
	ErrMonthOutOfRange = errors.New("month not in computed range")

	// ErrComputationFailed is recorded when the computation panics and the
	// run falls back to an empty result
	ErrComputationFailed = errors.New("computation failed")
)

// Severity classifies a diagnostic
type Severity int

const (
	// SeverityWarning marks a degraded-but-continuing condition
	SeverityWarning Severity = iota

	// SeverityError marks a recovered failure
	SeverityError
)

// String returns the severity name
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a non-fatal problem collected during a computation run.
// Per-item failures degrade to zero/absence and are reported here instead
// of aborting the run.
type Diagnostic struct {
	ID       uuid.UUID `json:"id"`
	Severity Severity  `json:"severity"`
	Source   string    `json:"source"`
	Message  string    `json:"message"`
	Err      error     `json:"-"`
}

// Error implements the error interface
func (d *Diagnostic) Error() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %s: %v", d.Source, d.Message, d.Err)
	}
	return fmt.Sprintf("%s: %s", d.Source, d.Message)
}

// Unwrap returns the wrapped error
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// diagnostics accumulates problems across one computation run.
type diagnostics struct {
	items []Diagnostic
}

func (ds *diagnostics) warnf(source string, err error, format string, args ...interface{}) {
	ds.add(SeverityWarning, source, err, format, args...)
}

func (ds *diagnostics) errorf(source string, err error, format string, args ...interface{}) {
	ds.add(SeverityError, source, err, format, args...)
}

func (ds *diagnostics) add(sev Severity, source string, err error, format string, args ...interface{}) {
	ds.items = append(ds.items, Diagnostic{
		ID:       uuid.New(),
		Severity: sev,
		Source:   source,
		Message:  fmt.Sprintf(format, args...),
		Err:      err,
	})
}
