package calcdoc

import (
	"errors"
	"fmt"
)

// Sentinel errors for calcdoc. Use errors.Is to check.
var (
	ErrSchemaIncomplete       = errors.New("tool schema has no usable identity")
	ErrParse                  = errors.New("tool block parse failed")
	ErrUnknownToolID          = errors.New("tool id not present in tool map")
	ErrDuplicateToolID        = errors.New("tool id already compiled in document")
	ErrNoFormula              = errors.New("no formula registered")
	ErrFormulaFault           = errors.New("formula fault")
	ErrUnsafeSourceCharacters = errors.New("runtime source contains unsafe characters")
	ErrDuplicateFormula       = errors.New("formula id registered twice")
)

// ParseError reports a malformed embedded tool block (bad JSON, schema violation,
// inconsistent fields). The block is left untouched in the document.
// Err wraps ErrParse so errors.Is(err, ErrParse) holds.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid tool block: %s", e.Reason)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// FaultError is a formula invocation that returned an error or panicked.
// It is always scoped to one widget.
type FaultError struct {
	ToolID string
	Err    error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("formula %q failed: %v", e.ToolID, e.Err)
}

func (e *FaultError) Unwrap() []error {
	return []error{ErrFormulaFault, e.Err}
}

// UnsafeSourceError points at the first typographic character found in runtime source.
type UnsafeSourceError struct {
	Rune   rune
	Line   int
	Column int
	Count  int
}

func (e *UnsafeSourceError) Error() string {
	return fmt.Sprintf("runtime source has %d unsafe character(s), first %q (U+%04X) at %d:%d",
		e.Count, e.Rune, e.Rune, e.Line, e.Column)
}

func (e *UnsafeSourceError) Unwrap() error { return ErrUnsafeSourceCharacters }

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsFaultError returns true if err is or wraps a FaultError.
func IsFaultError(err error) bool {
	var fe *FaultError
	return errors.As(err, &fe)
}

// wrapJSONParseError returns a ParseError for JSON unmarshal failures.
func wrapJSONParseError(err error) error {
	return &ParseError{Reason: "json parse error: " + err.Error(), Err: err}
}

// panicError wraps a recovered panic value for FaultError; used by FormulaRegistry and WithRecovery.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
