package csv

import (
	"fmt"
	"strings"

	"github.com/Vitruves/sonicsv/internal/engine"
)

// ParseError wraps one error surfaced by a Parser; it is the value an
// ErrorHandler receives. ParseBuffer, ParseFile, ParseStream, and
// ParseString themselves return only the Status.
type ParseError struct {
	Status    Status
	Message   string
	RowNumber uint64

	sentinel error // matched common error, if any; see Unwrap
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sonicsv: %s at row %d: %s", e.Status, e.RowNumber, e.Message)
}

// Unwrap lets errors.Is match ParseError against the common sentinels below
// when the failure is one of the kinds they name; it returns nil otherwise,
// so errors.Is correctly reports no match for, say, a StrictMode violation
// those sentinels don't cover.
func (e *ParseError) Unwrap() error {
	return e.sentinel
}

func newParseError(info engine.ErrorInfo) *ParseError {
	return &ParseError{
		Status:    Status(info.Kind),
		Message:   info.Message,
		RowNumber: info.RowNumber,
		sentinel:  sentinelFor(info.Kind, info.Message),
	}
}

// sentinelFor maps an engine error back to the exported sentinel callers
// match against with errors.Is. StatusParseError covers several distinct
// StrictMode violations (see machine.go's reportError call sites), so those
// are disambiguated by message content; one of them (stray byte after a
// closing quote) has no corresponding sentinel and returns nil.
func sentinelFor(kind engine.Status, message string) error {
	switch kind {
	case engine.StatusFieldTooLarge:
		return ErrFieldTooLarge
	case engine.StatusRowTooLarge:
		return ErrRowTooLarge
	case engine.StatusOutOfMemory:
		return ErrOutOfMemory
	case engine.StatusParseError:
		switch {
		case strings.Contains(message, "quote character in unquoted field"):
			return ErrQuote
		case strings.Contains(message, "unclosed quoted field"):
			return ErrUnclosedQuote
		}
	}
	return nil
}

// Common sentinel errors matching the error taxonomy in the status surface;
// callers that want to match a specific failure kind should prefer
// errors.Is against these, or inspect ParseError.Status directly.
var (
	ErrQuote         = fmt.Errorf("sonicsv: quote character in unquoted field")
	ErrFieldTooLarge = fmt.Errorf("sonicsv: field exceeds MaxFieldSize")
	ErrRowTooLarge   = fmt.Errorf("sonicsv: row exceeds MaxRowSize")
	ErrOutOfMemory   = fmt.Errorf("sonicsv: allocation would exceed MaxMemoryBytes")
	ErrUnclosedQuote = fmt.Errorf("sonicsv: unclosed quoted field at end of input")
)

// ErrorHandler receives every error a Parser encounters, informationally
// only: the handler cannot request a retry or a skip. Already-emitted rows
// before the error stand; the current ParseBuffer call still halts.
type ErrorHandler func(ParseError)
