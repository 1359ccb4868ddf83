// Package csv provides a chunked, callback-driven CSV/TSV parser built for
// throughput on large inputs: it scans several bytes per step for the next
// structural byte and borrows field data directly from the caller's buffer
// wherever the RFC 4180 grammar allows it.
package csv

import "fmt"

// Options configures a Parser. The zero value is not valid; start from
// DefaultOptions and override only the fields that need to change.
type Options struct {
	// Delimiter separates fields. Default: ','
	Delimiter byte

	// Quote wraps fields that need to contain the delimiter or a line
	// ending. Default: '"'
	Quote byte

	// DoubleQuoteEscape controls whether a doubled quote inside a quoted
	// field is unescaped to a single quote. Default: true
	DoubleQuoteEscape bool

	// TrimWhitespace trims leading/trailing space and tab from unquoted
	// fields only; quoted fields always preserve their inner bytes exactly.
	// Default: false
	TrimWhitespace bool

	// IgnoreEmptyLines suppresses rows with zero fields (a bare line ending
	// with nothing before it). Default: true
	IgnoreEmptyLines bool

	// StrictMode rejects ambiguous input (a stray quote in an unquoted
	// field, trailing bytes after a closing quote, an unclosed quote at end
	// of input) instead of absorbing it. Default: false
	StrictMode bool

	// MaxFieldSize bounds a single field's byte length. Default: 10 MiB
	MaxFieldSize uint64

	// MaxRowSize bounds the sum of a row's field byte lengths. Default: 100 MiB
	MaxRowSize uint64

	// MaxMemoryBytes bounds the parser's total owned allocation. Zero means
	// unbounded. Default: 0
	MaxMemoryBytes uint64

	// BufferSize is the chunk size ParseFile and ParseStream read at a time.
	// Default: 64 KiB
	BufferSize int
}

const (
	defaultMaxFieldSize = 10 * 1024 * 1024
	defaultMaxRowSize   = 100 * 1024 * 1024
	defaultBufferSize   = 64 * 1024
)

// DefaultOptions returns the parser's default configuration.
func DefaultOptions() Options {
	return Options{
		Delimiter:         ',',
		Quote:             '"',
		DoubleQuoteEscape: true,
		TrimWhitespace:    false,
		IgnoreEmptyLines:  true,
		StrictMode:        false,
		MaxFieldSize:      defaultMaxFieldSize,
		MaxRowSize:        defaultMaxRowSize,
		MaxMemoryBytes:    0,
		BufferSize:        defaultBufferSize,
	}
}

// OptionsError reports an invalid Options value.
type OptionsError struct {
	Field   string
	Message string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("sonicsv: invalid option %s: %s", e.Field, e.Message)
}

// Validate checks the invariants spec'd for ParseOptions, returning the
// first violation found.
func (o Options) Validate() error {
	if o.Delimiter == o.Quote {
		return &OptionsError{Field: "Delimiter", Message: "must differ from Quote"}
	}
	if o.Delimiter == '\r' || o.Delimiter == '\n' {
		return &OptionsError{Field: "Delimiter", Message: "must not be CR or LF"}
	}
	if o.Quote == '\r' || o.Quote == '\n' {
		return &OptionsError{Field: "Quote", Message: "must not be CR or LF"}
	}
	if o.MaxFieldSize < 1 {
		return &OptionsError{Field: "MaxFieldSize", Message: "must be at least 1"}
	}
	if o.MaxRowSize < o.MaxFieldSize {
		return &OptionsError{Field: "MaxRowSize", Message: "must be at least MaxFieldSize"}
	}
	if o.BufferSize < 1 {
		return &OptionsError{Field: "BufferSize", Message: "must be positive"}
	}
	return nil
}
