package csv

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/Vitruves/sonicsv/internal/engine"
)

// RowHandler receives each parsed row. Its Field slices and their Data
// backing arrays are only valid for the duration of the call; retaining
// them past return is undefined behavior. Copy anything that needs to
// outlive the callback.
type RowHandler func(Row)

// Parser is a chunked, callback-driven CSV/TSV parser. All work happens on
// the calling goroutine: ParseBuffer, ParseString, ParseFile, and
// ParseStream never spawn background work, and row/error callbacks run
// synchronously before the call that triggered them returns. A Parser is
// not safe for concurrent use from multiple goroutines; run separate
// instances per goroutine instead, using FindSplitPoints to divide input
// on safe line boundaries first.
type Parser struct {
	id      uuid.UUID
	opts    Options
	machine *engine.Machine
	onRow   RowHandler
	onError ErrorHandler
	closed  bool
}

// New constructs a Parser from opts. opts is validated up front; an invalid
// value is reported immediately rather than surfacing mid-parse.
func New(opts Options) (*Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cfg := engine.Config{
		Delimiter:         opts.Delimiter,
		Quote:             opts.Quote,
		DoubleQuoteEscape: opts.DoubleQuoteEscape,
		TrimWhitespace:    opts.TrimWhitespace,
		IgnoreEmptyLines:  opts.IgnoreEmptyLines,
		StrictMode:        opts.StrictMode,
		MaxFieldSize:      opts.MaxFieldSize,
		MaxRowSize:        opts.MaxRowSize,
	}

	m, err := engine.NewMachineWithBudget(cfg, opts.MaxMemoryBytes)
	if err != nil {
		return nil, err
	}

	p := &Parser{id: uuid.New(), opts: opts, machine: m}
	m.SetCallbacks(p.dispatchRow, p.dispatchError)
	return p, nil
}

// ID uniquely identifies this Parser instance, useful for correlating log
// lines or stats snapshots across a fleet of parsers each handling a
// partition of the same logical input.
func (p *Parser) ID() uuid.UUID { return p.id }

// SetRowCallback installs the handler invoked once per emitted row.
func (p *Parser) SetRowCallback(fn RowHandler) { p.onRow = fn }

// SetErrorCallback installs the handler invoked once per surfaced error, in
// addition to that error's Status being returned from the triggering call.
func (p *Parser) SetErrorCallback(fn ErrorHandler) { p.onError = fn }

func (p *Parser) dispatchRow(r engine.Row) {
	if p.onRow != nil {
		p.onRow(r)
	}
}

func (p *Parser) dispatchError(info engine.ErrorInfo) {
	if p.onError != nil {
		p.onError(*newParseError(info))
	}
}

// Reset returns the parser to its pristine state, retaining every buffer's
// allocation. Call this to reuse a Parser after an error rather than
// constructing a new one.
func (p *Parser) Reset() {
	p.machine.Reset()
}

// Close releases the parser. A Parser has no background resources to stop,
// but Close is provided so callers can defer it symmetrically with
// io.Closer-shaped resources upstream (an open file, a socket).
func (p *Parser) Close() error {
	p.closed = true
	return nil
}

// ParseBuffer feeds one chunk of bytes through the parser. isFinal must be
// true exactly on the logical input's last chunk; splitting input across
// multiple ParseBuffer calls with isFinal=false on all but the last
// produces identical rows to a single whole-input call, including across
// splits that land inside a quoted field. ParseBuffer never blocks.
func (p *Parser) ParseBuffer(chunk []byte, isFinal bool) Status {
	if p.closed {
		return StatusInvalidArguments
	}
	return Status(p.machine.Consume(chunk, isFinal))
}

// ParseString parses s as a single, complete input. It rejects inputs
// longer than MaxRowSize up front since a single-field or single-row input
// that large could never emit successfully.
func (p *Parser) ParseString(s string) Status {
	if uint64(len(s)) > p.opts.MaxRowSize {
		p.dispatchError(engine.ErrorInfo{Kind: engine.StatusRowTooLarge, Message: "input exceeds MaxRowSize", RowNumber: 1})
		return StatusRowTooLarge
	}
	return p.ParseBuffer([]byte(s), true)
}

// ParseStream reads r to completion in Options.BufferSize chunks, feeding
// each through ParseBuffer. Unlike ParseBuffer, ParseStream blocks on I/O.
func (p *Parser) ParseStream(r io.Reader) Status {
	for {
		// A fresh buffer per read: fields of a row that spans two reads may
		// still borrow the previous buffer until that row is emitted.
		buf := make([]byte, p.opts.BufferSize)
		n, err := r.Read(buf)
		if n > 0 {
			isFinal := err == io.EOF
			if status := p.ParseBuffer(buf[:n], isFinal); status != StatusOK {
				return status
			}
			if isFinal {
				return StatusOK
			}
		}
		if err != nil {
			if err == io.EOF {
				return p.ParseBuffer(nil, true)
			}
			p.dispatchError(engine.ErrorInfo{Kind: engine.StatusIoError, Message: err.Error()})
			return StatusIoError
		}
	}
}

// ParseFile opens path and streams it through the parser in
// Options.BufferSize chunks, exactly as ParseStream does for an arbitrary
// reader.
func (p *Parser) ParseFile(path string) Status {
	f, err := os.Open(path)
	if err != nil {
		p.dispatchError(engine.ErrorInfo{Kind: engine.StatusIoError, Message: fmt.Sprintf("open %s: %v", path, err)})
		return StatusIoError
	}
	defer f.Close()
	return p.ParseStream(bufio.NewReaderSize(f, p.opts.BufferSize))
}

// ParseMmappedFile behaves like ParseFile but memory-maps the file instead
// of reading it through a buffered reader, avoiding the extra copy for
// very large inputs on platforms that support mmap. It still feeds the
// mapped bytes through ParseBuffer in Options.BufferSize slices so chunk
// accounting matches the streaming path exactly.
func (p *Parser) ParseMmappedFile(path string) Status {
	data, cleanup, err := engine.MmapFile(path)
	if err != nil {
		p.dispatchError(engine.ErrorInfo{Kind: engine.StatusIoError, Message: err.Error()})
		return StatusIoError
	}
	defer cleanup()

	chunkSize := p.opts.BufferSize
	for offset := 0; offset < len(data); offset += chunkSize {
		end := offset + chunkSize
		if end > len(data) {
			end = len(data)
		}
		isFinal := end == len(data)
		if status := p.ParseBuffer(data[offset:end], isFinal); status != StatusOK {
			return status
		}
	}
	if len(data) == 0 {
		return p.ParseBuffer(nil, true)
	}
	return StatusOK
}

// Stats returns a snapshot of the parser's running statistics.
func (p *Parser) Stats() Stats {
	return p.machine.Stats()
}
