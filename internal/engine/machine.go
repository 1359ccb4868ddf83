// Package engine implements the chunked streaming state machine, its
// backing arenas, and the bulk byte scanner that feeds it. A Machine is
// strictly single-threaded: all work happens on the caller's goroutine
// during Consume, and row/error callbacks are invoked synchronously before
// Consume returns. The branch-based transition loop below follows the same
// shape as the teacher's original byte-by-byte parser (field-at-a-time,
// borrowing directly from the input window for unquoted fields), narrowed
// to the three explicit phases (ReferenceParse in reference.go provides the
// independent, whole-buffer oracle used to differentially test it).
package engine

import (
	"fmt"

	"github.com/Vitruves/sonicsv/internal/engine/simd"
)

// phase is the parser's three-state machine (S0/S1/S2 in the design).
type phase uint8

const (
	phaseFieldStart        phase = iota // S0
	phaseInQuotedField                  // S1
	phaseQuoteInQuotedField              // S2
)

// Config is the subset of parser options the state machine needs to make
// transition decisions. pkg/csv.Options is validated and converted into a
// Config when a Parser is constructed.
type Config struct {
	Delimiter         byte
	Quote             byte
	DoubleQuoteEscape bool
	TrimWhitespace    bool
	IgnoreEmptyLines  bool
	StrictMode        bool
	MaxFieldSize      uint64
	MaxRowSize        uint64
}

const (
	initialFieldCapacity   = 512
	initialQuotedArenaSize = 16 * 1024
	initialScratchSize     = 32 * 1024
)

// Machine owns every buffer a parser needs and drives the scanner from
// inside its transition loop, exactly as C4 is specified to do.
type Machine struct {
	cfg     Config
	scanner *simd.Scanner
	budget  *memoryBudget
	stats   *counters

	phase phase

	unparsed    *arena // carries a partial unquoted field across chunk boundaries
	scratch     *arena // in-progress quoted field content, survives chunk boundaries
	quotedArena *arena // de-escaped quoted field storage for the current row
	fields      *fieldVec

	rowCounter     uint64
	rowStartOffset uint64
	fieldStartAbs  uint64 // absolute offset where the in-progress field began

	onRow   func(Row)
	onError func(ErrorInfo)
}

// NewMachine allocates a Machine with the small initial capacities the
// design specifies (512 fields, 16 KiB quoted arena, 32 KiB field scratch),
// honoring the shared memory budget from first allocation.
func NewMachine(cfg Config, budget *memoryBudget, stats *counters, scanner *simd.Scanner) (*Machine, error) {
	unparsed, err := newArena(0, budget, stats)
	if err != nil {
		return nil, err
	}
	scratch, err := newArena(initialScratchSize, budget, stats)
	if err != nil {
		return nil, err
	}
	quoted, err := newArena(initialQuotedArenaSize, budget, stats)
	if err != nil {
		return nil, err
	}
	fields, err := newFieldVec(initialFieldCapacity, budget, stats)
	if err != nil {
		return nil, err
	}
	return &Machine{
		cfg:         cfg,
		scanner:     scanner,
		budget:      budget,
		stats:       stats,
		unparsed:    unparsed,
		scratch:     scratch,
		quotedArena: quoted,
		fields:      fields,
	}, nil
}

// NewMachineWithBudget is the convenience constructor pkg/csv.New uses: it
// builds the shared memory budget, stats counters, and scanner internally,
// recording the process capability snapshot for Stats.SIMDFeaturesUsed.
func NewMachineWithBudget(cfg Config, maxMemoryBytes uint64) (*Machine, error) {
	budget := &memoryBudget{limit: maxMemoryBytes}
	stats := newCounters()
	stats.setFeatures(simd.DetectFeatures())
	scanner := simd.NewScanner()
	return NewMachine(cfg, budget, stats, scanner)
}

// Stats returns a snapshot of the machine's running statistics.
func (m *Machine) Stats() Stats {
	return m.stats.snapshot()
}

// SetCallbacks installs the row and error callbacks. Either may be nil.
func (m *Machine) SetCallbacks(onRow func(Row), onError func(ErrorInfo)) {
	m.onRow = onRow
	m.onError = onError
}

// Reset returns the machine to its initial state, retaining every buffer's
// allocation but clearing contents and counters tied to progress.
func (m *Machine) Reset() {
	m.phase = phaseFieldStart
	m.unparsed.reset()
	m.scratch.reset()
	m.quotedArena.reset()
	m.fields.reset()
	m.rowCounter = 0
	m.rowStartOffset = 0
	m.fieldStartAbs = 0
	m.stats.reset()
}

func (m *Machine) reportError(kind Status, msg string) {
	m.stats.recordError()
	if m.onError != nil {
		m.onError(ErrorInfo{Kind: kind, Message: msg, RowNumber: m.rowCounter + 1})
	}
}

// Consume feeds one chunk of bytes through the state machine. isFinal must
// be true exactly on the last chunk of a logical input.
func (m *Machine) Consume(chunk []byte, isFinal bool) Status {
	carryLen := m.unparsed.len()
	var combined []byte
	if carryLen > 0 {
		if _, err := m.unparsed.append(chunk); err != nil {
			m.reportError(StatusOutOfMemory, err.Error())
			return StatusOutOfMemory
		}
		combined = m.unparsed.slice(0, m.unparsed.len())
		// The staged copy has been captured in combined; unparsed itself is
		// cleared so a fresh carry (if any) can be written into it at the
		// end of this call without confusing the next call's carryLen.
		m.unparsed.reset()
	} else {
		combined = chunk
	}

	regionStart := m.stats.totalBytes - uint64(carryLen)
	m.stats.recordBytes(len(chunk))

	status, err := m.run(combined, regionStart, isFinal)
	if err != nil {
		m.reportError(status, err.Error())
	}
	return status
}

// run is the main transition loop over combined (the logical concatenation
// of any carried-over prefix and the new chunk). regionStart is the
// absolute stream offset of combined[0].
func (m *Machine) run(combined []byte, regionStart uint64, isFinal bool) (Status, error) {
	pos := 0
	n := len(combined)

	for pos < n {
		switch m.phase {
		case phaseFieldStart:
			status, newPos, carry, err := m.consumeFieldStart(combined, pos, regionStart)
			if err != nil {
				return status, err
			}
			if carry {
				// Unquoted fields already emitted for this row borrow combined,
				// which the recopy below (or the caller's next chunk) may
				// overwrite before the row is emitted: move them to owned storage.
				for i, f := range m.fields.snapshot() {
					if !f.Quoted && len(f.Data) > 0 {
						off, err := m.quotedArena.append(f.Data)
						if err != nil {
							return StatusOutOfMemory, err
						}
						m.fields.fields[i].Data = m.quotedArena.slice(off, off+len(f.Data))
					}
				}
				start := int(m.fieldStartAbs - regionStart)
				if err := m.unparsed.recopy(combined[start:]); err != nil {
					return StatusOutOfMemory, err
				}
				pos = n
				continue
			}
			pos = newPos

		case phaseInQuotedField:
			newPos, done, err := m.consumeInQuotedField(combined, pos)
			if err != nil {
				return StatusOutOfMemory, err
			}
			pos = newPos
			if !done {
				pos = n
			}

		case phaseQuoteInQuotedField:
			status, newPos, err := m.consumeQuoteInQuotedField(combined, pos)
			if err != nil {
				return status, err
			}
			pos = newPos
		}
	}

	if isFinal {
		return m.finalize()
	}
	return StatusOK, nil
}

// consumeFieldStart implements S0. Returns (status, newPos, needsCarry, err).
func (m *Machine) consumeFieldStart(data []byte, pos int, regionStart uint64) (Status, int, bool, error) {
	if m.fields.len() == 0 {
		m.rowStartOffset = regionStart + uint64(pos)
	}
	m.fieldStartAbs = regionStart + uint64(pos)

	c := data[pos]
	switch {
	case c == m.cfg.Quote:
		m.phase = phaseInQuotedField
		m.scratch.reset()
		return StatusOK, pos + 1, false, nil
	case c == m.cfg.Delimiter:
		if err := m.emitField(nil, false); err != nil {
			return statusFor(err), pos, false, err
		}
		return StatusOK, pos + 1, false, nil
	case c == '\n':
		// A bare line ending carries no field of its own; it only gets one
		// empty field when empty lines are kept.
		if m.fields.len() > 0 || !m.cfg.IgnoreEmptyLines {
			if err := m.emitField(nil, false); err != nil {
				return statusFor(err), pos, false, err
			}
		}
		if err := m.emitRow(); err != nil {
			return statusFor(err), pos, false, err
		}
		return StatusOK, pos + 1, false, nil
	case c == '\r':
		if m.fields.len() > 0 || !m.cfg.IgnoreEmptyLines {
			if err := m.emitField(nil, false); err != nil {
				return statusFor(err), pos, false, err
			}
		}
		next := pos + 1
		if next < len(data) && data[next] == '\n' {
			next++
		}
		if err := m.emitRow(); err != nil {
			return statusFor(err), pos, false, err
		}
		return StatusOK, next, false, nil
	default:
		return m.consumeUnquotedField(data, pos)
	}
}

// consumeUnquotedField implements S0's fast path: bulk-scan for the next
// structural byte and borrow the span directly from the input window.
func (m *Machine) consumeUnquotedField(data []byte, start int) (Status, int, bool, error) {
	pos := start
	for {
		res, tier := m.scanner.FindNext(data[pos:], m.cfg.Delimiter, m.cfg.Quote)
		if tier == simd.TierScalar {
			m.stats.recordScalarOp()
		} else {
			m.stats.recordSIMDOp()
		}

		if res.Kind == simd.KindNone {
			// Field runs off the end of this window; caller carries it.
			return StatusOK, pos + res.Offset, true, nil
		}

		hit := pos + res.Offset
		if res.Kind == simd.KindQuote {
			if m.cfg.StrictMode {
				return StatusParseError, hit, false, fmt.Errorf("quote character in unquoted field at position %d", hit)
			}
			// Lenient: the stray quote is ordinary content; keep scanning
			// past it for a real terminator.
			pos = hit + 1
			continue
		}

		field := data[start:hit]
		if m.cfg.TrimWhitespace {
			field = trimSpaceTab(field)
		}
		if err := m.emitField(field, false); err != nil {
			return statusFor(err), hit, false, err
		}

		switch res.Kind {
		case simd.KindDelimiter:
			return StatusOK, hit + 1, false, nil
		case simd.KindLF:
			if err := m.emitRow(); err != nil {
				return statusFor(err), hit + 1, false, err
			}
			return StatusOK, hit + 1, false, nil
		case simd.KindCR:
			next := hit + 1
			if next < len(data) && data[next] == '\n' {
				next++
			}
			if err := m.emitRow(); err != nil {
				return statusFor(err), next, false, err
			}
			return StatusOK, next, false, nil
		}
	}
}

// consumeInQuotedField implements S1. Returns (newPos, done, err); done is
// false when the window ran out before a closing quote was found.
func (m *Machine) consumeInQuotedField(data []byte, start int) (int, bool, error) {
	pos := start
	for {
		res, tier := m.scanner.FindNext(data[pos:], m.cfg.Delimiter, m.cfg.Quote)
		if tier == simd.TierScalar {
			m.stats.recordScalarOp()
		} else {
			m.stats.recordSIMDOp()
		}

		if res.Kind == simd.KindNone {
			if _, err := m.scratch.append(data[pos:]); err != nil {
				return len(data), false, err
			}
			return len(data), false, nil
		}

		hit := pos + res.Offset
		if res.Kind != simd.KindQuote {
			// Delimiter/CR/LF inside quotes is ordinary content.
			if _, err := m.scratch.append(data[pos : hit+1]); err != nil {
				return hit, false, err
			}
			pos = hit + 1
			continue
		}

		if _, err := m.scratch.append(data[pos:hit]); err != nil {
			return hit, false, err
		}
		m.phase = phaseQuoteInQuotedField
		return hit + 1, true, nil
	}
}

// consumeQuoteInQuotedField implements S2.
func (m *Machine) consumeQuoteInQuotedField(data []byte, pos int) (Status, int, error) {
	if pos >= len(data) {
		return StatusOK, pos, nil
	}
	c := data[pos]
	switch {
	case m.cfg.DoubleQuoteEscape && c == m.cfg.Quote:
		if err := m.scratch.appendByte(m.cfg.Quote); err != nil {
			return StatusOutOfMemory, pos, err
		}
		m.phase = phaseInQuotedField
		return StatusOK, pos + 1, nil
	case c == m.cfg.Delimiter:
		if err := m.emitQuotedField(); err != nil {
			return statusFor(err), pos, err
		}
		m.phase = phaseFieldStart
		return StatusOK, pos + 1, nil
	case c == '\n':
		if err := m.emitQuotedField(); err != nil {
			return statusFor(err), pos, err
		}
		m.phase = phaseFieldStart
		if err := m.emitRow(); err != nil {
			return statusFor(err), pos, err
		}
		return StatusOK, pos + 1, nil
	case c == '\r':
		if err := m.emitQuotedField(); err != nil {
			return statusFor(err), pos, err
		}
		m.phase = phaseFieldStart
		if err := m.emitRow(); err != nil {
			return statusFor(err), pos, err
		}
		next := pos + 1
		if next < len(data) && data[next] == '\n' {
			next++
		}
		return StatusOK, next, nil
	case c == ' ' || c == '\t':
		return StatusOK, pos + 1, nil
	default:
		if m.cfg.StrictMode {
			return StatusParseError, pos, fmt.Errorf("unexpected character after closing quote at position %d", pos)
		}
		// Lenient: the quote and this byte were both literal content.
		if err := m.scratch.appendByte(m.cfg.Quote); err != nil {
			return StatusOutOfMemory, pos, err
		}
		if err := m.scratch.appendByte(c); err != nil {
			return StatusOutOfMemory, pos, err
		}
		m.phase = phaseInQuotedField
		return StatusOK, pos + 1, nil
	}
}

// finalize applies the is_final rules: flush whatever field/row is still
// open depending on the phase Consume ended in.
func (m *Machine) finalize() (Status, error) {
	switch m.phase {
	case phaseFieldStart:
		// A final chunk whose last unquoted field never reached a delimiter
		// or line terminator (the common case for files with no trailing
		// newline) leaves its content parked in unparsed rather than the
		// field vector; it must still be emitted before the row is closed.
		if m.unparsed.len() > 0 {
			field := m.unparsed.slice(0, m.unparsed.len())
			if m.cfg.TrimWhitespace {
				field = trimSpaceTab(field)
			}
			if err := m.emitField(field, false); err != nil {
				return statusFor(err), err
			}
		}
		if m.fields.len() > 0 || m.scratch.len() > 0 {
			if err := m.emitRow(); err != nil {
				return statusFor(err), err
			}
		}
		m.unparsed.reset()
		return StatusOK, nil

	case phaseInQuotedField:
		if m.cfg.StrictMode {
			return StatusParseError, fmt.Errorf("unclosed quoted field at end of input")
		}
		if err := m.emitQuotedField(); err != nil {
			return statusFor(err), err
		}
		m.phase = phaseFieldStart
		if err := m.emitRow(); err != nil {
			return statusFor(err), err
		}
		return StatusOK, nil

	case phaseQuoteInQuotedField:
		// A closing quote at absolute end of input is unambiguous: there is
		// no further byte that could turn it into an escape, so it closes
		// the field exactly as a delimiter would.
		if err := m.emitQuotedField(); err != nil {
			return statusFor(err), err
		}
		m.phase = phaseFieldStart
		if err := m.emitRow(); err != nil {
			return statusFor(err), err
		}
		return StatusOK, nil
	}
	return StatusOK, nil
}

// emitField appends an unquoted field borrowing data directly; data may be
// nil for an empty field.
func (m *Machine) emitField(data []byte, quoted bool) error {
	if uint64(len(data)) > m.cfg.MaxFieldSize {
		return fieldTooLargeErr(len(data))
	}
	if err := m.fields.push(Field{Data: data, Quoted: quoted}); err != nil {
		return err
	}
	m.stats.recordField(len(data))
	return nil
}

// emitQuotedField copies the accumulated scratch content into the row's
// quoted arena (so the slice remains valid past the current input window)
// and appends the resulting Field.
func (m *Machine) emitQuotedField() error {
	size := m.scratch.len()
	if uint64(size) > m.cfg.MaxFieldSize {
		return fieldTooLargeErr(size)
	}
	offset, err := m.quotedArena.append(m.scratch.slice(0, size))
	if err != nil {
		return err
	}
	field := m.quotedArena.slice(offset, offset+size)
	if err := m.fields.push(Field{Data: field, Quoted: true}); err != nil {
		return err
	}
	m.stats.recordField(size)
	m.scratch.reset()
	return nil
}

// emitRow finalizes the current row: either discarding it silently
// (ignore_empty_lines with zero fields) or invoking the row callback and
// then clearing per-row storage.
func (m *Machine) emitRow() error {
	if m.fields.len() == 0 && m.cfg.IgnoreEmptyLines {
		m.fields.reset()
		m.quotedArena.reset()
		return nil
	}

	var rowSize uint64
	for _, f := range m.fields.snapshot() {
		rowSize += uint64(f.Size())
	}
	if rowSize > m.cfg.MaxRowSize {
		m.fields.reset()
		m.quotedArena.reset()
		return rowTooLargeErr(rowSize)
	}

	m.rowCounter++
	m.stats.recordRow(int(rowSize))
	row := Row{
		Fields:     m.fields.snapshot(),
		RowNumber:  m.rowCounter,
		ByteOffset: m.rowStartOffset,
	}
	if m.onRow != nil {
		m.onRow(row)
	}
	m.fields.reset()
	m.quotedArena.reset()
	return nil
}

func trimSpaceTab(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && (b[start] == ' ' || b[start] == '\t') {
		start++
	}
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t') {
		end--
	}
	return b[start:end]
}

type fieldTooLargeError struct{ size int }

func (e fieldTooLargeError) Error() string {
	return fmt.Sprintf("field size %d exceeds max_field_size", e.size)
}

func fieldTooLargeErr(size int) error { return fieldTooLargeError{size} }

type rowTooLargeError struct{ size uint64 }

func (e rowTooLargeError) Error() string {
	return fmt.Sprintf("row size %d exceeds max_row_size", e.size)
}

func rowTooLargeErr(size uint64) error { return rowTooLargeError{size} }

// statusFor maps an internal error back to its Status code.
func statusFor(err error) Status {
	switch err.(type) {
	case fieldTooLargeError:
		return StatusFieldTooLarge
	case rowTooLargeError:
		return StatusRowTooLarge
	}
	if err == ErrOutOfMemory {
		return StatusOutOfMemory
	}
	return StatusParseError
}
