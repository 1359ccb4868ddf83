package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ReferenceParse is a whole-buffer, non-chunked parser kept only for
// differential testing against Machine: it takes the entire input in one
// slice (no carry-over, no is_final semantics) and returns records
// directly, so a test can assert that splitting the same input across
// several Machine.Consume calls produces the same field values as parsing
// it all at once here. It implements the same SWAR scanning idea as the
// simd package but independently, so a bug shared between the two would
// still show up as a behavioral difference against this file's
// byte-by-byte fallback paths.
//
// It does not implement TrimWhitespace, MaxFieldSize, or MaxRowSize —
// those are Machine-only concerns exercised directly in machine_test.go —
// and it has no lenient mode: a stray quote in an unquoted field, an
// unclosed quoted field, or a byte after a closing quote other than a
// delimiter or line ending is returned as an error. ReferenceParse exists
// purely to cross-check row/field values for well-formed input.
func ReferenceParse(data []byte, delim, quote byte) ([][]string, error) {
	if len(data) == 0 {
		return [][]string{}, nil
	}

	p := &referenceParser{data: data, length: len(data), delim: delim, quote: quote}
	return p.parse()
}

type referenceParser struct {
	data   []byte
	pos    int
	length int
	delim  byte
	quote  byte
}

func (p *referenceParser) parse() ([][]string, error) {
	records := make([][]string, 0, 16)
	for p.pos < p.length {
		if p.isNewline() {
			p.skipNewline()
			continue
		}
		record, err := p.parseRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (p *referenceParser) parseRecord() ([]string, error) {
	var fields []string
	for {
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)

		if p.pos >= p.length {
			return fields, nil
		}

		c := p.data[p.pos]
		if c == p.delim {
			p.pos++
			continue
		}
		if c == '\r' || c == '\n' {
			p.skipNewline()
			return fields, nil
		}
		return nil, fmt.Errorf("unexpected character %q at position %d", c, p.pos)
	}
}

func (p *referenceParser) parseField() (string, error) {
	if p.pos >= p.length {
		return "", nil
	}
	if p.data[p.pos] == p.quote {
		return p.parseQuotedField()
	}
	return p.parseUnquotedField()
}

// parseUnquotedField scans 8 bytes at a time with the SWAR null-byte trick,
// falling back to a byte-by-byte scan for the remainder.
func (p *referenceParser) parseUnquotedField() (string, error) {
	start := p.pos

	for p.pos+8 <= p.length {
		chunk := binary.LittleEndian.Uint64(p.data[p.pos : p.pos+8])

		delimMatch := chunk ^ (uint64(p.delim) * 0x0101010101010101)
		lfMatch := chunk ^ 0x0a0a0a0a0a0a0a0a
		crMatch := chunk ^ 0x0d0d0d0d0d0d0d0d
		quoteMatch := chunk ^ (uint64(p.quote) * 0x0101010101010101)

		const loMask = 0x0101010101010101
		const hiMask = 0x8080808080808080

		combined := ((delimMatch - loMask) & ^delimMatch & hiMask) |
			((lfMatch - loMask) & ^lfMatch & hiMask) |
			((crMatch - loMask) & ^crMatch & hiMask) |
			((quoteMatch - loMask) & ^quoteMatch & hiMask)

		if combined == 0 {
			p.pos += 8
			continue
		}

		endPos := p.pos + 8
		for p.pos < endPos {
			c := p.data[p.pos]
			if c == p.delim || c == '\r' || c == '\n' {
				return string(p.data[start:p.pos]), nil
			}
			if c == p.quote {
				return "", fmt.Errorf("quote character in unquoted field at position %d", p.pos)
			}
			p.pos++
		}
	}

	for p.pos < p.length {
		c := p.data[p.pos]
		if c == p.delim || c == '\r' || c == '\n' {
			break
		}
		if c == p.quote {
			return "", fmt.Errorf("quote character in unquoted field at position %d", p.pos)
		}
		p.pos++
	}

	return string(p.data[start:p.pos]), nil
}

func (p *referenceParser) parseQuotedField() (string, error) {
	p.pos++ // skip opening quote
	var buf []byte
	start := p.pos

	for p.pos < p.length {
		c := p.data[p.pos]
		if c == p.quote {
			buf = append(buf, p.data[start:p.pos]...)
			p.pos++

			if p.pos < p.length && p.data[p.pos] == p.quote {
				buf = append(buf, p.quote)
				p.pos++
				start = p.pos
				continue
			}
			return string(buf), nil
		}
		p.pos++
	}

	return "", errors.New("unclosed quoted field")
}

func (p *referenceParser) isNewline() bool {
	if p.pos >= p.length {
		return false
	}
	c := p.data[p.pos]
	return c == '\r' || c == '\n'
}

func (p *referenceParser) skipNewline() {
	if p.pos >= p.length {
		return
	}
	if p.data[p.pos] == '\r' {
		p.pos++
		if p.pos < p.length && p.data[p.pos] == '\n' {
			p.pos++
		}
		return
	}
	if p.data[p.pos] == '\n' {
		p.pos++
	}
}
