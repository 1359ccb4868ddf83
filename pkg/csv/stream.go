package csv

import (
	"fmt"
	"io"
)

// Record is a single parsed row with optional header-based lookup.
type Record struct {
	fields  []string
	headers []string
}

// Len returns the number of fields in the record.
func (r Record) Len() int { return len(r.fields) }

// Get returns the field at index, or "" and false if index is out of range.
func (r Record) Get(index int) (string, bool) {
	if index < 0 || index >= len(r.fields) {
		return "", false
	}
	return r.fields[index], true
}

// GetByName returns the field whose header matches name, or "" and false if
// no headers were set or name is not among them.
func (r Record) GetByName(name string) (string, bool) {
	for i, h := range r.headers {
		if h == name {
			return r.Get(i)
		}
	}
	return "", false
}

// Fields returns the record's fields as a plain string slice.
func (r Record) Fields() []string { return r.fields }

// Scanner provides a streaming interface for reading CSV records one at a
// time, on top of a Parser. This is convenient for callers that want
// bufio.Scanner-style iteration instead of registering a row callback
// directly.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner := csv.NewScanner(file).SetHasHeaders(true)
//	for scanner.Scan() {
//	    record := scanner.Record()
//	    name, _ := record.GetByName("name")
//	    fmt.Println(name)
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	reader      io.Reader
	opts        Options
	hasHeaders  bool
	reuseRecord bool
	headers     []string
	records     [][]string
	index       int
	err         error
	parsed      bool
	lastRecord  Record
}

// NewScanner creates a new Scanner that reads CSV from the given io.Reader
// using DefaultOptions. By default, the scanner assumes no headers; use
// SetHasHeaders(true) to treat the first row as headers.
func NewScanner(reader io.Reader) *Scanner {
	return &Scanner{
		reader: reader,
		opts:   DefaultOptions(),
		index:  -1,
	}
}

// NewScannerWithOptions creates a Scanner using the given dialect Options.
func NewScannerWithOptions(reader io.Reader, opts Options) *Scanner {
	return &Scanner{
		reader: reader,
		opts:   opts,
		index:  -1,
	}
}

// SetHasHeaders sets whether the first row should be treated as headers.
// Returns the Scanner for method chaining.
func (s *Scanner) SetHasHeaders(hasHeaders bool) *Scanner {
	s.hasHeaders = hasHeaders
	return s
}

// SetReuseRecord sets whether Record() fills one Record value kept on the
// Scanner instead of building a new one per call. Record() returns a copy
// either way and every row keeps its own field slice, so a Record returned
// by a prior Scan iteration stays valid after the next one.
// Returns the Scanner for method chaining.
func (s *Scanner) SetReuseRecord(reuse bool) *Scanner {
	s.reuseRecord = reuse
	return s
}

// Scan advances the scanner to the next record. It returns false when there
// are no more records or an error occurred; after that, Err reports the
// error, if any.
func (s *Scanner) Scan() bool {
	if !s.parsed {
		if err := s.parse(); err != nil {
			s.err = err
			return false
		}
		s.parsed = true
	}

	s.index++
	return s.index < len(s.records)
}

// Record returns the current record. Only valid after Scan() returns true.
func (s *Scanner) Record() Record {
	if s.index < 0 || s.index >= len(s.records) {
		return Record{headers: s.headers}
	}

	if s.reuseRecord {
		s.lastRecord.fields = s.records[s.index]
		s.lastRecord.headers = s.headers
		return s.lastRecord
	}

	return Record{fields: s.records[s.index], headers: s.headers}
}

// Err returns the error, if any, encountered during scanning.
func (s *Scanner) Err() error { return s.err }

// Headers returns the column headers, if SetHasHeaders(true) was called.
// Available after the first call to Scan().
func (s *Scanner) Headers() []string { return s.headers }

// parse reads the underlying reader to completion and buffers every row.
// The engine itself parses in BufferSize-sized chunks, but Scanner's
// index-based Scan/Record API needs every row materialized up front rather
// than pulled lazily from the callback.
func (s *Scanner) parse() error {
	p, err := New(s.opts)
	if err != nil {
		return err
	}

	var rows [][]string
	var parseErr error
	p.SetRowCallback(func(row Row) {
		fields := make([]string, len(row.Fields))
		for i, f := range row.Fields {
			fields[i] = string(f.Data)
		}
		rows = append(rows, fields)
	})
	p.SetErrorCallback(func(e ParseError) {
		if parseErr == nil {
			parseErr = fmt.Errorf("%w", &e)
		}
	})

	if status := p.ParseStream(s.reader); status != StatusOK && parseErr == nil {
		parseErr = fmt.Errorf("sonicsv: parse stream: %s", status)
	}
	if parseErr != nil {
		return parseErr
	}

	if s.hasHeaders && len(rows) > 0 {
		s.headers = rows[0]
		s.records = rows[1:]
	} else {
		s.headers = nil
		s.records = rows
	}
	return nil
}
