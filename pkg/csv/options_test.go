package csv_test

import (
	"testing"

	"github.com/Vitruves/sonicsv/pkg/csv"
)

func TestDefaultOptions(t *testing.T) {
	opts := csv.DefaultOptions()

	if opts.Delimiter != ',' {
		t.Errorf("DefaultOptions().Delimiter = %q, want ','", opts.Delimiter)
	}
	if opts.Quote != '"' {
		t.Errorf("DefaultOptions().Quote = %q, want '\"'", opts.Quote)
	}
	if !opts.DoubleQuoteEscape {
		t.Error("DefaultOptions().DoubleQuoteEscape should be true")
	}
	if !opts.IgnoreEmptyLines {
		t.Error("DefaultOptions().IgnoreEmptyLines should be true")
	}
	if opts.StrictMode {
		t.Error("DefaultOptions().StrictMode should be false")
	}
	if opts.MaxFieldSize == 0 {
		t.Error("DefaultOptions().MaxFieldSize should be non-zero")
	}
	if opts.MaxRowSize < opts.MaxFieldSize {
		t.Error("DefaultOptions().MaxRowSize should be >= MaxFieldSize")
	}
	if opts.BufferSize <= 0 {
		t.Error("DefaultOptions().BufferSize should be positive")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *csv.Options)
		wantErr bool
	}{
		{"defaults are valid", func(o *csv.Options) {}, false},
		{"delimiter equals quote", func(o *csv.Options) { o.Quote = o.Delimiter }, true},
		{"delimiter is CR", func(o *csv.Options) { o.Delimiter = '\r' }, true},
		{"delimiter is LF", func(o *csv.Options) { o.Delimiter = '\n' }, true},
		{"quote is LF", func(o *csv.Options) { o.Quote = '\n' }, true},
		{"zero max field size", func(o *csv.Options) { o.MaxFieldSize = 0 }, true},
		{"row size smaller than field size", func(o *csv.Options) {
			o.MaxFieldSize = 1000
			o.MaxRowSize = 10
		}, true},
		{"zero buffer size", func(o *csv.Options) { o.BufferSize = 0 }, true},
		{"custom tab delimiter", func(o *csv.Options) { o.Delimiter = '\t' }, false},
		{"custom semicolon delimiter", func(o *csv.Options) { o.Delimiter = ';' }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := csv.DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := csv.DefaultOptions()
	opts.Delimiter = opts.Quote

	if _, err := csv.New(opts); err == nil {
		t.Error("New() should reject options where Delimiter == Quote")
	}
}

func TestNewAcceptsCustomDialect(t *testing.T) {
	opts := csv.DefaultOptions()
	opts.Delimiter = '\t'
	opts.Quote = '\''

	p, err := csv.New(opts)
	if err != nil {
		t.Fatalf("New() with custom dialect: %v", err)
	}

	var rows [][]string
	p.SetRowCallback(func(r csv.Row) {
		fields := make([]string, len(r.Fields))
		for i, f := range r.Fields {
			fields[i] = string(f.Data)
		}
		rows = append(rows, fields)
	})

	status := p.ParseString("a\tb\tc\n1\t2\t3\n")
	if status != csv.StatusOK {
		t.Fatalf("ParseString() status = %v, want StatusOK", status)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}
