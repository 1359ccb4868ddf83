package engine

import (
	"testing"

	"github.com/Vitruves/sonicsv/internal/engine/simd"
)

// collectMachine runs input through a Machine in one or more chunks and
// returns the resulting rows as plain [][]string, matching ReferenceParse's
// shape so the two can be compared directly.
func collectMachine(t *testing.T, input string, chunkSize int) [][]string {
	t.Helper()
	budget := &memoryBudget{}
	stats := newCounters()
	m, err := NewMachine(Config{
		Delimiter:         ',',
		Quote:             '"',
		DoubleQuoteEscape: true,
		IgnoreEmptyLines:  true,
		MaxFieldSize:      10 * 1024 * 1024,
		MaxRowSize:        100 * 1024 * 1024,
	}, budget, stats, simd.NewScanner())
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}

	var got [][]string
	m.SetCallbacks(func(r Row) {
		row := make([]string, len(r.Fields))
		for i, f := range r.Fields {
			row[i] = string(f.Data)
		}
		got = append(got, row)
	}, func(e ErrorInfo) {
		t.Fatalf("unexpected error: %v", e)
	})

	data := []byte(input)
	if chunkSize <= 0 || chunkSize >= len(data) {
		m.Consume(data, true)
		return got
	}
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		m.Consume(data[i:end], end == len(data))
	}
	return got
}

func requireEqualRows(t *testing.T, got, want [][]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("row count: got %d want %d (got=%v want=%v)", len(got), len(want), got, want)
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("row %d field count: got %v want %v", i, got[i], want[i])
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("row %d field %d: got %q want %q", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestMachineMatchesReferenceWholeInput(t *testing.T) {
	inputs := []string{
		"name,age,city\nJohn,25,Paris\nJane,30,London\n",
		`"name","age","city"` + "\n" + `"John Doe","25","Paris, France"` + "\n",
		"name,description,value\nTest,\"Value with \"\"quotes\"\"\",123\n",
		"a,,c\r\n1,2,3\r\n",
		"k,v\n1,\"line1\nline2\"\n",
	}
	for _, in := range inputs {
		want, err := ReferenceParse([]byte(in), ',', '"')
		if err != nil {
			t.Fatalf("ReferenceParse(%q): %v", in, err)
		}
		got := collectMachine(t, in, 0)
		requireEqualRows(t, got, want)
	}
}

func TestMachineMatchesReferenceAcrossChunkSplits(t *testing.T) {
	input := "name,age,city\nJohn,25,Paris\nJane,30,London\nAlice,\"wonders,here\",\"NY\"\n"
	want, err := ReferenceParse([]byte(input), ',', '"')
	if err != nil {
		t.Fatalf("ReferenceParse: %v", err)
	}
	for chunkSize := 1; chunkSize < len(input); chunkSize++ {
		got := collectMachine(t, input, chunkSize)
		requireEqualRows(t, got, want)
	}
}
