package csv

import (
	"regexp"
	"strings"
	"unicode"
)

// candidateDelimiters lists the field separators Sniffer scores; order only
// matters for ties, where the candidate listed first wins. When no candidate
// appears on the first line, comma is returned.
var candidateDelimiters = [...]rune{',', '\t', ';', '|'}

// Sniffer guesses a CSV dialect (delimiter, header presence) from a small
// sample of raw text, ahead of constructing Options for a Parser. Detection
// runs lazily on first use and is cached, since a Sniffer is typically asked
// for both the delimiter and the header flag off the same sample.
type Sniffer struct {
	sample    string
	delimiter rune
	hasHeader bool
	done      bool
}

// NewSniffer wraps sample for dialect detection. Two or three lines give
// the delimiter-consistency heuristic enough to work with; a single line
// still yields a delimiter guess but HasHeader always reports false for it.
func NewSniffer(sample string) *Sniffer {
	return &Sniffer{sample: sample}
}

func (s *Sniffer) ensureAnalyzed() {
	if s.done {
		return
	}
	s.delimiter = pickDelimiter(s.sample)
	s.hasHeader = firstRowLooksLikeHeader(s.sample, s.delimiter)
	s.done = true
}

// DetectDelimiter returns the delimiter judged most likely for the sample.
func (s *Sniffer) DetectDelimiter() rune {
	s.ensureAnalyzed()
	return s.delimiter
}

// HasHeader reports whether the sample's first row looks like column names
// rather than data.
func (s *Sniffer) HasHeader() bool {
	s.ensureAnalyzed()
	return s.hasHeader
}

// pickDelimiter scores each candidate by how many times it appears outside
// quotes on the sample's first non-blank line, with a tenfold bonus when
// that count holds steady across every other line (a delimiter that fires
// 3 times on every row is a much stronger signal than one firing 3, 1, 4).
func pickDelimiter(sample string) rune {
	if sample == "" {
		return ','
	}

	lines := nonEmptyLines(sample)
	if len(lines) == 0 {
		return ','
	}

	best, bestScore := ',', 0
	for _, delim := range candidateDelimiters {
		counts := make([]int, len(lines))
		for i, line := range lines {
			counts[i] = countOutsideQuotes(line, delim)
		}
		if counts[0] == 0 {
			continue
		}
		score := counts[0]
		if allEqual(counts) {
			score *= 10
		}
		if score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

func nonEmptyLines(sample string) []string {
	raw := strings.Split(sample, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func allEqual(counts []int) bool {
	for _, c := range counts[1:] {
		if c != counts[0] {
			return false
		}
	}
	return true
}

// countOutsideQuotes counts delim occurrences that fall outside a quoted
// span. It tracks quote state with a simple toggle rather than the full
// escaped-quote rules a Parser applies, since sniffing only needs a rough
// field count, not a correct parse.
func countOutsideQuotes(line string, delim rune) int {
	count := 0
	inQuotes := false
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == delim && !inQuotes:
			count++
		}
	}
	return count
}

// firstRowLooksLikeHeader classifies the first row's fields: a first row
// with more header-shaped fields than data-shaped fields is judged to be
// column names. The second non-blank row is only required to exist; its
// fields are not classified. Fewer than two rows is never enough signal.
func firstRowLooksLikeHeader(sample string, delim rune) bool {
	lines := strings.Split(sample, "\n")
	if len(lines) < 2 {
		return false
	}

	var secondLine string
	for _, line := range lines[1:] {
		if line != "" {
			secondLine = line
			break
		}
	}
	if secondLine == "" {
		return false
	}

	firstFields := splitRespectingQuotes(lines[0], delim)
	secondFields := splitRespectingQuotes(secondLine, delim)
	if len(firstFields) == 0 || len(secondFields) == 0 {
		return false
	}

	var headerVotes, dataVotes int
	for _, field := range firstFields {
		field = strings.TrimSpace(field)
		if headerShaped(field) {
			headerVotes++
		}
		if dataShaped(field) {
			dataVotes++
		}
	}
	return headerVotes > dataVotes
}

var headerShapePatterns = [...]*regexp.Regexp{
	regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`),       // identifier / snake_case
	regexp.MustCompile(`^[a-zA-Z]+[A-Z][a-zA-Z]*$`),      // camelCase
	regexp.MustCompile(`^[A-Z][a-z]+([ ][A-Z][a-z]+)*$`), // Title Case
}

// headerShaped reports whether a field reads like a plausible column name:
// non-numeric and matching one of the common identifier/casing conventions.
func headerShaped(s string) bool {
	if s == "" || looksNumeric(s) {
		return false
	}
	for _, pattern := range headerShapePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

var dateShapePatterns = [...]*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
}

// dataShaped reports whether a field reads like a data value: numeric, an
// email address, or an ISO/US-style date.
func dataShaped(s string) bool {
	if s == "" {
		return false
	}
	if looksNumeric(s) {
		return true
	}
	if strings.Contains(s, "@") {
		return true
	}
	for _, pattern := range dateShapePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// looksNumeric accepts an optional leading minus sign and at most one
// decimal point; every other rune must be a digit.
func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}

	sawDot := false
	for _, ch := range s {
		switch {
		case ch == '.':
			if sawDot {
				return false
			}
			sawDot = true
		case !unicode.IsDigit(ch):
			return false
		}
	}
	return true
}

// splitRespectingQuotes is a quote-aware split used only for sniffing; it
// toggles on bare quote runes rather than applying a Parser's full escaping
// rules, which is sufficient for counting and classifying fields.
func splitRespectingQuotes(line string, delim rune) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			current.WriteRune(ch)
		case ch == delim && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// HeaderConverter transforms a detected header name, e.g. for normalizing
// column names before they're used as map keys.
type HeaderConverter func(string) string

// LowercaseHeader lowercases a header name.
func LowercaseHeader(s string) string { return strings.ToLower(s) }

// UppercaseHeader uppercases a header name.
func UppercaseHeader(s string) string { return strings.ToUpper(s) }

// SnakeCaseHeader rewrites a header from camelCase, PascalCase, or
// space-separated words into snake_case.
func SnakeCaseHeader(s string) string {
	var out strings.Builder
	prevWasSpace := false
	for i, ch := range s {
		if ch == ' ' {
			if out.Len() > 0 && !prevWasSpace {
				out.WriteRune('_')
			}
			prevWasSpace = true
			continue
		}
		if unicode.IsUpper(ch) && i > 0 && !prevWasSpace {
			out.WriteRune('_')
		}
		out.WriteRune(unicode.ToLower(ch))
		prevWasSpace = false
	}
	return out.String()
}
