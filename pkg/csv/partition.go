package csv

// FindSplitPoints scans data for up to n-1 safe partition boundaries so an
// external driver can hand each resulting slice to a separate Parser
// running on its own goroutine. A boundary is only ever placed right after
// a line ending (LF, or CR optionally followed by LF) that is not inside a
// quoted field: splitting anywhere else could sever a field or, worse,
// misinterpret a quoted delimiter or line ending as structural in the
// following partition. The scan is a single forward pass that toggles quote
// state on every opts.Quote byte; a doubled quote toggles twice and so
// leaves the state unchanged, but a stray quote inside an unquoted field,
// which the lenient parser keeps as content, also flips the state here.
//
// The returned points are byte offsets into data, strictly increasing, and
// each one is the start of the next partition (so data[:points[0]],
// data[points[0]:points[1]], ..., data[points[len(points)-1]:] together
// reconstruct data exactly). Fewer than n-1 points are returned if data
// doesn't contain that many safe boundaries; a caller that needs exactly n
// partitions should be prepared to merge short partitions at the end.
func FindSplitPoints(data []byte, opts Options, n int) []int {
	if n <= 1 || len(data) == 0 {
		return nil
	}

	target := len(data) / n
	if target == 0 {
		return nil
	}

	var points []int
	inQuotes := false
	lastBoundary := 0

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case c == opts.Quote:
			inQuotes = !inQuotes
		case !inQuotes && (c == '\n' || c == '\r'):
			end := i + 1
			if c == '\r' && end < len(data) && data[end] == '\n' {
				end++
			}
			if end-lastBoundary >= target && len(points) < n-1 {
				points = append(points, end)
				lastBoundary = end
			}
			if c == '\r' {
				i = end - 1
			}
		}
	}

	return points
}
