package engine

import (
	"fmt"
	"time"

	"github.com/Vitruves/sonicsv/internal/engine/simd"
)

// Stats mirrors the statistics surface a Parser reports on demand. A Parser
// is single-threaded (see the package doc on machine.go), so these counters
// are plain integers updated on the hot path with no synchronization.
type Stats struct {
	TotalBytesProcessed uint64
	TotalRowsParsed     uint64
	TotalFieldsParsed   uint64
	ParseTimeNS         uint64
	ThroughputMBPS      float64
	SIMDFeaturesUsed    uint32
	PeakMemoryBytes     uint64
	SIMDOps             uint64
	ScalarFallbacks     uint64
	AvgFieldSize        float64
	AvgRowSize          float64

	// Reallocations and ErrorsEncountered restore counters present in the
	// original C header's stats surface but dropped from the distilled
	// spec; both are cheap, honest counters (no perf-counter emulation),
	// carried forward as a supplement rather than invented from nothing.
	Reallocations     uint64
	ErrorsEncountered uint64
}

// String renders a human-readable one-line summary, restoring the original
// library's csv_print_stats as a Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("rows=%d fields=%d bytes=%d throughput_mbps=%.2f simd_ops=%d scalar_fallbacks=%d",
		s.TotalRowsParsed, s.TotalFieldsParsed, s.TotalBytesProcessed, s.ThroughputMBPS, s.SIMDOps, s.ScalarFallbacks)
}

// counters is the mutable, in-flight state a running parser accumulates.
// Callers only ever observe a Stats snapshot via snapshot.
type counters struct {
	totalBytes     uint64
	totalRows      uint64
	totalFields    uint64
	totalFieldSize uint64
	totalRowSize   uint64
	simdOps        uint64
	scalarFallback uint64
	peakMemory     uint64
	reallocations  uint64
	errors         uint64
	startedAt      time.Time
	elapsed        time.Duration
	features       simd.Features
}

func newCounters() *counters {
	return &counters{startedAt: time.Now()}
}

// reset returns counters to zero but preserves the detected feature
// snapshot, matching Parser.Reset's "retain allocations, drop progress"
// contract.
func (c *counters) reset() {
	features := c.features
	*c = counters{startedAt: time.Now(), features: features}
}

func (c *counters) recordField(size int)     { c.totalFields++; c.totalFieldSize += uint64(size) }
func (c *counters) recordRow(rowByteSize int) { c.totalRows++; c.totalRowSize += uint64(rowByteSize) }
func (c *counters) recordBytes(n int)         { c.totalBytes += uint64(n) }
func (c *counters) recordSIMDOp()             { c.simdOps++ }
func (c *counters) recordScalarOp()           { c.scalarFallback++ }
func (c *counters) recordRealloc()            { c.reallocations++ }
func (c *counters) recordError()              { c.errors++ }
func (c *counters) setFeatures(f simd.Features) { c.features = f }

func (c *counters) recordMemory(current uint64) {
	if current > c.peakMemory {
		c.peakMemory = current
	}
}

func (c *counters) snapshot() Stats {
	elapsed := c.elapsed + time.Since(c.startedAt)
	ns := uint64(elapsed.Nanoseconds())

	var throughput float64
	if ns > 0 {
		seconds := float64(ns) / 1e9
		mb := float64(c.totalBytes) / (1024 * 1024)
		throughput = mb / seconds
	}

	var avgField, avgRow float64
	if c.totalFields > 0 {
		avgField = float64(c.totalFieldSize) / float64(c.totalFields)
	}
	if c.totalRows > 0 {
		avgRow = float64(c.totalRowSize) / float64(c.totalRows)
	}

	return Stats{
		TotalBytesProcessed: c.totalBytes,
		TotalRowsParsed:     c.totalRows,
		TotalFieldsParsed:   c.totalFields,
		ParseTimeNS:         ns,
		ThroughputMBPS:      throughput,
		SIMDFeaturesUsed:    c.features.Bitmask(),
		PeakMemoryBytes:     c.peakMemory,
		SIMDOps:             c.simdOps,
		ScalarFallbacks:     c.scalarFallback,
		AvgFieldSize:        avgField,
		AvgRowSize:          avgRow,
		Reallocations:       c.reallocations,
		ErrorsEncountered:   c.errors,
	}
}
