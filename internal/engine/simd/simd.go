// Package simd provides the bulk byte scanner: given a window of bytes and a
// {delimiter, quote} pair it finds the first occurrence of delimiter, quote,
// CR, or LF, scanning several bytes per step instead of one.
//
// Three lane widths (64/32/16 bytes) plus a scalar fallback are exposed as a
// closed set of tiers chosen once when a Scanner is built; there is no
// per-byte dispatch inside the hot loop. Real vector instructions require
// either an experimental toolchain flag or hand-written assembly, neither of
// which this module ships, so the three lane tiers are portable Go using the
// SWAR (SIMD-within-a-register) null-byte trick, batching 8/4/2 eight-byte
// words per step to approximate the three lane widths, and the scalar tier
// checks one byte at a time. CPU feature bits are probed once (via
// golang.org/x/sys/cpu); NewScanner picks the lane width from them, and they
// are reported in Stats.SIMDFeaturesUsed.
package simd

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// Kind identifies which structural byte a scan stopped on.
type Kind uint8

const (
	// KindNone means the window was exhausted without finding any target byte.
	KindNone Kind = iota
	KindDelimiter
	KindQuote
	KindCR
	KindLF
)

// Tier names the scanning lane width used to produce a Result.
type Tier uint8

const (
	TierScalar Tier = iota
	Tier16
	Tier32
	Tier64
)

func (t Tier) String() string {
	switch t {
	case Tier64:
		return "lane64"
	case Tier32:
		return "lane32"
	case Tier16:
		return "lane16"
	default:
		return "scalar"
	}
}

// Result is the outcome of a single FindNext call.
type Result struct {
	Offset int  // index into the scanned window, or len(window) if KindNone
	Kind   Kind
}

// Features is a snapshot of the process-wide CPU capability bits, computed
// once and cached. It never changes for the lifetime of the process.
type Features struct {
	HasSSE42   bool
	HasAVX2    bool
	HasAVX512F bool
	HasNEON    bool
}

// Bitmask returns the CSV_SIMD_* style bitmask used for Stats.SIMDFeaturesUsed.
func (f Features) Bitmask() uint32 {
	var m uint32
	if f.HasSSE42 {
		m |= 0x01
	}
	if f.HasAVX2 {
		m |= 0x02
	}
	if f.HasNEON {
		m |= 0x04
	}
	if f.HasAVX512F {
		m |= 0x08
	}
	return m
}

var (
	featuresOnce sync.Once
	features     Features
)

// DetectFeatures returns the process-wide CPU capability snapshot,
// computing it on the first call and caching it thereafter. The publish is
// guarded by sync.Once, giving the acquire/release semantics the design asks
// of a one-time capability cache without hand-rolled atomics.
func DetectFeatures() Features {
	featuresOnce.Do(func() {
		features = Features{
			HasSSE42:   cpu.X86.HasSSE42,
			HasAVX2:    cpu.X86.HasAVX2,
			HasAVX512F: cpu.X86.HasAVX512F,
			HasNEON:    cpu.ARM64.HasASIMD,
		}
	})
	return features
}

// Scanner finds the next structural byte in a window using a fixed tier
// chosen at construction time from the process capability snapshot.
type Scanner struct {
	tier Tier
}

// NewScanner selects a tier once, based on the detected CPU features: 64-byte
// lanes with AVX2 or AVX-512, 32-byte lanes with SSE4.2 or NEON, 16-byte lanes
// otherwise. The scalar and SWAR-lane paths are
// all correct for any window size; wider tiers are preferred only because
// they touch fewer words per byte scanned on data with few structural bytes.
func NewScanner() *Scanner {
	f := DetectFeatures()
	switch {
	case f.HasAVX512F || f.HasAVX2:
		return &Scanner{tier: Tier64}
	case f.HasSSE42 || f.HasNEON:
		return &Scanner{tier: Tier32}
	default:
		return &Scanner{tier: Tier16}
	}
}

// Tier reports the lane width this scanner was constructed with.
func (s *Scanner) Tier() Tier { return s.tier }

// FindNext returns the offset and kind of the first occurrence of delim,
// quote, CR, or LF in data, along with the tier actually used for that call
// (a window shorter than the configured tier's word count transparently
// falls back to a narrower tier or scalar).
func (s *Scanner) FindNext(data []byte, delim, quote byte) (Result, Tier) {
	switch s.tier {
	case Tier64:
		if len(data) >= 64 {
			return scanLanes(data, delim, quote, 8), Tier64
		}
		fallthrough
	case Tier32:
		if len(data) >= 32 {
			return scanLanes(data, delim, quote, 4), Tier32
		}
		fallthrough
	case Tier16:
		if len(data) >= 16 {
			return scanLanes(data, delim, quote, 2), Tier16
		}
	}
	return scanScalar(data, delim, quote), TierScalar
}
