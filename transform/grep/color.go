package grep

import (
	"bytes"

	"github.com/willf/bitset"
)

// ColorMode selects when Colorize emits ANSI codes.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

const (
	sgrStart = "\x1b[1;31m"
	sgrEnd   = "\x1b[0m"
)

// Colorize wraps every matched interval of seq in ANSI SGR codes,
// leaving unmatched flanks untouched. Overlapping or touching
// intervals are first merged via a bitset sweep: each matched byte
// position is flagged, then contiguous runs of flagged positions
// become one colored span, so two adjacent hits never produce a
// spurious "reset, then immediately re-color" seam.
func Colorize(seq []byte, matches []Interval) []byte {
	if len(matches) == 0 {
		return seq
	}
	flags := bitset.New(uint(len(seq)))
	for _, iv := range matches {
		start, end := iv.Start, iv.End
		if start < 0 {
			start = 0
		}
		if end > len(seq) {
			end = len(seq)
		}
		for i := start; i < end; i++ {
			flags.Set(uint(i))
		}
	}

	var out bytes.Buffer
	in := false
	for i := 0; i < len(seq); i++ {
		set := flags.Test(uint(i))
		if set && !in {
			out.WriteString(sgrStart)
			in = true
		} else if !set && in {
			out.WriteString(sgrEnd)
			in = false
		}
		out.WriteByte(seq[i])
	}
	if in {
		out.WriteString(sgrEnd)
	}
	return out.Bytes()
}

// ShouldColorize resolves a ColorMode against whether stdout is a
// terminal (isTTY, supplied by the caller so this package stays
// free of direct os/terminal dependencies).
func ShouldColorize(mode ColorMode, isTTY bool) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTTY
	}
}
