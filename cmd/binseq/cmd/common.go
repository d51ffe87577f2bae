package cmd

import (
	"runtime"

	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// resolveThreads maps the CLI's 0=auto convention to runtime.NumCPU().
// Values above NumCPU() are passed through unclamped.
func resolveThreads(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func parsePolicy(name string, setTo string) (seqcodec.Policy, error) {
	switch name {
	case "ignore":
		return seqcodec.IgnorePolicy(), nil
	case "fail":
		return seqcodec.FailPolicy(), nil
	case "random":
		return seqcodec.RandomDrawPolicy(), nil
	case "set-to":
		if len(setTo) != 1 {
			return seqcodec.Policy{}, errs.E(errs.ConfigError, "--set-to requires exactly one base")
		}
		return seqcodec.SetToPolicy(setTo[0]), nil
	default:
		return seqcodec.Policy{}, errs.E(errs.ConfigError, "unknown N-policy: "+name)
	}
}

func parseBitSize(n int) (seqcodec.BitSize, error) {
	switch n {
	case 2:
		return seqcodec.Bits2, nil
	case 4:
		return seqcodec.Bits4, nil
	default:
		return 0, errs.E(errs.ConfigError, "--bit-size must be 2 or 4")
	}
}
