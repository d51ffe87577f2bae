package cmd

import (
	"strings"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
)

// textFormat identifies a FASTX-family text output, as opposed to a
// container.Mode.
type textFormat int

const (
	textFasta textFormat = iota
	textFastq
)

// probeContainerMode maps a path's extension to a container.Mode.
// This is purely file-extension sniffing: it carries no codec logic
// of its own and exists only so subcommands don't each duplicate the
// same switch.
func probeContainerMode(path string) (container.Mode, error) {
	switch {
	case strings.HasSuffix(path, ".bq"):
		return container.ModeBQ, nil
	case strings.HasSuffix(path, ".vbq"):
		return container.ModeVBQ, nil
	case strings.HasSuffix(path, ".cbq"):
		return container.ModeCBQ, nil
	default:
		return 0, errs.E(errs.ConfigError, "cannot determine container format from extension: "+path)
	}
}

func probeTextFormat(path string) (textFormat, error) {
	switch {
	case strings.HasSuffix(path, ".fa"), strings.HasSuffix(path, ".fasta"):
		return textFasta, nil
	case strings.HasSuffix(path, ".fq"), strings.HasSuffix(path, ".fastq"):
		return textFastq, nil
	default:
		return 0, errs.E(errs.ConfigError, "cannot determine text format from extension: "+path)
	}
}
