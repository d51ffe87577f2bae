package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/container/index"
	"github.com/arcinstitute/binseq/internal/errs"
)

// Index implements `binseq index`, materializing a VBQ/CBQ sidecar.
func Index(ctx context.Context, out io.Writer, args []string) error {
	if len(args) != 1 {
		return errs.E(errs.ConfigError, "index: expected exactly one input container")
	}
	path := args[0]
	mode, err := probeContainerMode(path)
	if err != nil {
		return err
	}
	if mode == container.ModeBQ {
		return errs.E(errs.ConfigError, "index: bq containers already support O(1) random access and need no sidecar")
	}

	var ix *index.Index
	if mode == container.ModeCBQ {
		ix, err = index.BuildCBQ(path)
	} else {
		ix, err = index.BuildVBQ(path)
	}
	if err != nil {
		return err
	}
	if err := index.WriteFile(path, ix); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s: %d blocks, %d records\n", index.SidecarPath(path), len(ix.Entries), ix.NumRecords())
	return nil
}
