// Package cmd implements the binseq command-line subcommands. Each
// subcommand is a thin pflag.FlagSet wired to the corresponding
// transform/container package; no domain logic lives here.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
)

var commands = []struct {
	name     string
	callback func(ctx context.Context, out io.Writer, args []string) error
	help     string
}{
	{"encode", Encode, "Encode FASTA/FASTQ/BAM records into a BQ, VBQ, or CBQ container."},
	{"decode", Decode, "Decode a container into FASTA or FASTQ."},
	{"cat", Cat, "Concatenate multiple containers of the same mode into one."},
	{"count", Count, "Print a container's format version, declared lengths, and record count."},
	{"info", Info, "Print a container's header and, if present, its index."},
	{"index", Index, "Materialize a VBQ/CBQ container's block-index sidecar."},
	{"grep", Grep, "Filter container records by regex, Aho-Corasick, or fuzzy pattern."},
	{"sample", Sample, "Write a seeded Bernoulli subsample of a container's records as FASTX."},
	{"pipe", Pipe, "Fan a container out across named pipes."},
}

// PrintHelp writes the subcommand list to stderr.
func PrintHelp() {
	fmt.Fprintln(os.Stderr, "Subcommands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.help)
	}
}

// Run dispatches args[0] to the matching subcommand.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		PrintHelp()
		return fmt.Errorf("no subcommand given")
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.callback(ctx, os.Stdout, args[1:])
		}
	}
	PrintHelp()
	return fmt.Errorf("unknown subcommand: %s", args[0])
}
