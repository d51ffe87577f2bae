package cmd

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/arcinstitute/binseq/errorreporter"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/log"
)

// batchOpts carries the encode flags that apply uniformly across a
// batch of files; per-group --output and --paired are derived by
// runBatchEncode itself.
type batchOpts struct {
	policyName string
	setTo      string
	bitSize    int
	threads    int
	seed       uint64
	archive    bool
}

var (
	pairedFileRegexp = regexp.MustCompile(`_R[12](_[^.]*)?\.(fastq|fq|fasta|fa)(\.gz|\.zst)?$`)
	singleFileRegexp = regexp.MustCompile(`\.(fastq|fq|fasta|fa)(\.gz|\.zst)?$`)
	r1r2Marker       = regexp.MustCompile(`_R[12](_[^.]*)?(\.[^.]+)+$`)
)

// runBatchEncode drives `binseq encode --recursive` / `--manifest`: it
// discovers a set of input files (a manifest listing, a directory
// walk when exactly one positional argument is given, or the
// positional arguments themselves otherwise), groups them into R1/R2 pairs or singles, and runs
// encodeOneGroup over each group with a bounded worker pool.
func runBatchEncode(ctx context.Context, manifest string, positional []string, outPath, mode string, opts batchOpts) error {
	var files []string
	var err error
	switch {
	case manifest != "":
		files, err = readManifest(manifest)
	case len(positional) == 1:
		files, err = walkDirectory(positional[0])
	default:
		files = filterValidPaths(positional)
	}
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errs.E(errs.NoInputs, "encode: no input files found for batch encoding")
	}
	sort.Strings(files)

	groups, paired := groupFiles(files)
	if len(groups) == 0 {
		return errs.E(errs.NoInputs, "encode: no input files matched the expected fastx naming pattern")
	}
	if len(groups) > 1 && outPath != "" {
		log.Printf("encode: --output is ignored when batch encoding %d file groups", len(groups))
	}
	if paired {
		log.Printf("encode: total file pairs found: %d", len(groups))
	} else {
		log.Printf("encode: total files found: %d", len(groups))
	}

	numWorkers := resolveThreads(opts.threads)
	perGroupThreads := numWorkers / len(groups)
	if perGroupThreads < 1 {
		perGroupThreads = 1
	}

	concurrency := numWorkers
	if len(groups) < concurrency {
		concurrency = len(groups)
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var reporter errorreporter.T

	for _, group := range groups {
		group := group
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outFile, err := outputNameFor(group, mode, paired)
			if err != nil {
				reporter.Set(err)
				return
			}
			if err := encodeOneGroup(ctx, group, outFile, mode, paired, perGroupThreads, opts); err != nil {
				log.Printf("encode: error generating %s: %v; skipping", outFile, err)
				os.Remove(outFile)
				reporter.Set(err)
				return
			}
			log.Printf("encode: wrote %s", outFile)
		}()
	}
	wg.Wait()
	return reporter.Err()
}

// encodeOneGroup runs the single/paired encode path against one
// discovered file group, reusing the same flag surface as a
// non-batch `encode` invocation.
func encodeOneGroup(ctx context.Context, group []string, outFile, mode string, paired bool, threads int, opts batchOpts) error {
	args := []string{
		"--output", outFile,
		"--mode", mode,
		"--n-policy", opts.policyName,
		"--set-to", opts.setTo,
		"--bit-size", strconv.Itoa(opts.bitSize),
		"--threads", strconv.Itoa(threads),
		"--seed", strconv.FormatUint(opts.seed, 10),
	}
	if opts.archive {
		args = append(args, "--archive")
	}
	if paired {
		args = append(args, "--paired")
	}
	args = append(args, group...)
	return Encode(ctx, io.Discard, args)
}

func readManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.E(errs.IO, "encode: opening manifest "+path, err)
	}
	defer f.Close()
	var files []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			files = append(files, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errs.E(errs.IO, "encode: reading manifest "+path, err)
	}
	return filterValidPaths(files), nil
}

func walkDirectory(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errs.E(errs.IO, "encode: walking directory "+dir, err)
	}
	return filterValidPaths(files), nil
}

// filterValidPaths keeps only paths that look like a fastx input
// (matched by either naming regex) and still exist as a regular file
// or named pipe.
func filterValidPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		if !pairedFileRegexp.MatchString(p) && !singleFileRegexp.MatchString(p) {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() || info.Mode()&os.ModeNamedPipe != 0 {
			out = append(out, p)
		}
	}
	return out
}

// groupFiles pairs files sharing an R1/R2 basename together when any
// discovered file matches the paired naming convention, otherwise
// treats every file as its own single-file group.
func groupFiles(files []string) ([][]string, bool) {
	anyPaired := false
	for _, f := range files {
		if pairedFileRegexp.MatchString(f) {
			anyPaired = true
			break
		}
	}
	if !anyPaired {
		groups := make([][]string, len(files))
		for i, f := range files {
			groups[i] = []string{f}
		}
		return groups, false
	}

	byStem := make(map[string][]string)
	var stems []string
	for _, f := range files {
		stem := r1r2Stem(f)
		if _, ok := byStem[stem]; !ok {
			stems = append(stems, stem)
		}
		byStem[stem] = append(byStem[stem], f)
	}
	sort.Strings(stems)

	var groups [][]string
	for _, stem := range stems {
		pair := byStem[stem]
		if len(pair) != 2 {
			log.Printf("encode: %s: expected an R1/R2 pair, found %d matching file(s); skipping", stem, len(pair))
			continue
		}
		sort.Strings(pair)
		groups = append(groups, pair)
	}
	return groups, true
}

// r1r2Stem strips the _R1/_R2 mate marker and extension from a path,
// leaving the shared sample name both mates of a pair agree on.
func r1r2Stem(path string) string {
	return r1r2Marker.ReplaceAllString(path, "")
}

// outputNameFor derives the container output path for a file group:
// the shared stem (for a pair) or the single input's path (for a
// singleton), with its fastx extension replaced by the container
// mode's extension.
func outputNameFor(group []string, mode string, paired bool) (string, error) {
	if len(group) == 0 {
		return "", errs.E(errs.ConfigError, "encode: empty file group")
	}
	if paired && len(group) == 2 {
		return r1r2Stem(group[0]) + "." + mode, nil
	}
	return singleFileRegexp.ReplaceAllString(group[0], "") + "." + mode, nil
}
