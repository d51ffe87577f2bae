package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/arcinstitute/binseq/container/bq"
	"github.com/arcinstitute/binseq/container/cbq"
	"github.com/arcinstitute/binseq/container/vbq"
	"github.com/arcinstitute/binseq/fastx"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/log"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/arcinstitute/binseq/transform/encode"
	"github.com/spf13/pflag"
)

// logStats reports an encode run's written/skipped counts, the
// surface spec.md requires every encode path to expose.
func logStats(stats encode.Stats) {
	log.Printf("encode: wrote %d record(s), skipped %d", stats.Written, stats.Skipped)
}

func openFastxReader(path string) (fastx.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.E(errs.IO, "encode: opening input "+path, err)
	}
	switch {
	case strings.HasSuffix(path, ".fq"), strings.HasSuffix(path, ".fastq"):
		return fastx.NewFastqReader(f), nil
	case strings.HasSuffix(path, ".bam"):
		return fastx.NewBamReader(f)
	default:
		return fastx.NewFastaReader(f), nil
	}
}

// Encode implements `binseq encode`.
func Encode(ctx context.Context, out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	outPath := fs.StringP("output", "o", "", "output container path")
	mode := fs.String("mode", "bq", "output mode: bq|vbq|cbq")
	policyName := fs.String("n-policy", "fail", "ambiguous-base policy: ignore|fail|random|set-to")
	setTo := fs.String("set-to", "N", "substitution base for --n-policy=set-to")
	bitSizeFlag := fs.Int("bit-size", 2, "packed bit size: 2 or 4")
	blockSize := fs.Uint32("block-size", 0, "vbq/cbq block size (bytes for vbq, record count for cbq); 0 = default")
	quality := fs.Bool("quality", false, "store quality strings (vbq/cbq only)")
	headers := fs.Bool("headers", false, "store read headers (vbq/cbq only)")
	compress := fs.Bool("compress", true, "compress blocks (vbq/cbq only)")
	paired := fs.Bool("paired", false, "treat the two positional inputs as mates (always written as bq; --mode is not used)")
	threads := fs.Int("threads", 0, "worker count; 0 = runtime.NumCPU()")
	seed := fs.Uint64("seed", 0, "seed for --n-policy=random")
	archive := fs.Bool("archive", false, "preset: 4-bit + headers + quality + compressed + large block")
	recursive := fs.Bool("recursive", false, "batch-encode a directory of R1/R2 FASTX pairs (see --manifest)")
	manifest := fs.String("manifest", "", "batch-encode FASTX pairs listed in a manifest file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *recursive || *manifest != "" {
		return runBatchEncode(ctx, *manifest, fs.Args(), *outPath, *mode, batchOpts{
			policyName: *policyName, setTo: *setTo, bitSize: *bitSizeFlag,
			threads: *threads, seed: *seed, archive: *archive,
		})
	}

	if *archive {
		*bitSizeFlag = 4
		*headers = true
		*quality = true
		*compress = true
		if *blockSize == 0 {
			*blockSize = vbq.DefaultBlockSize * 8
		}
	}

	policy, err := parsePolicy(*policyName, *setTo)
	if err != nil {
		return err
	}
	bitSize, err := parseBitSize(*bitSizeFlag)
	if err != nil {
		return err
	}
	if *outPath == "" {
		return errs.E(errs.ConfigError, "encode: --output is required")
	}

	outFile, err := os.Create(*outPath)
	if err != nil {
		return errs.E(errs.IO, "encode: creating output "+*outPath, err)
	}
	defer outFile.Close()

	numWorkers := resolveThreads(*threads)
	positional := fs.Args()
	if len(positional) == 0 {
		return errs.E(errs.NoInputs, "encode: no input files given")
	}

	if *paired {
		if len(positional) != 2 {
			return errs.E(errs.ConfigError, "encode: --paired requires exactly two input files")
		}
		r1, err := openFastxReader(positional[0])
		if err != nil {
			return err
		}
		r2, err := openFastxReader(positional[1])
		if err != nil {
			return err
		}
		first1, err := r1.Next()
		if err != nil {
			return errs.E(errs.ConfigError, "encode: empty R1 input, cannot determine record length", err)
		}
		first2, err := r2.Next()
		if err != nil {
			return errs.E(errs.ConfigError, "encode: empty R2 input, cannot determine record length", err)
		}
		pr := fastx.NewPairReader(&peekReader{Reader: r1, first: first1}, &peekReader{Reader: r2, first: first2})
		h := bq.Header{BitSize: bitSize, Paired: true, S: uint32(len(first1.Seq)), X: uint32(len(first2.Seq))}
		w := bq.NewWriter(outFile, h, policy, seedRNG(policy, seed))
		stats, err := encode.RunBQPaired(pr, w, h, policy, *seed, numWorkers)
		if err != nil {
			return err
		}
		logStats(stats)
		return nil
	}

	src, err := openFastxReader(positional[0])
	if err != nil {
		return err
	}
	return encodeSingleMode(*mode, outFile, src, policy, bitSize, *seed, numWorkers, *blockSize, *quality, *headers, *compress)
}

// peekReader lets the bq encode path determine a fixed record length
// from the first record before constructing a bq.Writer (bq is a
// fixed-length format; the header's S cannot be inferred after
// records have already started streaming to it).
type peekReader struct {
	fastx.Reader
	first *fastx.Record
	used  bool
}

func (p *peekReader) Next() (*fastx.Record, error) {
	if !p.used {
		p.used = true
		return p.first, nil
	}
	return p.Reader.Next()
}

func encodeSingleMode(mode string, outFile *os.File, src fastx.Reader, policy seqcodec.Policy, bitSize seqcodec.BitSize, seed uint64, numWorkers int, blockSize uint32, quality, headers, compress bool) error {
	switch mode {
	case "bq":
		first, err := src.Next()
		if err != nil {
			return errs.E(errs.ConfigError, "encode: empty input, cannot determine record length", err)
		}
		h := bq.Header{BitSize: bitSize, S: uint32(len(first.Seq))}
		w := bq.NewWriter(outFile, h, policy, seedRNG(policy, seed))
		stats, err := encode.RunBQ(&peekReader{Reader: src, first: first}, w, h, policy, seed, numWorkers)
		if err != nil {
			return err
		}
		logStats(stats)
		return nil
	case "vbq":
		h := vbq.Header{BitSize: bitSize, Quality: quality, Headers: headers, Compression: compress, BlockSize: blockSize}
		w := vbq.NewWriter(outFile, h, policy, seedRNG(policy, seed), 0)
		stats, err := encode.RunVBQ(src, w, h, policy, seed, numWorkers)
		if err != nil {
			return err
		}
		logStats(stats)
		return nil
	case "cbq":
		h := cbq.Header{BitSize: bitSize, Quality: quality, Headers: headers, Compression: compress, BlockSize: blockSize}
		w := cbq.NewWriter(outFile, h, seqcodec.FailPolicy(), nil, 0)
		stats, err := encode.RunCBQ(src, w, h, policy, seed, numWorkers)
		if err != nil {
			return err
		}
		logStats(stats)
		return nil
	default:
		return errs.E(errs.ConfigError, "encode: unknown mode "+mode)
	}
}

func seedRNG(policy seqcodec.Policy, seed uint64) *seqcodec.PolicyRNG {
	if policy.Kind != seqcodec.RandomDraw {
		return nil
	}
	return seqcodec.NewPolicyRNG(seed, 0)
}
