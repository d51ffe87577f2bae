package fastx

import (
	"strings"

	"github.com/arcinstitute/binseq/internal/errs"
)

// StripMateSuffix removes a trailing "/1" or "/2" (or " 1"/" 2", the
// Illumina 1.8+ convention) from a read ID, returning the shared mate
// base name. It returns id unchanged if no recognized suffix is
// present.
func StripMateSuffix(id string) string {
	if len(id) >= 2 {
		suffix := id[len(id)-2:]
		if suffix == "/1" || suffix == "/2" {
			return id[:len(id)-2]
		}
	}
	if i := strings.LastIndexByte(id, ' '); i >= 0 && i+2 == len(id) {
		if id[i+1] == '1' || id[i+1] == '2' {
			return id[:i]
		}
	}
	return id
}

// PairReader zips two Readers (R1 and R2) into mated pairs, verifying
// that each pair's stripped IDs agree so a caller never silently
// writes misaligned mates.
type PairReader struct {
	r1, r2 Reader
}

// NewPairReader constructs a PairReader over two already-open mate
// streams.
func NewPairReader(r1, r2 Reader) *PairReader { return &PairReader{r1: r1, r2: r2} }

// Next returns the next mated (R1, R2) pair.
func (pr *PairReader) Next() (*Record, *Record, error) {
	a, err := pr.r1.Next()
	if err != nil {
		return nil, nil, err
	}
	b, err := pr.r2.Next()
	if err != nil {
		if isEOF(err) {
			return nil, nil, errs.E(errs.LengthMismatch, "fastx: R1 has more records than R2")
		}
		return nil, nil, err
	}
	if StripMateSuffix(a.ID) != StripMateSuffix(b.ID) {
		return nil, nil, errs.E(errs.LengthMismatch, "fastx: mate IDs do not match: "+a.ID+" vs "+b.ID)
	}
	return a, b, nil
}

// Close closes both underlying streams, returning the first error
// encountered.
func (pr *PairReader) Close() error {
	err1 := pr.r1.Close()
	err2 := pr.r2.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// BatchPairs pulls up to n mated pairs, returning fewer than n (with a
// nil error) only at end of input. It also verifies R2 does not run
// longer than R1.
func BatchPairs(pr *PairReader, n int) ([][2]*Record, error) {
	batch := make([][2]*Record, 0, n)
	for i := 0; i < n; i++ {
		a, b, err := pr.Next()
		if err != nil {
			if isEOF(err) {
				break
			}
			return nil, err
		}
		batch = append(batch, [2]*Record{a, b})
	}
	if len(batch) < n {
		if _, err := pr.r2.Next(); err == nil {
			return nil, errs.E(errs.LengthMismatch, "fastx: R2 has more records than R1")
		} else if !isEOF(err) {
			return nil, err
		}
	}
	return batch, nil
}
