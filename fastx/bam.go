package fastx

import (
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/arcinstitute/binseq/internal/errs"
)

// BamReader reads query-sequence records out of a BAM file's
// alignments, discarding alignment information: only QNAME, SEQ, and
// QUAL survive into the Record. This is an optional ingestion path
// alongside FASTA/FASTQ, for inputs that have already been aligned
// once and are being re-derived into a container format.
type BamReader struct {
	r *bam.Reader
}

// NewBamReader opens a BAM stream for reading.
func NewBamReader(r io.Reader) (*BamReader, error) {
	br, err := bam.NewReader(r, 0)
	if err != nil {
		return nil, errs.E(errs.IO, "fastx: opening bam stream", err)
	}
	return &BamReader{r: br}, nil
}

// Next returns the next alignment's query sequence as a Record.
// Reverse-complemented alignments are restored to their original
// sequencing orientation, since containers store reads as sequenced,
// not as aligned.
func (br *BamReader) Next() (*Record, error) {
	rec, err := br.r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errs.E(errs.IO, "fastx: reading bam record", err)
	}

	seq := make([]byte, len(rec.Seq.Seq)*2)
	expand := rec.Seq.Expand()
	seq = seq[:len(expand)]
	copy(seq, expand)

	qual := make([]byte, len(rec.Qual))
	for i, q := range rec.Qual {
		qual[i] = q + qualASCIIOffset
	}

	if rec.Flags&sam.Reverse != 0 {
		reverseComplement(seq)
		reverseBytes(qual)
	}

	return &Record{ID: rec.Name, Seq: seq, Qual: qual}, nil
}

// Close releases the underlying BAM reader.
func (br *BamReader) Close() error {
	return br.r.Close()
}

var complement = map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}

func reverseComplement(seq []byte) {
	n := len(seq)
	for i := 0; i < n/2; i++ {
		j := n - 1 - i
		seq[i], seq[j] = complement[seq[j]], complement[seq[i]]
	}
	if n%2 == 1 {
		seq[n/2] = complement[seq[n/2]]
	}
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
