package fastx

import (
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq/linear"

	"github.com/arcinstitute/binseq/internal/errs"
)

// qualASCIIOffset is the Phred+33 (Sanger/Illumina 1.8+) encoding
// offset used to turn biogo's raw Qphred scores back into the ASCII
// quality bytes this module's containers store verbatim.
const qualASCIIOffset = 33

// FastqReader reads FASTQ records, including per-base quality.
type FastqReader struct {
	r      *fastq.Reader
	closer io.Closer
}

// NewFastqReader wraps r as a FASTQ source, assuming Sanger
// (Phred+33) quality encoding, the prevailing convention for modern
// sequencing output.
func NewFastqReader(r io.Reader) *FastqReader {
	template := linear.NewQSeq("", nil, alphabet.DNA, alphabet.Sanger)
	fr := &FastqReader{r: fastq.NewReader(r, template)}
	if c, ok := r.(io.Closer); ok {
		fr.closer = c
	}
	return fr
}

// Next returns the next FASTQ record.
func (fr *FastqReader) Next() (*Record, error) {
	s, err := fr.r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errs.E(errs.IO, "fastx: reading fastq record", err)
	}
	n := s.Len()
	seq := make([]byte, n)
	qual := make([]byte, n)
	for i := 0; i < n; i++ {
		ql := s.At(i)
		seq[i] = byte(ql.L)
		qual[i] = byte(ql.Q) + qualASCIIOffset
	}
	return &Record{ID: s.Name(), Seq: seq, Qual: qual}, nil
}

// Close releases the underlying reader, if it is closeable.
func (fr *FastqReader) Close() error {
	if fr.closer != nil {
		return fr.closer.Close()
	}
	return nil
}
