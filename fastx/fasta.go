package fastx

import (
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/arcinstitute/binseq/internal/errs"
)

// FastaReader reads FASTA records with no quality information.
type FastaReader struct {
	r      *fasta.Reader
	closer io.Closer
}

// NewFastaReader wraps r as a FASTA source. If r also implements
// io.Closer, Close forwards to it.
func NewFastaReader(r io.Reader) *FastaReader {
	template := linear.NewSeq("", nil, alphabet.DNA)
	fr := &FastaReader{r: fasta.NewReader(r, template)}
	if c, ok := r.(io.Closer); ok {
		fr.closer = c
	}
	return fr
}

// Next returns the next FASTA record.
func (fr *FastaReader) Next() (*Record, error) {
	s, err := fr.r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errs.E(errs.IO, "fastx: reading fasta record", err)
	}
	n := s.Len()
	seq := make([]byte, n)
	for i := 0; i < n; i++ {
		seq[i] = byte(s.At(i).L)
	}
	return &Record{ID: s.Name(), Seq: seq}, nil
}

// Close releases the underlying reader, if it is closeable.
func (fr *FastaReader) Close() error {
	if fr.closer != nil {
		return fr.closer.Close()
	}
	return nil
}
