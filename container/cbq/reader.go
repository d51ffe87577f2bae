package cbq

import (
	"encoding/binary"
	"io"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
)

// Reader streams records from an arbitrary byte source, reading one
// block's full set of columns at a time and zipping them back into
// records before yielding any of them. A block must be fully resident
// to decode even its first record, unlike VBQ's record-major layout.
type Reader struct {
	r      io.Reader
	Header Header

	records []*container.Record
	pos     int
	ordinal uint64
}

// NewReader reads and validates the header, then returns a Reader
// positioned before the first block.
func NewReader(r io.Reader) (*Reader, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, Header: h}, nil
}

func readU32Column(col []byte, n int) ([]uint32, error) {
	if len(col) != n*4 {
		return nil, errs.E(errs.DecodeError, "cbq: column length does not match record count")
	}
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(col[i*4 : i*4+4])
	}
	return out, nil
}

// splitByLengths slices data into n pieces per the lens slice, which
// must sum to len(data).
func splitByLengths(data []byte, lens []uint32) ([][]byte, error) {
	out := make([][]byte, len(lens))
	off := 0
	for i, l := range lens {
		if off+int(l) > len(data) {
			return nil, errs.E(errs.DecodeError, "cbq: variable-length column shorter than declared")
		}
		out[i] = data[off : off+int(l)]
		off += int(l)
	}
	if off != len(data) {
		return nil, errs.E(errs.DecodeError, "cbq: variable-length column has trailing bytes")
	}
	return out, nil
}

func (cr *Reader) fillBlock() error {
	n, numCols, err := readBlockPreamble(cr.r)
	if err != nil {
		return err // propagates io.EOF unwrapped
	}
	h := cr.Header
	cols := columnOrder(h)
	if int(numCols) != len(cols) {
		return errs.E(errs.IncompatibleHeader, "cbq: block column count does not match file header flags")
	}

	byKind := make(map[columnKind][]byte, len(cols))
	for _, k := range cols {
		data, err := readColumn(cr.r)
		if err != nil {
			return err
		}
		byKind[k] = data
	}

	primaryLens, err := readU32Column(byKind[colPrimaryLen], int(n))
	if err != nil {
		return err
	}
	primarySeqs, err := splitPacked(byKind[colPrimarySeq], primaryLens, h.BitSize)
	if err != nil {
		return err
	}
	flags, err := readU32Column(byKind[colFlags], int(n))
	if err != nil {
		return err
	}

	var primaryQuals [][]byte
	if h.Quality {
		primaryQuals, err = splitByLengths(byKind[colPrimaryQual], primaryLens)
		if err != nil {
			return err
		}
	}
	var primaryHeaders [][]byte
	if h.Headers {
		hlens, err := readU32Column(byKind[colPrimaryHeaderLen], int(n))
		if err != nil {
			return err
		}
		primaryHeaders, err = splitByLengths(byKind[colPrimaryHeaderData], hlens)
		if err != nil {
			return err
		}
	}

	var extendedSeqs, extendedQuals, extendedHeaders [][]byte
	var extendedLens []uint32
	if h.Paired {
		extendedLens, err = readU32Column(byKind[colExtendedLen], int(n))
		if err != nil {
			return err
		}
		extendedSeqs, err = splitPacked(byKind[colExtendedSeq], extendedLens, h.BitSize)
		if err != nil {
			return err
		}
		if h.Quality {
			extendedQuals, err = splitByLengths(byKind[colExtendedQual], extendedLens)
			if err != nil {
				return err
			}
		}
		if h.Headers {
			ehlens, err := readU32Column(byKind[colExtendedHeaderLen], int(n))
			if err != nil {
				return err
			}
			extendedHeaders, err = splitByLengths(byKind[colExtendedHeaderData], ehlens)
			if err != nil {
				return err
			}
		}
	}

	records := make([]*container.Record, n)
	for i := 0; i < int(n); i++ {
		rec := &container.Record{Primary: primarySeqs[i], Flags: flags[i]}
		if h.Quality {
			rec.PrimaryQual = primaryQuals[i]
		}
		if h.Headers {
			rec.PrimaryHeader = primaryHeaders[i]
		}
		if h.Paired {
			rec.Extended = extendedSeqs[i]
			if h.Quality {
				rec.ExtendedQual = extendedQuals[i]
			}
			if h.Headers {
				rec.ExtendedHeader = extendedHeaders[i]
			}
		}
		records[i] = rec
	}
	cr.records = records
	cr.pos = 0
	return nil
}

// splitPacked slices a packed-sequence column into per-record packed
// byte slices and decodes each into ASCII bases.
func splitPacked(data []byte, lens []uint32, b seqcodec.BitSize) ([][]byte, error) {
	out := make([][]byte, len(lens))
	off := 0
	for i, l := range lens {
		plen := seqcodec.PackedLen(int(l), b)
		if off+plen > len(data) {
			return nil, errs.E(errs.DecodeError, "cbq: packed sequence column shorter than declared")
		}
		seq := make([]byte, l)
		if err := seqcodec.Decode(b, seq, data[off:off+plen], int(l)); err != nil {
			return nil, err
		}
		out[i] = seq
		off += plen
	}
	return out, nil
}

// Next decodes the next record, transparently crossing block
// boundaries, or returns io.EOF once the stream is exhausted.
func (cr *Reader) Next() (*container.Record, error) {
	for cr.records == nil || cr.pos >= len(cr.records) {
		if err := cr.fillBlock(); err != nil {
			return nil, err
		}
		if len(cr.records) == 0 {
			cr.records = nil
			continue
		}
	}
	rec := cr.records[cr.pos]
	cr.pos++
	rec.Ordinal = cr.ordinal
	cr.ordinal++
	return rec, nil
}
