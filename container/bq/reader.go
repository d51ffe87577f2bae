package bq

import (
	"io"
	"os"

	"github.com/arcinstitute/binseq/container"
	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/edsrzf/mmap-go"
)

// Reader streams records from an arbitrary byte source, in order,
// starting from ordinal 0. It does not support seeking; use
// RandomReader for O(1) access over a file.
type Reader struct {
	r      io.Reader
	Header Header
	next   uint64
}

// NewReader reads and validates the header, then returns a Reader
// positioned at the first record.
func NewReader(r io.Reader) (*Reader, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, Header: h}, nil
}

// Next decodes the next record, or returns io.EOF when the stream is
// exhausted.
func (br *Reader) Next() (*container.Record, error) {
	stride := br.Header.Stride()
	buf := make([]byte, stride)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, errs.E(errs.IO, "bq: reading record", err)
	}
	rec, err := br.decode(buf)
	if err != nil {
		return nil, err
	}
	rec.Ordinal = br.next
	br.next++
	return rec, nil
}

func (br *Reader) decode(buf []byte) (*container.Record, error) {
	rec := &container.Record{Flags: uint32(buf[0])}

	primaryLen := seqcodec.PackedLen(int(br.Header.S), br.Header.BitSize)
	rec.Primary = make([]byte, br.Header.S)
	if err := seqcodec.Decode(br.Header.BitSize, rec.Primary, buf[1:1+primaryLen], int(br.Header.S)); err != nil {
		return nil, errs.Wrap(err, "bq: decoding primary sequence")
	}

	if br.Header.Paired {
		extOff := 1 + primaryLen
		rec.Extended = make([]byte, br.Header.X)
		if err := seqcodec.Decode(br.Header.BitSize, rec.Extended, buf[extOff:], int(br.Header.X)); err != nil {
			return nil, errs.Wrap(err, "bq: decoding extended sequence")
		}
	}
	return rec, nil
}

// RandomReader memory-maps a BQ file for O(1) access to any record by
// ordinal, per the format's headline property.
type RandomReader struct {
	f      *os.File
	m      mmap.MMap
	Header Header
	n      uint64
}

// OpenRandom memory-maps path and validates its header.
func OpenRandom(path string) (*RandomReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.E(errs.IO, "bq: opening file", err)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, errs.E(errs.IO, "bq: mapping file", err)
	}
	if len(m) < HeaderSize {
		m.Unmap()
		f.Close()
		return nil, errs.E(errs.ShortRecord, "bq: file shorter than header")
	}
	h, err := Unmarshal(m[:HeaderSize])
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	stride := h.Stride()
	body := len(m) - HeaderSize
	if stride == 0 || body%stride != 0 {
		m.Unmap()
		f.Close()
		return nil, errs.E(errs.ShortRecord, "bq: body length is not a multiple of record stride")
	}
	return &RandomReader{f: f, m: m, Header: h, n: uint64(body / stride)}, nil
}

// Len returns the number of records in the file.
func (rr *RandomReader) Len() uint64 { return rr.n }

// At decodes the record at ordinal i.
func (rr *RandomReader) At(i uint64) (*container.Record, error) {
	if i >= rr.n {
		return nil, errs.E(errs.IO, "bq: ordinal out of range")
	}
	stride := rr.Header.Stride()
	off := HeaderSize + int(i)*stride
	buf := rr.m[off : off+stride]

	br := &Reader{Header: rr.Header}
	rec, err := br.decode(buf)
	if err != nil {
		return nil, err
	}
	rec.Ordinal = i
	return rec, nil
}

// RawAt returns the raw packed bytes of record i, without decoding.
func (rr *RandomReader) RawAt(i uint64) ([]byte, error) {
	if i >= rr.n {
		return nil, errs.E(errs.IO, "bq: ordinal out of range")
	}
	stride := rr.Header.Stride()
	off := HeaderSize + int(i)*stride
	return rr.m[off : off+stride], nil
}

// Close unmaps the file and closes its descriptor.
func (rr *RandomReader) Close() error {
	if err := rr.m.Unmap(); err != nil {
		rr.f.Close()
		return errs.E(errs.IO, "bq: unmapping file", err)
	}
	return rr.f.Close()
}
