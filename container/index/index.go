// Package index implements the block-index sidecar: for a VBQ or CBQ
// file, a separate small file mapping each block's ordinal to its
// file offset, uncompressed byte range, and record count, so random
// access can seek directly to a block instead of scanning from the
// start.
//
// The sidecar is keyed to its container file by content identity
// (a SHA-256 of the container file's bytes) rather than by path or
// mtime, so a renamed or copied container file still matches its
// sidecar, and a stale sidecar next to a rewritten file is detected
// rather than silently trusted. Regeneration is always possible by a
// linear scan of the container file's blocks.
package index

import (
	"crypto"
	_ "crypto/sha256" // registers crypto.SHA256 for contentDigester
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"sort"

	"github.com/arcinstitute/binseq/digest"
	"github.com/arcinstitute/binseq/internal/errs"
)

// contentDigester is the hash used to key a sidecar to its container
// file's content.
const contentDigester = digest.Digester(crypto.SHA256)

// Magic identifies an index sidecar file.
var Magic = [4]byte{'B', 'Q', 'I', 'X'}

// Version is the pinned sidecar format version.
const Version = 1

// ContentIDSize is the size, in bytes, of the SHA-256 content
// identity stamped into a sidecar's header.
const ContentIDSize = 32

// Entry describes one block.
type Entry struct {
	FileOffset      uint64 // offset of the block's header in the container file
	StartingOrdinal uint64 // ordinal of the block's first record
	RecordCount     uint32
	UncompStart     uint64 // offset of this block's first record within the logical, uncompressed record stream
	UncompEnd       uint64
}

const entrySize = 8 + 8 + 4 + 8 + 8

// Index is an in-memory, sorted block index plus the content identity
// of the container file it describes.
type Index struct {
	ContentID [ContentIDSize]byte
	Entries   []Entry
}

// ContentID hashes a container file's full contents.
func ContentID(path string) ([ContentIDSize]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [ContentIDSize]byte{}, errs.E(errs.IO, "index: opening file for content id", err)
	}
	defer f.Close()
	w := contentDigester.NewWriter()
	if _, err := io.Copy(w, f); err != nil {
		return [ContentIDSize]byte{}, errs.E(errs.IO, "index: hashing file", err)
	}
	raw, err := hex.DecodeString(w.Digest().Hex())
	if err != nil {
		return [ContentIDSize]byte{}, errs.E(errs.Other, "index: decoding content digest", err)
	}
	var out [ContentIDSize]byte
	copy(out[:], raw)
	return out, nil
}

// New builds an Index for a content ID, with entries sorted by
// FileOffset (the order blocks appear in the file).
func New(contentID [ContentIDSize]byte, entries []Entry) *Index {
	sort.Slice(entries, func(i, j int) bool { return entries[i].FileOffset < entries[j].FileOffset })
	return &Index{ContentID: contentID, Entries: entries}
}

// Lookup returns the entry covering record ordinal, by binary search
// over StartingOrdinal, or ok=false if ordinal is out of range.
func (ix *Index) Lookup(ordinal uint64) (Entry, bool) {
	n := len(ix.Entries)
	i := sort.Search(n, func(i int) bool {
		return ix.Entries[i].StartingOrdinal+uint64(ix.Entries[i].RecordCount) > ordinal
	})
	if i >= n || ordinal < ix.Entries[i].StartingOrdinal {
		return Entry{}, false
	}
	return ix.Entries[i], true
}

// NumRecords returns the total number of records spanned by the
// index, derived from the last entry.
func (ix *Index) NumRecords() uint64 {
	if len(ix.Entries) == 0 {
		return 0
	}
	last := ix.Entries[len(ix.Entries)-1]
	return last.StartingOrdinal + uint64(last.RecordCount)
}

// Write serializes ix to w: magic, version, content id, entry count,
// then each entry fixed-width.
func (ix *Index) Write(w io.Writer) error {
	hdr := make([]byte, 4+1+ContentIDSize+4)
	copy(hdr[0:4], Magic[:])
	hdr[4] = Version
	copy(hdr[5:5+ContentIDSize], ix.ContentID[:])
	binary.LittleEndian.PutUint32(hdr[5+ContentIDSize:], uint32(len(ix.Entries)))
	if _, err := w.Write(hdr); err != nil {
		return errs.E(errs.IO, "index: writing header", err)
	}
	buf := make([]byte, entrySize)
	for _, e := range ix.Entries {
		binary.LittleEndian.PutUint64(buf[0:8], e.FileOffset)
		binary.LittleEndian.PutUint64(buf[8:16], e.StartingOrdinal)
		binary.LittleEndian.PutUint32(buf[16:20], e.RecordCount)
		binary.LittleEndian.PutUint64(buf[20:28], e.UncompStart)
		binary.LittleEndian.PutUint64(buf[28:36], e.UncompEnd)
		if _, err := w.Write(buf); err != nil {
			return errs.E(errs.IO, "index: writing entry", err)
		}
	}
	return nil
}

// Read deserializes an Index from r.
func Read(r io.Reader) (*Index, error) {
	hdr := make([]byte, 4+1+ContentIDSize+4)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, errs.E(errs.IO, "index: reading header", err)
	}
	var magic [4]byte
	copy(magic[:], hdr[0:4])
	if magic != Magic {
		return nil, errs.E(errs.BadMagic, "index: unexpected magic bytes")
	}
	if hdr[4] != Version {
		return nil, errs.E(errs.FormatVersion, "index: unsupported sidecar version")
	}
	ix := &Index{}
	copy(ix.ContentID[:], hdr[5:5+ContentIDSize])
	count := binary.LittleEndian.Uint32(hdr[5+ContentIDSize:])

	ix.Entries = make([]Entry, count)
	buf := make([]byte, entrySize)
	for i := range ix.Entries {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errs.E(errs.IO, "index: reading entry", err)
		}
		ix.Entries[i] = Entry{
			FileOffset:      binary.LittleEndian.Uint64(buf[0:8]),
			StartingOrdinal: binary.LittleEndian.Uint64(buf[8:16]),
			RecordCount:     binary.LittleEndian.Uint32(buf[16:20]),
			UncompStart:     binary.LittleEndian.Uint64(buf[20:28]),
			UncompEnd:       binary.LittleEndian.Uint64(buf[28:36]),
		}
	}
	return ix, nil
}

// SidecarPath returns the conventional index path for a container
// file: the file path with ".idx" appended.
func SidecarPath(containerPath string) string { return containerPath + ".idx" }

// WriteFile writes ix to the conventional sidecar path for
// containerPath.
func WriteFile(containerPath string, ix *Index) error {
	f, err := os.Create(SidecarPath(containerPath))
	if err != nil {
		return errs.E(errs.IO, "index: creating sidecar file", err)
	}
	defer f.Close()
	return ix.Write(f)
}

// ReadFile reads the sidecar for containerPath and verifies its
// content ID still matches the container file's current bytes,
// returning errs.IncompatibleHeader if it does not (the sidecar is
// stale and must be regenerated).
func ReadFile(containerPath string) (*Index, error) {
	f, err := os.Open(SidecarPath(containerPath))
	if err != nil {
		return nil, errs.E(errs.IO, "index: opening sidecar file", err)
	}
	defer f.Close()
	ix, err := Read(f)
	if err != nil {
		return nil, err
	}
	id, err := ContentID(containerPath)
	if err != nil {
		return nil, err
	}
	if id != ix.ContentID {
		return nil, errs.E(errs.IncompatibleHeader, "index: sidecar content id does not match container file; regenerate it")
	}
	return ix, nil
}
