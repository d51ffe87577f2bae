// Package compressutil wraps klauspost/compress/zstd behind the small
// compress/decompress surface that VBQ and CBQ block writers need,
// following the scratch-buffer-reuse idiom of
// grailbio-base/recordio/recordiozstd: pool encoders and decoders
// instead of allocating one per block, and let the caller supply a
// destination buffer to grow into.
package compressutil

import (
	"sync"

	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/klauspost/compress/zstd"
)

var (
	encoderPool [LevelBest + 1]sync.Pool // one pool per Level
	decoder     *zstd.Decoder
	decoderOnce sync.Once
)

func getEncoder(level Level) *zstd.Encoder {
	if v := encoderPool[level].Get(); v != nil {
		enc := v.(*zstd.Encoder)
		return enc
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level.encoderLevel()))
	if err != nil {
		// Only returns an error for invalid static options; a
		// hard-coded level here can never fail.
		panic(err)
	}
	return enc
}

func getDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		d, err := zstd.NewReader(nil)
		if err != nil {
			panic(err)
		}
		decoder = d
	})
	return decoder
}

// Level selects a zstd compression level by name, mirroring the
// default/better/best tiers klauspost/compress/zstd exposes.
type Level int

const (
	LevelDefault Level = iota
	LevelFaster
	LevelBetter
	LevelBest
)

func (l Level) encoderLevel() zstd.EncoderLevel {
	switch l {
	case LevelFaster:
		return zstd.SpeedFastest
	case LevelBetter:
		return zstd.SpeedBetterCompression
	case LevelBest:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

// Compress appends the zstd-compressed form of src to dst and returns
// the result.
func Compress(dst, src []byte, level Level) ([]byte, error) {
	if level < LevelDefault || level > LevelBest {
		level = LevelDefault
	}
	enc := getEncoder(level)
	out := enc.EncodeAll(src, dst)
	encoderPool[level].Put(enc)
	return out, nil
}

// Decompress appends the decompressed form of src to dst and returns
// the result.
func Decompress(dst, src []byte) ([]byte, error) {
	out, err := getDecoder().DecodeAll(src, dst)
	if err != nil {
		return nil, errs.E(errs.DecodeError, "compressutil: zstd decompress failed", err)
	}
	return out, nil
}
