package seqcodec_test

import (
	"testing"

	"github.com/arcinstitute/binseq/seqcodec"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip2Bit(t *testing.T) {
	seq := []byte("ACGTACGTAC")
	dst := make([]byte, seqcodec.PackedLen(len(seq), seqcodec.Bits2))
	skipped, err := seqcodec.Encode2Bit(dst, seq, seqcodec.FailPolicy(), nil)
	require.NoError(t, err)
	require.False(t, skipped)

	got := make([]byte, len(seq))
	require.NoError(t, seqcodec.Decode2Bit(got, dst, len(seq)))
	require.Equal(t, string(seq), string(got))
}

func TestRoundTrip4BitWithN(t *testing.T) {
	seq := []byte("ACGTNNNNAC")
	dst := make([]byte, seqcodec.PackedLen(len(seq), seqcodec.Bits4))
	skipped, err := seqcodec.Encode4Bit(dst, seq, seqcodec.FailPolicy(), nil)
	require.NoError(t, err)
	require.False(t, skipped)

	got := make([]byte, len(seq))
	require.NoError(t, seqcodec.Decode4Bit(got, dst, len(seq)))
	require.Equal(t, string(seq), string(got))
}

func TestIgnorePolicySkipsRecord(t *testing.T) {
	seq := []byte("ACGN")
	dst := make([]byte, seqcodec.PackedLen(len(seq), seqcodec.Bits2))
	skipped, err := seqcodec.Encode2Bit(dst, seq, seqcodec.IgnorePolicy(), nil)
	require.NoError(t, err)
	require.True(t, skipped)
}

func TestFailPolicyErrors(t *testing.T) {
	seq := []byte("ACGN")
	dst := make([]byte, seqcodec.PackedLen(len(seq), seqcodec.Bits2))
	_, err := seqcodec.Encode2Bit(dst, seq, seqcodec.FailPolicy(), nil)
	require.Error(t, err)
}

func TestSetToPolicySubstitutes(t *testing.T) {
	seq := []byte("ACGN")
	dst := make([]byte, seqcodec.PackedLen(len(seq), seqcodec.Bits2))
	skipped, err := seqcodec.Encode2Bit(dst, seq, seqcodec.SetToPolicy('A'), nil)
	require.NoError(t, err)
	require.False(t, skipped)

	got := make([]byte, len(seq))
	require.NoError(t, seqcodec.Decode2Bit(got, dst, len(seq)))
	require.Equal(t, "ACGA", string(got))
}

func TestRandomDrawPolicyIsDeterministicPerSeed(t *testing.T) {
	seq := []byte("NNNNNNNN")
	dst1 := make([]byte, seqcodec.PackedLen(len(seq), seqcodec.Bits2))
	dst2 := make([]byte, seqcodec.PackedLen(len(seq), seqcodec.Bits2))

	rng1 := seqcodec.NewPolicyRNG(42, 0)
	rng2 := seqcodec.NewPolicyRNG(42, 0)

	_, err := seqcodec.Encode2Bit(dst1, seq, seqcodec.RandomDrawPolicy(), rng1)
	require.NoError(t, err)
	_, err = seqcodec.Encode2Bit(dst2, seq, seqcodec.RandomDrawPolicy(), rng2)
	require.NoError(t, err)
	require.Equal(t, dst1, dst2)
}

func TestPackedLenMatchesInvariant(t *testing.T) {
	require.Equal(t, 1, seqcodec.PackedLen(4, seqcodec.Bits2))
	require.Equal(t, 2, seqcodec.PackedLen(5, seqcodec.Bits2))
	require.Equal(t, 2, seqcodec.PackedLen(4, seqcodec.Bits4))
	require.Equal(t, 3, seqcodec.PackedLen(5, seqcodec.Bits4))
}
