// Package fastx adapts biogo's FASTA/FASTQ/BAM readers (the "black
// box" sequence source every encode path reads from) to the uniform
// Record shape the rest of this module works with. biogo unifies
// quality and non-quality sequences behind one seq.Sequence interface
// (Len, Name, At(i) alphabet.QLetter); this package rides that
// interface rather than the concrete linear.Seq/linear.QSeq types, so
// FASTA and FASTQ share one conversion path.
package fastx

// Record is one sequence read from an external source, before it has
// been packed into any container format.
type Record struct {
	ID   string
	Seq  []byte
	Qual []byte // nil if the source carries no quality scores
}

// Reader is the uniform iterator every concrete source (FASTA, FASTQ,
// BAM) implements.
type Reader interface {
	// Next returns the next record, or io.EOF once the source is
	// exhausted.
	Next() (*Record, error)
	Close() error
}

// Batch pulls up to n records from r into a reusable-sized batch,
// returning fewer than n (with a nil error) only at end of input.
// This is the shape parproc.Driver.ProcessBatch expects to be fed by
// repeated calls until the batch comes back short.
func Batch(r Reader, n int) ([]*Record, error) {
	batch := make([]*Record, 0, n)
	for i := 0; i < n; i++ {
		rec, err := r.Next()
		if err != nil {
			if isEOF(err) {
				return batch, nil
			}
			return nil, err
		}
		batch = append(batch, rec)
	}
	return batch, nil
}
