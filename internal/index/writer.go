package index

import (
	"bufio"
	"fmt"
	"io"

	"github.com/nilquery/ixora/internal/varbyte"
)

// TermMeta is the lexicon entry for one term: its document frequency,
// collection frequency, and the byte offsets of its posting-list blocks in
// the docIDs and frequencies files.
type TermMeta struct {
	Term          string
	DocFreq       uint32
	CollFreq      uint64
	DocIDsOffset  uint64
	FreqsOffset   uint64
	BlocksCount   uint32
}

// Posting is a single (docID, term frequency) pair, as accumulated by the
// merger for one term before being flushed into blocks.
type Posting struct {
	DocID uint32
	Freq  uint32
}

// BlockWriter writes gap-coded, VarByte-compressed posting-list blocks to a
// pair of parallel docIDs/frequencies streams. Gaps reset to an absolute
// docID at the start of every block, matching the reader's per-block reset.
type BlockWriter struct {
	docIDs *bufio.Writer
	freqs  *bufio.Writer

	docIDsOffset uint64
	freqsOffset  uint64
}

// NewBlockWriter wraps the two raw posting-store files. The writers must
// already be positioned where the caller wants the next term's blocks to
// start; docIDsOffset/freqsOffset are the current byte offsets of each
// stream, used to populate TermMeta.
func NewBlockWriter(docIDs, freqs io.Writer, docIDsOffset, freqsOffset uint64) *BlockWriter {
	return &BlockWriter{
		docIDs:       bufio.NewWriter(docIDs),
		freqs:        bufio.NewWriter(freqs),
		docIDsOffset: docIDsOffset,
		freqsOffset:  freqsOffset,
	}
}

// Flush flushes buffered output to the underlying writers.
func (w *BlockWriter) Flush() error {
	if err := w.docIDs.Flush(); err != nil {
		return err
	}
	return w.freqs.Flush()
}

// WriteTerm writes the full inverted list for one term, split into blocks
// of at most BlockSize postings each, and returns the resulting TermMeta.
// postings must already be sorted by ascending docID. WriteTerm sums the
// frequency of any duplicate (term, docID) pairs it encounters rather than
// emitting them as separate postings.
func (w *BlockWriter) WriteTerm(term string, postings []Posting) (TermMeta, error) {
	if len(postings) == 0 {
		return TermMeta{}, fmt.Errorf("index: cannot write empty posting list for term %q", term)
	}
	postings = dedupeSumming(postings)

	meta := TermMeta{
		Term:         term,
		DocFreq:      uint32(len(postings)),
		DocIDsOffset: w.docIDsOffset,
		FreqsOffset:  w.freqsOffset,
	}

	var scratch []byte
	for start := 0; start < len(postings); start += BlockSize {
		end := start + BlockSize
		if end > len(postings) {
			end = len(postings)
		}
		block := postings[start:end]

		n, err := w.writeDocIDsBlock(block, scratch)
		if err != nil {
			return TermMeta{}, fmt.Errorf("index: writing docids block for %q: %w", term, err)
		}
		w.docIDsOffset += uint64(n)

		n, cf, err := w.writeFreqsBlock(block, scratch)
		if err != nil {
			return TermMeta{}, fmt.Errorf("index: writing freqs block for %q: %w", term, err)
		}
		w.freqsOffset += uint64(n)
		meta.CollFreq += cf
		meta.BlocksCount++
	}
	return meta, nil
}

func (w *BlockWriter) writeDocIDsBlock(block []Posting, scratch []byte) (int, error) {
	scratch = scratch[:0]
	scratch = varbyte.Encode(scratch, uint64(len(block)))
	var prev uint32
	for i, p := range block {
		var gap uint32
		if i == 0 {
			gap = p.DocID
		} else {
			gap = p.DocID - prev
		}
		scratch = varbyte.Encode(scratch, uint64(gap))
		prev = p.DocID
	}
	return w.docIDs.Write(scratch)
}

func (w *BlockWriter) writeFreqsBlock(block []Posting, scratch []byte) (int, uint64, error) {
	scratch = scratch[:0]
	scratch = varbyte.Encode(scratch, uint64(len(block)))
	var cf uint64
	for _, p := range block {
		scratch = varbyte.Encode(scratch, uint64(p.Freq))
		cf += uint64(p.Freq)
	}
	n, err := w.freqs.Write(scratch)
	return n, cf, err
}

// dedupeSumming merges consecutive postings sharing a docID by summing
// their frequencies, per the merger's documented duplicate-handling policy.
func dedupeSumming(postings []Posting) []Posting {
	out := postings[:0:0]
	for _, p := range postings {
		if n := len(out); n > 0 && out[n-1].DocID == p.DocID {
			out[n-1].Freq += p.Freq
			continue
		}
		out = append(out, p)
	}
	return out
}
