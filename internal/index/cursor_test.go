package index

import (
	"bytes"
	"testing"
)

// buildSingleTerm writes one term's posting list to in-memory docIDs/freqs
// buffers and returns the resulting meta plus the buffers as ReaderAt.
func buildSingleTerm(t *testing.T, postings []Posting) (TermMeta, *bytes.Reader, *bytes.Reader) {
	t.Helper()
	var docIDsBuf, freqsBuf bytes.Buffer
	bw := NewBlockWriter(&docIDsBuf, &freqsBuf, 0, 0)
	meta, err := bw.WriteTerm("t", postings)
	if err != nil {
		t.Fatalf("WriteTerm: %v", err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return meta, bytes.NewReader(docIDsBuf.Bytes()), bytes.NewReader(freqsBuf.Bytes())
}

func TestBlockBoundaryResetsGapBase(t *testing.T) {
	postings := make([]Posting, 129)
	for i := range postings {
		postings[i] = Posting{DocID: uint32(i * 3), Freq: 1}
	}
	meta, docIDs, freqs := buildSingleTerm(t, postings)
	if meta.BlocksCount != 2 {
		t.Fatalf("BlocksCount = %d, want 2", meta.BlocksCount)
	}
	if meta.DocFreq != 129 {
		t.Fatalf("DocFreq = %d, want 129", meta.DocFreq)
	}

	c, err := OpenCursor(docIDs, freqs, meta)
	if err != nil {
		t.Fatalf("OpenCursor: %v", err)
	}
	for i, want := range postings {
		if !c.Valid() {
			t.Fatalf("cursor exhausted early at posting %d", i)
		}
		if c.Doc() != want.DocID {
			t.Fatalf("posting %d: doc = %d, want %d", i, c.Doc(), want.DocID)
		}
		if i < len(postings)-1 {
			ok, err := c.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if !ok {
				t.Fatalf("Next returned false before last posting (i=%d)", i)
			}
		}
	}
	ok, err := c.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ok || c.Valid() {
		t.Fatal("cursor should be exhausted after the last posting")
	}
}

func TestCursorNextGEQ(t *testing.T) {
	docIDs := []uint32{3, 9, 17, 40, 128, 200}
	postings := make([]Posting, len(docIDs))
	for i, d := range docIDs {
		postings[i] = Posting{DocID: d, Freq: 1}
	}
	meta, docIDsR, freqsR := buildSingleTerm(t, postings)
	c, err := OpenCursor(docIDsR, freqsR, meta)
	if err != nil {
		t.Fatalf("OpenCursor: %v", err)
	}

	ok, err := c.NextGEQ(20)
	if err != nil {
		t.Fatalf("NextGEQ(20): %v", err)
	}
	if !ok || c.Doc() != 40 {
		t.Fatalf("NextGEQ(20): doc = %d valid=%v, want 40/true", c.Doc(), ok)
	}

	ok, err = c.NextGEQ(1000)
	if err != nil {
		t.Fatalf("NextGEQ(1000): %v", err)
	}
	if ok || c.Valid() {
		t.Fatalf("NextGEQ(1000) should report invalid, got valid=%v", c.Valid())
	}
}

func TestCursorEmptyPostingListRejected(t *testing.T) {
	var docIDsBuf, freqsBuf bytes.Buffer
	bw := NewBlockWriter(&docIDsBuf, &freqsBuf, 0, 0)
	if _, err := bw.WriteTerm("t", nil); err == nil {
		t.Fatal("WriteTerm with no postings should error")
	}
}

func TestCursorAcrossMultipleBlocksNextGEQSkipsWholeBlock(t *testing.T) {
	postings := make([]Posting, 260)
	for i := range postings {
		postings[i] = Posting{DocID: uint32(i), Freq: uint32(i % 5)}
	}
	meta, docIDsR, freqsR := buildSingleTerm(t, postings)
	c, err := OpenCursor(docIDsR, freqsR, meta)
	if err != nil {
		t.Fatalf("OpenCursor: %v", err)
	}
	ok, err := c.NextGEQ(259)
	if err != nil {
		t.Fatalf("NextGEQ: %v", err)
	}
	if !ok || c.Doc() != 259 {
		t.Fatalf("doc = %d valid=%v, want 259/true", c.Doc(), ok)
	}
}
