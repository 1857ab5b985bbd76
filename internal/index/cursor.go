package index

import (
	"fmt"
	"io"

	"github.com/nilquery/ixora/internal/varbyte"
)

// byteReader is the minimal interface Cursor needs from its backing
// streams: positioned reads (io.ReaderAt), so the cursor tracks its own
// offset into each stream starting from the term's recorded offset.
type byteReader interface {
	io.ReaderAt
}

// Cursor iterates the posting list of a single term, decoding one block at
// a time. A Cursor owns no file handles of its own; it is handed readers
// positioned (logically, via ReaderAt) over the shared docIDs/freqs files.
// Every query term gets its own Cursor — Cursors must never be shared
// across concurrent queries or across terms within a query, since each
// tracks independent block/position state.
type Cursor struct {
	docIDs byteReader
	freqs  byteReader

	docIDsPos uint64
	freqsPos  uint64

	blocksRemaining uint32

	blockDocIDs []uint32
	blockFreqs  []uint32
	blockPos    int

	curDocID uint32
	curFreq  uint32
	valid    bool
}

// OpenCursor creates a cursor over meta's posting list, reading from the
// given docIDs/freqs files, and loads its first block. It returns a cursor
// with valid() == false if the term's posting list is empty.
func OpenCursor(docIDs, freqs byteReader, meta TermMeta) (*Cursor, error) {
	c := &Cursor{
		docIDs:          docIDs,
		freqs:           freqs,
		docIDsPos:       meta.DocIDsOffset,
		freqsPos:        meta.FreqsOffset,
		blocksRemaining: meta.BlocksCount,
	}
	if err := c.loadNextBlock(); err != nil {
		return nil, err
	}
	if c.blockPos < len(c.blockDocIDs) {
		c.curDocID = c.blockDocIDs[0]
		c.curFreq = c.blockFreqs[0]
		c.valid = true
	}
	return c, nil
}

// loadNextBlock decodes the next block of docIDs/freqs into the cursor's
// buffers, or marks the cursor exhausted if there are no blocks left.
func (c *Cursor) loadNextBlock() error {
	if c.blocksRemaining == 0 {
		c.valid = false
		return nil
	}

	blockLen, n, err := readUvarintAt(c.docIDs, c.docIDsPos)
	if err != nil {
		return fmt.Errorf("index: reading docids block length: %w", err)
	}
	c.docIDsPos += uint64(n)

	docIDs := make([]uint32, blockLen)
	var prev uint32
	for i := uint64(0); i < blockLen; i++ {
		gap, n, err := readUvarintAt(c.docIDs, c.docIDsPos)
		if err != nil {
			return fmt.Errorf("index: reading docids gap: %w", err)
		}
		c.docIDsPos += uint64(n)
		var docID uint32
		if i == 0 {
			docID = uint32(gap)
		} else {
			docID = prev + uint32(gap)
		}
		docIDs[i] = docID
		prev = docID
	}

	freqBlockLen, n, err := readUvarintAt(c.freqs, c.freqsPos)
	if err != nil {
		return fmt.Errorf("index: reading freqs block length: %w", err)
	}
	c.freqsPos += uint64(n)
	if freqBlockLen != blockLen {
		return fmt.Errorf("index: block length mismatch: docids=%d freqs=%d", blockLen, freqBlockLen)
	}

	freqs := make([]uint32, freqBlockLen)
	for i := uint64(0); i < freqBlockLen; i++ {
		f, n, err := readUvarintAt(c.freqs, c.freqsPos)
		if err != nil {
			return fmt.Errorf("index: reading freq: %w", err)
		}
		c.freqsPos += uint64(n)
		freqs[i] = uint32(f)
	}

	c.blockDocIDs = docIDs
	c.blockFreqs = freqs
	c.blockPos = 0
	c.blocksRemaining--
	return nil
}

// Next advances the cursor to the next posting. It returns false once the
// posting list is exhausted.
func (c *Cursor) Next() (bool, error) {
	if !c.valid {
		return false, nil
	}
	c.blockPos++
	if c.blockPos < len(c.blockDocIDs) {
		c.curDocID = c.blockDocIDs[c.blockPos]
		c.curFreq = c.blockFreqs[c.blockPos]
		return true, nil
	}
	if err := c.loadNextBlock(); err != nil {
		return false, err
	}
	if c.blockPos < len(c.blockDocIDs) {
		c.curDocID = c.blockDocIDs[0]
		c.curFreq = c.blockFreqs[0]
		c.valid = true
		return true, nil
	}
	c.valid = false
	return false, nil
}

// NextGEQ advances the cursor to the first posting with docID >= target,
// returning false if the list is exhausted before reaching one. A block
// whose maximum docID is still below target is skipped in its entirety
// rather than stepping through it posting by posting.
func (c *Cursor) NextGEQ(target uint32) (bool, error) {
	for c.valid && c.curDocID < target {
		if len(c.blockDocIDs) > 0 && c.blockDocIDs[len(c.blockDocIDs)-1] < target {
			if err := c.loadNextBlock(); err != nil {
				return false, err
			}
			if !c.valid || len(c.blockDocIDs) == 0 {
				c.valid = false
				break
			}
			c.curDocID = c.blockDocIDs[0]
			c.curFreq = c.blockFreqs[0]
			continue
		}
		ok, err := c.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			break
		}
	}
	return c.valid && c.curDocID >= target, nil
}

// Doc returns the current docID. Valid only while Valid() is true.
func (c *Cursor) Doc() uint32 { return c.curDocID }

// Freq returns the term frequency of the current posting.
func (c *Cursor) Freq() uint32 { return c.curFreq }

// Valid reports whether the cursor is positioned on a posting.
func (c *Cursor) Valid() bool { return c.valid }

// readUvarintAt decodes one VarByte integer starting at offset off in r,
// returning the value and the number of bytes it occupied.
func readUvarintAt(r byteReader, off uint64) (uint64, int, error) {
	var buf [binaryMaxVarintLen]byte
	n, err := r.ReadAt(buf[:], int64(off))
	if err != nil && n == 0 {
		return 0, 0, err
	}
	v, consumed := varbyte.Decode(buf[:n])
	if consumed == 0 {
		return 0, 0, fmt.Errorf("index: truncated varbyte integer at offset %d", off)
	}
	return v, consumed, nil
}

// binaryMaxVarintLen bounds a single VarByte-encoded uint64 to 10 bytes
// (ceil(64/7)), matching the codec's chunking.
const binaryMaxVarintLen = 10
