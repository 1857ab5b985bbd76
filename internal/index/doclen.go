package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// DocLengths holds the per-document token count, used by BM25's length
// normalization term. docIDs with no indexable tokens are left at zero.
type DocLengths struct {
	lengths []uint32
}

// NewDocLengths allocates a table sized for n documents.
func NewDocLengths(n int) *DocLengths {
	return &DocLengths{lengths: make([]uint32, n)}
}

// Set records the length of docID, growing the table if necessary.
func (d *DocLengths) Set(docID uint32, length uint32) {
	if int(docID) >= len(d.lengths) {
		grown := make([]uint32, docID+1)
		copy(grown, d.lengths)
		d.lengths = grown
	}
	d.lengths[docID] = length
}

// Add increments the length of docID by delta, growing the table if
// necessary.
func (d *DocLengths) Add(docID uint32, delta uint32) {
	if int(docID) >= len(d.lengths) {
		grown := make([]uint32, docID+1)
		copy(grown, d.lengths)
		d.lengths = grown
	}
	d.lengths[docID] += delta
}

// Len returns the length of docID, or 0 if docID is out of range.
func (d *DocLengths) Len(docID uint32) uint32 {
	if int(docID) >= len(d.lengths) {
		return 0
	}
	return d.lengths[docID]
}

// Count returns the number of docID slots in the table.
func (d *DocLengths) Count() int {
	return len(d.lengths)
}

// WriteBinary writes doc_len.bin: a raw little-endian uint32 per docID, in
// docID order.
func (d *DocLengths) WriteBinary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var buf [4]byte
	for _, l := range d.lengths {
		binary.LittleEndian.PutUint32(buf[:], l)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadDocLengths reads doc_len.bin.
func LoadDocLengths(path string) (*DocLengths, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("index: opening doc lengths %s: %w", path, err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("index: doc_len.bin %s has truncated trailing record (%d bytes)", path, len(data))
	}
	n := len(data) / 4
	lengths := make([]uint32, n)
	for i := 0; i < n; i++ {
		lengths[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return &DocLengths{lengths: lengths}, nil
}
