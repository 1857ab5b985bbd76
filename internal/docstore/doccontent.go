package docstore

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// compressedMarkerFile sits alongside doc_content.bin when its passages are
// individually zstd-compressed, so OpenContentFile knows whether to
// decompress a read before returning it.
const compressedMarkerFile = "doc_content.compressed"

// offsetRecordSize is the width of one doc_offset.bin record: an 8-byte
// little-endian offset followed by a 4-byte little-endian length.
const offsetRecordSize = 12

// OffsetRecord locates one document's passage within doc_content.bin.
type OffsetRecord struct {
	Offset uint64
	Length uint32
}

// OffsetTable is the in-memory form of doc_offset.bin.
type OffsetTable struct {
	records []OffsetRecord
}

// NewOffsetTable allocates a table sized for n documents.
func NewOffsetTable(n int) *OffsetTable {
	return &OffsetTable{records: make([]OffsetRecord, n)}
}

// Set records the offset/length for docID, growing the table if necessary.
func (t *OffsetTable) Set(docID uint32, rec OffsetRecord) {
	if int(docID) >= len(t.records) {
		grown := make([]OffsetRecord, docID+1)
		copy(grown, t.records)
		t.records = grown
	}
	t.records[docID] = rec
}

// Get returns the offset record for docID.
func (t *OffsetTable) Get(docID uint32) (OffsetRecord, bool) {
	if int(docID) >= len(t.records) {
		return OffsetRecord{}, false
	}
	return t.records[docID], true
}

// WriteBinary writes doc_offset.bin: one 12-byte (offset, length) record
// per docID, in docID order.
func (t *OffsetTable) WriteBinary(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var buf [offsetRecordSize]byte
	for _, r := range t.records {
		binary.LittleEndian.PutUint64(buf[0:8], r.Offset)
		binary.LittleEndian.PutUint32(buf[8:12], r.Length)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadOffsetTable reads doc_offset.bin.
func LoadOffsetTable(path string) (*OffsetTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("docstore: opening doc offsets %s: %w", path, err)
	}
	if len(data)%offsetRecordSize != 0 {
		return nil, fmt.Errorf("docstore: doc_offset.bin %s has truncated trailing record", path)
	}
	n := len(data) / offsetRecordSize
	records := make([]OffsetRecord, n)
	for i := 0; i < n; i++ {
		rec := data[i*offsetRecordSize:]
		records[i] = OffsetRecord{
			Offset: binary.LittleEndian.Uint64(rec[0:8]),
			Length: binary.LittleEndian.Uint32(rec[8:12]),
		}
	}
	return &OffsetTable{records: records}, nil
}

// ContentFile provides random-access reads of passages stored in
// doc_content.bin, addressed via an OffsetTable. If the directory
// containing path also holds compressedMarkerFile, each passage is
// zstd-decompressed after the raw read.
type ContentFile struct {
	offsets *OffsetTable
	file    *os.File
	dec     *zstd.Decoder
}

// OpenContentFile opens doc_content.bin for on-demand random reads.
func OpenContentFile(path string, offsets *OffsetTable) (*ContentFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("docstore: opening doc content %s: %w", path, err)
	}
	cf := &ContentFile{offsets: offsets, file: f}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), compressedMarkerFile)); err == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("docstore: creating zstd decoder: %w", err)
		}
		cf.dec = dec
	}
	return cf, nil
}

// Close closes the underlying file handle.
func (c *ContentFile) Close() error {
	if c.dec != nil {
		c.dec.Close()
	}
	return c.file.Close()
}

// Passage returns the passage text for docID, transparently decompressing
// it if the store was built with content compression enabled.
func (c *ContentFile) Passage(docID uint32) (string, error) {
	rec, ok := c.offsets.Get(docID)
	if !ok || rec.Length == 0 {
		return "", nil
	}
	buf := make([]byte, rec.Length)
	if _, err := c.file.ReadAt(buf, int64(rec.Offset)); err != nil {
		return "", fmt.Errorf("docstore: reading passage for doc %d: %w", docID, err)
	}
	if c.dec == nil {
		return string(buf), nil
	}
	plain, err := c.dec.DecodeAll(buf, nil)
	if err != nil {
		return "", fmt.Errorf("docstore: decompressing passage for doc %d: %w", docID, err)
	}
	return string(plain), nil
}

// ContentWriter appends passages to doc_content.bin, optionally
// zstd-compressing each one independently so OffsetRecord.Length still
// addresses exactly one passage's on-disk bytes.
type ContentWriter struct {
	w   *bufio.Writer
	enc *zstd.Encoder
	pos uint64
}

// NewContentWriter wraps w. When compress is true, WritePassage
// zstd-compresses each passage before writing it; the caller must also
// create compressedMarkerFile (via WriteCompressedMarker) so a later
// OpenContentFile knows to decompress.
func NewContentWriter(w io.Writer, compress bool) (*ContentWriter, error) {
	cw := &ContentWriter{w: bufio.NewWriter(w)}
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("docstore: creating zstd encoder: %w", err)
		}
		cw.enc = enc
	}
	return cw, nil
}

// WritePassage sanitizes and writes one passage, returning the
// OffsetRecord that locates it.
func (cw *ContentWriter) WritePassage(text string) (OffsetRecord, error) {
	clean := sanitizeForContentFile(text)
	var data []byte
	if cw.enc != nil {
		data = cw.enc.EncodeAll([]byte(clean), nil)
	} else {
		data = []byte(clean + "\n")
	}
	n, err := cw.w.Write(data)
	if err != nil {
		return OffsetRecord{}, err
	}
	rec := OffsetRecord{Offset: cw.pos, Length: uint32(n)}
	cw.pos += uint64(n)
	return rec, nil
}

// Flush flushes buffered writes and, if compression was enabled, closes
// the zstd encoder.
func (cw *ContentWriter) Flush() error {
	if err := cw.w.Flush(); err != nil {
		return err
	}
	if cw.enc != nil {
		return cw.enc.Close()
	}
	return nil
}

// WriteCompressedMarker creates the sentinel file that tells
// OpenContentFile the sibling doc_content.bin holds zstd-compressed
// passages.
func WriteCompressedMarker(outDir string) error {
	return os.WriteFile(filepath.Join(outDir, compressedMarkerFile), nil, 0o644)
}

// sanitizeForContentFile strips embedded newlines from a passage so an
// uncompressed doc_content.bin entry occupies exactly one line.
func sanitizeForContentFile(text string) string {
	out := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\n' || c == '\r' {
			c = ' '
		}
		out[i] = c
	}
	return string(out)
}
