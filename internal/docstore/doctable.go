// Package docstore provides the document metadata and content stores:
// doc_table.txt (internal docID -> original docID), doc_offset.bin /
// doc_content.bin (random-access passage storage), and a snippet extractor
// used to present search results.
package docstore

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DocTable maps an internal docID to the original, caller-supplied docID.
type DocTable struct {
	originalIDs []string
}

// NewDocTable allocates a table sized for n documents.
func NewDocTable(n int) *DocTable {
	return &DocTable{originalIDs: make([]string, n)}
}

// Set records the original ID for an internal docID, growing the table if
// necessary.
func (t *DocTable) Set(docID uint32, originalID string) {
	if int(docID) >= len(t.originalIDs) {
		grown := make([]string, docID+1)
		copy(grown, t.originalIDs)
		t.originalIDs = grown
	}
	t.originalIDs[docID] = originalID
}

// OriginalID returns the original ID for docID, or "" if out of range.
func (t *DocTable) OriginalID(docID uint32) string {
	if int(docID) >= len(t.originalIDs) {
		return ""
	}
	return t.originalIDs[docID]
}

// Len returns the number of docID slots in the table.
func (t *DocTable) Len() int { return len(t.originalIDs) }

// WriteText writes doc_table.txt: one `internalDocID\toriginalDocID\n` row
// per document, in docID order.
func (t *DocTable) WriteText(w *bufio.Writer) error {
	for i, id := range t.originalIDs {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", i, id); err != nil {
			return err
		}
	}
	return w.Flush()
}

// LoadDocTable reads doc_table.txt. It scans once to find the maximum
// docID so the table can be allocated in one pass, then scans again to
// fill it, matching the reference loader's two-pass strategy.
func LoadDocTable(path string) (*DocTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("docstore: opening doc table %s: %w", path, err)
	}
	lines := strings.Split(string(raw), "\n")

	var maxDocID uint32
	hasAny := false
	for _, line := range lines {
		if line == "" {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			continue
		}
		id, err := strconv.ParseUint(line[:tab], 10, 32)
		if err != nil {
			continue
		}
		hasAny = true
		if uint32(id) > maxDocID {
			maxDocID = uint32(id)
		}
	}

	size := 0
	if hasAny {
		size = int(maxDocID) + 1
	}
	table := NewDocTable(size)
	for _, line := range lines {
		if line == "" {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			continue
		}
		id, err := strconv.ParseUint(line[:tab], 10, 32)
		if err != nil {
			continue
		}
		table.originalIDs[id] = line[tab+1:]
	}
	return table, nil
}
