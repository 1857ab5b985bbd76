package indexer

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nilquery/ixora/internal/docstore"
)

func seedDocs() []Document {
	return []Document{
		{OriginalID: "d0", Text: "the quick brown fox"},
		{OriginalID: "d1", Text: "the fox and the dog"},
		{OriginalID: "d2", Text: "a lazy dog"},
	}
}

func iterDocs(docs []Document) func(func(Document) bool) {
	return func(yield func(Document) bool) {
		for _, d := range docs {
			if !yield(d) {
				return
			}
		}
	}
}

func TestBuildWritesDocTableAndContent(t *testing.T) {
	dir := t.TempDir()
	st, err := Build(iterDocs(seedDocs()), dir, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if st.Documents != 3 {
		t.Errorf("Documents = %d, want 3", st.Documents)
	}
	// the:2, quick:1, brown:1, fox:2, and:1, dog:2, a:1, lazy:1 = 11 distinct (term,doc) pairs
	if st.Postings != 11 {
		t.Errorf("Postings = %d, want 11", st.Postings)
	}
	if st.Parts != 1 {
		t.Errorf("Parts = %d, want 1", st.Parts)
	}

	table, err := docstore.LoadDocTable(filepath.Join(dir, "doc_table.txt"))
	if err != nil {
		t.Fatalf("LoadDocTable: %v", err)
	}
	if table.OriginalID(0) != "d0" || table.OriginalID(1) != "d1" || table.OriginalID(2) != "d2" {
		t.Errorf("doc table mismatch: %+v", table)
	}

	offsets, err := docstore.LoadOffsetTable(filepath.Join(dir, "doc_offset.bin"))
	if err != nil {
		t.Fatalf("LoadOffsetTable: %v", err)
	}
	cf, err := docstore.OpenContentFile(filepath.Join(dir, "doc_content.bin"), offsets)
	if err != nil {
		t.Fatalf("OpenContentFile: %v", err)
	}
	defer cf.Close()

	passage, err := cf.Passage(1)
	if err != nil {
		t.Fatalf("Passage(1): %v", err)
	}
	if strings.TrimRight(passage, "\n") != "the fox and the dog" {
		t.Errorf("Passage(1) = %q, want %q", passage, "the fox and the dog")
	}
}

func TestBuildPostingsPartContainsExpectedRows(t *testing.T) {
	dir := t.TempDir()
	if _, err := Build(iterDocs(seedDocs()), dir, 0); err != nil {
		t.Fatalf("Build: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "postings_part_0000.tsv"))
	if err != nil {
		t.Fatalf("reading postings part: %v", err)
	}

	found := map[string]bool{}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		found[line] = true
	}
	for _, want := range []string{"fox\t0\t1", "fox\t1\t1", "dog\t1\t1", "dog\t2\t1", "the\t0\t1", "the\t1\t2"} {
		if !found[want] {
			t.Errorf("missing expected posting row %q in %v", want, found)
		}
	}
}

func TestBuildRotatesPartsOnSizeThreshold(t *testing.T) {
	dir := t.TempDir()
	docs := []Document{
		{OriginalID: "a", Text: "alpha beta gamma"},
		{OriginalID: "b", Text: "delta epsilon zeta"},
		{OriginalID: "c", Text: "eta theta iota"},
	}
	st, err := Build(iterDocs(docs), dir, 20)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if st.Parts < 2 {
		t.Errorf("Parts = %d, want >= 2 with a tiny part size threshold", st.Parts)
	}
}

func TestReadMSMARCOTSV(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("0\tthe quick brown fox\n1\ta lazy dog\n"))
	var got []Document
	ReadMSMARCOTSV(r)(func(d Document) bool {
		got = append(got, d)
		return true
	})
	if len(got) != 2 {
		t.Fatalf("got %d docs, want 2", len(got))
	}
	if got[0].OriginalID != "0" || got[0].Text != "the quick brown fox" {
		t.Errorf("doc 0 = %+v", got[0])
	}
	if got[1].OriginalID != "1" || got[1].Text != "a lazy dog" {
		t.Errorf("doc 1 = %+v", got[1])
	}
}

func TestReadMSMARCOTSVSkipsMalformedLines(t *testing.T) {
	r := strings.NewReader("no tab here\n0\tvalid passage\n")
	var got []Document
	ReadMSMARCOTSV(r)(func(d Document) bool {
		got = append(got, d)
		return true
	})
	if len(got) != 1 {
		t.Fatalf("got %d docs, want 1", len(got))
	}
	if got[0].OriginalID != "0" {
		t.Errorf("doc = %+v", got[0])
	}
}
