package docstore

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
)

func TestDocTableWriteLoadRoundTrip(t *testing.T) {
	tbl := NewDocTable(0)
	tbl.Set(0, "doc-alpha")
	tbl.Set(2, "doc-gamma")

	path := filepath.Join(t.TempDir(), "doc_table.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := tbl.WriteText(bufio.NewWriter(f)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	loaded, err := LoadDocTable(path)
	if err != nil {
		t.Fatalf("LoadDocTable: %v", err)
	}
	if loaded.OriginalID(0) != "doc-alpha" {
		t.Errorf("doc 0 = %q, want doc-alpha", loaded.OriginalID(0))
	}
	if loaded.OriginalID(1) != "" {
		t.Errorf("doc 1 = %q, want empty", loaded.OriginalID(1))
	}
	if loaded.OriginalID(2) != "doc-gamma" {
		t.Errorf("doc 2 = %q, want doc-gamma", loaded.OriginalID(2))
	}
}

func TestOffsetTableAndContentFile(t *testing.T) {
	dir := t.TempDir()
	contentPath := filepath.Join(dir, "doc_content.bin")
	passages := []string{"the quick brown fox\n", "a lazy dog sleeps\n"}

	offsets := NewOffsetTable(0)
	f, err := os.Create(contentPath)
	if err != nil {
		t.Fatal(err)
	}
	var cur uint64
	for i, p := range passages {
		if _, err := f.WriteString(p); err != nil {
			t.Fatal(err)
		}
		offsets.Set(uint32(i), OffsetRecord{Offset: cur, Length: uint32(len(p))})
		cur += uint64(len(p))
	}
	f.Close()

	offPath := filepath.Join(dir, "doc_offset.bin")
	of, err := os.Create(offPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := offsets.WriteBinary(of); err != nil {
		t.Fatal(err)
	}
	of.Close()

	loadedOffsets, err := LoadOffsetTable(offPath)
	if err != nil {
		t.Fatalf("LoadOffsetTable: %v", err)
	}
	cf, err := OpenContentFile(contentPath, loadedOffsets)
	if err != nil {
		t.Fatalf("OpenContentFile: %v", err)
	}
	defer cf.Close()

	for i, want := range passages {
		got, err := cf.Passage(uint32(i))
		if err != nil {
			t.Fatalf("Passage(%d): %v", i, err)
		}
		if got != want {
			t.Errorf("Passage(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestContentWriterCompressedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	contentPath := filepath.Join(dir, "doc_content.bin")
	passages := []string{"the quick brown fox", "a lazy dog sleeps"}

	f, err := os.Create(contentPath)
	if err != nil {
		t.Fatal(err)
	}
	cw, err := NewContentWriter(f, true)
	if err != nil {
		t.Fatalf("NewContentWriter: %v", err)
	}
	offsets := NewOffsetTable(0)
	for i, p := range passages {
		rec, err := cw.WritePassage(p)
		if err != nil {
			t.Fatalf("WritePassage: %v", err)
		}
		offsets.Set(uint32(i), rec)
	}
	if err := cw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	f.Close()
	if err := WriteCompressedMarker(dir); err != nil {
		t.Fatalf("WriteCompressedMarker: %v", err)
	}

	cf, err := OpenContentFile(contentPath, offsets)
	if err != nil {
		t.Fatalf("OpenContentFile: %v", err)
	}
	defer cf.Close()

	for i, want := range passages {
		got, err := cf.Passage(uint32(i))
		if err != nil {
			t.Fatalf("Passage(%d): %v", i, err)
		}
		if got != want {
			t.Errorf("Passage(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestSnippetFindsQueryTermContext(t *testing.T) {
	content := "Lorem ipsum dolor sit amet, the quick brown fox jumps over the lazy dog, consectetur adipiscing elit."
	s := Snippet(content, []string{"fox"})
	if s == "" {
		t.Fatal("expected non-empty snippet")
	}
	if !containsFold(s, "fox") {
		t.Errorf("snippet %q does not contain query term", s)
	}
}

func TestSnippetNoMatchFallsBackToTruncate(t *testing.T) {
	content := "no matching terms appear anywhere in this particular passage of text at all for this test."
	s := Snippet(content, []string{"zzzzz"})
	if s == "" {
		t.Fatal("expected non-empty fallback snippet")
	}
}

func TestSnippetEmptyContent(t *testing.T) {
	if got := Snippet("", []string{"fox"}); got != "" {
		t.Errorf("Snippet(\"\", ...) = %q, want empty", got)
	}
}

func containsFold(s, substr string) bool {
	return indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	ls := toLower(s)
	lsub := toLower(substr)
	for i := 0; i+len(lsub) <= len(ls); i++ {
		if ls[i:i+len(lsub)] == lsub {
			return i
		}
	}
	return -1
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
