package index

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLexiconWriteLoadRoundTrip(t *testing.T) {
	lex := NewLexicon()
	lex.Add(TermMeta{Term: "fox", DocFreq: 2, CollFreq: 2, DocIDsOffset: 0, FreqsOffset: 0, BlocksCount: 1})
	lex.Add(TermMeta{Term: "dog", DocFreq: 2, CollFreq: 2, DocIDsOffset: 10, FreqsOffset: 6, BlocksCount: 1})

	var buf bytes.Buffer
	if err := lex.WriteTSV(&buf); err != nil {
		t.Fatalf("WriteTSV: %v", err)
	}

	path := filepath.Join(t.TempDir(), "lexicon.tsv")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", loaded.Len())
	}
	got, ok := loaded.Lookup("fox")
	if !ok {
		t.Fatal("fox not found")
	}
	want := TermMeta{Term: "fox", DocFreq: 2, CollFreq: 2, DocIDsOffset: 0, FreqsOffset: 0, BlocksCount: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lexicon entry mismatch (-want +got):\n%s", diff)
	}
}

func TestLexiconLookupMiss(t *testing.T) {
	lex := NewLexicon()
	if _, ok := lex.Lookup("absent"); ok {
		t.Fatal("expected lookup miss")
	}
}
