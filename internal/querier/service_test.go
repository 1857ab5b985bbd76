package querier

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/nilquery/ixora/internal/bm25"
	"github.com/nilquery/ixora/internal/indexer"
	"github.com/nilquery/ixora/internal/merger"
)

func buildSeedService(t *testing.T) *Service {
	t.Helper()
	rawDir := t.TempDir()
	docs := []indexer.Document{
		{OriginalID: "doc-alpha", Text: "the quick brown fox"},
		{OriginalID: "doc-beta", Text: "the fox and the dog"},
		{OriginalID: "doc-gamma", Text: "a lazy dog"},
	}
	if _, err := indexer.Build(func(yield func(indexer.Document) bool) {
		for _, d := range docs {
			if !yield(d) {
				return
			}
		}
	}, rawDir, 0); err != nil {
		t.Fatalf("indexer.Build: %v", err)
	}

	parts, err := filepath.Glob(filepath.Join(rawDir, "postings_part_*.tsv"))
	if err != nil || len(parts) == 0 {
		t.Fatalf("no postings parts found: %v", err)
	}
	var sortedLines []string
	for _, p := range parts {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
			if line != "" {
				sortedLines = append(sortedLines, line)
			}
		}
	}
	sort.Strings(sortedLines)

	indexDir := t.TempDir()
	sortedPath := filepath.Join(indexDir, "sorted.tsv")
	if err := os.WriteFile(sortedPath, []byte(strings.Join(sortedLines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(sortedPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := merger.Merge(f, indexDir); err != nil {
		t.Fatalf("merger.Merge: %v", err)
	}
	f.Close()

	// Indexer output (doc table, offsets, content) also lands in indexDir
	// so the Service can open everything from one directory.
	for _, name := range []string{"doc_table.txt", "doc_offset.bin", "doc_content.bin"} {
		data, err := os.ReadFile(filepath.Join(rawDir, name))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(indexDir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	svc, err := Open(indexDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestServiceSearchORReturnsOriginalIDsAndSnippets(t *testing.T) {
	svc := buildSeedService(t)
	hits, err := svc.Search("fox OR", 10, bm25.DefaultParams())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2: %+v", len(hits), hits)
	}
	seen := map[string]bool{}
	for _, h := range hits {
		seen[h.OriginalID] = true
		if h.Snippet == "" {
			t.Errorf("hit %+v has empty snippet", h)
		}
	}
	if !seen["doc-alpha"] || !seen["doc-beta"] {
		t.Errorf("hits = %+v, want doc-alpha and doc-beta", hits)
	}
}

func TestServiceSearchANDReturnsOnlyIntersection(t *testing.T) {
	svc := buildSeedService(t)
	hits, err := svc.Search("fox dog AND", 10, bm25.DefaultParams())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1: %+v", len(hits), hits)
	}
	if hits[0].OriginalID != "doc-beta" {
		t.Errorf("hit = %+v, want doc-beta", hits[0])
	}
}

func TestServiceStatsReflectSeedCorpus(t *testing.T) {
	svc := buildSeedService(t)
	st := svc.Stats()
	if st.DocCount != 3 {
		t.Errorf("DocCount = %d, want 3", st.DocCount)
	}
}
