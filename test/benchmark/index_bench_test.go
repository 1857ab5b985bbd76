// Package benchmark contains Go benchmarks for the indexing and query
// pipeline, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nilquery/ixora/internal/indexer"
	"github.com/nilquery/ixora/internal/merger"
)

// genDocs builds n synthetic documents cycling through a small vocabulary,
// matching the shape real corpora exercise the tokenizer and postings
// writer with.
func genDocs(n int) []indexer.Document {
	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}
	docs := make([]indexer.Document, n)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("document about %s and %s", terms[i%len(terms)], terms[(i+1)%len(terms)])
		body := fmt.Sprintf("this document covers %s %s %s in production systems",
			terms[i%len(terms)], terms[(i+2)%len(terms)], terms[(i+3)%len(terms)])
		docs[i] = indexer.Document{
			OriginalID: fmt.Sprintf("doc-%d", i),
			Text:       title + " " + body,
		}
	}
	return docs
}

func iterDocs(docs []indexer.Document) func(func(indexer.Document) bool) {
	return func(yield func(indexer.Document) bool) {
		for _, d := range docs {
			if !yield(d) {
				return
			}
		}
	}
}

// BenchmarkBuild measures Phase 1 indexing throughput at various corpus
// sizes: tokenizing, term-frequency aggregation per document, and writing
// flat (term, docID, tf) rows to postings parts.
func BenchmarkBuild(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			docs := genDocs(n)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				dir := b.TempDir()
				if _, err := indexer.Build(iterDocs(docs), dir, indexer.DefaultPartSize); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkMerge measures merge throughput over a pre-sorted postings
// stream for a 10 000 document corpus.
func BenchmarkMerge(b *testing.B) {
	dir := b.TempDir()
	docs := genDocs(10000)
	if _, err := indexer.Build(iterDocs(docs), dir, indexer.DefaultPartSize); err != nil {
		b.Fatal(err)
	}
	sortedPath := filepath.Join(dir, "postings.sorted.tsv")
	if err := indexer.SortPartsExternal(dir, sortedPath); err != nil {
		b.Skipf("external sort unavailable: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		out := filepath.Join(b.TempDir(), "merged")
		if err := os.MkdirAll(out, 0o755); err != nil {
			b.Fatal(err)
		}
		f, err := os.Open(sortedPath)
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		if _, err := merger.Merge(f, out); err != nil {
			b.Fatal(err)
		}
		f.Close()
	}
}
