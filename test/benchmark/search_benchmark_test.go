package benchmark

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nilquery/ixora/internal/bm25"
	"github.com/nilquery/ixora/internal/indexer"
	"github.com/nilquery/ixora/internal/merger"
	"github.com/nilquery/ixora/internal/query"
	"github.com/nilquery/ixora/internal/querier"
)

// BenchmarkQueryParse measures query parsing latency for queries of varying
// complexity.
func BenchmarkQueryParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"simple", "distributed search"},
		{"boolean_and", "search analytics platform AND"},
		{"boolean_or", "indexing caching ranking OR"},
		{"long", "distributed search analytics platform indexing query processing ranking caching sharding"},
	}

	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				plan := query.Parse(q.query)
				_ = plan
			}
		})
	}
}

// buildBenchService builds a merged index over n synthetic documents and
// opens a querier.Service over it.
func buildBenchService(b *testing.B, n int) *querier.Service {
	b.Helper()
	dir := b.TempDir()
	docs := genDocs(n)
	if _, err := indexer.Build(iterDocs(docs), dir, indexer.DefaultPartSize); err != nil {
		b.Fatal(err)
	}
	sortedPath := filepath.Join(dir, "postings.sorted.tsv")
	if err := indexer.SortPartsExternal(dir, sortedPath); err != nil {
		b.Skipf("external sort unavailable: %v", err)
	}
	f, err := os.Open(sortedPath)
	if err != nil {
		b.Fatal(err)
	}
	defer f.Close()
	if _, err := merger.Merge(f, dir); err != nil {
		b.Fatal(err)
	}
	svc, err := querier.Open(dir)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { svc.Close() })
	return svc
}

// BenchmarkServiceSearchOR measures end-to-end OR search latency across
// corpora of increasing size.
func BenchmarkServiceSearchOR(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			svc := buildBenchService(b, n)
			params := bm25.DefaultParams()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				hits, err := svc.Search("distributed search OR", 10, params)
				if err != nil {
					b.Fatal(err)
				}
				_ = hits
			}
		})
	}
}

// BenchmarkServiceSearchAND measures end-to-end AND (intersection) search
// latency across corpora of increasing size.
func BenchmarkServiceSearchAND(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			svc := buildBenchService(b, n)
			params := bm25.DefaultParams()

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				hits, err := svc.Search("distributed search AND", 10, params)
				if err != nil {
					b.Fatal(err)
				}
				_ = hits
			}
		})
	}
}

// BenchmarkServiceSearchParallel measures concurrent query throughput over a
// 10 000 document index, exercising independent per-query cursors against
// the shared read-only postings files.
func BenchmarkServiceSearchParallel(b *testing.B) {
	svc := buildBenchService(b, 10000)
	params := bm25.DefaultParams()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			hits, err := svc.Search("distributed search OR", 10, params)
			if err != nil {
				b.Fatal(err)
			}
			_ = hits
		}
	})
}
