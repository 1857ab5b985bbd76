package query

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nilquery/ixora/internal/bm25"
	"github.com/nilquery/ixora/internal/index"
	"github.com/nilquery/ixora/internal/merger"
)

// testIndex is a minimal query.Source built directly over merger output,
// used to exercise the evaluator end to end without the querier service.
type testIndex struct {
	lex     *index.Lexicon
	stats   index.Stats
	docLens *index.DocLengths
	docIDs  *os.File
	freqs   *os.File
}

func openTestIndex(t *testing.T, dir string) *testIndex {
	t.Helper()
	lex, err := index.LoadLexicon(filepath.Join(dir, index.LexiconFileName))
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	stats, err := index.LoadStats(filepath.Join(dir, index.StatsFileName))
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	docLens, err := index.LoadDocLengths(filepath.Join(dir, index.DocLenFileName))
	if err != nil {
		t.Fatalf("LoadDocLengths: %v", err)
	}
	docIDs, err := os.Open(filepath.Join(dir, index.DocIDsFileName))
	if err != nil {
		t.Fatalf("open docids: %v", err)
	}
	freqs, err := os.Open(filepath.Join(dir, index.FreqsFileName))
	if err != nil {
		t.Fatalf("open freqs: %v", err)
	}
	ti := &testIndex{lex: lex, stats: stats, docLens: docLens, docIDs: docIDs, freqs: freqs}
	t.Cleanup(func() {
		docIDs.Close()
		freqs.Close()
	})
	return ti
}

func (t *testIndex) Lookup(term string) (index.TermMeta, bool) { return t.lex.Lookup(term) }
func (t *testIndex) OpenCursor(meta index.TermMeta) (*index.Cursor, error) {
	return index.OpenCursor(t.docIDs, t.freqs, meta)
}
func (t *testIndex) DocLen(docID uint32) uint32 { return t.docLens.Len(docID) }
func (t *testIndex) DocCount() uint64           { return t.stats.DocCount }
func (t *testIndex) AvgDL() float64             { return t.stats.AvgDL }

func buildSeedIndex(t *testing.T) *testIndex {
	t.Helper()
	dir := t.TempDir()
	input := "a\t2\t1\nand\t1\t1\nbrown\t0\t1\ndog\t1\t1\ndog\t2\t1\nfox\t0\t1\nfox\t1\t1\nlazy\t2\t1\nquick\t0\t1\nthe\t0\t1\nthe\t1\t2\n"
	if _, err := merger.Merge(strings.NewReader(input), dir); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return openTestIndex(t, dir)
}

func docIDSet(results []Result) map[uint32]bool {
	m := make(map[uint32]bool)
	for _, r := range results {
		m[r.DocID] = true
	}
	return m
}

func TestS1ORFoxReturnsDocsZeroAndOne(t *testing.T) {
	src := buildSeedIndex(t)
	plan := Plan{Terms: []string{"fox"}, Mode: ModeOR}
	results, err := Run(src, plan, 10, bm25.DefaultParams())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := docIDSet(results)
	want := map[uint32]bool{0: true, 1: true}
	if len(got) != len(want) || !got[0] || !got[1] {
		t.Fatalf("got docIDs %v, want %v", got, want)
	}
}

func TestS2ANDFoxDogReturnsOnlyDocOne(t *testing.T) {
	src := buildSeedIndex(t)
	plan := Plan{Terms: []string{"fox", "dog"}, Mode: ModeAND}
	results, err := Run(src, plan, 10, bm25.DefaultParams())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 || results[0].DocID != 1 {
		t.Fatalf("got %+v, want exactly [{DocID:1}]", results)
	}
}

func TestS3ORFoxDogDocOneScoresHighest(t *testing.T) {
	src := buildSeedIndex(t)
	plan := Plan{Terms: []string{"fox", "dog"}, Mode: ModeOR}
	results, err := Run(src, plan, 10, bm25.DefaultParams())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := docIDSet(results)
	want := map[uint32]bool{0: true, 1: true, 2: true}
	if len(got) != len(want) || !got[0] || !got[1] || !got[2] {
		t.Fatalf("got docIDs %v, want %v", got, want)
	}
	if results[0].DocID != 1 {
		t.Fatalf("doc 1 (matches both terms) should score highest; got top result %+v", results[0])
	}
}

func TestQueryTermDedupeDoesNotInflateScore(t *testing.T) {
	src := buildSeedIndex(t)
	once := Plan{Terms: []string{"fox"}, Mode: ModeOR}
	// Built directly rather than via Parse, so this also exercises
	// dedup at the evaluator boundary, not just Parse's own dedup.
	twice := Plan{Terms: []string{"fox", "fox"}, Mode: ModeOR}
	rOnce, err := Run(src, once, 10, bm25.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	parsed := Parse("fox fox")
	if len(parsed.Terms) != 1 {
		t.Fatalf("Parse should dedupe repeated terms, got %v", parsed.Terms)
	}
	rTwice, err := Run(src, twice, 10, bm25.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if len(rOnce) != len(rTwice) {
		t.Fatalf("duplicate term changed result count: once=%d twice=%d", len(rOnce), len(rTwice))
	}
	for i := range rOnce {
		if rOnce[i].DocID != rTwice[i].DocID || rOnce[i].Score != rTwice[i].Score {
			t.Fatalf("duplicate term inflated/altered scoring at rank %d: once=%+v twice=%+v", i, rOnce[i], rTwice[i])
		}
	}
}

func TestUnknownTermSkippedNotError(t *testing.T) {
	src := buildSeedIndex(t)
	plan := Plan{Terms: []string{"zzzznotaterm"}, Mode: ModeOR}
	results, err := Run(src, plan, 10, bm25.DefaultParams())
	if err != nil {
		t.Fatalf("Run with unknown term should not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("got %v, want empty", results)
	}
}

func TestExcludeTermFiltersResults(t *testing.T) {
	src := buildSeedIndex(t)
	plan := Plan{Terms: []string{"dog"}, Mode: ModeOR, ExcludeTerms: []string{"lazy"}}
	results, err := Run(src, plan, 10, bm25.DefaultParams())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := docIDSet(results)
	if got[2] {
		t.Fatalf("doc 2 matches excluded term 'lazy' and should be filtered: %v", results)
	}
	if !got[1] {
		t.Fatalf("doc 1 should still match: %v", results)
	}
}

func TestParseANDORModeKeywords(t *testing.T) {
	p := Parse("fox AND dog")
	if p.Mode != ModeAND {
		t.Fatalf("Mode = %v, want ModeAND", p.Mode)
	}
	p = Parse("fox OR dog")
	if p.Mode != ModeOR {
		t.Fatalf("Mode = %v, want ModeOR", p.Mode)
	}
	p = Parse("fox NOT dog")
	if len(p.ExcludeTerms) != 1 || p.ExcludeTerms[0] != "dog" {
		t.Fatalf("ExcludeTerms = %v, want [dog]", p.ExcludeTerms)
	}
}
