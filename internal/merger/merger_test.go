package merger

import (
	"strings"
	"testing"

	"github.com/nilquery/ixora/internal/index"
)

// tsvInput builds a sorted (term, docID, tf) stream as the external sort
// would deliver it: sorted by term, then by ascending docID.
func tsvInput(rows [][3]string) string {
	var sb strings.Builder
	for _, r := range rows {
		sb.WriteString(r[0])
		sb.WriteByte('\t')
		sb.WriteString(r[1])
		sb.WriteByte('\t')
		sb.WriteString(r[2])
		sb.WriteByte('\n')
	}
	return sb.String()
}

// corpus: doc 0 "the quick brown fox", doc 1 "the fox and the dog",
// doc 2 "a lazy dog"
func seedCorpusTSV() string {
	return tsvInput([][3]string{
		{"a", "2", "1"},
		{"and", "1", "1"},
		{"brown", "0", "1"},
		{"dog", "1", "1"},
		{"dog", "2", "1"},
		{"fox", "0", "1"},
		{"fox", "1", "1"},
		{"lazy", "2", "1"},
		{"quick", "0", "1"},
		{"the", "0", "1"},
		{"the", "1", "2"},
	})
}

func TestMergeSeedCorpus(t *testing.T) {
	dir := t.TempDir()
	st, err := Merge(strings.NewReader(seedCorpusTSV()), dir)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if st.Docs != 3 {
		t.Fatalf("Docs = %d, want 3", st.Docs)
	}

	lex, err := index.LoadLexicon(dir + "/" + index.LexiconFileName)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}

	cases := []struct {
		term string
		df   uint32
		cf   uint64
	}{
		{"the", 2, 3},
		{"fox", 2, 2},
		{"dog", 2, 2},
	}
	for _, c := range cases {
		meta, ok := lex.Lookup(c.term)
		if !ok {
			t.Fatalf("term %q not found in lexicon", c.term)
		}
		if meta.DocFreq != c.df {
			t.Errorf("term %q: df = %d, want %d", c.term, meta.DocFreq, c.df)
		}
		if meta.CollFreq != c.cf {
			t.Errorf("term %q: cf = %d, want %d", c.term, meta.CollFreq, c.cf)
		}
	}

	stats, err := index.LoadStats(dir + "/" + index.StatsFileName)
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if stats.DocCount != 3 {
		t.Errorf("DocCount = %d, want 3", stats.DocCount)
	}

	docLens, err := index.LoadDocLengths(dir + "/" + index.DocLenFileName)
	if err != nil {
		t.Fatalf("LoadDocLengths: %v", err)
	}
	wantLens := []uint32{4, 5, 3}
	for i, want := range wantLens {
		if got := docLens.Len(uint32(i)); got != want {
			t.Errorf("doc %d length = %d, want %d", i, got, want)
		}
	}
}

func TestMergeDuplicatePostingsSummed(t *testing.T) {
	dir := t.TempDir()
	input := tsvInput([][3]string{
		{"dup", "0", "2"},
		{"dup", "0", "3"},
		{"dup", "1", "1"},
	})
	_, err := Merge(strings.NewReader(input), dir)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	lex, err := index.LoadLexicon(dir + "/" + index.LexiconFileName)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	meta, ok := lex.Lookup("dup")
	if !ok {
		t.Fatal("term dup not found")
	}
	if meta.DocFreq != 2 {
		t.Errorf("DocFreq = %d, want 2 (duplicate docID 0 rows collapsed)", meta.DocFreq)
	}
	if meta.CollFreq != 6 {
		t.Errorf("CollFreq = %d, want 6 (2+3+1)", meta.CollFreq)
	}
}
