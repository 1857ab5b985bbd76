// Package merger implements Phase 2 of the indexing pipeline: it streams a
// term-sorted postings file produced by Phase 1 and the external sort, and
// writes the block-compressed inverted index consumed by the querier.
package merger

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nilquery/ixora/internal/index"
)

// Stats summarizes one merge run, returned alongside any error for logging.
type Stats struct {
	Terms    uint64
	Postings uint64
	Docs     uint64
}

// Merge reads sorted (term, docID, tf) rows from in and writes
// postings.docids.bin, postings.freqs.bin, lexicon.tsv, doc_len.bin, and
// stats.txt into outDir. Rows must be sorted by term then by ascending
// docID; this is the external sort's contract, not something Merge
// verifies beyond detecting out-of-order docIDs within a term.
func Merge(in io.Reader, outDir string) (Stats, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("merger: creating output dir: %w", err)
	}

	docIDsPath := filepath.Join(outDir, index.DocIDsFileName+".tmp")
	freqsPath := filepath.Join(outDir, index.FreqsFileName+".tmp")
	docIDsFile, err := os.Create(docIDsPath)
	if err != nil {
		return Stats{}, fmt.Errorf("merger: creating docids file: %w", err)
	}
	defer docIDsFile.Close()
	freqsFile, err := os.Create(freqsPath)
	if err != nil {
		return Stats{}, fmt.Errorf("merger: creating freqs file: %w", err)
	}
	defer freqsFile.Close()

	bw := index.NewBlockWriter(docIDsFile, freqsFile, 0, 0)
	lex := index.NewLexicon()
	docLens := index.NewDocLengths(0)

	var st Stats
	var currentTerm string
	var currentPostings []index.Posting

	flush := func() error {
		if len(currentPostings) == 0 {
			return nil
		}
		meta, err := bw.WriteTerm(currentTerm, currentPostings)
		if err != nil {
			return err
		}
		lex.Add(meta)
		st.Terms++
		st.Postings += uint64(meta.DocFreq)
		for _, p := range currentPostings {
			docLens.Add(p.DocID, p.Freq)
			if uint64(p.DocID)+1 > st.Docs {
				st.Docs = uint64(p.DocID) + 1
			}
		}
		currentPostings = currentPostings[:0]
		return nil
	}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		term, docID, tf, err := parsePostingLine(line)
		if err != nil {
			slog.Warn("merger: skipping malformed postings line", "error", err)
			continue
		}
		if term != currentTerm {
			if err := flush(); err != nil {
				return Stats{}, fmt.Errorf("merger: flushing term %q: %w", currentTerm, err)
			}
			currentTerm = term
		}
		if n := len(currentPostings); n > 0 && docID < currentPostings[n-1].DocID {
			return Stats{}, fmt.Errorf("merger: term %q: docID %d out of order after %d", term, docID, currentPostings[n-1].DocID)
		}
		currentPostings = append(currentPostings, index.Posting{DocID: docID, Freq: tf})
	}
	if err := sc.Err(); err != nil {
		return Stats{}, fmt.Errorf("merger: reading input: %w", err)
	}
	if err := flush(); err != nil {
		return Stats{}, fmt.Errorf("merger: flushing term %q: %w", currentTerm, err)
	}

	if err := bw.Flush(); err != nil {
		return Stats{}, fmt.Errorf("merger: flushing posting blocks: %w", err)
	}
	if err := docIDsFile.Sync(); err != nil {
		return Stats{}, fmt.Errorf("merger: syncing docids file: %w", err)
	}
	if err := freqsFile.Sync(); err != nil {
		return Stats{}, fmt.Errorf("merger: syncing freqs file: %w", err)
	}
	docIDsFile.Close()
	freqsFile.Close()
	if err := os.Rename(docIDsPath, filepath.Join(outDir, index.DocIDsFileName)); err != nil {
		return Stats{}, fmt.Errorf("merger: promoting docids file: %w", err)
	}
	if err := os.Rename(freqsPath, filepath.Join(outDir, index.FreqsFileName)); err != nil {
		return Stats{}, fmt.Errorf("merger: promoting freqs file: %w", err)
	}

	if err := writeAtomic(filepath.Join(outDir, index.LexiconFileName), lex.WriteTSV); err != nil {
		return Stats{}, fmt.Errorf("merger: writing lexicon: %w", err)
	}

	var totalDocLength uint64
	for i := 0; i < docLens.Count(); i++ {
		totalDocLength += uint64(docLens.Len(uint32(i)))
	}
	var avgdl float64
	if st.Docs > 0 {
		avgdl = float64(totalDocLength) / float64(st.Docs)
	}
	stats := index.Stats{
		DocCount:       st.Docs,
		TotalTerms:     st.Terms,
		TotalPostings:  st.Postings,
		AvgDL:          avgdl,
		TotalDocLength: totalDocLength,
	}
	if err := writeAtomic(filepath.Join(outDir, index.StatsFileName), stats.WriteText); err != nil {
		return Stats{}, fmt.Errorf("merger: writing stats: %w", err)
	}
	if err := writeAtomic(filepath.Join(outDir, index.DocLenFileName), docLens.WriteBinary); err != nil {
		return Stats{}, fmt.Errorf("merger: writing doc lengths: %w", err)
	}

	return st, nil
}

// writeAtomic writes content produced by fn to a temp file in path's
// directory, then renames it into place, so readers never observe a
// partially written index file.
func writeAtomic(path string, fn func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func parsePostingLine(line string) (term string, docID, tf uint32, err error) {
	tab1 := strings.IndexByte(line, '\t')
	if tab1 < 0 {
		return "", 0, 0, fmt.Errorf("merger: malformed postings line %q", line)
	}
	tab2 := strings.IndexByte(line[tab1+1:], '\t')
	if tab2 < 0 {
		return "", 0, 0, fmt.Errorf("merger: malformed postings line %q", line)
	}
	tab2 += tab1 + 1

	term = line[:tab1]
	docIDVal, e1 := strconv.ParseUint(line[tab1+1:tab2], 10, 32)
	tfVal, e2 := strconv.ParseUint(line[tab2+1:], 10, 32)
	if e1 != nil || e2 != nil {
		return "", 0, 0, fmt.Errorf("merger: malformed postings line %q", line)
	}
	return term, uint32(docIDVal), uint32(tfVal), nil
}
