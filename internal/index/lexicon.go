package index

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Lexicon maps terms to their posting-list metadata.
type Lexicon struct {
	terms map[string]TermMeta
}

// NewLexicon returns an empty lexicon, for incremental construction by the
// merger.
func NewLexicon() *Lexicon {
	return &Lexicon{terms: make(map[string]TermMeta)}
}

// Add registers meta under its term. It is an error to add the same term
// twice; the merger's streaming group-by-term pass never does this as long
// as its input is sorted by term.
func (l *Lexicon) Add(meta TermMeta) {
	l.terms[meta.Term] = meta
}

// Lookup returns the metadata for term and whether it was found.
func (l *Lexicon) Lookup(term string) (TermMeta, bool) {
	m, ok := l.terms[term]
	return m, ok
}

// Len returns the number of distinct terms in the lexicon.
func (l *Lexicon) Len() int {
	return len(l.terms)
}

// Terms returns every term in the lexicon, in no particular order.
func (l *Lexicon) Terms() []string {
	terms := make([]string, 0, len(l.terms))
	for t := range l.terms {
		terms = append(terms, t)
	}
	return terms
}

// WriteTSV writes the lexicon in the merger's on-disk format: a header
// comment line followed by one TAB-separated row per term:
// term\tdf\tcf\tdocids_offset\tfreqs_offset\tblocks_count\n
func (l *Lexicon) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("# term\tdf\tcf\tdocids_offset\tfreqs_offset\tblocks_count\n"); err != nil {
		return err
	}
	for _, m := range l.terms {
		_, err := fmt.Fprintf(bw, "%s\t%d\t%d\t%d\t%d\t%d\n",
			m.Term, m.DocFreq, m.CollFreq, m.DocIDsOffset, m.FreqsOffset, m.BlocksCount)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadLexicon reads a lexicon.tsv file written by WriteTSV (or by the
// original merger). Blank lines and lines starting with '#' are skipped.
// A row that fails to parse is logged as a warning and skipped rather than
// failing the whole load; lexicon.tsv is merge output, not user input, but
// a single truncated row must not take down every other term with it.
func LoadLexicon(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: opening lexicon %s: %w", path, err)
	}
	defer f.Close()

	l := NewLexicon()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			slog.Warn("index: skipping malformed lexicon line", "path", path, "line", line)
			continue
		}
		df, err1 := strconv.ParseUint(fields[1], 10, 32)
		cf, err2 := strconv.ParseUint(fields[2], 10, 64)
		docOff, err3 := strconv.ParseUint(fields[3], 10, 64)
		freqOff, err4 := strconv.ParseUint(fields[4], 10, 64)
		blocks, err5 := strconv.ParseUint(fields[5], 10, 32)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			slog.Warn("index: skipping malformed lexicon line", "path", path, "line", line)
			continue
		}
		l.Add(TermMeta{
			Term:         fields[0],
			DocFreq:      uint32(df),
			CollFreq:     cf,
			DocIDsOffset: docOff,
			FreqsOffset:  freqOff,
			BlocksCount:  uint32(blocks),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("index: reading lexicon %s: %w", path, err)
	}
	return l, nil
}
