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

// Stats holds the collection-wide statistics needed by BM25 scoring and by
// operational tooling.
type Stats struct {
	DocCount        uint64
	TotalTerms      uint64
	TotalPostings   uint64
	AvgDL           float64
	TotalDocLength  uint64
}

// WriteText writes stats.txt in the merger's key\tvalue format.
func (s Stats) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("# Index Statistics\n"); err != nil {
		return err
	}
	lines := []string{
		fmt.Sprintf("doc_count\t%d\n", s.DocCount),
		fmt.Sprintf("total_terms\t%d\n", s.TotalTerms),
		fmt.Sprintf("total_postings\t%d\n", s.TotalPostings),
		fmt.Sprintf("avgdl\t%g\n", s.AvgDL),
		fmt.Sprintf("total_doc_length\t%d\n", s.TotalDocLength),
	}
	for _, l := range lines {
		if _, err := bw.WriteString(l); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadStats reads stats.txt, skipping blank lines and '#' comments. A row
// that isn't a well-formed key\tvalue pair is logged as a warning and
// skipped rather than failing the load.
func LoadStats(path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("index: opening stats %s: %w", path, err)
	}
	defer f.Close()

	var s Stats
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			slog.Warn("index: skipping malformed stats line", "path", path, "line", line)
			continue
		}
		key, val := fields[0], fields[1]
		switch key {
		case "doc_count":
			s.DocCount, _ = strconv.ParseUint(val, 10, 64)
		case "total_terms":
			s.TotalTerms, _ = strconv.ParseUint(val, 10, 64)
		case "total_postings":
			s.TotalPostings, _ = strconv.ParseUint(val, 10, 64)
		case "avgdl":
			s.AvgDL, _ = strconv.ParseFloat(val, 64)
		case "total_doc_length":
			s.TotalDocLength, _ = strconv.ParseUint(val, 10, 64)
		}
	}
	if err := sc.Err(); err != nil {
		return Stats{}, fmt.Errorf("index: reading stats %s: %w", path, err)
	}
	return s, nil
}
