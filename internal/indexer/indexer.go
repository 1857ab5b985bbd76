// Package indexer implements Phase 1 of the indexing pipeline: it reads a
// raw document collection, tokenizes each document, and emits the flat
// (term, docID, tf) triples and document stores consumed by the external
// sort and the merger.
//
// This is the flat, non-aggregating variant: one row is emitted per
// distinct term per document directly to a postings part file, relying on
// the external sort plus the merger's group-by-term pass to do the
// aggregation across documents. An older in-memory-aggregating variant
// exists in the source this was built from; it is not implemented here, as
// its output is equivalent once passed through the external sort.
package indexer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/nilquery/ixora/internal/docstore"
	"github.com/nilquery/ixora/internal/tokenizer"
)

// DefaultPartSize is the default size threshold, in bytes, at which a new
// postings_part_*.tsv file is started.
const DefaultPartSize = 2 * 1024 * 1024 * 1024

// Stats summarizes one indexing run.
type Stats struct {
	Documents uint64
	Postings  uint64
	Parts     int
}

// Document is one raw (originalID, text) pair handed to Build, typically
// read from an MS MARCO-style `docID\tpassage` TSV collection.
type Document struct {
	OriginalID string
	Text       string
}

// BuildOptions controls optional Build behavior beyond the required
// outDir/partSize parameters.
type BuildOptions struct {
	// CompressContent zstd-compresses each doc_content.bin passage
	// independently, trading CPU at build and read time for a smaller
	// content store. Off by default for callers using Build directly.
	CompressContent bool
}

// Build tokenizes docs in order, assigning them sequential internal docIDs
// starting at 0, and writes doc_table.txt, doc_offset.bin, doc_content.bin,
// and one or more postings_part_*.tsv files into outDir. partSize bounds
// the size of each postings part file; DefaultPartSize is used if partSize
// is 0. Build never compresses doc_content.bin; use BuildWithOptions for
// that.
func Build(docs func(yield func(Document) bool), outDir string, partSize int64) (Stats, error) {
	return BuildWithOptions(docs, outDir, partSize, BuildOptions{})
}

// BuildWithOptions is Build with additional knobs; see BuildOptions.
func BuildWithOptions(docs func(yield func(Document) bool), outDir string, partSize int64, opts BuildOptions) (Stats, error) {
	if partSize <= 0 {
		partSize = DefaultPartSize
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("indexer: creating output dir: %w", err)
	}

	contentFile, err := os.Create(filepath.Join(outDir, "doc_content.bin"))
	if err != nil {
		return Stats{}, fmt.Errorf("indexer: creating doc content file: %w", err)
	}
	defer contentFile.Close()
	contentW, err := docstore.NewContentWriter(contentFile, opts.CompressContent)
	if err != nil {
		return Stats{}, fmt.Errorf("indexer: creating content writer: %w", err)
	}
	if opts.CompressContent {
		if err := docstore.WriteCompressedMarker(outDir); err != nil {
			return Stats{}, fmt.Errorf("indexer: writing compressed marker: %w", err)
		}
	}

	table := docstore.NewDocTable(0)
	offsets := docstore.NewOffsetTable(0)

	part := newPartWriter(outDir, partSize)
	defer part.Close()

	var st Stats
	var docID uint32
	var buildErr error

	docs(func(d Document) bool {
		rec, err := contentW.WritePassage(d.Text)
		if err != nil {
			buildErr = fmt.Errorf("indexer: writing doc content: %w", err)
			return false
		}
		offsets.Set(docID, rec)
		table.Set(docID, d.OriginalID)

		termFreq := make(map[string]uint32)
		for _, tok := range tokenizer.Tokenize(d.Text) {
			termFreq[tok.Term]++
		}
		terms := make([]string, 0, len(termFreq))
		for term := range termFreq {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			if err := part.WriteRow(term, docID, termFreq[term]); err != nil {
				buildErr = fmt.Errorf("indexer: writing posting row: %w", err)
				return false
			}
			st.Postings++
		}

		docID++
		st.Documents++
		return true
	})
	if buildErr != nil {
		return Stats{}, buildErr
	}

	if err := contentW.Flush(); err != nil {
		return Stats{}, fmt.Errorf("indexer: flushing doc content: %w", err)
	}

	// doc_table.txt, doc_offset.bin, and the postings parts are independent
	// outputs at this point; flush them concurrently.
	var g errgroup.Group
	g.Go(func() error {
		tableFile, err := os.Create(filepath.Join(outDir, "doc_table.txt"))
		if err != nil {
			return fmt.Errorf("indexer: creating doc table: %w", err)
		}
		defer tableFile.Close()
		if err := table.WriteText(bufio.NewWriter(tableFile)); err != nil {
			return fmt.Errorf("indexer: writing doc table: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		offsetFile, err := os.Create(filepath.Join(outDir, "doc_offset.bin"))
		if err != nil {
			return fmt.Errorf("indexer: creating doc offsets: %w", err)
		}
		defer offsetFile.Close()
		if err := offsets.WriteBinary(offsetFile); err != nil {
			return fmt.Errorf("indexer: writing doc offsets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := part.Close(); err != nil {
			return fmt.Errorf("indexer: closing postings parts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	st.Parts = part.partsWritten

	return st, nil
}

// partWriter splits postings output across postings_part_N.tsv files once
// the current part exceeds partSize bytes.
type partWriter struct {
	outDir       string
	partSize     int64
	partsWritten int

	cur      *os.File
	curW     *bufio.Writer
	curBytes int64
}

func newPartWriter(outDir string, partSize int64) *partWriter {
	return &partWriter{outDir: outDir, partSize: partSize}
}

func (p *partWriter) WriteRow(term string, docID uint32, tf uint32) error {
	if p.cur == nil || p.curBytes >= p.partSize {
		if err := p.rotate(); err != nil {
			return err
		}
	}
	n, err := fmt.Fprintf(p.curW, "%s\t%d\t%d\n", term, docID, tf)
	p.curBytes += int64(n)
	return err
}

func (p *partWriter) rotate() error {
	if p.cur != nil {
		if err := p.curW.Flush(); err != nil {
			return err
		}
		if err := p.cur.Close(); err != nil {
			return err
		}
	}
	name := filepath.Join(p.outDir, fmt.Sprintf("postings_part_%04d.tsv", p.partsWritten))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	p.cur = f
	p.curW = bufio.NewWriter(f)
	p.curBytes = 0
	p.partsWritten++
	return nil
}

func (p *partWriter) Close() error {
	if p.cur == nil {
		return nil
	}
	if err := p.curW.Flush(); err != nil {
		return err
	}
	err := p.cur.Close()
	p.cur = nil
	return err
}

// ReadMSMARCOTSV yields Documents parsed from an MS MARCO-style collection
// file: one `docID\tpassage` row per line.
func ReadMSMARCOTSV(r io.Reader) func(yield func(Document) bool) {
	return func(yield func(Document) bool) {
		sc := newTSVScanner(r)
		for sc.Scan() {
			id, text, ok := splitOnce(sc.Text(), '\t')
			if !ok {
				continue
			}
			if !yield(Document{OriginalID: id, Text: text}) {
				return
			}
		}
	}
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
