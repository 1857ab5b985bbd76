// Package querier ties the block index, document store, and query
// evaluator together into a single service that opens a merged index
// directory once and answers repeated queries against it.
package querier

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nilquery/ixora/internal/bm25"
	"github.com/nilquery/ixora/internal/docstore"
	"github.com/nilquery/ixora/internal/index"
	"github.com/nilquery/ixora/internal/query"
)

// Service holds the open handles for one merged index directory plus its
// document store, and implements query.Source directly over them.
type Service struct {
	lexicon  *index.Lexicon
	stats    index.Stats
	docLens  *index.DocLengths
	docTable *docstore.DocTable
	content  *docstore.ContentFile

	docIDsFile *os.File
	freqsFile  *os.File
}

// Open loads the index and document store files produced by the merger
// and the Phase 1 indexer out of dir.
func Open(dir string) (*Service, error) {
	lex, err := index.LoadLexicon(filepath.Join(dir, index.LexiconFileName))
	if err != nil {
		return nil, fmt.Errorf("querier: loading lexicon: %w", err)
	}
	st, err := index.LoadStats(filepath.Join(dir, index.StatsFileName))
	if err != nil {
		return nil, fmt.Errorf("querier: loading stats: %w", err)
	}
	docLens, err := index.LoadDocLengths(filepath.Join(dir, index.DocLenFileName))
	if err != nil {
		return nil, fmt.Errorf("querier: loading doc lengths: %w", err)
	}

	docIDsFile, err := os.Open(filepath.Join(dir, index.DocIDsFileName))
	if err != nil {
		return nil, fmt.Errorf("querier: opening postings docids: %w", err)
	}
	freqsFile, err := os.Open(filepath.Join(dir, index.FreqsFileName))
	if err != nil {
		docIDsFile.Close()
		return nil, fmt.Errorf("querier: opening postings freqs: %w", err)
	}

	svc := &Service{
		lexicon:    lex,
		stats:      st,
		docLens:    docLens,
		docIDsFile: docIDsFile,
		freqsFile:  freqsFile,
	}

	docTablePath := filepath.Join(dir, "doc_table.txt")
	if _, err := os.Stat(docTablePath); err == nil {
		table, err := docstore.LoadDocTable(docTablePath)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("querier: loading doc table: %w", err)
		}
		svc.docTable = table
	}

	offsetPath := filepath.Join(dir, "doc_offset.bin")
	contentPath := filepath.Join(dir, "doc_content.bin")
	if _, err := os.Stat(offsetPath); err == nil {
		offsets, err := docstore.LoadOffsetTable(offsetPath)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("querier: loading doc offsets: %w", err)
		}
		cf, err := docstore.OpenContentFile(contentPath, offsets)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("querier: opening doc content: %w", err)
		}
		svc.content = cf
	}

	return svc, nil
}

// Close releases the open file handles.
func (s *Service) Close() error {
	var firstErr error
	if s.content != nil {
		if err := s.content.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.docIDsFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.freqsFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Lookup implements query.Source.
func (s *Service) Lookup(term string) (index.TermMeta, bool) {
	return s.lexicon.Lookup(term)
}

// OpenCursor implements query.Source. Each call opens an independent
// cursor over the shared read-only docIDs/freqs files: cursors never
// share a single handle's implicit seek position.
func (s *Service) OpenCursor(meta index.TermMeta) (*index.Cursor, error) {
	return index.OpenCursor(s.docIDsFile, s.freqsFile, meta)
}

// DocLen implements query.Source.
func (s *Service) DocLen(docID uint32) uint32 { return s.docLens.Len(docID) }

// DocCount implements query.Source.
func (s *Service) DocCount() uint64 { return s.stats.DocCount }

// AvgDL implements query.Source.
func (s *Service) AvgDL() float64 { return s.stats.AvgDL }

// Stats returns the loaded index statistics.
func (s *Service) Stats() index.Stats { return s.stats }

// Hit is one ranked, presentation-ready search result.
type Hit struct {
	DocID      uint32  `json:"doc_id"`
	OriginalID string  `json:"original_id,omitempty"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet,omitempty"`
}

// Search parses raw (AND/OR/NOT keywords plus bare terms, per
// query.Parse), evaluates it against the index, and decorates the top-k
// results with original document IDs and snippets when the document
// store is available.
func (s *Service) Search(raw string, k int, params bm25.Params) ([]Hit, error) {
	plan := query.Parse(raw)
	results, err := query.Run(s, plan, k, params)
	if err != nil {
		return nil, fmt.Errorf("querier: evaluating query: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hit := Hit{DocID: r.DocID, Score: r.Score}
		if s.docTable != nil {
			hit.OriginalID = s.docTable.OriginalID(r.DocID)
		}
		if s.content != nil {
			if passage, err := s.content.Passage(r.DocID); err == nil {
				hit.Snippet = docstore.Snippet(passage, plan.Terms)
			}
		}
		hits[i] = hit
	}
	return hits, nil
}
