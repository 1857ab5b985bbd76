package query

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"

	"github.com/nilquery/ixora/internal/bm25"
	"github.com/nilquery/ixora/internal/index"
)

// Source supplies everything the evaluator needs to open cursors and score
// documents. querier.Service implements this over an on-disk index.
type Source interface {
	Lookup(term string) (index.TermMeta, bool)
	OpenCursor(meta index.TermMeta) (*index.Cursor, error)
	DocLen(docID uint32) uint32
	DocCount() uint64
	AvgDL() float64
}

// Run evaluates plan against src and returns its top-k results, sorted by
// descending BM25 score. Terms absent from the lexicon contribute nothing
// and are silently skipped — query.Run never returns an error for an
// unknown term; it only returns an error on a genuine I/O or corruption
// failure while reading posting blocks.
func Run(src Source, plan Plan, k int, params bm25.Params) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	cursors, idfs, err := openCursors(src, plan.Terms)
	if err != nil {
		return nil, err
	}
	if len(cursors) == 0 {
		return nil, nil
	}

	exclude, err := buildExclusionSet(src, plan.ExcludeTerms)
	if err != nil {
		return nil, err
	}

	collector := newTopKCollector(k)
	avgdl := src.AvgDL()

	switch plan.Mode {
	case ModeAND:
		err = evaluateAND(cursors, idfs, src, avgdl, params, exclude, collector)
	default:
		err = evaluateOR(cursors, idfs, src, avgdl, params, exclude, collector)
	}
	if err != nil {
		return nil, err
	}
	return collector.Drain(), nil
}

// openCursors opens one cursor per distinct term present in the lexicon. A
// term not found in the lexicon is a NotFound condition per the
// error-handling design: it contributes nothing and is dropped, not an
// error. Deduplication happens here, at the evaluator boundary, rather than
// relying solely on Parse: a Plan built directly (bypassing Parse) with a
// repeated term must not open two cursors for it and double-count its
// contribution to the score.
func openCursors(src Source, terms []string) ([]*index.Cursor, []float64, error) {
	cursors := make([]*index.Cursor, 0, len(terms))
	idfs := make([]float64, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true
		meta, ok := src.Lookup(term)
		if !ok {
			continue
		}
		c, err := src.OpenCursor(meta)
		if err != nil {
			return nil, nil, fmt.Errorf("query: opening cursor for %q: %w", term, err)
		}
		if !c.Valid() {
			continue
		}
		cursors = append(cursors, c)
		idfs = append(idfs, bm25.IDF(src.DocCount(), meta.DocFreq))
	}
	return cursors, idfs, nil
}

// buildExclusionSet materializes the docIDs matching any NOT term into a
// compact bitmap, used to filter candidates during evaluation.
func buildExclusionSet(src Source, terms []string) (*roaring.Bitmap, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	bm := roaring.New()
	for _, term := range terms {
		meta, ok := src.Lookup(term)
		if !ok {
			continue
		}
		c, err := src.OpenCursor(meta)
		if err != nil {
			return nil, fmt.Errorf("query: opening exclusion cursor for %q: %w", term, err)
		}
		for c.Valid() {
			bm.Add(c.Doc())
			if _, err := c.Next(); err != nil {
				return nil, fmt.Errorf("query: advancing exclusion cursor for %q: %w", term, err)
			}
		}
	}
	return bm, nil
}

// evaluateOR performs document-at-a-time union: at each step it finds the
// minimum docID still valid across all cursors, sums the BM25
// contributions of every cursor currently positioned on it, then advances
// exactly those cursors.
func evaluateOR(cursors []*index.Cursor, idfs []float64, src Source, avgdl float64, params bm25.Params, exclude *roaring.Bitmap, collector *topKCollector) error {
	for {
		minDoc := uint32(math.MaxUint32)
		any := false
		for _, c := range cursors {
			if c.Valid() && c.Doc() < minDoc {
				minDoc = c.Doc()
				any = true
			}
		}
		if !any {
			return nil
		}

		var score float64
		dl := src.DocLen(minDoc)
		for i, c := range cursors {
			if c.Valid() && c.Doc() == minDoc {
				score += bm25.Score(idfs[i], c.Freq(), dl, avgdl, params)
				if _, err := c.Next(); err != nil {
					return fmt.Errorf("query: advancing cursor: %w", err)
				}
			}
		}
		if exclude == nil || !exclude.Contains(minDoc) {
			collector.Offer(Result{DocID: minDoc, Score: score})
		}
	}
}

// evaluateAND performs document-at-a-time intersection: at each step it
// finds the maximum docID among all cursors (the pivot all lists must
// reach), advances lagging cursors to it with nextGEQ, and re-selects a
// fresh maximum if any cursor overshoots rather than forcing every cursor
// one step further past the pivot. This makes forward progress on every
// iteration — either a cursor's docID strictly increases, or a cursor is
// exhausted — and never rescopes the same pivot twice.
func evaluateAND(cursors []*index.Cursor, idfs []float64, src Source, avgdl float64, params bm25.Params, exclude *roaring.Bitmap, collector *topKCollector) error {
	for {
		maxDoc := uint32(0)
		allValid := true
		for _, c := range cursors {
			if !c.Valid() {
				allValid = false
				break
			}
			if c.Doc() > maxDoc {
				maxDoc = c.Doc()
			}
		}
		if !allValid {
			return nil
		}

		allMatch := true
		for _, c := range cursors {
			if c.Doc() < maxDoc {
				ok, err := c.NextGEQ(maxDoc)
				if err != nil {
					return fmt.Errorf("query: advancing cursor: %w", err)
				}
				if !ok {
					return nil
				}
			}
			if c.Doc() != maxDoc {
				allMatch = false
			}
		}
		if !allMatch {
			continue
		}

		var score float64
		dl := src.DocLen(maxDoc)
		for i, c := range cursors {
			score += bm25.Score(idfs[i], c.Freq(), dl, avgdl, params)
		}
		if exclude == nil || !exclude.Contains(maxDoc) {
			collector.Offer(Result{DocID: maxDoc, Score: score})
		}

		for _, c := range cursors {
			if _, err := c.Next(); err != nil {
				return fmt.Errorf("query: advancing cursor: %w", err)
			}
		}
	}
}
