// Command inspector is a one-shot debug tool that dumps and verifies a
// merged index directory: overall stats, a lexicon summary, and, for each
// term given on the command line, its full decoded posting list with a
// df/cf cross-check. Reimplemented from the original source's
// index_inspector; explicitly a thin operational tool, not part of the
// queryable core.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nilquery/ixora/internal/index"
)

const lexiconSummaryTopN = 20

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s <index_dir> [term1] [term2] ...\n\n", os.Args[0])
		fmt.Println("  inspector ./index           # show stats and lexicon summary")
		fmt.Println("  inspector ./index fox dog    # inspect specific terms' posting lists")
		os.Exit(1)
	}
	indexDir := os.Args[1]
	terms := os.Args[2:]

	fmt.Println("Index Inspector")
	fmt.Println("===============")

	showStats(indexDir)

	lex, err := index.LoadLexicon(filepath.Join(indexDir, index.LexiconFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading lexicon: %v\n", err)
		os.Exit(1)
	}

	if len(terms) == 0 {
		showLexiconSummary(lex, lexiconSummaryTopN)
		return
	}

	docIDsFile, err := os.Open(filepath.Join(indexDir, index.DocIDsFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s: %v\n", index.DocIDsFileName, err)
		os.Exit(1)
	}
	defer docIDsFile.Close()
	freqsFile, err := os.Open(filepath.Join(indexDir, index.FreqsFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening %s: %v\n", index.FreqsFileName, err)
		os.Exit(1)
	}
	defer freqsFile.Close()

	for _, term := range terms {
		inspectTerm(lex, docIDsFile, freqsFile, term)
	}
}

func showStats(indexDir string) {
	st, err := index.LoadStats(filepath.Join(indexDir, index.StatsFileName))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading stats: %v\n", err)
		return
	}
	fmt.Println("\n=== Index Statistics ===")
	fmt.Printf("doc_count\t%d\n", st.DocCount)
	fmt.Printf("total_terms\t%d\n", st.TotalTerms)
	fmt.Printf("total_postings\t%d\n", st.TotalPostings)
	fmt.Printf("avgdl\t%g\n", st.AvgDL)
	fmt.Printf("total_doc_length\t%d\n", st.TotalDocLength)
}

func showLexiconSummary(lex *index.Lexicon, topN int) {
	terms := lex.Terms()
	sort.Strings(terms)
	if len(terms) > topN {
		terms = terms[:topN]
	}

	fmt.Printf("\n=== Lexicon Summary (top %d terms) ===\n", topN)
	fmt.Printf("%-15s%8s%10s\n", "Term", "DF", "CF")
	fmt.Println("---------------------------------")
	for _, term := range terms {
		meta, _ := lex.Lookup(term)
		fmt.Printf("%-15s%8d%10d\n", meta.Term, meta.DocFreq, meta.CollFreq)
	}
}

func inspectTerm(lex *index.Lexicon, docIDsFile, freqsFile *os.File, term string) {
	meta, ok := lex.Lookup(term)
	if !ok {
		fmt.Printf("\nTerm %q not found in lexicon.\n", term)
		return
	}

	fmt.Printf("\n=== Term: %s ===\n", term)
	fmt.Printf("Document Frequency (df): %d\n", meta.DocFreq)
	fmt.Printf("Collection Frequency (cf): %d\n", meta.CollFreq)
	fmt.Printf("Blocks: %d\n", meta.BlocksCount)
	fmt.Printf("DocIDs offset: %d\n", meta.DocIDsOffset)
	fmt.Printf("Freqs offset: %d\n", meta.FreqsOffset)

	cur, err := index.OpenCursor(docIDsFile, freqsFile, meta)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening cursor for %q: %v\n", term, err)
		return
	}

	fmt.Println("\nPostings List:")
	fmt.Printf("%10s%10s\n", "DocID", "Freq")
	fmt.Println("--------------------")

	var totalPostings, totalFreq uint64
	for cur.Valid() {
		fmt.Printf("%10d%10d\n", cur.Doc(), cur.Freq())
		totalPostings++
		totalFreq += uint64(cur.Freq())
		if _, err := cur.Next(); err != nil {
			fmt.Fprintf(os.Stderr, "reading postings for %q: %v\n", term, err)
			return
		}
	}

	fmt.Println("--------------------")
	fmt.Printf("Total postings: %d (expected: %d)\n", totalPostings, meta.DocFreq)
	fmt.Printf("Total frequency: %d (expected: %d)\n", totalFreq, meta.CollFreq)
	if totalPostings != uint64(meta.DocFreq) || totalFreq != uint64(meta.CollFreq) {
		fmt.Println("WARNING: mismatch detected!")
	} else {
		fmt.Println("verification passed")
	}
}
