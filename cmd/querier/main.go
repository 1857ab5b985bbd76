// Command querier runs a single query against a merged index directory
// from the command line and prints the ranked results as JSON, without
// standing up an HTTP server. Useful for scripting and for the seed-test
// scenarios in isolation.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/nilquery/ixora/internal/bm25"
	"github.com/nilquery/ixora/internal/querier"
)

func main() {
	indexDir := flag.String("index", "", "path to a merged index directory")
	q := flag.String("q", "", "query text, e.g. \"fox dog AND\" or \"fox OR\"")
	k := flag.Int("k", 10, "number of results to return")
	k1 := flag.Float64("k1", bm25.DefaultK1, "BM25 k1 parameter")
	b := flag.Float64("b", bm25.DefaultB, "BM25 b parameter")
	flag.Parse()

	if *indexDir == "" || *q == "" {
		fmt.Fprintln(os.Stderr, "usage: querier -index <dir> -q <query> [-k 10] [-k1 0.9] [-b 0.4]")
		os.Exit(1)
	}

	svc, err := querier.Open(*indexDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening index: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	hits, err := svc.Search(*q, *k, bm25.Params{K1: *k1, B: *b})
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(hits); err != nil {
		fmt.Fprintf(os.Stderr, "encoding results: %v\n", err)
		os.Exit(1)
	}
}
