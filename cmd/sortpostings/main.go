// Command sortpostings is a thin convenience wrapper around the external
// sort step between the indexer and the merger. Per the pipeline design,
// globally ordering postings is delegated to the operating system's sort
// utility rather than implemented here: this just shells out to `sort`
// with the discipline the merger expects (primary key: term, byte
// lexicographic under LC_ALL=C; secondary key: docID, numeric ascending).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nilquery/ixora/internal/indexer"
)

func main() {
	inDir := flag.String("in", "", "directory containing postings_part_*.tsv produced by the indexer")
	outPath := flag.String("out", "", "path to write the globally sorted postings stream")
	flag.Parse()

	if *inDir == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: sortpostings -in <dir> -out <path>")
		os.Exit(1)
	}

	if err := indexer.SortPartsExternal(*inDir, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
