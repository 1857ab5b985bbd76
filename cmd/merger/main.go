// Command merger reads a globally term-sorted postings stream (the output
// of the external sort step) and writes the block-compressed inverted
// index the querier serves: postings.docids.bin, postings.freqs.bin,
// lexicon.tsv, stats.txt, and doc_len.bin.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nilquery/ixora/internal/merger"
	"github.com/nilquery/ixora/pkg/config"
	"github.com/nilquery/ixora/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	sortedPath := flag.String("sorted", "", "path to the globally term-sorted postings stream")
	outDir := flag.String("out", "", "output directory for the merged index files (defaults to indexer.dataDir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("merger")

	if *sortedPath == "" {
		log.Error("missing required -sorted flag")
		os.Exit(1)
	}
	dir := *outDir
	if dir == "" {
		dir = cfg.Indexer.DataDir
	}

	f, err := os.Open(*sortedPath)
	if err != nil {
		log.Error("failed to open sorted postings", "path", *sortedPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	log.Info("merging sorted postings into block index", "sorted", *sortedPath, "out_dir", dir)
	start := time.Now()

	st, err := merger.Merge(f, dir)
	if err != nil {
		log.Error("merge failed", "error", err)
		os.Exit(1)
	}

	log.Info("merge complete",
		"terms", st.Terms,
		"postings", st.Postings,
		"docs", st.Docs,
		"elapsed", time.Since(start),
	)
}
