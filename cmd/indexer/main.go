// Command indexer runs Phase 1 of the indexing pipeline: it reads a raw
// document collection and emits doc_table.txt, doc_offset.bin,
// doc_content.bin, and one or more postings_part_*.tsv files. The
// resulting parts still need an external sort by term before
// cmd/merger can fold them into a servable index.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nilquery/ixora/internal/indexer"
	"github.com/nilquery/ixora/pkg/config"
	"github.com/nilquery/ixora/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	corpusPath := flag.String("corpus", "", "path to an MS MARCO-style docID\\tpassage TSV collection")
	outDir := flag.String("out", "", "output directory for doc_table.txt, doc_offset.bin, doc_content.bin, postings_part_*.tsv (defaults to indexer.dataDir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("indexer")

	if *corpusPath == "" {
		log.Error("missing required -corpus flag")
		os.Exit(1)
	}
	dir := *outDir
	if dir == "" {
		dir = cfg.Indexer.DataDir
	}

	f, err := os.Open(*corpusPath)
	if err != nil {
		log.Error("failed to open corpus", "path", *corpusPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	log.Info("indexing corpus", "corpus", *corpusPath, "out_dir", dir, "part_size_bytes", cfg.Indexer.PartSizeBytes)
	start := time.Now()

	st, err := indexer.BuildWithOptions(indexer.ReadMSMARCOTSV(f), dir, cfg.Indexer.PartSizeBytes,
		indexer.BuildOptions{CompressContent: cfg.Indexer.CompressContent})
	if err != nil {
		log.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	log.Info("indexing complete",
		"documents", st.Documents,
		"postings", st.Postings,
		"parts", st.Parts,
		"elapsed", time.Since(start),
	)
	slog.Info("next step: sort postings_part_*.tsv by term (see cmd/sortpostings), then run cmd/merger")
}
