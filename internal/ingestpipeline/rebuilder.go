// Package ingestpipeline periodically folds newly ingested documents into a
// fresh, merge-built index generation. The served index is an immutable
// artifact produced by the external-sort-and-merge pipeline (see
// internal/indexer and internal/merger); nothing ingests documents into it
// directly. Instead, documents land in PostgreSQL as PENDING, and this
// package's Rebuilder periodically re-runs the whole corpus through the
// indexer and merger to produce the next generation, then atomically
// repoints a "current" symlink at it.
//
// This mirrors the reconciliation shape of the teacher's Kafka-driven
// indexer consumer (internal/indexer/consumer) without its per-message
// online-indexing call, which the static-index architecture rules out: "no
// retry; the index is static" applies to queries, but it equally means a
// single document can never be indexed in isolation. Every generation is a
// full rebuild.
package ingestpipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nilquery/ixora/internal/analytics"
	"github.com/nilquery/ixora/internal/indexer"
	"github.com/nilquery/ixora/internal/merger"
	"github.com/nilquery/ixora/pkg/postgres"
	"github.com/nilquery/ixora/pkg/resilience"
)

// documentRow struct-scans one row of the documents table via sqlx.
type documentRow struct {
	ID    string `db:"id"`
	Title string `db:"title"`
	Body  string `db:"body"`
}

// Stats summarizes one completed rebuild.
type Stats struct {
	Generation   string
	IndexerStats indexer.Stats
	MergerStats  merger.Stats
	DocsMarked   int64
	Elapsed      time.Duration
}

// Rebuilder owns the periodic full-merge rebuild loop. Its workDir layout
// is:
//
//	workDir/generations/gen-<timestamp>/   one directory per completed build
//	workDir/current                        symlink to the newest generation
//
// cmd/searcher resolves workDir/current at startup, falling back to
// workDir itself for deployments that never run the rebuild loop and
// populate workDir directly via the one-shot cmd/indexer + cmd/merger
// pipeline.
type Rebuilder struct {
	db              *postgres.Client
	workDir         string
	partSize        int64
	compressContent bool
	collector       *analytics.Collector
	logger          *slog.Logger
}

// New creates a Rebuilder that stages generations under workDir and
// maintains a "current" symlink pointing at the most recently completed
// one. collector may be nil, in which case rebuild events are not tracked.
func New(db *postgres.Client, workDir string, partSize int64, compressContent bool, collector *analytics.Collector) *Rebuilder {
	return &Rebuilder{
		db:              db,
		workDir:         workDir,
		partSize:        partSize,
		compressContent: compressContent,
		collector:       collector,
		logger:          slog.Default().With("component", "ingestpipeline"),
	}
}

// CurrentPath returns the path the "current" symlink resolves to, or
// workDir itself if no generation has completed yet.
func (r *Rebuilder) CurrentPath() string {
	link := filepath.Join(r.workDir, "current")
	if target, err := os.Readlink(link); err == nil {
		return target
	}
	return r.workDir
}

// RunForever triggers Run on interval until ctx is canceled, logging each
// generation's outcome. It does not return an error; individual rebuild
// failures are logged and the loop continues on the next tick.
func (r *Rebuilder) RunForever(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := r.Run(ctx)
			if err != nil {
				r.logger.Error("rebuild failed", "error", err)
				continue
			}
			r.logger.Info("rebuild complete",
				"generation", stats.Generation,
				"documents", stats.IndexerStats.Documents,
				"terms", stats.MergerStats.Terms,
				"docs_marked_indexed", stats.DocsMarked,
				"elapsed", stats.Elapsed,
			)
			if r.collector != nil {
				r.collector.Track(analytics.RebuildEvent{
					Type:          analytics.EventRebuild,
					Generation:    stats.Generation,
					DocumentCount: stats.IndexerStats.Documents,
					TermCount:     stats.MergerStats.Terms,
					PostingCount:  stats.MergerStats.Postings,
					DocsMarked:    stats.DocsMarked,
					LatencyMs:     stats.Elapsed.Milliseconds(),
					Timestamp:     time.Now().UTC(),
				})
			}
		}
	}
}

// Run performs one full rebuild: pull every staged document from
// PostgreSQL, re-run the indexer and merger over the whole corpus, and
// atomically swap the served generation. Documents left in PENDING status
// are marked INDEXED only after the new generation is live.
func (r *Rebuilder) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	generation := fmt.Sprintf("gen-%d", start.UnixNano())
	genDir := filepath.Join(r.workDir, "generations", generation)
	if err := os.MkdirAll(genDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("ingestpipeline: creating generation dir: %w", err)
	}

	var rows *sqlx.Rows
	err := resilience.Retry(ctx, "ingestpipeline.query_documents", resilience.RetryConfig{}, func() error {
		var qErr error
		rows, qErr = r.db.DBX.QueryxContext(ctx,
			`SELECT id, title, body FROM documents WHERE status IN ('PENDING', 'INDEXED') ORDER BY id`)
		return qErr
	})
	if err != nil {
		return Stats{}, fmt.Errorf("ingestpipeline: querying documents: %w", err)
	}
	defer rows.Close()

	var scanErr error
	docs := func(yield func(indexer.Document) bool) {
		for rows.Next() {
			var row documentRow
			if err := rows.StructScan(&row); err != nil {
				scanErr = fmt.Errorf("ingestpipeline: scanning document row: %w", err)
				return
			}
			text := row.Title
			if row.Body != "" {
				if text != "" {
					text += " "
				}
				text += row.Body
			}
			if !yield(indexer.Document{OriginalID: row.ID, Text: text}) {
				return
			}
		}
	}

	indexStats, err := indexer.BuildWithOptions(docs, genDir, r.partSize,
		indexer.BuildOptions{CompressContent: r.compressContent})
	if err != nil {
		return Stats{}, fmt.Errorf("ingestpipeline: indexing corpus: %w", err)
	}
	if scanErr != nil {
		return Stats{}, scanErr
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("ingestpipeline: reading document rows: %w", err)
	}

	sortedPath := filepath.Join(genDir, "postings.sorted.tsv")
	if err := indexer.SortPartsExternal(genDir, sortedPath); err != nil {
		return Stats{}, fmt.Errorf("ingestpipeline: sorting postings: %w", err)
	}

	sorted, err := os.Open(sortedPath)
	if err != nil {
		return Stats{}, fmt.Errorf("ingestpipeline: opening sorted postings: %w", err)
	}
	mergeStats, err := merger.Merge(sorted, genDir)
	sorted.Close()
	if err != nil {
		return Stats{}, fmt.Errorf("ingestpipeline: merging postings: %w", err)
	}

	if err := r.swapCurrent(genDir); err != nil {
		return Stats{}, fmt.Errorf("ingestpipeline: swapping current generation: %w", err)
	}

	marked, err := r.markIndexed(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("ingestpipeline: marking documents indexed: %w", err)
	}

	return Stats{
		Generation:   generation,
		IndexerStats: indexStats,
		MergerStats:  mergeStats,
		DocsMarked:   marked,
		Elapsed:      time.Since(start),
	}, nil
}

// swapCurrent atomically repoints workDir/current at genDir by creating the
// new symlink under a temporary name and renaming it over the old one,
// matching the atomic-write-then-rename discipline used elsewhere in the
// pipeline for crash-safe artifact publication.
func (r *Rebuilder) swapCurrent(genDir string) error {
	link := filepath.Join(r.workDir, "current")
	tmpLink := link + ".tmp"
	os.Remove(tmpLink)
	if err := os.Symlink(genDir, tmpLink); err != nil {
		return fmt.Errorf("creating temporary symlink: %w", err)
	}
	if err := os.Rename(tmpLink, link); err != nil {
		return fmt.Errorf("renaming symlink into place: %w", err)
	}
	return nil
}

// markIndexed transitions every PENDING document to INDEXED now that the
// generation containing it is live.
func (r *Rebuilder) markIndexed(ctx context.Context) (int64, error) {
	var marked int64
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE documents SET status = 'INDEXED' WHERE status = 'PENDING'`)
		if err != nil {
			return err
		}
		marked, err = res.RowsAffected()
		return err
	})
	return marked, err
}
