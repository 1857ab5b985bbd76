// Package index implements the on-disk, block-compressed inverted index
// produced by the merger and consumed by the query evaluator: the lexicon,
// collection statistics, document-length table, and the block-level
// posting-list cursor used for document-at-a-time query evaluation.
package index

// BlockSize is the maximum number of postings stored per compressed block.
// DocID gaps are reset to an absolute value at the start of every block.
const BlockSize = 128

// File names written by the merger into an index directory and read back
// by the querier.
const (
	DocIDsFileName  = "postings.docids.bin"
	FreqsFileName   = "postings.freqs.bin"
	LexiconFileName = "lexicon.tsv"
	StatsFileName   = "stats.txt"
	DocLenFileName  = "doc_len.bin"
)
