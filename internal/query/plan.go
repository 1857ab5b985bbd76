// Package query implements the document-at-a-time query evaluator: given a
// bag of terms and a conjunctive/disjunctive mode, it drives one Cursor per
// term in lockstep and maintains a bounded top-K heap of BM25 scores.
package query

import (
	"strings"

	"github.com/nilquery/ixora/internal/tokenizer"
)

// Mode selects between disjunctive (OR) and conjunctive (AND) evaluation.
type Mode int

const (
	// ModeOR requires a document to contain at least one query term.
	ModeOR Mode = iota
	// ModeAND requires a document to contain every query term.
	ModeAND
)

// Plan is a parsed query: a deduplicated bag of terms, a mode, and an
// optional set of terms whose matching documents are excluded from the
// result set entirely (a feature the on-disk format and evaluator support
// beyond the minimal AND/OR contract).
type Plan struct {
	Terms        []string
	Mode         Mode
	ExcludeTerms []string
	Raw          string
}

// Parse tokenizes a raw query string into a Plan. Tokens are produced with
// the same tokenizer contract used at index time, so query terms match
// indexed terms exactly. Bare words are accumulated as match terms; the
// keywords AND/OR (case-insensitive) set the mode, and a keyword NOT
// excludes the single term that follows it. Duplicate terms are
// deduplicated here, at the parser/evaluator boundary, so a repeated term
// never opens two cursors or double-counts its score.
func Parse(raw string) Plan {
	plan := Plan{Mode: ModeAND, Raw: raw}
	if strings.TrimSpace(raw) == "" {
		return plan
	}

	seen := make(map[string]struct{})
	excludeSeen := make(map[string]struct{})
	excludeNext := false
	for _, word := range strings.Fields(raw) {
		switch strings.ToUpper(word) {
		case "AND":
			plan.Mode = ModeAND
			continue
		case "OR":
			plan.Mode = ModeOR
			continue
		case "NOT":
			excludeNext = true
			continue
		}
		tokens := tokenizer.Tokenize(word)
		if len(tokens) == 0 {
			continue
		}
		term := tokens[0].Term
		if excludeNext {
			if _, ok := excludeSeen[term]; !ok {
				excludeSeen[term] = struct{}{}
				plan.ExcludeTerms = append(plan.ExcludeTerms, term)
			}
			excludeNext = false
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		plan.Terms = append(plan.Terms, term)
	}
	return plan
}
