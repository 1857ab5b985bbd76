// Package tokenizer provides the text tokenization contract shared by the
// indexer and the querier: lowercase, split on every non-alphanumeric byte,
// no stop-word removal, no stemming, and digits and single-character
// tokens are preserved. The indexer and the query parser must use the same
// tokenizer, or query terms will silently fail to match index terms.
package tokenizer

// Token is a single normalized term and its zero-based position among the
// tokens produced for one document.
type Token struct {
	Term     string
	Position int
}

// Tokenize lowercases text and splits it into tokens on every byte that is
// not an ASCII letter or digit. No token is dropped for length, and no
// stop-word list or stemmer is applied.
func Tokenize(text string) []Token {
	tokens := make([]Token, 0, len(text)/4)
	pos := 0
	start := -1
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isAlnum(c) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, Token{Term: lower(text[start:i]), Position: pos})
			pos++
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Term: lower(text[start:]), Position: pos})
	}
	return tokens
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
