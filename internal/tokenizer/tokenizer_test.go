package tokenizer

import "testing"

func terms(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Term
	}
	return out
}

func TestTokenizeLowercasesAndSplits(t *testing.T) {
	got := terms(Tokenize("The Quick-Brown_Fox!"))
	want := []string{"the", "quick", "brown", "fox"}
	if !equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizeNoStopwordRemoval(t *testing.T) {
	got := terms(Tokenize("the fox and the dog"))
	want := []string{"the", "fox", "and", "the", "dog"}
	if !equal(got, want) {
		t.Fatalf("stopwords must be preserved: got %v, want %v", got, want)
	}
}

func TestTokenizeNoStemming(t *testing.T) {
	got := terms(Tokenize("running runs jumped"))
	want := []string{"running", "runs", "jumped"}
	if !equal(got, want) {
		t.Fatalf("stemming must not be applied: got %v, want %v", got, want)
	}
}

func TestTokenizePreservesDigitsAndSingleChars(t *testing.T) {
	got := terms(Tokenize("a 1 b2c 42"))
	want := []string{"a", "1", "b2c", "42"}
	if !equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTokenizePositions(t *testing.T) {
	toks := Tokenize("a b c")
	for i, tok := range toks {
		if tok.Position != i {
			t.Fatalf("token %d has Position %d, want %d", i, tok.Position, i)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Fatalf("Tokenize(\"\") = %v, want empty", got)
	}
	if got := Tokenize("   ---  "); len(got) != 0 {
		t.Fatalf("Tokenize of only separators = %v, want empty", got)
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
