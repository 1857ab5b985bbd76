package indexer

import (
	"bufio"
	"io"
)

// maxLineSize bounds a single line of the input collection TSV; MS MARCO passages are short
// but collections vary, so the scanner buffer is grown well past the
// bufio.Scanner default of 64KiB.
const maxLineSize = 8 * 1024 * 1024

func newTSVScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}
