package indexer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// SortPartsExternal concatenates every postings_part_*.tsv file under dir
// through the operating system's sort utility, writing the globally
// term-ordered stream to outPath. Per the pipeline design, ordering
// postings is delegated to the OS rather than implemented here.
func SortPartsExternal(dir, outPath string) error {
	parts, err := filepath.Glob(filepath.Join(dir, "postings_part_*.tsv"))
	if err != nil {
		return fmt.Errorf("indexer: globbing postings parts: %w", err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("indexer: no postings_part_*.tsv files found under %s", dir)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("indexer: creating sorted output: %w", err)
	}
	defer out.Close()

	args := append([]string{"-t", "\t", "-k1,1", "-k2,2n"}, parts...)
	cmd := exec.Command("sort", args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("indexer: external sort failed: %w", err)
	}
	return nil
}
