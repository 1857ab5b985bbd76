package index

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStatsWriteLoadRoundTrip(t *testing.T) {
	s := Stats{DocCount: 3, TotalTerms: 8, TotalPostings: 11, AvgDL: 10.0 / 3.0, TotalDocLength: 10}
	path := filepath.Join(t.TempDir(), "stats.txt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteText(f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := LoadStats(path)
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if got.DocCount != s.DocCount || got.TotalTerms != s.TotalTerms || got.TotalPostings != s.TotalPostings || got.TotalDocLength != s.TotalDocLength {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, s)
	}
	if diff := got.AvgDL - s.AvgDL; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("AvgDL = %v, want %v", got.AvgDL, s.AvgDL)
	}
}

func TestDocLengthsOutOfRangeIsZero(t *testing.T) {
	d := NewDocLengths(3)
	d.Set(1, 42)
	if d.Len(1) != 42 {
		t.Fatalf("Len(1) = %d, want 42", d.Len(1))
	}
	if d.Len(99) != 0 {
		t.Fatalf("Len(99) = %d, want 0 for out-of-range docID", d.Len(99))
	}
}

func TestDocLengthsWriteLoadRoundTrip(t *testing.T) {
	d := NewDocLengths(0)
	d.Add(0, 4)
	d.Add(2, 7)
	path := filepath.Join(t.TempDir(), "doc_len.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteBinary(f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	loaded, err := LoadDocLengths(path)
	if err != nil {
		t.Fatalf("LoadDocLengths: %v", err)
	}
	if loaded.Len(0) != 4 || loaded.Len(1) != 0 || loaded.Len(2) != 7 {
		t.Fatalf("unexpected lengths: %v %v %v", loaded.Len(0), loaded.Len(1), loaded.Len(2))
	}
}
