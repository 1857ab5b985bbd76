package bm25

import "testing"

func approxEqual(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func TestIDFZeroGuards(t *testing.T) {
	if got := IDF(0, 5); got != 0 {
		t.Errorf("IDF(0, 5) = %v, want 0", got)
	}
	if got := IDF(100, 0); got != 0 {
		t.Errorf("IDF(100, 0) = %v, want 0", got)
	}
}

func TestIDFKnownValue(t *testing.T) {
	// N=3, df=2 -> log((3-2+0.5)/(2+0.5)+1) = log(1.5/2.5+1) = log(1.6)
	got := IDF(3, 2)
	want := 0.47000362924573558
	if !approxEqual(got, want, 1e-9) {
		t.Errorf("IDF(3,2) = %v, want %v", got, want)
	}
}

func TestScoreZeroGuards(t *testing.T) {
	p := DefaultParams()
	if got := Score(1.0, 0, 10, 5.0, p); got != 0 {
		t.Errorf("Score with tf=0 = %v, want 0", got)
	}
	if got := Score(1.0, 5, 0, 5.0, p); got != 0 {
		t.Errorf("Score with dl=0 = %v, want 0", got)
	}
	if got := Score(1.0, 5, 10, 0, p); got != 0 {
		t.Errorf("Score with avgdl=0 = %v, want 0", got)
	}
	if got := Score(0, 5, 10, 5.0, p); got != 0 {
		t.Errorf("Score with idf=0 = %v, want 0", got)
	}
}

func TestScoreDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.K1 != DefaultK1 || p.B != DefaultB {
		t.Fatalf("DefaultParams() = %+v, want k1=%v b=%v", p, DefaultK1, DefaultB)
	}
	idf := IDF(3, 2)
	got := Score(idf, 2, 4, 10.0/3.0, p)
	// numerator = 2*(1.9) = 3.8
	// denominator = 2 + 0.9*(1-0.4+0.4*4/(10/3)) = 2 + 0.9*(0.6+0.48) = 2 + 0.972 = 2.972
	want := idf * (3.8 / 2.972)
	if !approxEqual(got, want, 1e-9) {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestScoreHigherTFScoresHigher(t *testing.T) {
	p := DefaultParams()
	idf := IDF(10, 3)
	low := Score(idf, 1, 10, 10, p)
	high := Score(idf, 5, 10, 10, p)
	if high <= low {
		t.Errorf("higher tf should score higher: tf=1 -> %v, tf=5 -> %v", low, high)
	}
}
