package varbyte

import "testing"

func TestEncodeExactBytes(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
	}
	for _, c := range cases {
		got := Encode(nil, c.v)
		if len(got) != len(c.want) {
			t.Fatalf("Encode(%d) = %v, want %v", c.v, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("Encode(%d) = %v, want %v", c.v, got, c.want)
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 2, 126, 127, 128, 129, 300, 16383, 16384, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range values {
		buf := Encode(nil, v)
		got, n := Decode(buf)
		if n != len(buf) {
			t.Fatalf("Decode consumed %d, want %d for v=%d", n, len(buf), v)
		}
		if got != v {
			t.Fatalf("Decode(Encode(%d)) = %d", v, got)
		}
		if Size(v) != len(buf) {
			t.Fatalf("Size(%d) = %d, want %d", v, Size(v), len(buf))
		}
	}
}

func TestDecodeIncomplete(t *testing.T) {
	buf := []byte{0x80, 0x80}
	_, n := Decode(buf)
	if n != 0 {
		t.Fatalf("Decode on truncated buffer consumed %d, want 0", n)
	}
}

func TestEncodeAppendsToExisting(t *testing.T) {
	dst := []byte{0xff}
	got := Encode(dst, 127)
	if len(got) != 2 || got[0] != 0xff || got[1] != 0x7f {
		t.Fatalf("Encode did not append correctly: %v", got)
	}
}

func TestMultipleSequential(t *testing.T) {
	var buf []byte
	values := []uint64{0, 127, 128, 300}
	for _, v := range values {
		buf = Encode(buf, v)
	}
	off := 0
	for _, want := range values {
		got, n := Decode(buf[off:])
		if n == 0 {
			t.Fatalf("unexpected truncation at offset %d", off)
		}
		if got != want {
			t.Fatalf("sequential decode got %d, want %d", got, want)
		}
		off += n
	}
	if off != len(buf) {
		t.Fatalf("decoded %d bytes, buffer has %d", off, len(buf))
	}
}
