package tcp

import "testing"

func TestValueArithmeticWraps(t *testing.T) {
	var v Value = 0xfffffffe
	if got := v.Add(5); got != 3 {
		t.Fatalf("Add wraparound: got %d, want 3", got)
	}
	if got := Value(3).Sub(5); got != 0xfffffffe {
		t.Fatalf("Sub wraparound: got %#x, want 0xfffffffe", got)
	}
}

func TestSizeof(t *testing.T) {
	cases := []struct {
		a, b Value
		want Size
	}{
		{100, 105, 5},
		{0xfffffffe, 3, 5},
		{100, 100, 0},
	}
	for _, c := range cases {
		if got := Sizeof(c.a, c.b); got != c.want {
			t.Errorf("Sizeof(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestLessThan(t *testing.T) {
	if !Value(100).LessThan(101) {
		t.Error("100 should be less than 101")
	}
	if Value(100).LessThan(100) {
		t.Error("a value should never be LessThan itself")
	}
	if !Value(0xfffffffe).LessThan(3) {
		t.Error("LessThan must account for wraparound")
	}
	if Value(3).LessThan(0xfffffffe) {
		t.Error("3 should not be LessThan a value 5 before it mod 2^32")
	}
}

func TestInWindow(t *testing.T) {
	cases := []struct {
		v, base Value
		size    Size
		want    bool
	}{
		{100, 100, 10, true},
		{109, 100, 10, true},
		{110, 100, 10, false},
		{99, 100, 10, false},
		{100, 100, 0, true},
		{101, 100, 0, false},
	}
	for _, c := range cases {
		if got := c.v.InWindow(c.base, c.size); got != c.want {
			t.Errorf("%d.InWindow(%d, %d) = %v, want %v", c.v, c.base, c.size, got, c.want)
		}
	}

	// Wraparound case: base near the top of the space, window crossing zero.
	base := Value(0xfffffff0)
	if !Value(0x00000005).InWindow(base, 32) {
		t.Error("InWindow must handle a window crossing the 2^32 boundary")
	}
}

func TestSegmentDatalenAndLast(t *testing.T) {
	s := Segment{SEQ: 100, Flags: FlagSYN, Payload: nil}
	if got := s.DATALEN(); got != 1 {
		t.Errorf("SYN-only DATALEN = %d, want 1", got)
	}
	if got := s.Last(); got != 100 {
		t.Errorf("SYN-only Last = %d, want 100", got)
	}

	s = Segment{SEQ: 100, Flags: FlagACK, Payload: []byte("hello")}
	if got := s.DATALEN(); got != 5 {
		t.Errorf("payload DATALEN = %d, want 5", got)
	}
	if got := s.Last(); got != 104 {
		t.Errorf("payload Last = %d, want 104", got)
	}

	s = Segment{SEQ: 100, Flags: FlagACK}
	if got := s.DATALEN(); got != 0 {
		t.Errorf("bare ACK DATALEN = %d, want 0", got)
	}
	if got := s.Last(); got != 100 {
		t.Errorf("bare ACK Last = %d, want 100", got)
	}
}

func TestFlagsString(t *testing.T) {
	f := FlagSYN | FlagACK
	if got, want := f.String(), "ACK,SYN"; got != want {
		t.Errorf("Flags.String() = %q, want %q", got, want)
	}
	if got, want := Flags(0).String(), "none"; got != want {
		t.Errorf("Flags(0).String() = %q, want %q", got, want)
	}
}
