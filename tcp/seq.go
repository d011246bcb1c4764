package tcp

// Value is a TCP sequence number: an offset into the byte stream of one
// direction of a connection, taken modulo 2^32. Arithmetic on Value always
// wraps; comparisons account for that wraparound per RFC 793 §3.3.
type Value uint32

// Size is a span of sequence numbers, i.e. a byte count carried on the wire
// as SND.WND/RCV.WND or as a segment's data length.
type Size uint32

// Add returns v+n, wrapping modulo 2^32.
func (v Value) Add(n Size) Value {
	return v + Value(n)
}

// Sub returns v-n, wrapping modulo 2^32.
func (v Value) Sub(n Size) Value {
	return v - Value(n)
}

// Sizeof returns the distance from a to b going forward, i.e. the n such
// that a.Add(n) == b. It is always in [0, 2^32).
func Sizeof(a, b Value) Size {
	return Size(b - a)
}

// LessThan reports whether v precedes other in sequence-space order,
// i.e. 0 < other-v < 2^31. Equal values are never LessThan each other.
func (v Value) LessThan(other Value) bool {
	return int32(other-v) > 0
}

// LessThanEq reports whether v precedes or equals other.
func (v Value) LessThanEq(other Value) bool {
	return v == other || v.LessThan(other)
}

// InWindow reports whether v lies in [base, base+size), the half-open
// window RFC 793 §3.3 uses for segment acceptability and for RCV.NXT
// advancement. A zero-size window only ever contains base itself when v
// equals base, and per RFC 793's acceptability test that case is handled
// by the caller (SEG.LEN==0 segments), not by InWindow.
func (v Value) InWindow(base Value, size Size) bool {
	if size == 0 {
		return v == base
	}
	return Sizeof(base, v) < Size(size)
}

// String implements fmt.Stringer for debug logging.
func (v Value) String() string {
	return uitoa(uint32(v))
}

func (s Size) String() string {
	return uitoa(uint32(s))
}

func uitoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
