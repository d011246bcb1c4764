package tcp

import "encoding/binary"

// OptionKind identifies a TCP option (RFC 9293 §3.1, IANA TCP option
// registry). This stack recognizes only the ones it needs to negotiate a
// segment size; every other kind is skipped but preserved on the wire.
type OptionKind uint8

const (
	OptionEnd       OptionKind = 0
	OptionNop       OptionKind = 1
	OptionMSS       OptionKind = 2
	OptionWindow    OptionKind = 3
	OptionSACKPerm  OptionKind = 4
	OptionSACK      OptionKind = 5
	OptionTimestamp OptionKind = 8
)

// ForEachOption walks the TLV-encoded option region of a TCP header,
// calling fn(kind, value) for each option found. Malformed trailing bytes
// (a kind/length pair that would run past buf) stop the walk without
// error; options.go only ever sees the slice already bounds-checked by
// Frame.ValidateSize.
func ForEachOption(buf []byte, fn func(kind OptionKind, value []byte)) {
	for i := 0; i < len(buf); {
		kind := OptionKind(buf[i])
		switch kind {
		case OptionEnd:
			return
		case OptionNop:
			i++
			continue
		}
		if i+1 >= len(buf) {
			return
		}
		length := int(buf[i+1])
		if length < 2 || i+length > len(buf) {
			return
		}
		fn(kind, buf[i+2:i+length])
		i += length
	}
}

// ParseMSS extracts the MSS option's 16-bit value from an option region,
// returning 0 if absent or malformed.
func ParseMSS(options []byte) uint16 {
	var mss uint16
	ForEachOption(options, func(kind OptionKind, value []byte) {
		if kind == OptionMSS && len(value) == 2 {
			mss = binary.BigEndian.Uint16(value)
		}
	})
	return mss
}

// PutMSS writes a kind=2, length=4 MSS option into buf, which must be at
// least 4 bytes, and returns the number of bytes written.
func PutMSS(buf []byte, mss uint16) int {
	buf[0] = byte(OptionMSS)
	buf[1] = 4
	binary.BigEndian.PutUint16(buf[2:4], mss)
	return 4
}
