package tcp

import "strings"

// Flags is the 9-bit TCP control-flag field (RFC 9293 §3.1), NS through
// FIN packed into the low bits of the data-offset/reserved/flags word.
type Flags uint16

const (
	FlagFIN Flags = 1 << 0
	FlagSYN Flags = 1 << 1
	FlagRST Flags = 1 << 2
	FlagPSH Flags = 1 << 3
	FlagACK Flags = 1 << 4
	FlagURG Flags = 1 << 5
	FlagECE Flags = 1 << 6
	FlagCWR Flags = 1 << 7
	FlagNS  Flags = 1 << 8
)

// String renders the set flags in wire order, e.g. "ACK,SYN".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var b strings.Builder
	for _, fl := range [...]struct {
		bit  Flags
		name string
	}{
		{FlagNS, "NS"}, {FlagCWR, "CWR"}, {FlagECE, "ECE"}, {FlagURG, "URG"},
		{FlagACK, "ACK"}, {FlagPSH, "PSH"}, {FlagRST, "RST"}, {FlagSYN, "SYN"}, {FlagFIN, "FIN"},
	} {
		if f&fl.bit != 0 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(fl.name)
		}
	}
	return b.String()
}

// Has reports whether all bits of want are set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

// Segment is the decoded, FSM-facing view of one inbound or outbound TCP
// segment: header fields plus a reference to its payload. It carries no
// wire-format concerns; see frame.go/codec.go for those.
type Segment struct {
	SrcPort  uint16
	DstPort  uint16
	SEQ      Value
	ACK      Value
	Flags    Flags
	WND      Size
	MSS      uint16 // 0 if not present in options
	Payload  []byte
}

// DATALEN is the number of sequence numbers this segment consumes,
// including the virtual SYN/FIN octets (RFC 793 §3.3).
func (s *Segment) DATALEN() Size {
	n := Size(len(s.Payload))
	if s.Flags.Has(FlagSYN) {
		n++
	}
	if s.Flags.Has(FlagFIN) {
		n++
	}
	return n
}

// Last returns the sequence number of the last octet of the segment, or
// SEQ itself for a zero-length segment (used by the acceptability test).
func (s *Segment) Last() Value {
	dlen := s.DATALEN()
	if dlen == 0 {
		return s.SEQ
	}
	return s.SEQ.Add(dlen - 1)
}
