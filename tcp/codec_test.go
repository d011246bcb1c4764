package tcp

import (
	"net/netip"
	"testing"
)

var (
	testLocal = netip.MustParseAddr("2001:db8::1")
	testPeer  = netip.MustParseAddr("2001:db8::2")
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	seg := &Segment{
		SrcPort: 12345,
		DstPort: 443,
		SEQ:     1000,
		ACK:     2000,
		Flags:   FlagACK | FlagPSH,
		WND:     4096,
		Payload: []byte("hello, world"),
	}
	buf := make([]byte, sizeHeaderTCP+len(seg.Payload))
	n, err := Encode(testLocal, testPeer, buf, seg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(testLocal, testPeer, buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.SrcPort != seg.SrcPort || got.DstPort != seg.DstPort {
		t.Errorf("ports: got %d/%d, want %d/%d", got.SrcPort, got.DstPort, seg.SrcPort, seg.DstPort)
	}
	if got.SEQ != seg.SEQ || got.ACK != seg.ACK {
		t.Errorf("seq/ack: got %d/%d, want %d/%d", got.SEQ, got.ACK, seg.SEQ, seg.ACK)
	}
	if got.Flags != seg.Flags {
		t.Errorf("flags: got %v, want %v", got.Flags, seg.Flags)
	}
	if got.WND != seg.WND {
		t.Errorf("wnd: got %d, want %d", got.WND, seg.WND)
	}
	if string(got.Payload) != string(seg.Payload) {
		t.Errorf("payload: got %q, want %q", got.Payload, seg.Payload)
	}
}

func TestEncodeDecodeMSSOption(t *testing.T) {
	seg := &Segment{SrcPort: 1, DstPort: 2, SEQ: 1, Flags: FlagSYN, MSS: 1460}
	buf := make([]byte, sizeHeaderTCP+4)
	n, err := Encode(testLocal, testPeer, buf, seg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(testLocal, testPeer, buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.MSS != 1460 {
		t.Errorf("MSS = %d, want 1460", got.MSS)
	}
}

func TestDecodeRejectsCorruptChecksum(t *testing.T) {
	seg := &Segment{SrcPort: 1, DstPort: 2, SEQ: 1, Flags: FlagACK, Payload: []byte("x")}
	buf := make([]byte, sizeHeaderTCP+1)
	n, err := Encode(testLocal, testPeer, buf, seg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	buf[n-1] ^= 0xff
	if _, err := Decode(testLocal, testPeer, buf[:n]); err == nil {
		t.Error("Decode should reject a corrupted payload")
	}
}

func TestDecodeRejectsWrongPeer(t *testing.T) {
	seg := &Segment{SrcPort: 1, DstPort: 2, SEQ: 1, Flags: FlagACK}
	buf := make([]byte, sizeHeaderTCP)
	n, err := Encode(testLocal, testPeer, buf, seg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	other := netip.MustParseAddr("2001:db8::3")
	if _, err := Decode(testLocal, other, buf[:n]); err == nil {
		t.Error("Decode should reject a segment checksummed against a different pseudo-header")
	}
}

func TestDecodeRejectsShortBuffer(t *testing.T) {
	if _, err := Decode(testLocal, testPeer, make([]byte, 10)); err == nil {
		t.Error("Decode should reject a buffer shorter than the fixed header")
	}
}

func TestEncodeRejectsShortBuffer(t *testing.T) {
	seg := &Segment{SrcPort: 1, DstPort: 2, SEQ: 1, Flags: FlagACK, Payload: []byte("too big for buf")}
	buf := make([]byte, sizeHeaderTCP)
	if _, err := Encode(testLocal, testPeer, buf, seg); err == nil {
		t.Error("Encode should reject a buffer too short for the payload")
	}
}

func TestParseMSSAbsentOrMalformed(t *testing.T) {
	if mss := ParseMSS(nil); mss != 0 {
		t.Errorf("ParseMSS(nil) = %d, want 0", mss)
	}
	if mss := ParseMSS([]byte{byte(OptionNop)}); mss != 0 {
		t.Errorf("ParseMSS(nop-only) = %d, want 0", mss)
	}
}

func TestPutMSSParseMSSRoundTrip(t *testing.T) {
	var buf [4]byte
	n := PutMSS(buf[:], 1460)
	if n != 4 {
		t.Fatalf("PutMSS returned %d, want 4", n)
	}
	if got := ParseMSS(buf[:n]); got != 1460 {
		t.Errorf("ParseMSS round trip = %d, want 1460", got)
	}
}
